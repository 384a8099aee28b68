package assemble

import (
	"bytes"
	"strings"
)

// wrapperTypes mirrors the serialized model shape with precise union and
// literal types, which a raw data import cannot carry in every loader.
const wrapperTypes = `export type DeclarationKind =
	| 'value'
	| 'function'
	| 'class'
	| 'type_alias'
	| 'interface'
	| 'enum'
	| 'component';

export interface Prop {
	name: string;
	type?: string;
	default?: string;
	optional?: boolean;
}

export interface Declaration {
	name: string;
	kind: DeclarationKind;
	source_line: number;
	comment?: string;
	signature?: string;
	props?: Prop[];
}

export interface ReExport {
	local_name: string;
	source_module: string;
	exported_name: string;
}

export interface Module {
	path: string;
	module_comment?: string;
	declarations?: Declaration[];
	dependencies?: string[];
	dependents?: string[];
	re_exports?: ReExport[];
	star_exports?: string[];
}

export interface NameModules {
	name: string;
	modules: string[];
}

export interface LibraryModel {
	name: string;
	version: string;
	description?: string;
	homepage?: string;
	modules: Module[];
	also_exported_from?: NameModules[];
	duplicates?: NameModules[];
}
`

// GenerateWrapper renders the typed accessor module. The serialized form
// is embedded verbatim so the wrapper stands alone; consumers that can
// type data imports directly may skip it and load the JSON artifact.
func GenerateWrapper(serialized []byte) []byte {
	var b bytes.Buffer
	b.WriteString("// Generated by libmap. Do not edit.\n\n")
	b.WriteString(wrapperTypes)
	b.WriteString("\nexport const library: LibraryModel = ")
	b.WriteString(strings.TrimRight(string(serialized), "\n"))
	b.WriteString(";\n\nexport default library;\n")
	return b.Bytes()
}
