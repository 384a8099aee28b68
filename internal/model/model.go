// Package model defines the core data structures of the library map.
package model

// DeclarationKind indicates the syntactic kind of an exported symbol.
type DeclarationKind string

const (
	Value     DeclarationKind = "value"
	Function  DeclarationKind = "function"
	Class     DeclarationKind = "class"
	TypeAlias DeclarationKind = "type_alias"
	Interface DeclarationKind = "interface"
	Enum      DeclarationKind = "enum"
	Component DeclarationKind = "component"
)

// Prop describes one public property of a component declaration.
type Prop struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Default  string `json:"default,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Declaration is one exported symbol of a module. Names are unique
// within a module; the same name declared in two modules is a duplicate
// and is surfaced by the duplicate index, never merged.
type Declaration struct {
	Name       string          `json:"name"`
	Kind       DeclarationKind `json:"kind"`
	SourceLine int             `json:"source_line"`
	Comment    string          `json:"comment,omitempty"`
	Signature  string          `json:"signature,omitempty"`
	Props      []Prop          `json:"props,omitempty"`
}

// ReExport records that a module forwards a symbol originally declared
// in another module, possibly under a different name.
type ReExport struct {
	LocalName    string `json:"local_name"`
	SourceModule string `json:"source_module"`
	ExportedName string `json:"exported_name"`
}

// Module is the analysis result for one source file. Declarations keep
// source order; dependency lists are root-relative and sorted.
type Module struct {
	Path         string        `json:"path"`
	Comment      string        `json:"module_comment,omitempty"`
	Declarations []Declaration `json:"declarations,omitempty"`
	Dependencies []string      `json:"dependencies,omitempty"`
	Dependents   []string      `json:"dependents,omitempty"`
	ReExports    []ReExport    `json:"re_exports,omitempty"`
	StarExports  []string      `json:"star_exports,omitempty"`
}

// Normalize replaces nil collection fields with empty slices so callers
// never branch on optionality. The canonical serialized form still omits
// empty collections; only the in-memory shape is normalized.
func (m *Module) Normalize() {
	if m.Declarations == nil {
		m.Declarations = []Declaration{}
	}
	if m.Dependencies == nil {
		m.Dependencies = []string{}
	}
	if m.Dependents == nil {
		m.Dependents = []string{}
	}
	if m.ReExports == nil {
		m.ReExports = []ReExport{}
	}
	if m.StarExports == nil {
		m.StarExports = []string{}
	}
}

// Declaration returns the declaration with the given name, or nil.
func (m *Module) Declaration(name string) *Declaration {
	for i := range m.Declarations {
		if m.Declarations[i].Name == name {
			return &m.Declarations[i]
		}
	}
	return nil
}

// NameModules associates a declaration name with a sorted list of
// module paths. Used for both the also-exported-from index and the
// duplicate-name index.
type NameModules struct {
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
}

// PackageMeta carries the identity fields merged into the library model.
type PackageMeta struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
}

// LibraryModel is the terminal artifact: package identity plus the
// sorted module set and the derived name indexes. Produced fresh each
// run; never mutated incrementally.
type LibraryModel struct {
	Name             string        `json:"name"`
	Version          string        `json:"version"`
	Description      string        `json:"description,omitempty"`
	Homepage         string        `json:"homepage,omitempty"`
	Modules          []Module      `json:"modules"`
	AlsoExportedFrom []NameModules `json:"also_exported_from,omitempty"`
	Duplicates       []NameModules `json:"duplicates,omitempty"`
}

// Module returns the module with the given root-relative path, or nil.
func (l *LibraryModel) Module(path string) *Module {
	for i := range l.Modules {
		if l.Modules[i].Path == path {
			return &l.Modules[i]
		}
	}
	return nil
}
