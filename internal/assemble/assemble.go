// Package assemble builds the terminal LibraryModel from the analyzed
// module set and renders the co-located output artifacts: the canonical
// serialized form and the typed accessor wrapper.
package assemble

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fuzdev/libmap/internal/link"
	"github.com/fuzdev/libmap/internal/model"
)

// Artifact file names, co-located in the output directory.
const (
	JSONName    = "library.json"
	WrapperName = "library.ts"
)

// Assemble merges the package identity with the analyzed modules. The
// module set is sorted lexicographically by path; declaration order
// within each module is source order and is never re-sorted. The
// duplicate index is derived here so every assembled model carries it.
func Assemble(meta model.PackageMeta, modules []*model.Module, also []model.NameModules) *model.LibraryModel {
	lib := &model.LibraryModel{
		Name:             meta.Name,
		Version:          meta.Version,
		Description:      meta.Description,
		Homepage:         meta.Homepage,
		Modules:          make([]model.Module, 0, len(modules)),
		AlsoExportedFrom: also,
	}
	for _, m := range modules {
		if m == nil {
			continue
		}
		lib.Modules = append(lib.Modules, *m)
	}
	sort.Slice(lib.Modules, func(i, j int) bool {
		return lib.Modules[i].Path < lib.Modules[j].Path
	})
	lib.Duplicates = link.NameIndex(link.FindDuplicates(lib))
	return lib
}

// Serialize renders the canonical form: struct-driven key order, tab
// indentation, a single trailing newline, empty collection fields
// omitted. Serializing the same model twice is byte-identical.
func Serialize(lib *model.LibraryModel) ([]byte, error) {
	data, err := json.MarshalIndent(lib, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("serializing library model: %w", err)
	}
	return append(data, '\n'), nil
}

// Artifacts are the outputs of one generation run.
type Artifacts struct {
	LibraryJSON []byte
	WrapperTS   []byte
}

// Generate is the generation entry point: it stamps the package identity
// onto the model and renders both artifacts from it.
func Generate(meta model.PackageMeta, lib *model.LibraryModel) (Artifacts, error) {
	lib.Name = meta.Name
	lib.Version = meta.Version
	lib.Description = meta.Description
	lib.Homepage = meta.Homepage

	data, err := Serialize(lib)
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{LibraryJSON: data, WrapperTS: GenerateWrapper(data)}, nil
}
