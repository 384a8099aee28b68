package extract

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/model"
	"github.com/fuzdev/libmap/internal/source"
)

// Analyze routes one source file to its extractor by file kind and
// returns the uniform module record. A file identity missing from the
// program is a configuration mismatch, not an error: the result is
// absent, a warning diagnostic is recorded, and the run continues for
// the remaining files.
func Analyze(sf source.File, prog *Program, o *Options, dc *diag.Context, logger *log.Logger) (*model.Module, error) {
	entry := prog.Entry(sf.Path)
	if entry == nil {
		dc.Warnf(diag.CodeFileNotIndexed, sf.Path, "file not present in the loaded program")
		if logger != nil {
			logger.Warn("skipping file missing from program", "path", sf.Path)
		}
		return nil, nil
	}

	rel := o.Source.ExtractPath(sf.Path)

	var m *model.Module
	var err error
	switch entry.Lang.Kind {
	case lang.KindComponent:
		m, err = extractComponent(entry, rel, o.DefaultImpliesOptional, dc)
	case lang.KindModule:
		m, err = extractCode(entry, rel, dc)
	default:
		dc.Warnf(diag.CodeFileNotIndexed, sf.Path, "no extractor for file kind %q", entry.Lang.Kind)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.Dependencies = relativeIdentities(sf.Deps, o.Source)
	m.Dependents = relativeIdentities(sf.Dependents, o.Source)
	m.Normalize()
	return m, nil
}

// relativeIdentities keeps the identities that pass the source filter,
// rewrites them to root-relative paths and sorts them. External packages
// and out-of-scope files drop out silently.
func relativeIdentities(ids []string, o *source.Options) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if o.Matches(id) {
			out = append(out, o.ExtractPath(id))
		}
	}
	sort.Strings(out)
	return out
}
