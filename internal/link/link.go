// Package link derives the cross-module name indexes that need the
// complete module set: the also-exported-from index fed by star-export
// chains, and the duplicate-name index over independent declarations.
package link

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/model"
)

// Link builds the also-exported-from index. A module that star-exports
// or re-exports a sibling exposes the sibling's declarations without
// owning them; the index records, per re-exposed declaration name, the
// sorted paths of the modules that originate it, so a name seen at a
// re-exporting surface can be traced back to where it is declared. Names
// shadowed by the re-exporter's own declarations do not flow; one
// canonical origin re-exposed anywhere is not a conflict (see
// FindDuplicates for the conflicting case). Star targets are resolved
// relative to the exporting module's path; a relative target that
// resolves to no module yields a warning diagnostic, never an error.
func Link(modules []*model.Module, dc *diag.Context) []model.NameModules {
	l := &linker{byPath: make(map[string]*model.Module, len(modules)), dc: dc}
	for _, m := range modules {
		l.byPath[m.Path] = m
	}

	index := map[string]map[string]bool{}
	add := func(name, originPath string) {
		if index[name] == nil {
			index[name] = map[string]bool{}
		}
		index[name][originPath] = true
	}

	for _, m := range modules {
		shadow := map[string]bool{}
		for _, d := range m.Declarations {
			shadow[d.Name] = true
		}
		for name, origins := range l.starSurface(m, map[string]bool{m.Path: true}, true) {
			if shadow[name] {
				continue
			}
			for origin := range origins {
				add(name, origin)
			}
		}
		for _, r := range m.ReExports {
			if r.ExportedName == "*" {
				// A namespace re-export creates a new binding rather
				// than re-exposing a single declaration.
				continue
			}
			if target := l.resolve(m.Path, r.SourceModule); target != nil && target.Path != m.Path {
				add(r.LocalName, target.Path)
			}
		}
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.NameModules, 0, len(names))
	for _, name := range names {
		paths := make([]string, 0, len(index[name]))
		for p := range index[name] {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		out = append(out, model.NameModules{Name: name, Modules: paths})
	}
	return out
}

type linker struct {
	byPath map[string]*model.Module
	dc     *diag.Context
}

// surface maps an exported name to the paths of the modules whose
// declarations provide it. A name can carry several origins when two
// star targets declare it independently.
type surface map[string]map[string]bool

func (s surface) add(name, origin string) {
	if s[name] == nil {
		s[name] = map[string]bool{}
	}
	s[name][origin] = true
}

// starSurface maps every name a module exposes through its star exports
// to the originating module paths. The visited set breaks cycles; each
// top-level module gets a fresh traversal. Warnings for unresolvable
// targets are emitted only on the top-level pass so a broken leaf is
// reported once per exporter.
func (l *linker) starSurface(m *model.Module, visited map[string]bool, warn bool) surface {
	out := surface{}
	for _, spec := range m.StarExports {
		target := l.resolve(m.Path, spec)
		if target == nil {
			if warn && isRelative(spec) {
				l.dc.Warnf(diag.CodeStarTargetMissing, m.Path,
					"star export target %q does not resolve to a module", spec)
			}
			continue
		}
		if visited[target.Path] {
			continue
		}
		visited[target.Path] = true
		for name, origins := range l.exportSurface(target, visited) {
			for origin := range origins {
				out.add(name, origin)
			}
		}
	}
	return out
}

// exportSurface is every name a module exports mapped to its origins:
// local declarations originate in the module itself, named re-exports in
// their resolved source module, and star exports pass origins through
// unchanged. Declarations and named re-exports shadow star-flowed names,
// so an explicit binding replaces whatever a wildcard dragged in.
func (l *linker) exportSurface(m *model.Module, visited map[string]bool) surface {
	out := l.starSurface(m, visited, false)
	for _, r := range m.ReExports {
		if r.ExportedName == "*" {
			continue
		}
		if target := l.resolve(m.Path, r.SourceModule); target != nil {
			delete(out, r.LocalName)
			out.add(r.LocalName, target.Path)
		}
	}
	for _, d := range m.Declarations {
		delete(out, d.Name)
		out.add(d.Name, m.Path)
	}
	return out
}

// resolve maps a relative specifier to a module record. The specifier is
// joined against the exporting module's directory and probed as written,
// with each registered extension substituted, and as a directory index
// file. Non-relative specifiers name external packages and resolve to
// nothing.
func (l *linker) resolve(from, spec string) *model.Module {
	if !isRelative(spec) {
		return nil
	}
	base := path.Join(path.Dir(from), spec)
	if m := l.byPath[base]; m != nil {
		return m
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, ext := range lang.Extensions() {
		if m := l.byPath[stem+ext]; m != nil {
			return m
		}
	}
	for _, ext := range lang.Extensions() {
		if m := l.byPath[path.Join(base, "index")+ext]; m != nil {
			return m
		}
	}
	return nil
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// Occurrence locates one declaration of a name in the assembled library.
type Occurrence struct {
	Module      string
	Declaration model.Declaration
}

// FindDuplicates groups declarations by name across every module and
// returns the names declared in more than one place, each with all of
// its occurrences. Pure function over the assembled model; whether a
// duplicate is fatal is caller policy.
func FindDuplicates(lib *model.LibraryModel) map[string][]Occurrence {
	byName := map[string][]Occurrence{}
	for _, m := range lib.Modules {
		for _, d := range m.Declarations {
			byName[d.Name] = append(byName[d.Name], Occurrence{Module: m.Path, Declaration: d})
		}
	}
	for name, occ := range byName {
		if len(occ) < 2 {
			delete(byName, name)
		}
	}
	return byName
}

// DuplicateError reports declaration names appearing in more than one
// module, under the strict flat-namespace policy.
type DuplicateError struct {
	Duplicates map[string][]Occurrence
}

func (e *DuplicateError) Error() string {
	names := make([]string, 0, len(e.Duplicates))
	for name := range e.Duplicates {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("duplicate declaration names across modules:")
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %q declared in:", name)
		for _, o := range e.Duplicates[name] {
			fmt.Fprintf(&b, "\n    - %s:%d (%s)", o.Module, o.Declaration.SourceLine, o.Declaration.Kind)
		}
	}
	b.WriteString("\nrename one declaration or exclude its module")
	return b.String()
}

// FailOnDuplicates is the strict policy: any duplicate name fails the
// run with a *DuplicateError listing every occurrence.
func FailOnDuplicates(lib *model.LibraryModel) error {
	dups := FindDuplicates(lib)
	if len(dups) == 0 {
		return nil
	}
	return &DuplicateError{Duplicates: dups}
}

// NameIndex converts a duplicate grouping to the serialized index form:
// entries sorted by name, module paths sorted and deduplicated.
func NameIndex(dups map[string][]Occurrence) []model.NameModules {
	names := make([]string, 0, len(dups))
	for name := range dups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.NameModules, 0, len(names))
	for _, name := range names {
		seen := map[string]bool{}
		paths := make([]string, 0, len(dups[name]))
		for _, o := range dups[name] {
			if seen[o.Module] {
				continue
			}
			seen[o.Module] = true
			paths = append(paths, o.Module)
		}
		sort.Strings(paths)
		out = append(out, model.NameModules{Name: name, Modules: paths})
	}
	return out
}
