// Package depgraph derives import edges between source files. The
// analysis core never computes dependency edges itself; callers run
// this collaborator first and hand the resulting identity lists to the
// pipeline through the SourceFile records.
package depgraph

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/source"
)

// Build scans every file's import and re-export specifiers and returns
// the dependency and dependent adjacency maps, keyed by file identity
// with deduplicated, sorted edge lists. Only relative specifiers that
// resolve to a file within the set become edges; external packages and
// unresolvable targets are skipped. A file that cannot be parsed simply
// contributes no edges — the pipeline reports broken files properly, so
// the graph stays best-effort.
func Build(files []source.File) (map[string][]string, map[string][]string, error) {
	inSet := make(map[string]bool, len(files))
	for _, f := range files {
		inSet[f.Path] = true
	}

	depSets := map[string]map[string]bool{}
	for i := range files {
		f := &files[i]
		l := lang.ForPath(f.Path)
		if l == nil {
			continue
		}
		src := f.Content
		if src == nil {
			b, err := os.ReadFile(filepath.FromSlash(f.Path))
			if err != nil {
				return nil, nil, fmt.Errorf("loading %s: %w", f.Path, err)
			}
			src = b
		}
		for _, spec := range specifiers(l, src) {
			target := resolve(f.Path, spec, inSet)
			if target == "" || target == f.Path {
				continue
			}
			if depSets[f.Path] == nil {
				depSets[f.Path] = map[string]bool{}
			}
			depSets[f.Path][target] = true
		}
	}

	deps := make(map[string][]string, len(depSets))
	dependents := map[string][]string{}
	for from, targets := range depSets {
		for to := range targets {
			deps[from] = append(deps[from], to)
			dependents[to] = append(dependents[to], from)
		}
	}
	for _, m := range []map[string][]string{deps, dependents} {
		for _, edges := range m {
			sort.Strings(edges)
		}
	}
	return deps, dependents, nil
}

// specifiers extracts the import and re-export target specifiers of one
// file, by file kind.
func specifiers(l *lang.Language, src []byte) []string {
	switch l.Kind {
	case lang.KindModule:
		return moduleSpecifiers(src)
	case lang.KindComponent:
		return componentSpecifiers(l, src)
	}
	return nil
}

func moduleSpecifiers(src []byte) []string {
	parser := lang.Languages["typescript"].NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil
	}
	defer tree.Close()

	var specs []string
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "import_statement", "export_statement":
			if s := n.ChildByFieldName("source"); s != nil {
				specs = append(specs, lang.StringContent(s, src))
			}
		}
	}
	return specs
}

func componentSpecifiers(l *lang.Language, src []byte) []string {
	parser := l.NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil
	}
	defer tree.Close()

	var specs []string
	for _, script := range scriptElements(tree.RootNode()) {
		for i := 0; i < int(script.NamedChildCount()); i++ {
			if ch := script.NamedChild(i); ch.Type() == "raw_text" {
				specs = append(specs, moduleSpecifiers([]byte(lang.NodeText(ch, src)))...)
			}
		}
	}
	return specs
}

func scriptElements(n *sitter.Node) []*sitter.Node {
	if n.Type() == "script_element" {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		out = append(out, scriptElements(n.Child(i))...)
	}
	return out
}

// resolve maps a relative specifier to a file identity within the set,
// probing the path as written, with each registered extension
// substituted, and as a directory index file.
func resolve(from, spec string, inSet map[string]bool) string {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return ""
	}
	base := path.Join(path.Dir(from), spec)
	if inSet[base] {
		return base
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, ext := range lang.Extensions() {
		if inSet[stem+ext] {
			return stem + ext
		}
	}
	for _, ext := range lang.Extensions() {
		if idx := path.Join(base, "index") + ext; inSet[idx] {
			return idx
		}
	}
	return ""
}
