package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/libmap/internal/comment"
	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/model"
)

// extractComponent analyzes one component-definition file: the template
// is parsed with the HTML grammar, the instance script with the
// typescript grammar, and the result is exactly one declaration of kind
// component carrying the public property surface. Structural breakage is
// fatal; a broken component never yields partial metadata.
func extractComponent(e *Entry, rel string, defaultOptional bool, dc *diag.Context) (*model.Module, error) {
	parser := e.Lang.NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, e.Source)
	if err != nil {
		return nil, &ParseError{Path: rel, Msg: err.Error()}
	}
	defer tree.Close()
	root := tree.RootNode()

	var scripts, styles, comments []*sitter.Node
	collectNodes(root, map[string]*[]*sitter.Node{
		"script_element": &scripts,
		"style_element":  &styles,
		"comment":        &comments,
	})

	if len(scripts) == 0 && bytes.Contains(bytes.ToLower(e.Source), []byte("<script")) {
		return nil, &ParseError{Path: rel, Line: 1, Msg: "unterminated script element"}
	}
	for _, s := range scripts {
		if s.HasError() {
			return nil, &ParseError{Path: rel, Line: lineOf(findErrorNode(s)), Msg: "malformed script element"}
		}
	}

	// Interpolation expressions are plain text to the HTML grammar, so a
	// dangling opener is detected by scanning the template directly.
	if line := unterminatedBrace(e.Source, excludedSpans(scripts, styles, comments)); line > 0 {
		return nil, &ParseError{Path: rel, Line: line, Msg: "unterminated template expression"}
	}

	instance := pickInstanceScript(scripts, e.Source)

	var props []model.Prop
	moduleComment := ""
	for _, s := range scripts {
		raw := rawText(s)
		if raw == nil {
			continue
		}
		script := lang.NodeText(raw, e.Source)
		scriptTree, err := parseScript(script, int(raw.StartPoint().Row), rel)
		if err != nil {
			return nil, err
		}
		if s == instance {
			props, moduleComment = scriptSurface(scriptTree.RootNode(), []byte(script), rel, defaultOptional, dc)
		}
		scriptTree.Close()
	}

	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	return &model.Module{
		Path:    rel,
		Comment: moduleComment,
		Declarations: []model.Declaration{{
			Name:       name,
			Kind:       model.Component,
			SourceLine: 1,
			Props:      props,
		}},
	}, nil
}

// parseScript parses a script block with the typescript grammar. Errors
// carry file coordinates via the raw-text row offset. The caller owns
// the returned tree.
func parseScript(script string, rowOffset int, rel string) (*sitter.Tree, error) {
	parser := lang.Languages["typescript"].NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(script))
	if err != nil {
		return nil, &ParseError{Path: rel, Msg: err.Error()}
	}
	if root := tree.RootNode(); root.HasError() {
		line := rowOffset + lineOf(findErrorNode(root))
		tree.Close()
		return nil, &ParseError{Path: rel, Line: line, Msg: "script syntax error"}
	}
	return tree, nil
}

// scriptSurface walks the instance script and returns the public props
// (export let / export const bindings, in source order) and the module
// comment (the first block comment in the script).
func scriptSurface(root *sitter.Node, src []byte, rel string, defaultOptional bool, dc *diag.Context) ([]model.Prop, string) {
	moduleComment := ""
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "comment" {
			continue
		}
		if text := lang.NodeText(n, src); strings.HasPrefix(text, "/*") {
			moduleComment = comment.Clean(text)
			break
		}
	}

	var props []model.Prop
	seen := map[string]bool{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "export_statement" {
			continue
		}
		decl := n.ChildByFieldName("declaration")
		if decl == nil {
			continue
		}
		if decl.Type() != "lexical_declaration" && decl.Type() != "variable_declaration" {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			d := decl.NamedChild(j)
			if d.Type() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			p := model.Prop{Name: lang.NodeText(name, src)}
			if seen[p.Name] {
				dc.Warnf(diag.CodeRepeatedName, rel, "property %q repeated; keeping the first", p.Name)
				continue
			}
			seen[p.Name] = true
			if t := d.ChildByFieldName("type"); t != nil && t.NamedChildCount() > 0 {
				p.Type = lang.CollapseWhitespace(lang.NodeText(t.NamedChild(0), src))
			}
			if v := d.ChildByFieldName("value"); v != nil {
				p.Default = lang.CollapseWhitespace(lang.NodeText(v, src))
			}
			p.Optional = (p.Default != "" && defaultOptional) || allowsUndefined(p.Type)
			props = append(props, p)
		}
	}
	return props, moduleComment
}

// allowsUndefined reports whether a declared type text names undefined
// as a union member.
func allowsUndefined(typeText string) bool {
	for _, part := range strings.Split(typeText, "|") {
		if strings.TrimSpace(part) == "undefined" {
			return true
		}
	}
	return false
}

// pickInstanceScript returns the first script element that is not a
// module script, or nil.
func pickInstanceScript(scripts []*sitter.Node, src []byte) *sitter.Node {
	for _, s := range scripts {
		if !isModuleScript(s, src) {
			return s
		}
	}
	return nil
}

// isModuleScript recognizes both module-script spellings: the
// context="module" attribute and the bare module attribute.
func isModuleScript(el *sitter.Node, src []byte) bool {
	if v, ok := scriptAttr(el, src, "context"); ok && v == "module" {
		return true
	}
	_, bare := scriptAttr(el, src, "module")
	return bare
}

// scriptAttr returns the value of an attribute on the element's start
// tag and whether the attribute is present. A bare attribute is present
// with an empty value.
func scriptAttr(el *sitter.Node, src []byte, attr string) (string, bool) {
	for i := 0; i < int(el.NamedChildCount()); i++ {
		tag := el.NamedChild(i)
		if tag.Type() != "start_tag" {
			continue
		}
		for j := 0; j < int(tag.NamedChildCount()); j++ {
			a := tag.NamedChild(j)
			if a.Type() != "attribute" {
				continue
			}
			name, value := "", ""
			for k := 0; k < int(a.NamedChildCount()); k++ {
				ch := a.NamedChild(k)
				switch ch.Type() {
				case "attribute_name":
					name = lang.NodeText(ch, src)
				case "attribute_value":
					value = lang.NodeText(ch, src)
				case "quoted_attribute_value":
					value = strings.Trim(lang.NodeText(ch, src), `'"`)
				}
			}
			if name == attr {
				return value, true
			}
		}
	}
	return "", false
}

func rawText(el *sitter.Node) *sitter.Node {
	for i := 0; i < int(el.NamedChildCount()); i++ {
		if ch := el.NamedChild(i); ch.Type() == "raw_text" {
			return ch
		}
	}
	return nil
}

// collectNodes gathers every node of the requested types, depth first.
func collectNodes(n *sitter.Node, want map[string]*[]*sitter.Node) {
	if out, ok := want[n.Type()]; ok {
		*out = append(*out, n)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectNodes(n.Child(i), want)
	}
}

type span struct {
	start, end int
}

func excludedSpans(groups ...[]*sitter.Node) []span {
	var spans []span
	for _, g := range groups {
		for _, n := range g {
			spans = append(spans, span{int(n.StartByte()), int(n.EndByte())})
		}
	}
	return spans
}

// unterminatedBrace scans for an interpolation opener that never closes,
// skipping the excluded spans. It returns the 1-based line of the
// dangling opener, or 0.
func unterminatedBrace(src []byte, skip []span) int {
	depth, openLine, cur := 0, 0, 1
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			cur++
			continue
		}
		if inSpan(i, skip) {
			continue
		}
		switch src[i] {
		case '{':
			if depth == 0 {
				openLine = cur
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	if depth > 0 {
		return openLine
	}
	return 0
}

func inSpan(i int, spans []span) bool {
	for _, s := range spans {
		if i >= s.start && i < s.end {
			return true
		}
	}
	return false
}
