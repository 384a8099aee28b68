package extract

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/libmap/internal/comment"
	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/model"
)

// declKinds maps top-level declaration node types to declaration kinds.
var declKinds = map[string]model.DeclarationKind{
	"function_declaration":           model.Function,
	"generator_function_declaration": model.Function,
	"function_signature":             model.Function,
	"class_declaration":              model.Class,
	"abstract_class_declaration":     model.Class,
	"type_alias_declaration":         model.TypeAlias,
	"interface_declaration":          model.Interface,
	"enum_declaration":               model.Enum,
	"lexical_declaration":            model.Value,
	"variable_declaration":           model.Value,
}

// importBinding records where an imported local name came from.
type importBinding struct {
	source string
	name   string
}

// codeExtractor accumulates one module's exported surface while walking
// the top-level statements in source order. Non-exported declarations
// are kept as candidates so a later bare `export { name }` clause can
// publish them with their original line, signature and comment.
type codeExtractor struct {
	src []byte
	rel string
	dc  *diag.Context

	moduleComment string
	claimed       *sitter.Node

	decls      []model.Declaration
	reexports  []model.ReExport
	stars      []string
	starSeen   map[string]bool
	declared   map[string]bool
	reexported map[string]bool
	candidates map[string]model.Declaration
	imports    map[string]importBinding
}

// extractCode analyzes one typed source module. Syntax errors are fatal:
// partial metadata for a broken module is never produced.
func extractCode(e *Entry, rel string, dc *diag.Context) (*model.Module, error) {
	parser := e.Lang.NewParser()
	tree, err := parser.ParseCtx(context.Background(), nil, e.Source)
	if err != nil {
		return nil, &ParseError{Path: rel, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: rel, Line: lineOf(findErrorNode(root)), Msg: "syntax error"}
	}

	c := &codeExtractor{
		src:        e.Source,
		rel:        rel,
		dc:         dc,
		starSeen:   map[string]bool{},
		declared:   map[string]bool{},
		reexported: map[string]bool{},
		candidates: map[string]model.Declaration{},
		imports:    map[string]importBinding{},
	}
	c.claimModuleComment(root)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.statement(root.NamedChild(i))
	}

	return &model.Module{
		Path:         rel,
		Comment:      c.moduleComment,
		Declarations: c.decls,
		ReExports:    c.reexports,
		StarExports:  c.stars,
	}, nil
}

// claimModuleComment takes the file's first comment as the module
// comment when it is a block comment detached from the first statement
// by a blank line, followed by another comment, or alone in the file. A
// block that directly documents the first declaration stays with it.
func (c *codeExtractor) claimModuleComment(root *sitter.Node) {
	first := root.NamedChild(0)
	if first == nil || first.Type() != "comment" {
		return
	}
	text := lang.NodeText(first, c.src)
	if !strings.HasPrefix(text, "/*") {
		return
	}
	next := first.NextNamedSibling()
	switch {
	case next == nil:
	case next.Type() == "comment":
	case next.StartPoint().Row > first.EndPoint().Row+1:
	default:
		return
	}
	c.moduleComment = comment.Clean(text)
	c.claimed = first
}

func (c *codeExtractor) statement(n *sitter.Node) {
	switch n.Type() {
	case "comment":
	case "import_statement":
		c.importStatement(n)
	case "export_statement":
		c.exportStatement(n)
	default:
		if _, ok := declKinds[n.Type()]; !ok {
			return
		}
		doc := precedingDoc(n, c.src, c.claimed)
		for _, d := range declarationsFor(n, c.src, doc) {
			c.candidates[d.Name] = d
		}
	}
}

func (c *codeExtractor) exportStatement(n *sitter.Node) {
	doc := precedingDoc(n, c.src, c.claimed)

	if src := n.ChildByFieldName("source"); src != nil {
		c.exportFrom(n, lang.StringContent(src, c.src))
		return
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if decl.Type() == "ambient_declaration" && decl.NamedChildCount() > 0 {
			decl = decl.NamedChild(0)
		}
		ds := declarationsFor(decl, c.src, doc)
		if hasDefaultKeyword(n) {
			if len(ds) == 0 {
				kind := declKinds[decl.Type()]
				if kind == "" {
					kind = model.Value
				}
				ds = []model.Declaration{{
					Kind:       kind,
					SourceLine: lineOf(decl),
					Comment:    doc,
					Signature:  headerSignature(decl, c.src),
				}}
			}
			for i := range ds {
				ds[i].Name = "default"
			}
		}
		for _, d := range ds {
			c.addDeclaration(d)
		}
		return
	}

	if v := n.ChildByFieldName("value"); v != nil {
		// export default <expression>
		c.addDeclaration(model.Declaration{
			Name:       "default",
			Kind:       model.Value,
			SourceLine: lineOf(n),
			Comment:    doc,
			Signature:  lang.CollapseWhitespace(lang.NodeText(v, c.src)),
		})
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if cl := n.NamedChild(i); cl.Type() == "export_clause" {
			c.publishClause(cl)
		}
	}
}

// exportFrom handles export statements that name a source module: star
// exports record the target for the linker, named clauses become
// re-export records, never declarations.
func (c *codeExtractor) exportFrom(n *sitter.Node, target string) {
	star := false
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch ch.Type() {
		case "*":
			star = true
		case "namespace_export":
			// export * as ns from './x' exposes the single name ns
			if id := lastIdentifier(ch); id != nil {
				c.addReExport(model.ReExport{
					LocalName:    lang.NodeText(id, c.src),
					SourceModule: target,
					ExportedName: "*",
				})
			}
			return
		case "export_clause":
			for j := 0; j < int(ch.NamedChildCount()); j++ {
				spec := ch.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				exported := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = alias
				}
				c.addReExport(model.ReExport{
					LocalName:    lang.NodeText(exported, c.src),
					SourceModule: target,
					ExportedName: lang.NodeText(name, c.src),
				})
			}
			return
		}
	}
	if star && !c.starSeen[target] {
		c.starSeen[target] = true
		c.stars = append(c.stars, target)
	}
}

// publishClause publishes earlier local declarations (or imported names)
// through a bare `export { ... }` clause. Published declarations keep
// their original line, signature and comment but take the exported name
// and the clause's position in the declaration list.
func (c *codeExtractor) publishClause(clause *sitter.Node) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		local := lang.NodeText(name, c.src)
		exported := local
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = lang.NodeText(alias, c.src)
		}
		if cand, ok := c.candidates[local]; ok {
			cand.Name = exported
			c.addDeclaration(cand)
			continue
		}
		if imp, ok := c.imports[local]; ok {
			c.addReExport(model.ReExport{
				LocalName:    exported,
				SourceModule: imp.source,
				ExportedName: imp.name,
			})
			continue
		}
		// Not resolvable locally; record what the clause states.
		c.addDeclaration(model.Declaration{
			Name:       exported,
			Kind:       model.Value,
			SourceLine: lineOf(spec),
		})
	}
}

func (c *codeExtractor) importStatement(n *sitter.Node) {
	src := n.ChildByFieldName("source")
	if src == nil {
		return
	}
	target := lang.StringContent(src, c.src)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		cl := n.NamedChild(i)
		if cl.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(cl.NamedChildCount()); j++ {
			c.importBindingsFrom(cl.NamedChild(j), target)
		}
	}
}

func (c *codeExtractor) importBindingsFrom(n *sitter.Node, target string) {
	switch n.Type() {
	case "identifier": // default import
		c.imports[lang.NodeText(n, c.src)] = importBinding{source: target, name: "default"}
	case "namespace_import": // * as ns
		if id := lastIdentifier(n); id != nil {
			c.imports[lang.NodeText(id, c.src)] = importBinding{source: target, name: "*"}
		}
	case "named_imports":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			if spec.Type() != "import_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			local := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				local = alias
			}
			c.imports[lang.NodeText(local, c.src)] = importBinding{
				source: target,
				name:   lang.NodeText(name, c.src),
			}
		}
	}
}

func (c *codeExtractor) addDeclaration(d model.Declaration) {
	if c.declared[d.Name] || c.reexported[d.Name] {
		c.dc.Warnf(diag.CodeRepeatedName, c.rel, "name %q exported more than once; keeping the first", d.Name)
		return
	}
	c.declared[d.Name] = true
	c.decls = append(c.decls, d)
}

func (c *codeExtractor) addReExport(r model.ReExport) {
	if c.declared[r.LocalName] || c.reexported[r.LocalName] {
		c.dc.Warnf(diag.CodeRepeatedName, c.rel, "name %q exported more than once; keeping the first", r.LocalName)
		return
	}
	c.reexported[r.LocalName] = true
	c.reexports = append(c.reexports, r)
}

// declarationsFor builds the declaration records for one declaration
// node. Value declarations may carry several declarators.
func declarationsFor(n *sitter.Node, src []byte, doc string) []model.Declaration {
	kind, ok := declKinds[n.Type()]
	if !ok {
		return nil
	}

	if kind == model.Value {
		kw := "const"
		if first := n.Child(0); first != nil {
			kw = first.Type()
		}
		var out []model.Declaration
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			out = append(out, model.Declaration{
				Name:       lang.NodeText(name, src),
				Kind:       kind,
				SourceLine: lineOf(d),
				Comment:    doc,
				Signature:  valueSignature(kw, d, src),
			})
		}
		return out
	}

	name := n.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	return []model.Declaration{{
		Name:       lang.NodeText(name, src),
		Kind:       kind,
		SourceLine: lineOf(n),
		Comment:    doc,
		Signature:  headerSignature(n, src),
	}}
}

// valueSignature renders a value binding as its annotation form when a
// type is declared, otherwise its initializer form. Arrow-function
// initializers stop at the arrow so bodies never leak into signatures.
func valueSignature(kw string, d *sitter.Node, src []byte) string {
	sig := kw + " " + lang.NodeText(d.ChildByFieldName("name"), src)
	if t := d.ChildByFieldName("type"); t != nil {
		sig += lang.NodeText(t, src)
	} else if v := d.ChildByFieldName("value"); v != nil {
		if v.Type() == "arrow_function" {
			if body := v.ChildByFieldName("body"); body != nil {
				sig += " = " + string(src[v.StartByte():body.StartByte()])
			} else {
				sig += " = " + lang.NodeText(v, src)
			}
		} else {
			sig += " = " + lang.NodeText(v, src)
		}
	}
	return lang.CollapseWhitespace(sig)
}

// headerSignature returns the declaration text with the body removed;
// type aliases keep their full text.
func headerSignature(n *sitter.Node, src []byte) string {
	if n.Type() == "type_alias_declaration" {
		return lang.CollapseWhitespace(strings.TrimSuffix(strings.TrimSpace(lang.NodeText(n, src)), ";"))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return lang.CollapseWhitespace(string(src[n.StartByte():body.StartByte()]))
	}
	return lang.CollapseWhitespace(strings.TrimSuffix(strings.TrimSpace(lang.NodeText(n, src)), ";"))
}

func hasDefaultKeyword(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func lastIdentifier(n *sitter.Node) *sitter.Node {
	var id *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch.Type() == "identifier" {
			id = ch
		}
	}
	return id
}
