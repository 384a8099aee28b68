// Package extract turns parsed source files into module records: one
// extractor for typed source modules, one for component-definition
// files, and a dispatcher that routes by file kind.
package extract

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/fuzdev/libmap/internal/comment"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/source"
)

// Options configures analysis beyond the source filter itself.
type Options struct {
	Source *source.Options

	// DefaultImpliesOptional marks a component property with a default
	// value but no explicit undefined marker in its type as optional.
	DefaultImpliesOptional bool
}

// NewOptions wraps a source filter with the default analysis settings.
func NewOptions(src *source.Options) *Options {
	return &Options{Source: src, DefaultImpliesOptional: true}
}

// ParseError is a fatal structural failure in one source file. Unlike
// diagnostics it aborts the whole run: a library description with
// silently-missing entries is worse than a hard failure.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// lineOf returns the 1-based source line of a node.
func lineOf(n *sitter.Node) int {
	row, err := safecast.Conv[int](n.StartPoint().Row)
	if err != nil {
		return 0
	}
	return row + 1
}

// findErrorNode locates the first concrete ERROR or MISSING node under n,
// or returns n itself when the error flag has no concrete carrier.
func findErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := findErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return n
}

// precedingDoc returns the cleaned doc comment directly above a top-level
// statement, or "". A comment already claimed as the module comment is
// not attached twice.
func precedingDoc(n *sitter.Node, src []byte, claimed *sitter.Node) string {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	if claimed != nil && prev.StartByte() == claimed.StartByte() {
		return ""
	}
	text := lang.NodeText(prev, src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return comment.Clean(text)
}
