// Package lang provides a file-kind registry mapping file extensions to
// tree-sitter grammars and the extractor kind that handles them.
package lang

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Kind classifies a source file by the extractor that handles it.
type Kind uint8

const (
	// KindUnknown marks extensions outside the registry.
	KindUnknown Kind = iota
	// KindModule is a typed source module of exported bindings.
	KindModule
	// KindComponent is a component-definition file (script + template).
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindComponent:
		return "component"
	}
	return "unknown"
}

// Language holds tree-sitter configuration for a supported file kind.
type Language struct {
	Name       string
	Kind       Kind
	Extensions []string
	lang       *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]*Language
var extensionOnce sync.Once

func getExtensionMap() map[string]*Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language for a file extension, or nil if unsupported.
func ForExtension(ext string) *Language {
	return getExtensionMap()[ext]
}

// ForPath returns the language for a file path, or nil if unsupported.
func ForPath(path string) *Language {
	return ForExtension(filepath.Ext(path))
}

// KindForPath returns the file kind for a path, KindUnknown if unsupported.
func KindForPath(path string) Kind {
	if l := ForPath(path); l != nil {
		return l.Kind
	}
	return KindUnknown
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	m := getExtensionMap()
	exts := make([]string, 0, len(m))
	for ext := range m {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// StringContent returns the unquoted text of a string literal node.
func StringContent(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if ch := node.NamedChild(i); ch.Type() == "string_fragment" {
			return NodeText(ch, source)
		}
	}
	return strings.Trim(NodeText(node, source), "'\"`")
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
