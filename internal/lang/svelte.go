package lang

import (
	"github.com/smacker/go-tree-sitter/html"
)

// The svelte grammar parses the template as HTML; the embedded <script>
// block is re-parsed with the typescript language by the extractor.
func init() {
	Languages["svelte"] = &Language{
		Name:       "svelte",
		Kind:       KindComponent,
		Extensions: []string{".svelte"},
		lang:       html.GetLanguage(),
	}
}
