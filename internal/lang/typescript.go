package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	Languages["typescript"] = &Language{
		Name:       "typescript",
		Kind:       KindModule,
		Extensions: []string{".ts", ".js"},
		lang:       typescript.GetLanguage(),
	}
}
