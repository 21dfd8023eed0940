//go:build cgo

package summary

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const nameField = "name"

func languageFor(extension string) (*sitter.Language, bool) {
	switch extension {
	case "rs":
		return rust.GetLanguage(), true
	case "js", "jsx", "mjs", "cjs":
		return javascript.GetLanguage(), true
	case "ts", "mts", "cts":
		return typescript.GetLanguage(), true
	case "tsx":
		return tsx.GetLanguage(), true
	case "py":
		return python.GetLanguage(), true
	default:
		return nil, false
	}
}

// Summarize parses content with the grammar selected by extension and returns every declaration
// in depth-first order. Unsupported extensions and sources without declarations yield nil.
func Summarize(extension string, content []byte) []Symbol {
	language, found := languageFor(normalizeExtension(extension))
	if !found {
		return nil
	}
	parser := sitter.NewParser()
	parser.SetLanguage(language)
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil
	}
	var symbols []Symbol
	collectSymbols(tree.RootNode(), content, &symbols)
	return symbols
}

func collectSymbols(node *sitter.Node, source []byte, symbols *[]Symbol) {
	if node == nil {
		return
	}
	if kind, isDeclaration := declarationKinds[node.Type()]; isDeclaration {
		if nameNode := node.ChildByFieldName(nameField); nameNode != nil {
			*symbols = append(*symbols, Symbol{Kind: kind, Name: nameNode.Content(source)})
		}
	}
	for index := 0; index < int(node.ChildCount()); index++ {
		collectSymbols(node.Child(index), source, symbols)
	}
}
