// Package summary extracts declared function, class and enum names from source files.
package summary

import (
	"path/filepath"
	"strings"
)

// Kind labels a declaration.
type Kind string

const (
	KindFunction Kind = "fn"
	KindClass    Kind = "class"
	KindEnum     Kind = "enum"
)

// Symbol is one named declaration in source order.
type Symbol struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

// String renders the symbol as "kind name".
func (symbol Symbol) String() string {
	return string(symbol.Kind) + " " + symbol.Name
}

// Format renders one symbol per line.
func Format(symbols []Symbol) string {
	var builder strings.Builder
	for _, symbol := range symbols {
		builder.WriteString(symbol.String())
		builder.WriteString("\n")
	}
	return builder.String()
}

// SummarizeFile summarizes content using the extension of path.
func SummarizeFile(path string, content []byte) []Symbol {
	return Summarize(filepath.Ext(path), content)
}

// Supported reports whether extension has a grammar in this build.
func Supported(extension string) bool {
	_, found := languageFor(normalizeExtension(extension))
	return found
}

func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
}

var declarationKinds = map[string]Kind{
	"function_item":        KindFunction,
	"function_declaration": KindFunction,
	"method_definition":    KindFunction,
	"function_definition":  KindFunction,

	"struct_item":                KindClass,
	"class_declaration":          KindClass,
	"abstract_class_declaration": KindClass,
	"class_definition":           KindClass,

	"enum_item":        KindEnum,
	"enum_declaration": KindEnum,
}
