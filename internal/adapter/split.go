package adapter

import (
	"slices"
	"strings"
)

// splitTokens is the split vocabulary recognized in directory names, in
// lookup order.
var splitTokens = []string{"train", "val", "valid", "validation", "test", "dev"}

// InferSplit returns the split named by name, case-insensitively. name is cut
// into tokens at '_', '-', '.' and whitespace, and only a whole token counts,
// so "smartdevices_large" carries no split. When several tokens qualify the
// first in splitTokens order wins. nil means name carries no split.
func InferSplit(name string) *string {
	toks := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		switch r {
		case '_', '-', '.', ' ', '\t':
			return true
		}
		return false
	})

	for _, s := range splitTokens {
		if slices.Contains(toks, s) {
			return &s
		}
	}
	return nil
}
