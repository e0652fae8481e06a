package area

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizePostcode strips all whitespace and folds full-width digits
// (common from mobile IMEs) to ASCII.
func NormalizePostcode(raw string) string {
	folded := width.Fold.String(raw)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// ValidPostcode reports whether p is exactly four ASCII digits.
func ValidPostcode(p string) bool {
	if len(p) != 4 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}
