// Package normalize canonicalizes user-entered strings before they are
// validated or stored.
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of whitespace
// to one space. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims surrounding whitespace. Case is preserved for display;
// uniqueness is enforced on the folded copy.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Tags trims each tag, drops empties and drops later duplicates compared
// by their folded form, the same folding community names use. Order of
// first occurrence is kept.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = Name(t)
		if t == "" {
			continue
		}
		k := text.Fold(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// QueryParam trims a query-string value and removes control characters.
func QueryParam(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}
