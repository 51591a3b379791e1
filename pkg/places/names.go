package places

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a toponym for comparison: NFC unicode form,
// collapsed whitespace and case folding.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	// Casers are stateful, so each call gets its own.
	return cases.Fold().String(s)
}

// NormalizeNames returns the set of normalized, non-empty names.
func NormalizeNames(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		if c := NormalizeName(n); c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether two normalized name sets share a member.
func Intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
