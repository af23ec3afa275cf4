package util

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s, suitable for caseless comparison.
// A Caser holds state, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether any haystack contains needle, comparing case-folded.
// needle must already be folded.
func ContainsFold(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if h != "" && strings.Contains(Fold(h), needle) {
			return true
		}
	}
	return false
}
