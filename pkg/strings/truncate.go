// Package strings holds text helpers for single-line CLI output.
package strings

import (
	"strings"
)

// DescriptionWidth is the column width descriptions are shortened to in
// tabular output.
const DescriptionWidth = 60

const ellipsis = "..."

// SingleLine collapses every run of whitespace, newlines included, into one
// space and trims both ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max runes, the last three being "...".
// A max below 4 is raised to 4 so at least one rune survives.
func Truncate(s string, max int) string {
	if max < len(ellipsis)+1 {
		max = len(ellipsis) + 1
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

// Summarize renders a possibly multi-line description as one line of at
// most max runes.
func Summarize(s string, max int) string {
	return Truncate(SingleLine(s), max)
}
