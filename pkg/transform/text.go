package transform

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// stripTags removes all markup from s and normalizes whitespace.
func stripTags(s string) string {
	plain := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(plain), " ")
}

// truncate shortens s to at most max runes, suffix included. A max of zero
// or less disables truncation.
func truncate(s string, max int, suffix string) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	// A suffix longer than max is cut as well.
	if sr := []rune(suffix); len(sr) > max {
		suffix = string(sr[:max])
	}
	keep := max - utf8.RuneCountInString(suffix)

	runes := []rune(s)
	return strings.TrimRight(string(runes[:keep]), " ") + suffix
}
