package scraper

import (
	"regexp"
	"strings"
)

var disallowedChars = regexp.MustCompile(`[^A-Za-z0-9\s\-.,]`)

// NormalizeText collapses whitespace runs, strips characters outside
// [A-Za-z0-9 whitespace - . ,] and trims. Whitespace is collapsed again after
// stripping so "Smith & Co" becomes "Smith Co".
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = disallowedChars.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
