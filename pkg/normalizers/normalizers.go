// Package normalizers provides string normalization for name search.
package normalizers

import (
	"strings"
	"unicode"
)

// nameSuffixes are stripped before comparison so "Ben Jones Jr." matches a
// search for "ben jones".
var nameSuffixes = []string{" jr.", " jr", " sr.", " sr", " iii", " ii", " iv", " phd", " md"}

// Name normalizes a person's full name for search comparison: lowercase,
// suffixes stripped, punctuation removed, whitespace collapsed.
func Name(s string) string {
	s = strings.ToLower(s)

	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
		}
	}

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// Query normalizes a raw search query the same way names are normalized, so
// the two compare consistently.
func Query(s string) string {
	return Name(s)
}
