package importer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/careerscout/internal/extraction"
)

var (
	leadingBoilerplate  = regexp.MustCompile(`(?i)^(careers?|jobs?)\s*[:|\-–]\s*`)
	trailingBoilerplate = regexp.MustCompile(`(?i)\s*[:|\-–]\s*(careers?|jobs?)\s*:?$`)
)

// CleanTitle normalizes an extracted title for storage: whitespace is
// collapsed, "Careers:"/"Jobs:" boilerplate is stripped from either end and
// the result is capped at the maximum title length.
func CleanTitle(title string) string {
	title = extraction.CleanText(title)
	title = leadingBoilerplate.ReplaceAllString(title, "")
	title = trailingBoilerplate.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) > extraction.MaxTitleLength {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:extraction.MaxTitleLength]))
	}
	return title
}

// keepTitle reports whether a cleaned title is worth importing.
func keepTitle(title string) bool {
	return utf8.RuneCountInString(title) >= extraction.MinTitleLength && !extraction.IsNoise(title)
}
