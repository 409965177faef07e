package extraction

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinTitleLength and MaxTitleLength bound an acceptable title, in characters
	MinTitleLength = 3
	MaxTitleLength = 200
)

// CleanText collapses all whitespace runs to single spaces and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsNoise reports whether a title contains a navigation noise phrase.
func IsNoise(title string) bool {
	lower := strings.ToLower(title)
	for _, phrase := range NoisePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// AcceptableTitle applies the length bounds and noise filter.
func AcceptableTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength || n > MaxTitleLength {
		return false
	}
	return !IsNoise(title)
}
