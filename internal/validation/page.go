// Package validation decides whether fetched HTML looks like a career page.
package validation

import (
	"strings"
)

// DefaultMinBytes is the size below which a page is never a career page.
const DefaultMinBytes = 5000

// DefaultKeywords are matched case-insensitively as substrings.
var DefaultKeywords = []string{"career", "job", "position", "opportunity"}

// Reason explains a Verdict.
type Reason string

const (
	// ReasonOK means the page passed every check
	ReasonOK Reason = "ok"
	// ReasonTooSmall means the document is under the size threshold
	ReasonTooSmall Reason = "tooSmall"
	// ReasonNoKeywords means no career keyword appears anywhere
	ReasonNoKeywords Reason = "noKeywords"
)

// Verdict is the outcome of validating one page.
type Verdict struct {
	OK     bool
	Reason Reason
}

// Validator scores HTML as career-like. Intentionally coarse: a false
// positive only costs an empty extraction, a false negative loses the company.
type Validator struct {
	minBytes int
	keywords []string
}

// New creates a Validator. Zero or empty arguments use the defaults.
func New(minBytes int, keywords []string) *Validator {
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}

	return &Validator{minBytes: minBytes, keywords: normalized}
}

// Default returns a Validator with the default threshold and keyword set.
func Default() *Validator {
	return New(0, nil)
}

// Validate returns the verdict for html.
func (v *Validator) Validate(html string) Verdict {
	if len(html) < v.minBytes {
		return Verdict{OK: false, Reason: ReasonTooSmall}
	}

	lower := strings.ToLower(html)
	for _, kw := range v.keywords {
		if strings.Contains(lower, kw) {
			return Verdict{OK: true, Reason: ReasonOK}
		}
	}

	return Verdict{OK: false, Reason: ReasonNoKeywords}
}
