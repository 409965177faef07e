// Package candidates turns a company name into an ordered list of plausible
// career page URLs.
package candidates

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/types"
)

// ErrEmptyName is returned when a company name normalizes to nothing.
var ErrEmptyName = errors.New("company name normalizes to an empty string")

// Generator produces candidate career URLs. It is safe for concurrent use.
type Generator struct {
	legalSuffixes   map[string]bool
	sectorWords     map[string]bool
	domainTemplates []string
	pathSuffixes    []string
	tables          *config.Tables
}

// NewGenerator copies the tables it needs; later changes to tables are not observed.
func NewGenerator(tables *config.Tables) *Generator {
	g := &Generator{
		legalSuffixes:   toSet(tables.LegalSuffixes),
		sectorWords:     toSet(tables.SectorWords),
		domainTemplates: append([]string(nil), tables.DomainTemplates...),
		pathSuffixes:    append([]string(nil), tables.PathSuffixes...),
		tables:          tables,
	}
	return g
}

// Generate returns candidate URLs for a company, best first.
// A known override (on the company or in the override table) is returned alone.
func (g *Generator) Generate(company types.Company) ([]string, error) {
	if u := strings.TrimSpace(company.KnownCareerURL); u != "" {
		return []string{u}, nil
	}
	if u, ok := g.tables.Override(company.Name); ok {
		return []string{u}, nil
	}

	variants := g.NameVariants(company.Name)
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyName, company.Name)
	}

	seen := make(map[string]bool)
	urls := make([]string, 0, len(variants)*len(g.domainTemplates)*len(g.pathSuffixes))
	for _, variant := range variants {
		for _, tmpl := range g.domainTemplates {
			host := "https://www." + fmt.Sprintf(tmpl, variant)
			for _, suffix := range g.pathSuffixes {
				u := host + suffix
				if !seen[u] {
					seen[u] = true
					urls = append(urls, u)
				}
			}
		}
	}

	return urls, nil
}

// NameVariants returns up to three domain labels derived from a company name:
// the full normalized name, the name without trailing sector words, and the
// hyphenated full name. Duplicates are dropped.
func (g *Generator) NameVariants(name string) []string {
	words := g.normalizeWords(name)
	if len(words) == 0 {
		return nil
	}

	variants := make([]string, 0, 3)
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	add(strings.Join(words, ""))

	stripped := words
	for len(stripped) > 1 && g.sectorWords[stripped[len(stripped)-1]] {
		stripped = stripped[:len(stripped)-1]
	}
	add(strings.Join(stripped, ""))

	if len(words) > 1 {
		add(strings.Join(words, "-"))
	}

	return variants
}

// Normalize returns the cleaned, space-separated form of a company name.
func (g *Generator) Normalize(name string) string {
	return strings.Join(g.normalizeWords(name), " ")
}

// normalizeWords lowercases, drops non-alphanumerics and strips trailing legal suffixes.
func (g *Generator) normalizeWords(name string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		if r == '\'' || r == '’' {
			return -1
		}
		return ' '
	}, name)

	words := strings.Fields(cleaned)
	for len(words) > 1 && g.legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) == 1 && g.legalSuffixes[words[0]] {
		return nil
	}

	// Domain labels are ASCII
	out := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, w)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}
