package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed tables.json
var defaultTables []byte

// VendorPattern maps an ATS vendor to the domain substrings that identify it.
type VendorPattern struct {
	Vendor   string   `json:"vendor"`
	Patterns []string `json:"patterns"`
}

// Tables holds the static lookup tables used by candidate generation and
// portal detection. Loaded once at start-up and never mutated afterwards.
type Tables struct {
	LegalSuffixes   []string          `json:"legal_suffixes"`
	SectorWords     []string          `json:"sector_words"`
	DomainTemplates []string          `json:"domain_templates"`
	PathSuffixes    []string          `json:"path_suffixes"`
	Overrides       map[string]string `json:"overrides"`
	Vendors         []VendorPattern   `json:"vendors"`
}

// DefaultTables returns the embedded tables.
func DefaultTables() (*Tables, error) {
	return parseTables(defaultTables)
}

// MustDefaultTables is DefaultTables for initialization paths and tests.
func MustDefaultTables() *Tables {
	t, err := DefaultTables()
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded tables: %v", err))
	}
	return t
}

// LoadTables reads a replacement tables file. An empty path returns the embedded tables.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables JSON: %w", err)
	}
	if len(t.DomainTemplates) == 0 || len(t.PathSuffixes) == 0 {
		return nil, fmt.Errorf("tables must define domain_templates and path_suffixes")
	}
	for _, tmpl := range t.DomainTemplates {
		if strings.Count(tmpl, "%s") != 1 {
			return nil, fmt.Errorf("domain template %q must contain exactly one %%s", tmpl)
		}
	}

	// Override keys are matched case-insensitively
	overrides := make(map[string]string, len(t.Overrides))
	for k, v := range t.Overrides {
		overrides[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	t.Overrides = overrides

	return &t, nil
}

// Override returns the known career URL for a company name, if any.
func (t *Tables) Override(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	u, ok := t.Overrides[strings.ToLower(strings.TrimSpace(name))]
	return u, ok && u != ""
}
