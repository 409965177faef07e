package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/careerscout/internal/types"
)

// companyCatalog is the object form of a catalog file: {"companies": [...]}.
type companyCatalog struct {
	Companies []types.Company `json:"companies" yaml:"companies"`
}

// LoadCompanies reads a company catalog from a JSON or YAML file.
// Both a bare list and an object with a "companies" key are accepted.
func LoadCompanies(path string) ([]types.Company, error) {
	if path == "" {
		return nil, fmt.Errorf("company source path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read company source %s: %w", path, err)
	}

	var companies []types.Company
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		companies, err = decodeCompanies(data, yaml.Unmarshal)
	default:
		companies, err = decodeCompanies(data, json.Unmarshal)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse company source %s: %w", path, err)
	}

	for i := range companies {
		companies[i].Name = strings.TrimSpace(companies[i].Name)
		companies[i].Sector = strings.TrimSpace(companies[i].Sector)
		companies[i].KnownCareerURL = strings.TrimSpace(companies[i].KnownCareerURL)
		if err := companies[i].Validate(); err != nil {
			return nil, fmt.Errorf("company #%d (%q) is invalid: %w", i+1, companies[i].Name, err)
		}
	}

	return companies, nil
}

func decodeCompanies(data []byte, unmarshal func([]byte, any) error) ([]types.Company, error) {
	var list []types.Company
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var catalog companyCatalog
	if err := unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return catalog.Companies, nil
}
