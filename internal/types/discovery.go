// Package types provides type definitions for structured data used throughout the careerscout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DiscoveryMethod records which extraction path produced a job record.
// It is diagnostic only and never part of the dedup key.
type DiscoveryMethod string

const (
	// MethodVendorStructured is extraction via a known ATS card layout
	MethodVendorStructured DiscoveryMethod = "vendor_structured"
	// MethodGenericStructured is extraction via generic job card class names
	MethodGenericStructured DiscoveryMethod = "generic_structured"
	// MethodKeywordLink is the anchor text heuristic of last resort
	MethodKeywordLink DiscoveryMethod = "keyword_link"
	// MethodExternalPortal marks jobs taken from a linked ATS portal page
	MethodExternalPortal DiscoveryMethod = "external_portal"
	// MethodNone is used on failed company results
	MethodNone DiscoveryMethod = "none"
)

// Company is one entry of the input catalog.
type Company struct {
	Name           string `json:"name" yaml:"name" validate:"required,min=1"`
	Sector         string `json:"sector" yaml:"sector"`
	KnownCareerURL string `json:"known_career_url,omitempty" yaml:"known_career_url,omitempty" validate:"omitempty,url"`
}

// Validate validates the Company using the validator.
func (c *Company) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// JobRecord is a single posting extracted from a career or portal page.
type JobRecord struct {
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Location        string          `json:"location"`
	Sector          string          `json:"sector"`
	ApplicationURL  string          `json:"applicationUrl"`
	SourceURL       string          `json:"sourceUrl"`
	DiscoveryMethod DiscoveryMethod `json:"discoveryMethod"`
	ScrapedAt       time.Time       `json:"scrapedAt"`
}
