package db

import (
	"time"

	"github.com/google/uuid"
)

// SourcePlatform tags every row written by the career-page pipeline.
const SourcePlatform = "company_direct"

// JobRow is a persisted job. ContentHash is the unique idempotency key.
type JobRow struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	Sector          string     `json:"sector"`
	ApplicationURL  string     `json:"application_url"`
	SourceURL       string     `json:"source_url"`
	DiscoveryMethod string     `json:"discovery_method"`
	SourcePlatform  string     `json:"source_platform"`
	ContentHash     string     `json:"content_hash"`
	IsActive        bool       `json:"is_active"`
	ScrapedAt       *time.Time `json:"scraped_at,omitempty"`
	FirstSeen       time.Time  `json:"first_seen"`
	LastSeen        time.Time  `json:"last_seen"`
}

// JobInsertInput contains the fields for a new job row.
type JobInsertInput struct {
	Title           string
	Company         string
	Location        string
	Sector          string
	ApplicationURL  string
	SourceURL       string
	DiscoveryMethod string
	ContentHash     string
	ScrapedAt       time.Time
	SeenAt          time.Time
}

// ScrapingStats is one aggregate record per import run.
type ScrapingStats struct {
	ID              uuid.UUID `json:"id"`
	Platform        string    `json:"platform"`
	JobsFound       int       `json:"jobs_found"`
	JobsProcessed   int       `json:"jobs_processed"`
	JobsAdded       int       `json:"jobs_added"`
	DuplicatesFound int       `json:"duplicates_found"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// scrapedAtParam maps a zero time to NULL.
func scrapedAtParam(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
