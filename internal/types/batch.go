package types

import "time"

// CompanyResult is the outcome of discovery for one company in one run.
// Success=false with Error set is an expected outcome, not a pipeline fault.
type CompanyResult struct {
	Company         string          `json:"company"`
	Sector          string          `json:"sector"`
	Success         bool            `json:"success"`
	JobsFound       int             `json:"jobsFound"`
	Jobs            []JobRecord     `json:"jobs"`
	Error           string          `json:"error,omitempty"`
	TimeElapsed     int64           `json:"timeElapsed"` // milliseconds
	DiscoveryMethod DiscoveryMethod `json:"discoveryMethod"`
	CareerURL       string          `json:"careerUrl,omitempty"`
}

// Elapsed returns TimeElapsed as a duration.
func (r *CompanyResult) Elapsed() time.Duration {
	return time.Duration(r.TimeElapsed) * time.Millisecond
}

// BatchResult is one checkpoint: the results of a fixed-size slice of companies.
type BatchResult struct {
	BatchNumber         int             `json:"batchNumber"`
	ScrapedAt           time.Time       `json:"scrapedAt"`
	TotalCompanies      int             `json:"totalCompanies"`
	SuccessfulCompanies int             `json:"successfulCompanies"`
	TotalJobs           int             `json:"totalJobs"`
	Results             []CompanyResult `json:"results"`
}

// Recount recomputes the aggregate counters from Results.
func (b *BatchResult) Recount() {
	b.TotalCompanies = len(b.Results)
	b.SuccessfulCompanies = 0
	b.TotalJobs = 0
	for i := range b.Results {
		if b.Results[i].Success {
			b.SuccessfulCompanies++
		}
		b.TotalJobs += len(b.Results[i].Jobs)
	}
}
