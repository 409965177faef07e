// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Fetch backends
const (
	BackendService = "service"
	BackendBrowser = "browser"
	BackendDirect  = "direct"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// Missing values keep the defaults from Default(); environment variables and
// CLI flags are applied on top by the caller.
type Config struct {
	LogLevel    string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	DatabaseURL string `json:"database_url,omitempty"`
	RedisURL    string `json:"redis_url,omitempty"`
	TablesPath  string `json:"tables_path,omitempty"` // Replaces the embedded vendor/override tables

	Fetch     FetchConfig     `json:"fetch"`
	Discovery DiscoveryConfig `json:"discovery"`
	Batch     BatchConfig     `json:"batch"`
	Schedule  ScheduleConfig  `json:"schedule"`
}

// FetchConfig configures the Fetch Service client.
type FetchConfig struct {
	Backend          string `json:"backend,omitempty" validate:"oneof=service browser direct"`
	Endpoint         string `json:"endpoint,omitempty" validate:"omitempty,url"`
	APIKey           string `json:"api_key,omitempty"`
	CountryCode      string `json:"country_code,omitempty" validate:"omitempty,len=2"`
	RenderJS         *bool  `json:"render_js,omitempty"`
	WaitMillis       int    `json:"wait_ms,omitempty" validate:"gte=0,lte=120000"`
	HostIntervalMs   int    `json:"host_interval_ms,omitempty" validate:"gte=0"`
	CacheTTLMinutes  int    `json:"cache_ttl_minutes,omitempty" validate:"gte=0"`
	RequestTimeoutMs int    `json:"request_timeout_ms,omitempty" validate:"gte=0"`
}

// DiscoveryConfig configures the per-company orchestrator.
type DiscoveryConfig struct {
	MaxCandidates    int `json:"max_candidates,omitempty" validate:"gte=1,lte=100"`
	CandidateDelayMs int `json:"candidate_delay_ms,omitempty" validate:"gte=0"`
	MaxJobsPerPage   int `json:"max_jobs_per_page,omitempty" validate:"gte=1,lte=500"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	Size           int    `json:"size,omitempty" validate:"gte=1"`
	CompanyDelayMs int    `json:"company_delay_ms,omitempty" validate:"gte=0"`
	Workers        int    `json:"workers,omitempty" validate:"gte=1,lte=16"`
	CheckpointDir  string `json:"checkpoint_dir,omitempty" validate:"required"`
}

// ScheduleConfig configures recurring runs.
type ScheduleConfig struct {
	Cron string `json:"cron,omitempty"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	renderJS := true
	return Config{
		LogLevel: "info",
		Fetch: FetchConfig{
			Backend:          BackendService,
			Endpoint:         "https://api.scraperapi.com/",
			CountryCode:      "ca",
			RenderJS:         &renderJS,
			WaitMillis:       5000,
			HostIntervalMs:   1000,
			CacheTTLMinutes:  360,
			RequestTimeoutMs: 60000,
		},
		Discovery: DiscoveryConfig{
			MaxCandidates:    3,
			CandidateDelayMs: 1000,
			MaxJobsPerPage:   20,
		},
		Batch: BatchConfig{
			Size:           20,
			CompanyDelayMs: 2000,
			Workers:        1,
			CheckpointDir:  "checkpoints",
		},
		Schedule: ScheduleConfig{
			Cron: "@every 24h",
		},
	}
}

// LoadConfig loads configuration from a JSON file on top of Default().
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("FETCH_BACKEND"); v != "" {
		c.Fetch.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FETCH_ENDPOINT"); v != "" {
		c.Fetch.Endpoint = v
	}
	if v := os.Getenv("FETCH_API_KEY"); v != "" {
		c.Fetch.APIKey = v
	}
	if v := os.Getenv("FETCH_COUNTRY"); v != "" {
		c.Fetch.CountryCode = strings.ToLower(v)
	}
	if v := os.Getenv("FETCH_WAIT_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: FETCH_WAIT_MS must be an integer, got %q", v)
		}
		c.Fetch.WaitMillis = n
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: BATCH_SIZE must be an integer, got %q", v)
		}
		c.Batch.Size = n
	}
	return nil
}

// Error is a single configuration validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Validate checks that the configuration has valid values.
// Credentials are checked separately since only some commands need them.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &Error{Field: verrs[0].Namespace(), Message: "failed '" + verrs[0].Tag() + "' rule"}
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireFetchCredentials fails when the selected backend needs an API key
// and none was configured.
func (c *Config) RequireFetchCredentials() error {
	if c.Fetch.Backend == BackendService && c.Fetch.APIKey == "" {
		return &Error{Field: "fetch.api_key", Message: "FETCH_API_KEY is required for the service backend"}
	}
	return nil
}

// RequireDatabase fails when no datastore is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return &Error{Field: "database_url", Message: "DATABASE_URL is required"}
	}
	return nil
}

// Wait returns the per-fetch wait budget.
func (f FetchConfig) Wait() time.Duration {
	return time.Duration(f.WaitMillis) * time.Millisecond
}

// HostInterval returns the minimum spacing between requests to one host.
func (f FetchConfig) HostInterval() time.Duration {
	return time.Duration(f.HostIntervalMs) * time.Millisecond
}

// CacheTTL returns how long fetched pages stay cached.
func (f FetchConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLMinutes) * time.Minute
}

// RequestTimeout returns the transport allowance added on top of the wait budget.
func (f FetchConfig) RequestTimeout() time.Duration {
	return time.Duration(f.RequestTimeoutMs) * time.Millisecond
}

// Render reports whether JavaScript rendering is requested (default true).
func (f FetchConfig) Render() bool {
	return f.RenderJS == nil || *f.RenderJS
}

// CandidateDelay returns the politeness delay between candidate URLs.
func (d DiscoveryConfig) CandidateDelay() time.Duration {
	return time.Duration(d.CandidateDelayMs) * time.Millisecond
}

// CompanyDelay returns the politeness delay between companies.
func (b BatchConfig) CompanyDelay() time.Duration {
	return time.Duration(b.CompanyDelayMs) * time.Millisecond
}
