package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"log_level": "debug",
		"database_url": "postgres://localhost/jobs",
		"fetch": {"backend": "direct", "wait_ms": 8000, "render_js": false},
		"batch": {"size": 5}
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/jobs", cfg.DatabaseURL)
	assert.Equal(t, BackendDirect, cfg.Fetch.Backend)
	assert.Equal(t, 8000, cfg.Fetch.WaitMillis)
	assert.False(t, cfg.Fetch.Render())
	assert.Equal(t, 5, cfg.Batch.Size)

	// Untouched fields keep their defaults
	assert.Equal(t, 3, cfg.Discovery.MaxCandidates)
	assert.Equal(t, "ca", cfg.Fetch.CountryCode)
	assert.Equal(t, "checkpoints", cfg.Batch.CheckpointDir)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Fetch.Render())
	assert.Equal(t, 20, cfg.Batch.Size)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, 20, cfg.Discovery.MaxJobsPerPage)
	assert.Equal(t, int64(5000), cfg.Fetch.Wait().Milliseconds())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"unknown backend", func(c *Config) { c.Fetch.Backend = "carrier-pigeon" }, "Backend"},
		{"zero batch size", func(c *Config) { c.Batch.Size = 0 }, "Size"},
		{"too many workers", func(c *Config) { c.Batch.Workers = 100 }, "Workers"},
		{"bad country", func(c *Config) { c.Fetch.CountryCode = "can" }, "CountryCode"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"missing checkpoint dir", func(c *Config) { c.Batch.CheckpointDir = "" }, "CheckpointDir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Field, tt.field)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/jobs")
	t.Setenv("FETCH_API_KEY", "secret")
	t.Setenv("FETCH_BACKEND", "BROWSER")
	t.Setenv("FETCH_WAIT_MS", "2500")
	t.Setenv("BATCH_SIZE", "7")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "postgres://env/jobs", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.Fetch.APIKey)
	assert.Equal(t, BackendBrowser, cfg.Fetch.Backend)
	assert.Equal(t, 2500, cfg.Fetch.WaitMillis)
	assert.Equal(t, 7, cfg.Batch.Size)
}

func TestApplyEnv_BadInteger(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")

	cfg := Default()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestRequireFetchCredentials(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireFetchCredentials())

	cfg.Fetch.APIKey = "key"
	assert.NoError(t, cfg.RequireFetchCredentials())

	cfg.Fetch.APIKey = ""
	cfg.Fetch.Backend = BackendBrowser
	assert.NoError(t, cfg.RequireFetchCredentials(), "browser backend needs no key")
}

func TestRequireDatabase(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireDatabase())
	cfg.DatabaseURL = "postgres://x"
	assert.NoError(t, cfg.RequireDatabase())
}
