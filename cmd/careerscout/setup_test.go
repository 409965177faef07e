package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/careerscout/internal/batch"
	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/importer"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/observability"
	"github.com/jonathan/careerscout/internal/types"
)

func TestLoadConfig_Precedence(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "log_level": "warn",
  "fetch": {"backend": "browser"},
  "batch": {"size": 7}
}`), 0644))

	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })

	t.Setenv("FETCH_BACKEND", "direct")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BATCH_SIZE", "")

	cfg, err := loadConfig(&cobra.Command{})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel, "file value kept")
	assert.Equal(t, config.BackendDirect, cfg.Fetch.Backend, "env overrides file")
	assert.Equal(t, 7, cfg.Batch.Size)
	assert.Equal(t, 3, cfg.Discovery.MaxCandidates, "defaults fill the rest")
}

func TestLoadConfig_BadEnv(t *testing.T) {
	prev := configPath
	configPath = ""
	t.Cleanup(func() { configPath = prev })

	t.Setenv("BATCH_SIZE", "twenty")

	_, err := loadConfig(&cobra.Command{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE must be an integer")
}

func TestApplyDiscoverFlags(t *testing.T) {
	prevSize, prevWorkers, prevOut := discoverBatchSize, discoverWorkers, discoverOut
	t.Cleanup(func() {
		discoverBatchSize, discoverWorkers, discoverOut = prevSize, prevWorkers, prevOut
	})

	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&discoverBatchSize, "batch-size", 0, "")
	cmd.Flags().IntVar(&discoverWorkers, "workers", 0, "")
	cmd.Flags().StringVar(&discoverOut, "out", "", "")
	require.NoError(t, cmd.Flags().Set("batch-size", "5"))
	require.NoError(t, cmd.Flags().Set("out", "runs/today"))

	cfg := config.Default()
	applyDiscoverFlags(cmd, &cfg)

	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 1, cfg.Batch.Workers, "unset flag keeps config value")
	assert.Equal(t, "runs/today", cfg.Batch.CheckpointDir)
}

func TestCycleDir(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, filepath.Join("checkpoints", "20260504T080201Z"), cycleDir("checkpoints", now))
}

func TestPendingCycleDirs(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	at := time.Date(2026, 5, 4, 8, 2, 1, 0, time.UTC)

	checkpoint := &types.BatchResult{
		BatchNumber: 1,
		ScrapedAt:   at,
		Results: []types.CompanyResult{{
			Company:         "Gone Corp",
			Sector:          "mining",
			Jobs:            []types.JobRecord{},
			Error:           "no working career URL",
			TimeElapsed:     1200,
			DiscoveryMethod: types.MethodNone,
		}},
	}
	checkpoint.Recount()

	write := func(name string, imported bool) string {
		dir := filepath.Join(base, name)
		store, err := batch.NewFileStore(dir, nil)
		require.NoError(t, err)
		require.NoError(t, store.Write(ctx, checkpoint))
		if imported {
			require.NoError(t, store.MarkImported(ctx, 1))
		}
		return dir
	}

	failedEarlier := write("20260504T080201Z", false)
	write("20260504T090201Z", true)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "20260504T100201Z"), 0755))
	current := write("20260504T110201Z", false)
	require.NoError(t, os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0644))

	dirs, err := pendingCycleDirs(ctx, base, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{failedEarlier, current}, dirs)
}

func TestPendingCycleDirs_MissingBase(t *testing.T) {
	dirs, err := pendingCycleDirs(context.Background(), filepath.Join(t.TempDir(), "none"), logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestMergeReport(t *testing.T) {
	first := &importer.Report{Batches: 2, Counters: importer.Counters{Found: 5, Imported: 3}, Elapsed: time.Second}
	second := &importer.Report{Batches: 1, Counters: importer.Counters{Found: 1, Imported: 1}, Elapsed: 2 * time.Second}

	total := mergeReport(nil, first)
	total = mergeReport(total, nil)
	total = mergeReport(total, second)

	assert.Equal(t, 3, total.Batches)
	assert.Equal(t, 6, total.Counters.Found)
	assert.Equal(t, 4, total.Counters.Imported)
	assert.Equal(t, 3*time.Second, total.Elapsed)
	assert.Equal(t, 2, first.Batches, "first report is not mutated")
}

func careersPage() string {
	body := `<h1>Careers at Acme</h1>
<p>Join our team. Every position listed below is open for applications.</p>
<div class="job"><h3>Heavy Equipment Operator</h3><span class="location">Fort McMurray, AB</span><a href="/jobs/1">Apply</a></div>
<div class="job"><h3>Process Engineer</h3><span class="location">Calgary, AB</span><a href="/jobs/2">Apply</a></div>`
	doc := "<html><body>" + body + "</body></html>"
	return doc + "<!--" + strings.Repeat(" ", 6000) + "-->"
}

func TestDiscoverAll_DirectBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/careers" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(careersPage()))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Fetch.Backend = config.BackendDirect
	cfg.Fetch.WaitMillis = 0
	cfg.Fetch.HostIntervalMs = 0
	cfg.Fetch.RequestTimeoutMs = 5000
	cfg.Discovery.CandidateDelayMs = 0
	cfg.Batch.CompanyDelayMs = 0
	cfg.Batch.Size = 1
	cfg.Batch.CheckpointDir = t.TempDir()
	require.NoError(t, cfg.Validate())

	companies := []types.Company{
		{Name: "Acme Mining", Sector: "mining", KnownCareerURL: srv.URL + "/careers"},
		{Name: "Gone Corp", KnownCareerURL: srv.URL + "/missing"},
	}

	var out bytes.Buffer
	summary, err := discoverAll(context.Background(), &cfg, companies, false, logging.NewNop(), observability.NewPrinter(&out))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 2, summary.Totals.Companies)
	assert.Equal(t, 1, summary.Totals.Successful)
	assert.Equal(t, 2, summary.Totals.Jobs)
	assert.False(t, summary.Interrupted)

	first, err := batch.LoadCheckpoint(filepath.Join(cfg.Batch.CheckpointDir, "batch_001.json"))
	require.NoError(t, err)
	require.Len(t, first.Results, 1)
	res := first.Results[0]
	assert.True(t, res.Success)
	assert.Equal(t, types.MethodGenericStructured, res.DiscoveryMethod)
	require.Len(t, res.Jobs, 2)
	assert.Equal(t, "Heavy Equipment Operator", res.Jobs[0].Title)
	assert.Equal(t, "Fort McMurray, AB", res.Jobs[0].Location)
	assert.Equal(t, srv.URL+"/jobs/1", res.Jobs[0].ApplicationURL)

	second, err := batch.LoadCheckpoint(filepath.Join(cfg.Batch.CheckpointDir, "batch_002.json"))
	require.NoError(t, err)
	assert.False(t, second.Results[0].Success)
	assert.NotNil(t, second.Results[0].Jobs)

	assert.Contains(t, out.String(), "DISCOVERY SUMMARY")
	assert.Contains(t, out.String(), "1 (50.0%)")
}

func TestNewServices_RequiresAPIKeyForService(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.APIKey = ""

	_, err := newServices(context.Background(), &cfg, logging.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_API_KEY")
}

func TestNewServices_BadTables(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.Backend = config.BackendDirect
	cfg.TablesPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := newServices(context.Background(), &cfg, logging.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load tables")
}
