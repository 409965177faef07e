package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/careerscout/internal/batch"
	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/db"
	"github.com/jonathan/careerscout/internal/importer"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/observability"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import checkpointed jobs into the datastore",
	Long: `Reads batch checkpoints and upserts their jobs into PostgreSQL, keyed by a
content fingerprint. Jobs already stored only have their last-seen time updated.
By default only checkpoints not yet imported are read.`,
	RunE: runImportCmd,
}

var (
	importDir string
	importAll bool
)

func init() {
	importCmd.Flags().StringVarP(&importDir, "dir", "d", "", "Checkpoint directory (default from config)")
	importCmd.Flags().BoolVar(&importAll, "all", false, "Re-import every checkpoint, including ones already imported")

	rootCmd.AddCommand(importCmd)
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Batch.CheckpointDir = importDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewConsole(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	report, err := importCheckpoints(ctx, cfg, importAll, logger)
	observability.NewPrinter(os.Stdout).PrintImportReport(report)
	return err
}

// importCheckpoints connects to the datastore and imports checkpoints from
// the configured directory.
func importCheckpoints(ctx context.Context, cfg *config.Config, all bool, logger *logging.Logger) (*importer.Report, error) {
	return importDirs(ctx, cfg, []string{cfg.Batch.CheckpointDir}, all, logger)
}

// importDirs imports each checkpoint directory in order over one connection
// and merges the per-directory reports.
func importDirs(ctx context.Context, cfg *config.Config, dirs []string, all bool, logger *logging.Logger) (*importer.Report, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	im := importer.New(database, logger.With("component", "import"))
	var total *importer.Report
	for _, dir := range dirs {
		store, err := batch.NewFileStore(dir, logger.With("component", "checkpoints", "dir", dir))
		if err != nil {
			return total, fmt.Errorf("failed to open checkpoint directory: %w", err)
		}
		report, err := im.Run(ctx, store, all)
		total = mergeReport(total, report)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func mergeReport(total, next *importer.Report) *importer.Report {
	if next == nil {
		return total
	}
	if total == nil {
		merged := *next
		return &merged
	}
	total.Batches += next.Batches
	total.Counters.Add(next.Counters)
	total.Elapsed += next.Elapsed
	if next.Stats != nil {
		total.Stats = next.Stats
	}
	return total
}
