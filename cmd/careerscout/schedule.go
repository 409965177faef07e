package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/careerscout/internal/batch"
	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/observability"
	"github.com/jonathan/careerscout/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run discovery and import on a recurring schedule",
	Long: `Runs one discover-then-import cycle immediately and then on every tick of the
cron schedule until interrupted. Each cycle writes its checkpoints to a fresh
timestamped subdirectory. The import step also picks up checkpoints left
pending by earlier cycles. Import is skipped when no datastore is configured.`,
	RunE: runScheduleCmd,
}

var (
	scheduleCompanies string
	scheduleCron      string
)

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleCompanies, "companies", "c", "", "Path to the company catalog (JSON or YAML), re-read every cycle")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Cron spec, e.g. \"@every 24h\" or \"0 3 * * *\" (default from config)")

	if err := scheduleCmd.MarkFlagRequired("companies"); err != nil {
		panic(fmt.Sprintf("failed to mark companies flag as required: %v", err))
	}

	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cron") {
		cfg.Schedule.Cron = scheduleCron
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireFetchCredentials(); err != nil {
		return err
	}

	// Fail fast on an unreadable catalog; later cycles re-read it.
	if _, err := config.LoadCompanies(scheduleCompanies); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	printer := observability.NewPrinter(os.Stdout)
	sched, err := scheduler.New(cfg.Schedule.Cron, cycleJob(cfg, scheduleCompanies, logger, printer), logger.With("component", "scheduler"))
	if err != nil {
		return err
	}

	return sched.Run(ctx)
}

// cycleJob returns the scheduled discover-then-import cycle.
func cycleJob(cfg *config.Config, companiesPath string, logger *logging.Logger, printer *observability.Printer) scheduler.Job {
	return func(ctx context.Context) error {
		runCfg := *cfg
		runCfg.Batch.CheckpointDir = cycleDir(cfg.Batch.CheckpointDir, time.Now())
		log := logger.With("run_id", uuid.NewString(), "checkpoints", runCfg.Batch.CheckpointDir)

		companies, err := config.LoadCompanies(companiesPath)
		if err != nil {
			return err
		}

		summary, err := discoverAll(ctx, &runCfg, companies, false, log, printer)
		if err != nil {
			return err
		}
		if summary.Interrupted {
			log.Warn("cycle interrupted, skipping import")
			return nil
		}

		if runCfg.DatabaseURL == "" {
			log.Info("no datastore configured, skipping import")
			return nil
		}

		// Earlier cycles whose import failed are retried here too.
		dirs, err := pendingCycleDirs(ctx, cfg.Batch.CheckpointDir, log)
		if err != nil {
			return err
		}
		if len(dirs) == 0 {
			log.Info("no pending checkpoints")
			return nil
		}

		report, err := importDirs(ctx, &runCfg, dirs, false, log)
		printer.PrintImportReport(report)
		return err
	}
}

// pendingCycleDirs lists cycle directories under base that still hold
// checkpoints not yet imported, oldest first.
func pendingCycleDirs(ctx context.Context, base string, logger *logging.Logger) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cycle directories: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		store, err := batch.NewFileStore(dir, logger)
		if err != nil {
			return nil, err
		}
		pending, err := store.ListPending(ctx)
		if err != nil {
			return nil, err
		}
		if len(pending) > 0 {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// cycleDir is the per-cycle checkpoint directory under base.
func cycleDir(base string, now time.Time) string {
	return filepath.Join(base, now.UTC().Format("20060102T150405Z"))
}
