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
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/observability"
	"github.com/jonathan/careerscout/internal/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover career pages and extract jobs into batch checkpoints",
	Long: `Runs discovery for every company in the catalog, batch by batch. Each finished
batch is written as a checkpoint file; an interrupted batch is not written and
is redone on the next run with --resume.`,
	RunE: runDiscoverCmd,
}

var (
	discoverCompanies string
	discoverBatchSize int
	discoverWorkers   int
	discoverResume    bool
	discoverOut       string
)

func init() {
	discoverCmd.Flags().StringVarP(&discoverCompanies, "companies", "c", "", "Path to the company catalog (JSON or YAML)")
	discoverCmd.Flags().IntVar(&discoverBatchSize, "batch-size", 0, "Companies per checkpoint (default from config)")
	discoverCmd.Flags().IntVar(&discoverWorkers, "workers", 0, "Companies processed concurrently within a batch")
	discoverCmd.Flags().BoolVar(&discoverResume, "resume", false, "Skip batches that already have a checkpoint")
	discoverCmd.Flags().StringVarP(&discoverOut, "out", "o", "", "Checkpoint directory (default from config)")

	if err := discoverCmd.MarkFlagRequired("companies"); err != nil {
		panic(fmt.Sprintf("failed to mark companies flag as required: %v", err))
	}

	rootCmd.AddCommand(discoverCmd)
}

func runDiscoverCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyDiscoverFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	companies, err := config.LoadCompanies(discoverCompanies)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewConsole(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	printer := observability.NewPrinter(os.Stdout)
	_, err = discoverAll(ctx, cfg, companies, discoverResume, logger, printer)
	return err
}

// applyDiscoverFlags copies explicitly set discover flags onto cfg.
func applyDiscoverFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("batch-size") {
		cfg.Batch.Size = discoverBatchSize
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = discoverWorkers
	}
	if cmd.Flags().Changed("out") {
		cfg.Batch.CheckpointDir = discoverOut
	}
}

// discoverAll runs the batch runner over companies and prints the summary.
// Only setup failures and checkpoint write failures are returned.
func discoverAll(
	ctx context.Context,
	cfg *config.Config,
	companies []types.Company,
	resume bool,
	logger *logging.Logger,
	printer *observability.Printer,
) (*batch.Summary, error) {
	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	store, err := batch.NewFileStore(cfg.Batch.CheckpointDir, logger.With("component", "checkpoints"))
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(
		svc.orchestrator,
		store,
		batch.Config{
			BatchSize:    cfg.Batch.Size,
			CompanyDelay: cfg.Batch.CompanyDelay(),
			Workers:      cfg.Batch.Workers,
			Resume:       resume,
		},
		logger.With("component", "batch"),
		batch.WithProgress(printer.Progress),
	)

	summary, err := runner.Run(ctx, companies)
	printer.PrintRunSummary(summary, store.Dir())
	return summary, err
}
