package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/careerscout/internal/db"
	"github.com/jonathan/careerscout/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored job count and recent import runs",
	RunE:  runStatsCmd,
}

var statsLimit int

func init() {
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 10, "Number of recent import runs to show")
	rootCmd.AddCommand(statsCmd)
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	total, err := database.CountJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}
	runs, err := database.LatestScrapingStats(ctx, statsLimit)
	if err != nil {
		return fmt.Errorf("failed to load import history: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintStats(total, runs)
	return nil
}
