package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/observability"
	"github.com/jonathan/careerscout/internal/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe <company name>",
	Short: "Run discovery for a single company and show each state transition",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProbeCmd,
}

var (
	probeSector string
	probeURL    string
	probeJSON   bool
)

func init() {
	probeCmd.Flags().StringVar(&probeSector, "sector", "", "Company sector")
	probeCmd.Flags().StringVar(&probeURL, "url", "", "Known career page URL, tried before generated candidates")
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "Print the company result as JSON")

	rootCmd.AddCommand(probeCmd)
}

func runProbeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	company := types.Company{
		Name:           strings.Join(args, " "),
		Sector:         probeSector,
		KnownCareerURL: probeURL,
	}
	if err := company.Validate(); err != nil {
		return fmt.Errorf("invalid company: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewConsole(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	svc, err := newServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, trace := svc.orchestrator.DiscoverTrace(ctx, company)

	if probeJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintDiscovery(result, trace)
	return nil
}
