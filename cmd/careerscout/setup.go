package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonathan/careerscout/internal/candidates"
	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/db"
	"github.com/jonathan/careerscout/internal/discovery"
	"github.com/jonathan/careerscout/internal/extraction"
	"github.com/jonathan/careerscout/internal/fetch"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/portal"
	"github.com/jonathan/careerscout/internal/validation"
)

// loadConfig builds the configuration in precedence order:
// defaults, config file, environment, then persistent flags.
// Callers apply their own flags and then call Validate.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("tables") {
		cfg.TablesPath = tablesPath
	}

	return &cfg, nil
}

// services holds the long-lived components of a discovery run.
type services struct {
	orchestrator *discovery.Orchestrator
	rdb          *redis.Client
	closers      []func()
}

// Close releases everything opened by newServices, in reverse order.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// newServices wires the discovery pipeline from configuration. Redis is
// optional: when it is configured but unreachable the page cache is skipped.
func newServices(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*services, error) {
	if err := cfg.RequireFetchCredentials(); err != nil {
		return nil, err
	}

	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	svc := &services{}

	if cfg.RedisURL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, page cache disabled", "error", err)
		} else {
			svc.rdb = rdb
			svc.closers = append(svc.closers, func() { _ = rdb.Close() })
		}
	}

	fetcher, closeFetch, err := fetch.New(ctx, cfg.Fetch, svc.rdb, logger.With("component", "fetch"))
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	svc.closers = append(svc.closers, closeFetch)

	svc.orchestrator = discovery.New(
		candidates.NewGenerator(tables),
		fetcher,
		validation.Default(),
		portal.NewDetector(tables.Vendors),
		extraction.NewCascade(extraction.WithMaxJobs(cfg.Discovery.MaxJobsPerPage)),
		discovery.Config{
			MaxCandidates:  cfg.Discovery.MaxCandidates,
			CandidateDelay: cfg.Discovery.CandidateDelay(),
			Wait:           cfg.Fetch.Wait(),
		},
		logger.With("component", "discovery"),
	)

	return svc, nil
}
