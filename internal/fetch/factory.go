package fetch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/careerscout/internal/config"
	"github.com/jonathan/careerscout/internal/logging"
)

// New assembles the configured backend with pacing and, when rdb is non-nil,
// the page cache. The returned close function releases backend resources.
func New(ctx context.Context, cfg config.FetchConfig, rdb *redis.Client, logger *logging.Logger) (Fetcher, func(), error) {
	var (
		backend Fetcher
		closeFn = func() {}
	)

	switch cfg.Backend {
	case config.BackendService, "":
		backend = NewServiceClient(ServiceConfig{
			Endpoint:    cfg.Endpoint,
			APIKey:      cfg.APIKey,
			CountryCode: cfg.CountryCode,
			RenderJS:    cfg.Render(),
			Timeout:     cfg.RequestTimeout(),
		})
	case config.BackendBrowser:
		b := NewBrowserClient(ctx, cfg.RequestTimeout(), logger)
		backend = b
		closeFn = b.Close
	case config.BackendDirect:
		backend = NewDirectClient(cfg.RequestTimeout())
	default:
		return nil, nil, fmt.Errorf("unknown fetch backend %q", cfg.Backend)
	}

	var f Fetcher = NewHostPacer(backend, cfg.HostInterval())
	if rdb != nil {
		f = NewCachedFetcher(f, rdb, cfg.CacheTTL(), logger)
	}

	return f, closeFn, nil
}
