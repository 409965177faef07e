package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostPacer enforces a minimum interval between requests to the same host,
// so politeness holds even when several companies are discovered at once.
type HostPacer struct {
	next     Fetcher
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostPacer wraps next. A zero interval disables pacing.
func NewHostPacer(next Fetcher, interval time.Duration) *HostPacer {
	return &HostPacer{
		next:     next,
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch waits for the host's turn, then delegates.
func (p *HostPacer) Fetch(ctx context.Context, urlStr string, wait time.Duration) (*Result, error) {
	if p.interval > 0 {
		if err := p.limiter(hostOf(urlStr)).Wait(ctx); err != nil {
			return nil, transportError(urlStr, "pacing interrupted", err)
		}
	}
	return p.next.Fetch(ctx, urlStr, wait)
}

func (p *HostPacer) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	lim, ok := p.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(p.interval), 1)
		p.limiters[host] = lim
	}
	return lim
}
