package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPacer_SpacesSameHost(t *testing.T) {
	next := &stubFetcher{html: "ok"}
	p := NewHostPacer(next, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for _, u := range []string{"https://www.acme.com/careers", "https://www.acme.com/jobs", "https://www.acme.com/en/careers"} {
		_, err := p.Fetch(ctx, u, 0)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
	assert.Equal(t, 3, next.count())
}

func TestHostPacer_IndependentHosts(t *testing.T) {
	next := &stubFetcher{html: "ok"}
	p := NewHostPacer(next, time.Second)
	ctx := context.Background()

	start := time.Now()
	for _, u := range []string{"https://www.acme.com/careers", "https://www.acme.ca/careers", "https://boards.greenhouse.io/acme"} {
		_, err := p.Fetch(ctx, u, 0)
		require.NoError(t, err)
	}

	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestHostPacer_ZeroIntervalPassThrough(t *testing.T) {
	next := &stubFetcher{html: "ok"}
	p := NewHostPacer(next, 0)

	for i := 0; i < 5; i++ {
		_, err := p.Fetch(context.Background(), "https://www.acme.com/careers", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, next.count())
	assert.Empty(t, p.limiters)
}

func TestHostPacer_CancelledWhileWaiting(t *testing.T) {
	next := &stubFetcher{html: "ok"}
	p := NewHostPacer(next, time.Hour)

	_, err := p.Fetch(context.Background(), "https://www.acme.com/careers", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Fetch(ctx, "https://www.acme.com/jobs", 0)
	require.Error(t, err)
	assert.Equal(t, 1, next.count())
}
