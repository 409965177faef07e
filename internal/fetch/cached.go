package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/careerscout/internal/logging"
)

// DefaultPageCacheTTL is how long a fetched page is reused.
const DefaultPageCacheTTL = 6 * time.Hour

const pageKeyPrefix = "careerscout:page:"

// CachedFetcher serves recently fetched pages from redis and delegates
// misses. Only successful fetches are stored. When redis is unavailable the
// cache is bypassed and a warning is logged once.
type CachedFetcher struct {
	next Fetcher
	rdb  redis.Cmdable
	ttl  time.Duration
	log  *logging.Logger

	warned atomic.Bool
}

type cachedPage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewCachedFetcher wraps next. A nil rdb disables caching.
func NewCachedFetcher(next Fetcher, rdb redis.Cmdable, ttl time.Duration, logger *logging.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CachedFetcher{next: next, rdb: rdb, ttl: ttl, log: logger}
}

// Fetch returns a cached page when fresh, otherwise fetches and stores it.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string, wait time.Duration) (*Result, error) {
	if f.rdb == nil {
		return f.next.Fetch(ctx, urlStr, wait)
	}

	key := pageKey(urlStr)

	raw, err := f.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page cachedPage
		if jsonErr := json.Unmarshal(raw, &page); jsonErr == nil {
			return &Result{
				URL:        page.URL,
				HTML:       page.HTML,
				StatusCode: page.StatusCode,
				FetchedAt:  page.FetchedAt,
				FromCache:  true,
			}, nil
		}
	case errors.Is(err, redis.Nil):
	default:
		f.warnOnce(err)
	}

	result, err := f.next.Fetch(ctx, urlStr, wait)
	if err != nil {
		return result, err
	}

	payload, err := json.Marshal(cachedPage{
		URL:        result.URL,
		HTML:       result.HTML,
		StatusCode: result.StatusCode,
		FetchedAt:  result.FetchedAt,
	})
	if err == nil {
		if setErr := f.rdb.Set(ctx, key, payload, f.ttl).Err(); setErr != nil {
			f.warnOnce(setErr)
		}
	}

	return result, nil
}

// Invalidate drops a cached page, forcing a re-fetch on next request.
func (f *CachedFetcher) Invalidate(ctx context.Context, urlStr string) error {
	if f.rdb == nil {
		return nil
	}
	return f.rdb.Del(ctx, pageKey(urlStr)).Err()
}

func (f *CachedFetcher) warnOnce(err error) {
	if f.warned.CompareAndSwap(false, true) {
		f.log.Warn("page cache unavailable, bypassing", "err", err)
	}
}

func pageKey(urlStr string) string {
	sum := sha256.Sum256([]byte(urlStr))
	return pageKeyPrefix + hex.EncodeToString(sum[:16])
}
