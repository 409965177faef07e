package fetch

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"
)

// DirectClient fetches raw HTML over plain HTTP without rendering.
// Useful for server-rendered sites and local runs without a service key.
type DirectClient struct {
	userAgent string
	timeout   time.Duration
}

// NewDirectClient creates a plain HTTP client.
func NewDirectClient(timeout time.Duration) *DirectClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DirectClient{userAgent: DefaultUserAgent, timeout: timeout}
}

// Fetch performs one GET; the wait budget only extends the deadline.
// Cancelling ctx returns immediately with a transport error.
func (d *DirectClient) Fetch(ctx context.Context, target string, wait time.Duration) (*Result, error) {
	if err := validateURL(target); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(target, "request cancelled", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(d.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodyBytes),
	)
	c.SetRequestTimeout(wait + d.timeout)

	var (
		html   string
		status int
		reqErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "en-CA,en;q=0.9")
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		html = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	// colly cannot cancel an in-flight request, so the visit runs aside and
	// cancellation returns at once; the request ends at its own deadline.
	done := make(chan error, 1)
	go func() {
		err := c.Visit(target)
		c.Wait()
		done <- err
	}()

	var visitErr error
	select {
	case <-ctx.Done():
		return nil, transportError(target, "request cancelled", ctx.Err())
	case visitErr = <-done:
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(target, "request cancelled", err)
	}

	if status != 0 && status != 200 {
		return &Result{URL: target, HTML: html, StatusCode: status, FetchedAt: time.Now().UTC()}, httpError(target, status)
	}
	if reqErr == nil {
		reqErr = visitErr
	}
	if reqErr != nil {
		return nil, transportError(target, "HTTP request failed", reqErr)
	}

	return &Result{
		URL:        target,
		HTML:       html,
		StatusCode: status,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
