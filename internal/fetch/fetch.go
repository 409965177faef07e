// Package fetch wraps the external rendering service behind a URL-in/HTML-out
// contract. Clients never retry; fallback is the caller's decision.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the transport allowance added on top of a wait budget.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is the user agent string for direct HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CareerScout/1.0)"

// maxBodyBytes bounds how much HTML is read from one response.
const maxBodyBytes = 10 << 20

// Fetcher retrieves rendered HTML for a URL within a wait budget.
type Fetcher interface {
	Fetch(ctx context.Context, url string, wait time.Duration) (*Result, error)
}

// Result holds the rendered content of one URL.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
	FetchedAt  time.Time
	FromCache  bool
}

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	// KindTimedOut means the wait budget or transport deadline elapsed
	KindTimedOut ErrorKind = "timed_out"
	// KindHTTP means the upstream answered with a non-200 status
	KindHTTP ErrorKind = "http_error"
	// KindTransport covers every other network or protocol failure
	KindTransport ErrorKind = "transport_error"
)

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of a fetch error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	return ""
}

// httpError builds the error for a non-200 upstream status.
func httpError(urlStr string, status int) *Error {
	return &Error{
		URL:        urlStr,
		Kind:       KindHTTP,
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP status %d", status),
	}
}

// transportError classifies a low-level failure as timed out or transport.
func transportError(urlStr, message string, err error) *Error {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimedOut
	}
	return &Error{URL: urlStr, Kind: kind, Message: message, Cause: err}
}

// validateURL checks a target has a scheme and host.
func validateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &Error{URL: urlStr, Kind: KindTransport, Message: "invalid URL", Cause: err}
	}
	return nil
}

// ServiceConfig configures the rendering service client.
type ServiceConfig struct {
	Endpoint    string
	APIKey      string
	CountryCode string
	RenderJS    bool
	Timeout     time.Duration // Transport allowance on top of the wait budget
}

// ServiceClient calls the external rendering service:
// fetch(url, countryCode, renderJs, waitMs) -> (statusCode, html).
type ServiceClient struct {
	cfg    ServiceConfig
	client *http.Client
}

// NewServiceClient creates a client for the rendering service.
func NewServiceClient(cfg ServiceConfig) *ServiceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ServiceClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Fetch asks the service to render target and returns its HTML.
func (c *ServiceClient) Fetch(ctx context.Context, target string, wait time.Duration) (*Result, error) {
	if err := validateURL(target); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, &Error{URL: target, Kind: KindTransport, Message: "invalid service endpoint", Cause: err}
	}

	params := endpoint.Query()
	params.Set("api_key", c.cfg.APIKey)
	params.Set("url", target)
	if c.cfg.CountryCode != "" {
		params.Set("country_code", c.cfg.CountryCode)
	}
	params.Set("render", strconv.FormatBool(c.cfg.RenderJS))
	if wait > 0 {
		params.Set("wait", strconv.FormatInt(wait.Milliseconds(), 10))
	}
	endpoint.RawQuery = params.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, wait+c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &Error{URL: target, Kind: KindTransport, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(target, "rendering service request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(target, "failed to read response body", err)
	}

	result := &Result{
		URL:        target,
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}

	// The service contract treats anything but 200 as a failure for that URL
	if resp.StatusCode != http.StatusOK {
		return result, httpError(target, resp.StatusCode)
	}

	return result, nil
}

// hostOf returns the lowercased host of a URL, or "" when it has none.
func hostOf(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
