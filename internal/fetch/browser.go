// Package fetch - browser.go renders pages locally with headless Chrome.
package fetch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/careerscout/internal/logging"
)

// BrowserClient renders pages with a shared headless Chrome allocator.
// Requires Chrome/Chromium to be installed on the system.
type BrowserClient struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	log      *logging.Logger
}

// NewBrowserClient starts the allocator; call Close when done.
func NewBrowserClient(ctx context.Context, timeout time.Duration, logger *logging.Logger) *BrowserClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
		)...,
	)

	return &BrowserClient{allocCtx: allocCtx, cancel: cancel, timeout: timeout, log: logger}
}

// Close shuts the browser down.
func (b *BrowserClient) Close() {
	b.cancel()
}

// Fetch navigates to target in a fresh tab, waits the budget for scripts to
// settle, and returns the rendered document.
func (b *BrowserClient) Fetch(ctx context.Context, target string, wait time.Duration) (*Result, error) {
	if err := validateURL(target); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()

	// Tie the tab to the caller's context as well as the allocator
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancel := context.WithTimeout(tabCtx, wait+b.timeout)
	defer cancel()

	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	b.log.Debug("rendering page", "url", target, "wait_ms", wait.Milliseconds())

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, transportError(target, "browser rendering failed", err)
	}

	result := &Result{
		URL:        target,
		HTML:       html,
		StatusCode: int(status.Load()),
		FetchedAt:  time.Now().UTC(),
	}
	if result.StatusCode != 0 && result.StatusCode != 200 {
		return result, httpError(target, result.StatusCode)
	}
	if result.StatusCode == 0 {
		result.StatusCode = 200
	}

	return result, nil
}
