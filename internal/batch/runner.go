// Package batch runs discovery over a company list in fixed-size batches,
// writing one checkpoint per completed batch.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/careerscout/internal/discovery"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/types"
)

// DefaultBatchSize is the number of companies per checkpoint.
const DefaultBatchSize = 20

// Discoverer finds jobs for one company. Failures are reported in the result.
type Discoverer interface {
	Discover(ctx context.Context, company types.Company) types.CompanyResult
}

// Config controls batching and pacing.
type Config struct {
	BatchSize    int
	CompanyDelay time.Duration
	Workers      int  // 1 processes companies strictly in sequence
	Resume       bool // Skip batches that already have a checkpoint
}

// EventKind identifies a progress event.
type EventKind string

const (
	EventCompanyDone  EventKind = "company_done"
	EventBatchDone    EventKind = "batch_done"
	EventBatchSkipped EventKind = "batch_skipped"
)

// Totals are the running counters across the whole run.
type Totals struct {
	Companies  int
	Successful int
	Jobs       int
}

// ProgressEvent is emitted after each company and each batch.
type ProgressEvent struct {
	Kind        EventKind
	BatchNumber int
	Position    int // 1-based position within the batch
	BatchSize   int
	Company     *types.CompanyResult
	Batch       *types.BatchResult
	Totals      Totals
}

// ProgressCallback receives progress events. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// Summary describes a finished (or interrupted) run.
type Summary struct {
	Batches        int
	SkippedBatches int
	Totals         Totals
	Elapsed        time.Duration
	Interrupted    bool
}

// SuccessRate is the fraction of processed companies that succeeded.
func (s *Summary) SuccessRate() float64 {
	if s.Totals.Companies == 0 {
		return 0
	}
	return float64(s.Totals.Successful) / float64(s.Totals.Companies)
}

// Runner drives discovery batch by batch.
type Runner struct {
	discoverer Discoverer
	store      CheckpointStore
	cfg        Config
	log        *logging.Logger
	progress   ProgressCallback
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	mu     sync.Mutex
	totals Totals
	ran    int // companies started, for the inter-company delay
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress registers a progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(r *Runner) { r.progress = cb }
}

// WithSleep replaces the inter-company delay implementation.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// WithClock sets the time source for checkpoint timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(d Discoverer, store CheckpointStore, cfg Config, logger *logging.Logger, opts ...Option) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		discoverer: d,
		store:      store,
		cfg:        cfg,
		log:        logger,
		sleep:      discovery.SleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Split cuts companies into consecutive chunks of at most size.
func Split(companies []types.Company, size int) [][]types.Company {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]types.Company
	for start := 0; start < len(companies); start += size {
		end := start + size
		if end > len(companies) {
			end = len(companies)
		}
		chunks = append(chunks, companies[start:end])
	}
	return chunks
}

// Run processes every batch in order. A batch interrupted by cancellation
// is not written; every batch completed before it already is. The returned
// error is non-nil only when a checkpoint cannot be stored.
func (r *Runner) Run(ctx context.Context, companies []types.Company) (*Summary, error) {
	start := r.now()
	summary := &Summary{}
	chunks := Split(companies, r.cfg.BatchSize)

	r.log.Info("starting discovery run",
		"companies", len(companies),
		"batches", len(chunks),
		"batch_size", r.cfg.BatchSize,
		"workers", r.cfg.Workers)

	for i, chunk := range chunks {
		batchNumber := i + 1

		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		if r.cfg.Resume {
			exists, err := r.store.Exists(ctx, batchNumber)
			if err != nil {
				return r.finish(summary, start), err
			}
			if exists {
				summary.SkippedBatches++
				r.log.Info("skipping checkpointed batch", "batch", batchNumber)
				r.emit(ProgressEvent{Kind: EventBatchSkipped, BatchNumber: batchNumber, BatchSize: len(chunk)})
				continue
			}
		}

		r.log.Info("starting batch", "batch", batchNumber, "of", len(chunks), "companies", len(chunk))

		var (
			result   *types.BatchResult
			complete bool
		)
		if r.cfg.Workers > 1 {
			result, complete = r.runConcurrent(ctx, batchNumber, chunk)
		} else {
			result, complete = r.runSequential(ctx, batchNumber, chunk)
		}
		if !complete {
			r.log.Warn("batch interrupted, not checkpointed", "batch", batchNumber, "processed", len(result.Results))
			summary.Interrupted = true
			break
		}

		if err := r.store.Write(ctx, result); err != nil {
			return r.finish(summary, start), fmt.Errorf("failed to write checkpoint for batch %d: %w", batchNumber, err)
		}
		summary.Batches++

		totals := r.snapshot()
		r.log.Info("batch complete",
			"batch", batchNumber,
			"successful", result.SuccessfulCompanies,
			"jobs", result.TotalJobs,
			"successful_total", totals.Successful,
			"jobs_total", totals.Jobs)
		r.emit(ProgressEvent{Kind: EventBatchDone, BatchNumber: batchNumber, BatchSize: len(chunk), Batch: result, Totals: totals})
	}

	return r.finish(summary, start), nil
}

func (r *Runner) finish(summary *Summary, start time.Time) *Summary {
	summary.Totals = r.snapshot()
	summary.Elapsed = r.now().Sub(start)
	return summary
}

func (r *Runner) newBatch(batchNumber, size int) *types.BatchResult {
	return &types.BatchResult{
		BatchNumber: batchNumber,
		ScrapedAt:   r.now().UTC(),
		Results:     make([]types.CompanyResult, 0, size),
	}
}

// runSequential processes companies in list order with a fixed delay
// between them.
func (r *Runner) runSequential(ctx context.Context, batchNumber int, chunk []types.Company) (*types.BatchResult, bool) {
	result := r.newBatch(batchNumber, len(chunk))

	for i, company := range chunk {
		if r.ran > 0 {
			if err := r.sleep(ctx, r.cfg.CompanyDelay); err != nil {
				return result, false
			}
		}
		r.ran++

		res := r.discoverer.Discover(ctx, company)
		if ctx.Err() != nil {
			return result, false
		}

		result.Results = append(result.Results, res)
		r.record(batchNumber, i+1, len(chunk), &result.Results[len(result.Results)-1])
	}

	result.Recount()
	return result, true
}

// runConcurrent processes a batch with a bounded worker pool. Company starts
// are spaced by CompanyDelay across all workers and results keep list order.
func (r *Runner) runConcurrent(ctx context.Context, batchNumber int, chunk []types.Company) (*types.BatchResult, bool) {
	result := r.newBatch(batchNumber, len(chunk))
	results := make([]types.CompanyResult, len(chunk))

	var limiter *rate.Limiter
	if r.cfg.CompanyDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(r.cfg.CompanyDelay), 1)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, company := range chunk {
		i, company := i, company
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}
			}
			res := r.discoverer.Discover(gCtx, company)
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = res
			r.record(batchNumber, i+1, len(chunk), &results[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return result, false
	}

	result.Results = append(result.Results, results...)
	result.Recount()
	return result, true
}

// record updates running totals and reports one finished company.
func (r *Runner) record(batchNumber, position, size int, res *types.CompanyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totals.Companies++
	if res.Success {
		r.totals.Successful++
		r.totals.Jobs += len(res.Jobs)
	}
	totals := r.totals

	if res.Success {
		r.log.Info("company succeeded",
			"batch", batchNumber,
			"position", position,
			"company", res.Company,
			"jobs", len(res.Jobs),
			"method", string(res.DiscoveryMethod),
			"elapsed_ms", res.TimeElapsed,
			"successful_total", totals.Successful,
			"jobs_total", totals.Jobs)
	} else {
		r.log.Info("company failed",
			"batch", batchNumber,
			"position", position,
			"company", res.Company,
			"reason", res.Error,
			"elapsed_ms", res.TimeElapsed,
			"successful_total", totals.Successful,
			"jobs_total", totals.Jobs)
	}

	if r.progress != nil {
		r.progress(ProgressEvent{
			Kind:        EventCompanyDone,
			BatchNumber: batchNumber,
			Position:    position,
			BatchSize:   size,
			Company:     res,
			Totals:      totals,
		})
	}
}

func (r *Runner) emit(event ProgressEvent) {
	if r.progress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress(event)
}

func (r *Runner) snapshot() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals
}
