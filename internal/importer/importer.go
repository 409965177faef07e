// Package importer upserts discovered jobs into the datastore, keyed by a
// content fingerprint so that repeated imports converge.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/careerscout/internal/batch"
	"github.com/jonathan/careerscout/internal/db"
	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/types"
)

// Store is the datastore surface used by the import.
type Store interface {
	FindJobByHash(ctx context.Context, hash string) (*db.JobRow, error)
	InsertJob(ctx context.Context, input *db.JobInsertInput) (bool, error)
	TouchJob(ctx context.Context, hash string, seenAt time.Time) error
	InsertScrapingStats(ctx context.Context, stats *db.ScrapingStats) error
}

// DatastoreError wraps a failed lookup, insert or update for one job.
type DatastoreError struct {
	Op    string
	Hash  string
	Cause error
}

func (e *DatastoreError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("datastore error: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("datastore error: %s %s: %v", e.Op, e.Hash, e.Cause)
}

func (e *DatastoreError) Unwrap() error {
	return e.Cause
}

// Counters track one import run.
type Counters struct {
	Found      int // Jobs on successful company results
	Processed  int // Jobs that survived title cleaning
	Imported   int // New rows
	Duplicates int // Existing rows refreshed
	Failed     int // Datastore errors, skipped
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.Found += other.Found
	c.Processed += other.Processed
	c.Imported += other.Imported
	c.Duplicates += other.Duplicates
	c.Failed += other.Failed
}

// Report is the outcome of Run.
type Report struct {
	Batches  int
	Counters Counters
	Elapsed  time.Duration
	Stats    *db.ScrapingStats
}

// Importer moves jobs from batch results into the datastore.
type Importer struct {
	store Store
	log   *logging.Logger
	now   func() time.Time
}

// New creates an Importer.
func New(store Store, logger *logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{store: store, log: logger, now: time.Now}
}

// ImportBatch imports every job of every successful result in one batch.
// A datastore error on one job is logged and the job skipped.
func (im *Importer) ImportBatch(ctx context.Context, result *types.BatchResult) (Counters, error) {
	var c Counters
	for i := range result.Results {
		res := &result.Results[i]
		if !res.Success {
			continue
		}
		for j := range res.Jobs {
			if err := ctx.Err(); err != nil {
				return c, err
			}
			im.importJob(ctx, &res.Jobs[j], &c)
		}
	}
	return c, nil
}

func (im *Importer) importJob(ctx context.Context, job *types.JobRecord, c *Counters) {
	c.Found++

	title := CleanTitle(job.Title)
	if !keepTitle(title) {
		im.log.Debug("discarding job title", "company", job.Company, "title", job.Title)
		return
	}
	c.Processed++

	hash := Fingerprint(title, job.Company, job.Location, job.Sector)
	seen := im.now().UTC()
	log := im.log.With("company", job.Company, "title", title, "hash", hash)

	existing, err := im.store.FindJobByHash(ctx, hash)
	if err != nil {
		c.Failed++
		log.Error("job lookup failed", "err", &DatastoreError{Op: "lookup", Hash: hash, Cause: err})
		return
	}

	if existing != nil {
		if err := im.store.TouchJob(ctx, hash, seen); err != nil {
			c.Failed++
			log.Error("job update failed", "err", &DatastoreError{Op: "update", Hash: hash, Cause: err})
			return
		}
		c.Duplicates++
		log.Debug("duplicate job, last_seen refreshed")
		return
	}

	inserted, err := im.store.InsertJob(ctx, &db.JobInsertInput{
		Title:           title,
		Company:         job.Company,
		Location:        job.Location,
		Sector:          job.Sector,
		ApplicationURL:  job.ApplicationURL,
		SourceURL:       job.SourceURL,
		DiscoveryMethod: string(job.DiscoveryMethod),
		ContentHash:     hash,
		ScrapedAt:       job.ScrapedAt,
		SeenAt:          seen,
	})
	if err != nil {
		c.Failed++
		log.Error("job insert failed", "err", &DatastoreError{Op: "insert", Hash: hash, Cause: err})
		return
	}
	if !inserted {
		c.Duplicates++
		log.Debug("job inserted concurrently, last_seen refreshed")
		return
	}
	c.Imported++
	log.Debug("job imported")
}

// Run imports checkpoints from store: pending ones, or all when all is set.
// Each imported checkpoint is marked, and one stats row is written per run.
func (im *Importer) Run(ctx context.Context, store batch.CheckpointStore, all bool) (*Report, error) {
	start := im.now()

	var (
		checkpoints []batch.Checkpoint
		err         error
	)
	if all {
		checkpoints, err = store.List(ctx)
	} else {
		checkpoints, err = store.ListPending(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	report := &Report{}
	im.log.Info("starting import", "checkpoints", len(checkpoints), "all", all)

	for _, cp := range checkpoints {
		counters, err := im.ImportBatch(ctx, cp.Result)
		report.Counters.Add(counters)
		if err != nil {
			report.Elapsed = im.now().Sub(start)
			return report, fmt.Errorf("import interrupted at batch %d: %w", cp.BatchNumber, err)
		}
		report.Batches++

		if err := store.MarkImported(ctx, cp.BatchNumber); err != nil {
			im.log.Warn("failed to mark checkpoint imported", "batch", cp.BatchNumber, "err", err)
		}

		im.log.Info("batch imported",
			"batch", cp.BatchNumber,
			"found", counters.Found,
			"imported", counters.Imported,
			"duplicates", counters.Duplicates,
			"failed", counters.Failed)
	}

	report.Elapsed = im.now().Sub(start)
	report.Stats = &db.ScrapingStats{
		Platform:        db.SourcePlatform,
		JobsFound:       report.Counters.Found,
		JobsProcessed:   report.Counters.Processed,
		JobsAdded:       report.Counters.Imported,
		DuplicatesFound: report.Counters.Duplicates,
		ExecutionTimeMs: report.Elapsed.Milliseconds(),
	}
	if err := im.store.InsertScrapingStats(ctx, report.Stats); err != nil {
		im.log.Warn("failed to record scraping stats", "err", &DatastoreError{Op: "stats", Cause: err})
	}

	return report, nil
}
