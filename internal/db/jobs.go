package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrJobNotFound is returned when touching a hash that has no row.
var ErrJobNotFound = errors.New("job not found")

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// FindJobByHash returns the job with the given content hash, or nil.
func (db *DB) FindJobByHash(ctx context.Context, hash string) (*JobRow, error) {
	var j JobRow
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, company, location, sector, application_url, source_url,
		        discovery_method, source_platform, content_hash, is_active,
		        scraped_at, first_seen, last_seen
		 FROM jobs WHERE content_hash = $1`,
		hash,
	).Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Sector, &j.ApplicationURL,
		&j.SourceURL, &j.DiscoveryMethod, &j.SourcePlatform, &j.ContentHash,
		&j.IsActive, &j.ScrapedAt, &j.FirstSeen, &j.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find job by hash: %w", err)
	}
	return &j, nil
}

// InsertJob creates an active job row. If a row with the same hash already
// exists (a concurrent import won the race) only its last_seen is refreshed
// and inserted is false.
func (db *DB) InsertJob(ctx context.Context, input *JobInsertInput) (inserted bool, err error) {
	seen := input.SeenAt
	if seen.IsZero() {
		seen = time.Now().UTC()
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, title, company, location, sector, application_url,
		                   source_url, discovery_method, source_platform, content_hash,
		                   is_active, scraped_at, first_seen, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $12, $12)
		 ON CONFLICT (content_hash) DO UPDATE SET last_seen = EXCLUDED.last_seen
		 RETURNING (xmax = 0)`,
		uuid.New(), input.Title, input.Company, input.Location, input.Sector,
		input.ApplicationURL, input.SourceURL, input.DiscoveryMethod, SourcePlatform,
		input.ContentHash, scrapedAtParam(input.ScrapedAt), seen,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to insert job: %w", err)
	}
	return inserted, nil
}

// TouchJob refreshes last_seen without changing any other field.
func (db *DB) TouchJob(ctx context.Context, hash string, seenAt time.Time) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET last_seen = $2 WHERE content_hash = $1`,
		hash, seenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to touch job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// CountJobs returns the number of job rows from the pipeline.
func (db *DB) CountJobs(ctx context.Context) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE source_platform = $1`, SourcePlatform,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}
