package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertScrapingStats writes one run-statistics row and fills in its ID.
func (db *DB) InsertScrapingStats(ctx context.Context, stats *ScrapingStats) error {
	if stats.ID == uuid.Nil {
		stats.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO scraping_stats (id, platform, jobs_found, jobs_processed,
		                             jobs_added, duplicates_found, execution_time_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		stats.ID, stats.Platform, stats.JobsFound, stats.JobsProcessed,
		stats.JobsAdded, stats.DuplicatesFound, stats.ExecutionTimeMs,
	).Scan(&stats.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert scraping stats: %w", err)
	}
	return nil
}

// LatestScrapingStats returns the most recent stats rows, newest first.
func (db *DB) LatestScrapingStats(ctx context.Context, limit int) ([]ScrapingStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, platform, jobs_found, jobs_processed, jobs_added,
		        duplicates_found, execution_time_ms, created_at
		 FROM scraping_stats ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraping stats: %w", err)
	}
	defer rows.Close()

	var out []ScrapingStats
	for rows.Next() {
		var s ScrapingStats
		if err := rows.Scan(&s.ID, &s.Platform, &s.JobsFound, &s.JobsProcessed,
			&s.JobsAdded, &s.DuplicatesFound, &s.ExecutionTimeMs, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scraping stats: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scraping stats: %w", err)
	}
	return out, nil
}
