//go:build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return db
}

func cleanupJob(t *testing.T, db *DB, hash string) {
	t.Helper()
	_, _ = db.pool.Exec(context.Background(), "DELETE FROM jobs WHERE content_hash = $1", hash)
}

// =============================================================================
// Job Integration Tests
// =============================================================================

func TestIntegration_Jobs_InsertFindTouch(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	hash := uuid.New().String()[:32]
	defer cleanupJob(t, db, hash)

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	input := &JobInsertInput{
		Title:           "Senior Engineer",
		Company:         "Integration Test Mining",
		Location:        "Vancouver, BC",
		Sector:          "mining",
		ApplicationURL:  "https://boards.greenhouse.io/test/jobs/1",
		SourceURL:       "https://boards.greenhouse.io/test",
		DiscoveryMethod: "external_portal",
		ContentHash:     hash,
		ScrapedAt:       first,
		SeenAt:          first,
	}

	t.Run("insert new", func(t *testing.T) {
		inserted, err := db.InsertJob(ctx, input)
		if err != nil {
			t.Fatalf("InsertJob failed: %v", err)
		}
		if !inserted {
			t.Error("first insert should report inserted=true")
		}
	})

	t.Run("find by hash", func(t *testing.T) {
		row, err := db.FindJobByHash(ctx, hash)
		if err != nil {
			t.Fatalf("FindJobByHash failed: %v", err)
		}
		if row == nil {
			t.Fatal("expected row")
		}
		if row.SourcePlatform != SourcePlatform {
			t.Errorf("SourcePlatform = %q, want %q", row.SourcePlatform, SourcePlatform)
		}
		if !row.IsActive {
			t.Error("new rows must be active")
		}
	})

	t.Run("conflicting insert only refreshes last_seen", func(t *testing.T) {
		again := *input
		again.Title = "Changed Title"
		again.SeenAt = time.Now().UTC()

		inserted, err := db.InsertJob(ctx, &again)
		if err != nil {
			t.Fatalf("InsertJob failed: %v", err)
		}
		if inserted {
			t.Error("conflicting insert should report inserted=false")
		}

		row, _ := db.FindJobByHash(ctx, hash)
		if row.Title != "Senior Engineer" {
			t.Errorf("Title = %q, existing fields must not be overwritten", row.Title)
		}
		if !row.LastSeen.After(first) {
			t.Error("last_seen should advance")
		}
	})

	t.Run("touch", func(t *testing.T) {
		later := time.Now().UTC().Add(time.Minute)
		if err := db.TouchJob(ctx, hash, later); err != nil {
			t.Fatalf("TouchJob failed: %v", err)
		}
		if err := db.TouchJob(ctx, "missing-"+hash, later); !errors.Is(err, ErrJobNotFound) {
			t.Errorf("TouchJob(missing) = %v, want ErrJobNotFound", err)
		}
	})

	t.Run("find missing", func(t *testing.T) {
		row, err := db.FindJobByHash(ctx, "no-such-hash")
		if err != nil {
			t.Fatalf("FindJobByHash failed: %v", err)
		}
		if row != nil {
			t.Error("expected nil row")
		}
	})
}

func TestIntegration_ScrapingStats(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	stats := &ScrapingStats{
		Platform:        SourcePlatform,
		JobsFound:       10,
		JobsProcessed:   9,
		JobsAdded:       6,
		DuplicatesFound: 3,
		ExecutionTimeMs: 1234,
	}
	if err := db.InsertScrapingStats(ctx, stats); err != nil {
		t.Fatalf("InsertScrapingStats failed: %v", err)
	}
	defer func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM scraping_stats WHERE id = $1", stats.ID)
	}()

	if stats.ID == uuid.Nil || stats.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be populated")
	}

	latest, err := db.LatestScrapingStats(ctx, 5)
	if err != nil {
		t.Fatalf("LatestScrapingStats failed: %v", err)
	}
	if len(latest) == 0 {
		t.Fatal("expected at least one stats row")
	}
}
