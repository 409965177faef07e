package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonathan/careerscout/internal/logging"
	"github.com/jonathan/careerscout/internal/schemas"
	"github.com/jonathan/careerscout/internal/types"
)

// CheckpointStore persists completed batches. The runner only writes; the
// import step lists and marks.
type CheckpointStore interface {
	Write(ctx context.Context, result *types.BatchResult) error
	Exists(ctx context.Context, batchNumber int) (bool, error)
	List(ctx context.Context) ([]Checkpoint, error)
	ListPending(ctx context.Context) ([]Checkpoint, error)
	MarkImported(ctx context.Context, batchNumber int) error
}

// Checkpoint is one stored batch.
type Checkpoint struct {
	BatchNumber int
	Path        string
	Imported    bool
	Result      *types.BatchResult
}

const importedSuffix = ".imported"

// FileStore keeps one batch_NNN.json file per batch in a directory. Files
// are written atomically; an adjacent .imported marker records import.
type FileStore struct {
	dir string
	log *logging.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{dir: dir, log: logger}, nil
}

// Dir returns the checkpoint directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file path for a batch number.
func (s *FileStore) Path(batchNumber int) string {
	return filepath.Join(s.dir, fmt.Sprintf("batch_%03d.json", batchNumber))
}

// Write stores result, replacing any earlier checkpoint with the same number.
func (s *FileStore) Write(_ context.Context, result *types.BatchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch %d: %w", result.BatchNumber, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".batch_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	path := s.Path(result.BatchNumber)
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move checkpoint into place: %w", err)
	}

	// New content has not been imported yet
	if err := os.Remove(path + importedSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear import marker: %w", err)
	}

	return nil
}

// Exists reports whether a checkpoint for batchNumber is on disk.
func (s *FileStore) Exists(_ context.Context, batchNumber int) (bool, error) {
	_, err := os.Stat(s.Path(batchNumber))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat checkpoint %d: %w", batchNumber, err)
	}
}

// List loads every valid checkpoint in batch-number order. Files that fail
// schema validation are logged and skipped.
func (s *FileStore) List(_ context.Context) ([]Checkpoint, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "batch_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	checkpoints := make([]Checkpoint, 0, len(paths))
	for _, path := range paths {
		var n int
		if _, err := fmt.Sscanf(filepath.Base(path), "batch_%d.json", &n); err != nil {
			continue
		}

		result, err := LoadCheckpoint(path)
		if err != nil {
			s.log.Warn("skipping unreadable checkpoint", "path", path, "err", err)
			continue
		}

		_, statErr := os.Stat(path + importedSuffix)
		checkpoints = append(checkpoints, Checkpoint{
			BatchNumber: n,
			Path:        path,
			Imported:    statErr == nil,
			Result:      result,
		})
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].BatchNumber < checkpoints[j].BatchNumber
	})
	return checkpoints, nil
}

// ListPending is List without checkpoints already marked imported.
func (s *FileStore) ListPending(ctx context.Context) ([]Checkpoint, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, cp := range all {
		if !cp.Imported {
			pending = append(pending, cp)
		}
	}
	return pending, nil
}

// MarkImported records that a checkpoint has been imported.
func (s *FileStore) MarkImported(_ context.Context, batchNumber int) error {
	path := s.Path(batchNumber)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("checkpoint %d not found: %w", batchNumber, err)
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339) + "\n")
	if err := os.WriteFile(path+importedSuffix, stamp, 0644); err != nil {
		return fmt.Errorf("failed to mark checkpoint %d imported: %w", batchNumber, err)
	}
	return nil
}

// LoadCheckpoint reads and schema-validates one checkpoint file.
func LoadCheckpoint(path string) (*types.BatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if err := schemas.ValidateCheckpoint(data); err != nil {
		return nil, fmt.Errorf("invalid checkpoint %s: %w", filepath.Base(path), err)
	}

	var result types.BatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return &result, nil
}
