// Package organize implements the producers that feed the operation
// log: the Mover relocates files into destination directories, the
// Renamer renames files in place. Every successful file operation
// appends exactly one completed record; failed attempts are reported
// but never logged.
package organize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pkalnins/shelf/internal/fsutil"
	"github.com/pkalnins/shelf/internal/models"
	"github.com/pkalnins/shelf/internal/store"
)

// MoveRequest names one file to relocate into a destination directory.
type MoveRequest struct {
	SourcePath string
	TargetDir  string
}

// BatchResult reports what a producer did for one user-triggered action.
type BatchResult struct {
	BatchID   string   `json:"batch_id"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Mover relocates files and records each successful move in the log.
type Mover struct {
	store  *store.Store
	logger *slog.Logger
}

// NewMover creates a mover producer.
func NewMover(st *store.Store, logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{store: st, logger: logger}
}

// Execute moves every requested file under one shared batch id. Name
// collisions at the destination get a numeric suffix. A per-file failure
// is counted and reported but does not stop the batch; a log-store
// failure does, since without the log the move would be unrecoverable.
func (m *Mover) Execute(ctx context.Context, reqs []MoveRequest) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.New().String()}

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		target := filepath.Join(req.TargetDir, filepath.Base(req.SourcePath))
		actual, err := m.moveOne(req.SourcePath, target)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(req.SourcePath), err))
			continue
		}

		if err := m.append(result.BatchID, models.KindMove, req.SourcePath, actual, ""); err != nil {
			return result, err
		}
		result.Completed++
	}

	m.logger.Info("move batch executed",
		"batch_id", result.BatchID,
		"completed", result.Completed,
		"failed", result.Failed,
	)
	return result, nil
}

// moveOne performs a single move and returns the actual target path
// after collision resolution.
func (m *Mover) moveOne(source, target string) (string, error) {
	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("source no longer exists: %s", source)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}

	actual, err := fsutil.ResolveCollision(target)
	if err != nil {
		return "", err
	}
	if err := fsutil.MoveFile(source, actual); err != nil {
		return "", err
	}
	return actual, nil
}

// append writes the producer record for a successful operation.
func (m *Mover) append(batchID string, kind models.OperationKind, source, target, mode string) error {
	_, err := m.store.Append(&models.Operation{
		BatchID:    batchID,
		Kind:       kind,
		SourcePath: source,
		TargetPath: target,
		Timestamp:  time.Now().UTC(),
		Status:     models.StatusCompleted,
		Mode:       mode,
	})
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}
