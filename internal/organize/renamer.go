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

// RenameRequest names one file and its new base name. The file stays in
// its directory.
type RenameRequest struct {
	Path    string
	NewName string
}

// Renamer renames files in place and records each successful rename.
type Renamer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewRenamer creates a renamer producer.
func NewRenamer(st *store.Store, logger *slog.Logger) *Renamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renamer{store: st, logger: logger}
}

// Execute renames every requested file under one shared batch id. The
// mode tag (e.g. "fast" or "smart") records which naming strategy
// produced the new names; it is provenance only and never drives revert
// logic.
func (r *Renamer) Execute(ctx context.Context, mode string, reqs []RenameRequest) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.New().String()}

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		actual, err := r.renameOne(req)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(req.Path), err))
			continue
		}

		_, err = r.store.Append(&models.Operation{
			BatchID:    result.BatchID,
			Kind:       models.KindRename,
			SourcePath: req.Path,
			TargetPath: actual,
			Timestamp:  time.Now().UTC(),
			Status:     models.StatusCompleted,
			Mode:       mode,
		})
		if err != nil {
			return result, fmt.Errorf("record operation: %w", err)
		}
		result.Completed++
	}

	r.logger.Info("rename batch executed",
		"batch_id", result.BatchID,
		"mode", mode,
		"completed", result.Completed,
		"failed", result.Failed,
	)
	return result, nil
}

func (r *Renamer) renameOne(req RenameRequest) (string, error) {
	if req.NewName == "" || req.NewName != filepath.Base(req.NewName) {
		return "", fmt.Errorf("invalid new name: %q", req.NewName)
	}
	if _, err := os.Stat(req.Path); err != nil {
		return "", fmt.Errorf("file no longer exists: %s", req.Path)
	}

	target := filepath.Join(filepath.Dir(req.Path), req.NewName)
	if target == req.Path {
		return "", fmt.Errorf("new name equals current name")
	}

	actual, err := fsutil.ResolveCollision(target)
	if err != nil {
		return "", err
	}
	if err := fsutil.MoveFile(req.Path, actual); err != nil {
		return "", err
	}
	return actual, nil
}
