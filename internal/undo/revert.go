package undo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkalnins/shelf/internal/fsutil"
	"github.com/pkalnins/shelf/internal/models"
	"github.com/pkalnins/shelf/internal/store"
)

// Engine performs compensating actions against the operation log. All
// status mutations go through the store's guarded update, and reverts of
// the same record are additionally serialized in-process, so concurrent
// duplicate requests resolve to exactly one reverted outcome.
type Engine struct {
	store     *store.Store
	validator *Validator
	tracker   *Tracker
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine creates a revert engine.
func NewEngine(st *store.Store, v *Validator, tr *Tracker, logger *slog.Logger) *Engine {
	if v == nil {
		v = NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     st,
		validator: v,
		tracker:   tr,
		logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// Tracker returns the progress tracker fed by batch reverts.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// lockRecord serializes reverts of a single record within this process.
func (e *Engine) lockRecord(id int64) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RevertOne reverts a single operation record: validate, perform the
// inverse file move, update the record status. The returned error is
// non-nil only for storage faults (including an unknown id, which maps
// to store.ErrNotFound); every filesystem-level problem is reported as
// a structured outcome instead.
func (e *Engine) RevertOne(ctx context.Context, id int64) (models.RevertOutcome, error) {
	unlock := e.lockRecord(id)
	defer unlock()

	op, err := e.store.Get(id)
	if err != nil {
		return models.RevertOutcome{}, err
	}

	// Idempotent short-circuit: a record that is no longer completed has
	// already been handled. No filesystem access.
	if op.Status != models.StatusCompleted {
		return models.RevertOutcome{Result: models.AlreadyReverted}, nil
	}

	if cf := e.validator.Check(op); cf != nil {
		return e.markFailed(op, cf.Kind, cf.Message)
	}

	// The one self-healing step: recreate the source directory chain if
	// it no longer exists.
	if err := os.MkdirAll(filepath.Dir(op.SourcePath), 0755); err != nil {
		return e.markFailed(op, models.MoveFailed, fmt.Sprintf("recreate source directory: %v", err))
	}

	if err := fsutil.MoveFile(op.TargetPath, op.SourcePath); err != nil {
		return e.markFailed(op, models.MoveFailed, fmt.Sprintf("move back to original location: %v", err))
	}

	if err := e.store.UpdateStatusFromCompleted(id, models.StatusReverted); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			// Another caller transitioned the record while we moved the
			// file. The filesystem was only touched once; report the
			// duplicate as a no-op.
			return models.RevertOutcome{Result: models.AlreadyReverted}, nil
		}
		return models.RevertOutcome{}, err
	}

	e.logger.Info("operation reverted",
		"operation_id", op.ID,
		"batch_id", op.BatchID,
		"kind", op.Kind,
		"restored_to", op.SourcePath,
	)
	return models.RevertOutcome{Result: models.Reverted}, nil
}

// markFailed records a failed revert attempt in the log. The status is
// written even on failure: "attempted and failed" is itself an audit fact.
func (e *Engine) markFailed(op *models.Operation, kind models.FailureKind, msg string) (models.RevertOutcome, error) {
	if err := e.store.UpdateStatusFromCompleted(op.ID, models.StatusRevertFailed); err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			return models.RevertOutcome{Result: models.AlreadyReverted}, nil
		}
		return models.RevertOutcome{}, err
	}

	e.logger.Warn("revert failed",
		"operation_id", op.ID,
		"batch_id", op.BatchID,
		"reason", kind,
		"detail", msg,
	)
	return models.RevertOutcome{
		Result:  models.RevertFailed,
		Reason:  kind,
		Message: msg,
	}, nil
}
