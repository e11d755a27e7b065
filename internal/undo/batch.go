package undo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkalnins/shelf/internal/models"
)

// ErrNoRevertibleOperations is returned when a batch has no records left
// in completed state.
var ErrNoRevertibleOperations = errors.New("batch has no revertible operations")

// RevertBatch starts an asynchronous LIFO revert of every record in the
// batch. It returns the total record count immediately; the actual file
// operations run in the background and are observable only through the
// progress tracker and the durable log.
func (e *Engine) RevertBatch(ctx context.Context, batchID string) (int, error) {
	ops, err := e.loadBatch(batchID)
	if err != nil {
		return 0, err
	}

	e.tracker.Start(batchID, len(ops))

	// Detached from the triggering request: once started, the batch runs
	// to completion.
	go e.runBatch(context.Background(), batchID, ops)

	return len(ops), nil
}

// RevertBatchWait reverts a batch synchronously and returns the final
// aggregate outcome. Used by the CLI, which has no poller.
func (e *Engine) RevertBatchWait(ctx context.Context, batchID string) (*models.BatchOutcome, error) {
	ops, err := e.loadBatch(batchID)
	if err != nil {
		return nil, err
	}

	e.tracker.Start(batchID, len(ops))
	return e.runBatch(ctx, batchID, ops), nil
}

// loadBatch fetches a batch's records and verifies it is worth reverting.
func (e *Engine) loadBatch(batchID string) ([]*models.Operation, error) {
	n, err := e.store.CountCompletedByBatch(batchID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoRevertibleOperations
	}
	return e.store.ListByBatch(batchID)
}

// runBatch processes the batch strictly newest-first, so chained
// operations (A moved to B, then B moved to C) unwind in the only order
// that works. A failed record never aborts the rest of the batch.
func (e *Engine) runBatch(ctx context.Context, batchID string, ops []*models.Operation) *models.BatchOutcome {
	sortLIFO(ops)

	outcome := &models.BatchOutcome{}
	for _, op := range ops {
		res, err := e.RevertOne(ctx, op.ID)
		if err != nil {
			// Storage fault: without the log no audit-safe action is
			// possible, so the batch stops here.
			msg := fmt.Sprintf("operation %d: log store unavailable: %v", op.ID, err)
			e.logger.Error("batch revert aborted", "batch_id", batchID, "error", err)
			outcome.Errors = append(outcome.Errors, msg)
			e.tracker.Finish(batchID, msg)
			return outcome
		}

		switch res.Result {
		case models.Reverted:
			outcome.Reverted++
		case models.AlreadyReverted:
			outcome.AlreadyReverted++
		case models.RevertFailed:
			outcome.Failed++
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("%s: %s", filepath.Base(op.TargetPath), res.Message))
		}
		e.tracker.Record(batchID, res)
	}

	e.tracker.Finish(batchID)
	e.logger.Info("batch revert finished",
		"batch_id", batchID,
		"reverted", outcome.Reverted,
		"failed", outcome.Failed,
		"skipped", outcome.AlreadyReverted,
	)
	return outcome
}

// sortLIFO orders records newest first: timestamp descending, ties
// broken by higher id first.
func sortLIFO(ops []*models.Operation) {
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].Timestamp.Equal(ops[j].Timestamp) {
			return ops[i].Timestamp.After(ops[j].Timestamp)
		}
		return ops[i].ID > ops[j].ID
	})
}
