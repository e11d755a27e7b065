package undo

import (
	"sync"
	"time"

	"github.com/pkalnins/shelf/internal/models"
)

// DefaultProgressTTL is how long a finished batch revert stays pollable.
const DefaultProgressTTL = 5 * time.Minute

// Tracker is the ephemeral, in-memory view of in-flight batch reverts,
// keyed by batch id. It is written only by the batch scheduler and read
// by polling callers. Finished entries are evicted after a TTL so a
// long-running process does not accumulate them.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackerEntry
	ttl     time.Duration
	done    chan struct{}
}

type trackerEntry struct {
	progress   models.BatchProgress
	finishedAt time.Time
}

// NewTracker creates a tracker that evicts finished entries after ttl.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}
	t := &Tracker{
		entries: make(map[string]*trackerEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go t.cleanup()
	return t
}

func (t *Tracker) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.mu.Lock()
			now := time.Now()
			for k, e := range t.entries {
				if e.progress.Done && now.Sub(e.finishedAt) > t.ttl {
					delete(t.entries, k)
				}
			}
			t.mu.Unlock()
		case <-t.done:
			return
		}
	}
}

// Stop ends the eviction goroutine.
func (t *Tracker) Stop() {
	close(t.done)
}

// Start registers a new batch revert with its total record count,
// resetting any previous entry for the same batch id.
func (t *Tracker) Start(batchID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[batchID] = &trackerEntry{
		progress: models.BatchProgress{BatchID: batchID, Total: total},
	}
}

// Record accounts one processed record in the batch.
func (t *Tracker) Record(batchID string, outcome models.RevertOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[batchID]
	if !ok {
		return
	}
	e.progress.Processed++
	switch outcome.Result {
	case models.Reverted:
		e.progress.Reverted++
	case models.AlreadyReverted:
		e.progress.AlreadyReverted++
	case models.RevertFailed:
		e.progress.Failed++
		if outcome.Message != "" {
			e.progress.Errors = append(e.progress.Errors, outcome.Message)
		}
	}
}

// Finish marks the batch done, optionally recording trailing errors.
func (t *Tracker) Finish(batchID string, errs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[batchID]
	if !ok {
		return
	}
	e.progress.Done = true
	e.progress.Errors = append(e.progress.Errors, errs...)
	e.finishedAt = time.Now()
}

// Get returns a snapshot of the batch's progress.
func (t *Tracker) Get(batchID string) (models.BatchProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[batchID]
	if !ok {
		return models.BatchProgress{}, false
	}
	snap := e.progress
	snap.Errors = append([]string(nil), e.progress.Errors...)
	return snap, true
}
