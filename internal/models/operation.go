// Package models defines the data types shared across the shelf engine:
// operation records, batch summaries, and revert outcomes.
package models

import "time"

// OperationKind represents the type of file operation a producer performed.
type OperationKind string

const (
	KindMove   OperationKind = "MOVE"
	KindRename OperationKind = "RENAME"

	// KindMixed is never stored on a record; it only appears in batch
	// summaries whose records span both kinds.
	KindMixed OperationKind = "MIXED"
)

// Valid reports whether k is a kind a record may carry.
func (k OperationKind) Valid() bool {
	return k == KindMove || k == KindRename
}

// OperationStatus is the lifecycle state of an operation record.
// Records are created as completed and transition at most once, to
// reverted or revert_failed. Both outcomes are terminal.
type OperationStatus string

const (
	StatusCompleted    OperationStatus = "completed"
	StatusReverted     OperationStatus = "reverted"
	StatusRevertFailed OperationStatus = "revert_failed"
)

// Valid reports whether s is a known status.
func (s OperationStatus) Valid() bool {
	return s == StatusCompleted || s == StatusReverted || s == StatusRevertFailed
}

// Operation is one row of the operation log: a single successful file
// operation as performed by a producer. Everything except Status is
// immutable once appended.
type Operation struct {
	ID         int64           `json:"id"`
	BatchID    string          `json:"batch_id"`
	Kind       OperationKind   `json:"operation_type"`
	SourcePath string          `json:"source_path"`
	TargetPath string          `json:"target_path"`
	Timestamp  time.Time       `json:"timestamp"`
	Status     OperationStatus `json:"status"`
	Mode       string          `json:"mode,omitempty"`
}
