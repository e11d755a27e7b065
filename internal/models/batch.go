package models

import "time"

// BatchStatus is the aggregate state of all records sharing a batch id.
type BatchStatus string

const (
	BatchCompleted BatchStatus = "completed" // every record still completed
	BatchReverted  BatchStatus = "reverted"  // every record reverted
	BatchMixed     BatchStatus = "mixed"     // anything in between
)

// BatchSummary is the grouped view of one batch, computed from the log
// on demand. Batches are never materialized as rows of their own.
type BatchSummary struct {
	BatchID   string        `json:"batch_id"`
	Kind      OperationKind `json:"operation_type"`
	FileCount int           `json:"file_count"`
	Timestamp time.Time     `json:"timestamp"` // latest operation in the batch
	Status    BatchStatus   `json:"status"`
}

// RevertResult classifies the outcome of reverting a single record.
type RevertResult string

const (
	Reverted        RevertResult = "reverted"
	AlreadyReverted RevertResult = "already_reverted"
	RevertFailed    RevertResult = "failed"
)

// FailureKind names why a revert could not be performed.
type FailureKind string

const (
	// TargetMissing: the file is no longer at the path the original
	// operation put it.
	TargetMissing FailureKind = "target_missing"
	// SourceOccupied: a different file now sits at the original source
	// path; reverting would overwrite it.
	SourceOccupied FailureKind = "source_occupied"
	// VolumeUnreachable: the volume holding the source or target path is
	// not mounted.
	VolumeUnreachable FailureKind = "volume_unreachable"
	// MoveFailed: the filesystem rejected the inverse move itself.
	MoveFailed FailureKind = "move_failed"
)

// RevertOutcome is the structured result of a single-record revert.
// Reason and Message are set only when Result is RevertFailed.
type RevertOutcome struct {
	Result  RevertResult `json:"result"`
	Reason  FailureKind  `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
}

// BatchOutcome aggregates per-record outcomes of one batch revert.
// Reverted + Failed + AlreadyReverted always equals the number of
// records processed.
type BatchOutcome struct {
	Reverted        int      `json:"reverted_count"`
	Failed          int      `json:"failed_count"`
	AlreadyReverted int      `json:"already_reverted_count"`
	Errors          []string `json:"errors,omitempty"`
}

// BatchProgress is the poll view of an in-flight batch revert. It lives
// only in memory; a restart loses it without affecting the durable log.
type BatchProgress struct {
	BatchID         string   `json:"batch_id"`
	Total           int      `json:"total"`
	Processed       int      `json:"processed"`
	Reverted        int      `json:"reverted"`
	Failed          int      `json:"failed"`
	AlreadyReverted int      `json:"already_reverted"`
	Done            bool     `json:"done"`
	Errors          []string `json:"errors,omitempty"`
}
