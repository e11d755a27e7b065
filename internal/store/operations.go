package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkalnins/shelf/internal/models"
)

const operationColumns = "id, batch_id, operation_type, source_path, target_path, timestamp, status, mode"

// scanOperation reads one operation_log row.
func scanOperation(row interface{ Scan(...any) error }) (*models.Operation, error) {
	var op models.Operation
	var ts string
	var mode sql.NullString
	if err := row.Scan(&op.ID, &op.BatchID, &op.Kind, &op.SourcePath, &op.TargetPath, &ts, &op.Status, &mode); err != nil {
		return nil, err
	}
	op.Timestamp = parseTimestamp(ts)
	op.Mode = mode.String
	return &op, nil
}

// Append records a new operation in the log and returns its assigned id.
// Errors indicate a storage fault, never a business condition.
func (s *Store) Append(op *models.Operation) (int64, error) {
	if !op.Kind.Valid() {
		return 0, fmt.Errorf("invalid operation kind: %q", op.Kind)
	}
	status := op.Status
	if status == "" {
		status = models.StatusCompleted
	}

	var mode any
	if op.Mode != "" {
		mode = op.Mode
	}

	res, err := s.db.Exec(
		`INSERT INTO operation_log (batch_id, operation_type, source_path, target_path, timestamp, status, mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.BatchID, string(op.Kind), op.SourcePath, op.TargetPath,
		op.Timestamp.UTC().Format(time.RFC3339Nano), string(status), mode,
	)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}
	op.ID = id
	return id, nil
}

// Get retrieves a single operation by id. Returns ErrNotFound if absent.
func (s *Store) Get(id int64) (*models.Operation, error) {
	row := s.db.QueryRow("SELECT "+operationColumns+" FROM operation_log WHERE id = ?", id)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operation %d: %w", id, err)
	}
	return op, nil
}

// List returns a page of operations, newest first, optionally filtered
// by kind. Pages are 1-based.
func (s *Store) List(page, pageSize int, kind models.OperationKind) ([]*models.Operation, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var rows *sql.Rows
	var err error
	if kind != "" {
		rows, err = s.db.Query(
			"SELECT "+operationColumns+" FROM operation_log WHERE operation_type = ? ORDER BY id DESC LIMIT ? OFFSET ?",
			string(kind), pageSize, offset,
		)
	} else {
		rows, err = s.db.Query(
			"SELECT "+operationColumns+" FROM operation_log ORDER BY id DESC LIMIT ? OFFSET ?",
			pageSize, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("list operations: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Count returns the total number of operations, optionally filtered by kind.
func (s *Store) Count(kind models.OperationKind) (int, error) {
	var n int
	var err error
	if kind != "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM operation_log WHERE operation_type = ?", string(kind)).Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM operation_log").Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return n, nil
}

// ListByBatch returns every operation of a batch ordered by timestamp
// ascending, ties broken by id ascending. Id assignment order equals
// causal order, so this is the original execution order.
func (s *Store) ListByBatch(batchID string) ([]*models.Operation, error) {
	rows, err := s.db.Query(
		"SELECT "+operationColumns+" FROM operation_log WHERE batch_id = ? ORDER BY timestamp ASC, id ASC",
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("list batch %s: %w", batchID, err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// CountCompletedByBatch returns the number of records in a batch still
// in completed state, i.e. the ones a batch revert would act on.
func (s *Store) CountCompletedByBatch(batchID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM operation_log WHERE batch_id = ? AND status = ?",
		batchID, string(models.StatusCompleted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count batch %s: %w", batchID, err)
	}
	return n, nil
}

// ListBatches returns grouped batch summaries, newest batch first.
func (s *Store) ListBatches(limit int) ([]*models.BatchSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			batch_id,
			CASE
				WHEN COUNT(DISTINCT operation_type) > 1 THEN 'MIXED'
				ELSE MAX(operation_type)
			END AS operation_type,
			COUNT(*) AS file_count,
			MAX(timestamp) AS latest_timestamp,
			SUM(CASE WHEN status = 'reverted' THEN 1 ELSE 0 END) AS reverted_count,
			SUM(CASE WHEN status = 'revert_failed' THEN 1 ELSE 0 END) AS failed_count
		FROM operation_log
		GROUP BY batch_id
		ORDER BY MAX(id) DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.BatchSummary
	for rows.Next() {
		var b models.BatchSummary
		var ts string
		var reverted, failed int
		if err := rows.Scan(&b.BatchID, &b.Kind, &b.FileCount, &ts, &reverted, &failed); err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		b.Timestamp = parseTimestamp(ts)

		switch {
		case reverted == b.FileCount:
			b.Status = models.BatchReverted
		case reverted > 0 || failed > 0:
			b.Status = models.BatchMixed
		default:
			b.Status = models.BatchCompleted
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// UpdateStatusFromCompleted transitions a record's status, guarded by a
// compare-and-set on the prior status: the write only happens if the
// record is still completed. Returns ErrStatusConflict when another
// caller already transitioned it, and ErrNotFound for unknown ids.
func (s *Store) UpdateStatusFromCompleted(id int64, newStatus models.OperationStatus) error {
	if !newStatus.Valid() || newStatus == models.StatusCompleted {
		return fmt.Errorf("invalid status transition to %q", newStatus)
	}

	res, err := s.db.Exec(
		"UPDATE operation_log SET status = ? WHERE id = ? AND status = ?",
		string(newStatus), id, string(models.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("update status of %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status of %d: %w", id, err)
	}
	if affected == 0 {
		if _, err := s.Get(id); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}
