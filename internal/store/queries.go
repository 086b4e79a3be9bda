package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run operations

// BeginRun creates a new run record and returns its ID. The counters
// stay at zero until FinishRun stores the session totals.
func (s *Store) BeginRun(root string, maxWidth int) (int64, error) {
	query := `
		INSERT INTO runs (started_at, root, max_width)
		VALUES (?, ?, ?)
	`

	result, err := s.db.Exec(query,
		time.Now().Format(time.RFC3339),
		root,
		maxWidth,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	return id, nil
}

// FinishRun stores the final counters on a run.
func (s *Store) FinishRun(id int64, processed, skipped, failed int, bytesSaved int64) error {
	query := `
		UPDATE runs
		SET processed = ?, skipped = ?, failed = ?, bytes_saved = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query, processed, skipped, failed, bytesSaved, id)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run %d not found", id)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	query := `
		SELECT id, started_at, root, max_width, processed, skipped, failed, bytes_saved
		FROM runs
		WHERE id = ?
	`

	var run Run
	var startedAt string

	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&startedAt,
		&run.Root,
		&run.MaxWidth,
		&run.Processed,
		&run.Skipped,
		&run.Failed,
		&run.BytesSaved,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}

	// Parse started_at timestamp
	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", id, err)
	}

	return &run, nil
}

// ListRuns returns runs ordered by start time (newest first). A limit
// of zero or less returns every run; SQLite treats a negative LIMIT as
// unlimited.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, root, max_width, processed, skipped, failed, bytes_saved
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string

		err := rows.Scan(
			&run.ID,
			&startedAt,
			&run.Root,
			&run.MaxWidth,
			&run.Processed,
			&run.Skipped,
			&run.Failed,
			&run.BytesSaved,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		// Parse started_at timestamp
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at for run %d: %w", run.ID, err)
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Operation operations

// RecordOperation adds an attempted replacement to a run and fills in
// the operation's ID.
func (s *Store) RecordOperation(op *Operation) error {
	query := `
		INSERT INTO operations
		(run_id, rel_path, orig_width, orig_height, new_width, new_height, orig_bytes, new_bytes, backup_path, status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		op.RunID,
		op.RelPath,
		op.OrigWidth,
		op.OrigHeight,
		op.NewWidth,
		op.NewHeight,
		op.OrigBytes,
		op.NewBytes,
		op.BackupPath,
		op.Status,
		op.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation for %s: %w", op.RelPath, err)
	}

	op.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get operation ID: %w", err)
	}

	return nil
}

// ListOperations returns all operations of a run in the order they ran.
func (s *Store) ListOperations(runID int64) ([]*Operation, error) {
	query := `
		SELECT id, run_id, rel_path, orig_width, orig_height, new_width, new_height, orig_bytes, new_bytes, backup_path, status, detail
		FROM operations
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations for run %d: %w", runID, err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		var op Operation

		err := rows.Scan(
			&op.ID,
			&op.RunID,
			&op.RelPath,
			&op.OrigWidth,
			&op.OrigHeight,
			&op.NewWidth,
			&op.NewHeight,
			&op.OrigBytes,
			&op.NewBytes,
			&op.BackupPath,
			&op.Status,
			&op.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}

		ops = append(ops, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return ops, nil
}
