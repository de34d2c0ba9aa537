package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	// RunKindScore and RunKindSummarize identify what a batch run produced.
	RunKindScore     = "score"
	RunKindSummarize = "summarize"

	insertRunSQL = `INSERT INTO run (id, kind, model, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	completeRunSQL = `UPDATE run SET
			completed_at = ?,
			total = ?,
			succeeded = ?,
			failed = ?
		WHERE id = ?
	`

	selectRunSQL = `SELECT
			id, kind, model, started_at, COALESCE(completed_at, ''),
			total, succeeded, failed
		FROM run
	`

	getRunSQL = selectRunSQL + ` WHERE id = ?`

	listRunsSQL = selectRunSQL + ` ORDER BY started_at DESC LIMIT ?`
)

// Run records a single batch invocation of the score or summarize command.
type Run struct {
	ID          string `json:"id" yaml:"id"`
	Kind        string `json:"kind" yaml:"kind"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	StartedAt   string `json:"started_at" yaml:"startedAt"`
	CompletedAt string `json:"completed_at,omitempty" yaml:"completedAt,omitempty"`
	Total       int    `json:"total" yaml:"total"`
	Succeeded   int    `json:"succeeded" yaml:"succeeded"`
	Failed      int    `json:"failed" yaml:"failed"`
}

// SaveRun records the start of a batch run.
func SaveRun(db *sql.DB, r *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return errors.New("run required")
	}
	if r.ID == "" || r.Kind == "" || r.StartedAt == "" {
		return fmt.Errorf("run id, kind, and started_at are all required: %+v", r)
	}

	if _, err := db.Exec(insertRunSQL, r.ID, r.Kind, r.Model, r.StartedAt); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// CompleteRun records the end of a batch run and its item counts.
func CompleteRun(db *sql.DB, r *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil || r.ID == "" {
		return errors.New("run with id required")
	}
	if r.CompletedAt == "" {
		return errors.New("run completed_at required")
	}

	if _, err := db.Exec(completeRunSQL, r.CompletedAt, r.Total, r.Succeeded, r.Failed, r.ID); err != nil {
		return fmt.Errorf("failed to complete run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun returns a single run by ID, or nil when not found.
func GetRun(db *sql.DB, id string) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if id == "" {
		return nil, errors.New("run id required")
	}

	row := db.QueryRow(getRunSQL, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit < 1 {
		limit = 50
	}

	rows, err := db.Query(listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	if err := row.Scan(
		&r.ID, &r.Kind, &r.Model, &r.StartedAt, &r.CompletedAt,
		&r.Total, &r.Succeeded, &r.Failed,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
