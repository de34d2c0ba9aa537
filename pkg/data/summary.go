package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	insertSummarySQL = `INSERT INTO summary (
			id, run_id, source, subject, excerpt, summary,
			status, error, model, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	selectSummarySQL = `SELECT
			id, run_id, source, COALESCE(subject, ''), excerpt,
			COALESCE(summary, ''), status, COALESCE(error, ''),
			COALESCE(model, ''), created_at
		FROM summary
	`

	searchSummarySQL = selectSummarySQL + `
		WHERE status = COALESCE(?, status)
		AND run_id = COALESCE(?, run_id)
		AND created_at >= COALESCE(?, created_at)
		AND (subject LIKE COALESCE(?, subject) OR summary LIKE COALESCE(?, summary))
		ORDER BY created_at DESC
		LIMIT ?
	`

	getSummarySQL = selectSummarySQL + ` WHERE id = ?`
)

// Summary is one summarized email.
type Summary struct {
	ID        string `json:"id" yaml:"id"`
	RunID     string `json:"run_id,omitempty" yaml:"runId,omitempty"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Subject   string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Excerpt   string `json:"original_email" yaml:"originalEmail"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Status    string `json:"status" yaml:"status"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	CreatedAt string `json:"timestamp" yaml:"timestamp"`
}

// SummarySearchCriteria narrows SearchSummaries. Nil fields are not applied.
type SummarySearchCriteria struct {
	Status   *string
	RunID    *string
	Since    *string
	Like     *string
	PageSize int
}

// SaveSummary inserts a single email summary. Existing IDs are left untouched.
func SaveSummary(db *sql.DB, s *Summary) error {
	if db == nil {
		return errDBNotInitialized
	}
	if s == nil {
		return errors.New("summary required")
	}
	if s.ID == "" || s.Status == "" || s.CreatedAt == "" {
		return fmt.Errorf("summary id, status, and created_at are all required: %+v", s)
	}

	stmt, err := db.Prepare(insertSummarySQL)
	if err != nil {
		return fmt.Errorf("failed to prepare summary insert statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(
		s.ID, s.RunID, s.Source, s.Subject, s.Excerpt, s.Summary,
		s.Status, s.Error, s.Model, s.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	return nil
}

// GetSummary returns a single summary by ID, or nil when not found.
func GetSummary(db *sql.DB, id string) (*Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if id == "" {
		return nil, errors.New("summary id required")
	}

	row := db.QueryRow(getSummarySQL, id)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary %s: %w", id, err)
	}
	return s, nil
}

// SearchSummaries returns summaries matching the criteria, newest first.
func SearchSummaries(db *sql.DB, q *SummarySearchCriteria) ([]*Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if q == nil {
		q = &SummarySearchCriteria{}
	}
	if q.PageSize < 1 {
		q.PageSize = 100
	}

	stmt, err := db.Prepare(searchSummarySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare summary search statement: %w", err)
	}
	defer stmt.Close()

	like := likePattern(q.Like)
	rows, err := stmt.Query(q.Status, q.RunID, q.Since, like, like, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to execute summary search statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Summary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSummary(row rowScanner) (*Summary, error) {
	var s Summary
	if err := row.Scan(
		&s.ID, &s.RunID, &s.Source, &s.Subject, &s.Excerpt,
		&s.Summary, &s.Status, &s.Error, &s.Model, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
