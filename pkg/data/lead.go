package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// StatusSuccess marks an item the model scored or summarized cleanly.
	StatusSuccess = "success"
	// StatusFailed marks an item that errored (transport, API, or parse).
	StatusFailed = "failed"

	BandHot  = "hot"
	BandWarm = "warm"
	BandCold = "cold"

	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"

	// ExcerptMaxLen is the number of inquiry characters kept in the output record.
	ExcerptMaxLen = 150

	insertLeadSQL = `INSERT INTO lead (
			id, run_id, source, inquiry, excerpt, score, band, priority,
			reasoning, recommendation, key_signals, hot_buttons, concerns,
			status, error, raw_response, model, scored_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	selectLeadSQL = `SELECT
			id, run_id, source, inquiry, excerpt, score,
			COALESCE(band, ''), COALESCE(priority, ''), COALESCE(reasoning, ''),
			COALESCE(recommendation, ''), COALESCE(key_signals, ''),
			COALESCE(hot_buttons, ''), COALESCE(concerns, ''),
			status, COALESCE(error, ''), COALESCE(raw_response, ''),
			COALESCE(model, ''), scored_at
		FROM lead
	`

	searchLeadSQL = selectLeadSQL + `
		WHERE band = COALESCE(?, band)
		AND priority = COALESCE(?, priority)
		AND status = COALESCE(?, status)
		AND run_id = COALESCE(?, run_id)
		AND scored_at >= COALESCE(?, scored_at)
		AND inquiry LIKE COALESCE(?, inquiry)
		ORDER BY score IS NULL, score DESC, scored_at DESC
		LIMIT ?
	`

	getLeadSQL = selectLeadSQL + ` WHERE id = ?`
)

// Lead is one scored customer inquiry. The JSON shape mirrors what the
// score command emits: score is null and status is "failed" when the
// model call or response parse did not succeed.
type Lead struct {
	ID             string   `json:"id" yaml:"id"`
	RunID          string   `json:"run_id,omitempty" yaml:"runId,omitempty"`
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	Inquiry        string   `json:"-" yaml:"-"`
	Excerpt        string   `json:"original_inquiry" yaml:"originalInquiry"`
	Score          *int     `json:"score" yaml:"score"`
	Band           string   `json:"band,omitempty" yaml:"band,omitempty"`
	Priority       string   `json:"priority,omitempty" yaml:"priority,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Recommendation string   `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	KeySignals     []string `json:"key_signals,omitempty" yaml:"keySignals,omitempty"`
	HotButtons     []string `json:"hot_buttons,omitempty" yaml:"hotButtons,omitempty"`
	Concerns       []string `json:"concerns,omitempty" yaml:"concerns,omitempty"`
	Status         string   `json:"status" yaml:"status"`
	Error          string   `json:"error,omitempty" yaml:"error,omitempty"`
	RawResponse    string   `json:"raw_response,omitempty" yaml:"rawResponse,omitempty"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	ScoredAt       string   `json:"timestamp" yaml:"timestamp"`
}

// LeadSearchCriteria narrows SearchLeads. Nil fields are not applied.
type LeadSearchCriteria struct {
	Band     *string
	Priority *string
	Status   *string
	RunID    *string
	Since    *string
	Like     *string
	PageSize int
}

// BandForScore maps a 1-10 score to its band: 7-10 hot, 4-6 warm, 1-3 cold.
func BandForScore(score int) string {
	switch {
	case score >= 7:
		return BandHot
	case score >= 4:
		return BandWarm
	default:
		return BandCold
	}
}

// Excerpt truncates the inquiry text the same way the output record does.
func Excerpt(text string) string {
	r := []rune(text)
	if len(r) <= ExcerptMaxLen {
		return text
	}
	return string(r[:ExcerptMaxLen]) + "..."
}

// SaveLead inserts a single scored lead. Existing IDs are left untouched.
func SaveLead(db *sql.DB, l *Lead) error {
	if db == nil {
		return errDBNotInitialized
	}
	if l == nil {
		return errors.New("lead required")
	}
	if l.ID == "" || l.Status == "" || l.ScoredAt == "" {
		return fmt.Errorf("lead id, status, and scored_at are all required: %+v", l)
	}

	stmt, err := db.Prepare(insertLeadSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare lead insert statement: %w", err)
	}
	defer stmt.Close()

	var score any
	if l.Score != nil {
		score = *l.Score
	}

	if _, err = stmt.Exec(
		l.ID, l.RunID, l.Source, l.Inquiry, l.Excerpt, score, l.Band, l.Priority,
		l.Reasoning, l.Recommendation, marshalList(l.KeySignals),
		marshalList(l.HotButtons), marshalList(l.Concerns),
		l.Status, l.Error, l.RawResponse, l.Model, l.ScoredAt,
	); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// GetLead returns a single lead by ID, or nil when not found.
func GetLead(db *sql.DB, id string) (*Lead, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if id == "" {
		return nil, errors.New("lead id required")
	}

	row := db.QueryRow(getLeadSQL, id)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	return l, nil
}

// SearchLeads returns leads matching the criteria, best score first.
func SearchLeads(db *sql.DB, q *LeadSearchCriteria) ([]*Lead, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if q == nil {
		q = &LeadSearchCriteria{}
	}
	if q.PageSize < 1 {
		q.PageSize = 100
	}

	stmt, err := db.Prepare(searchLeadSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lead search statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(q.Band, q.Priority, q.Status, q.RunID, q.Since, likePattern(q.Like), q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to execute lead search statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var l Lead
	var score sql.NullInt64
	var signals, buttons, concerns string

	if err := row.Scan(
		&l.ID, &l.RunID, &l.Source, &l.Inquiry, &l.Excerpt, &score,
		&l.Band, &l.Priority, &l.Reasoning, &l.Recommendation,
		&signals, &buttons, &concerns,
		&l.Status, &l.Error, &l.RawResponse, &l.Model, &l.ScoredAt,
	); err != nil {
		return nil, err
	}

	if score.Valid {
		v := int(score.Int64)
		l.Score = &v
	}
	l.KeySignals = unmarshalList(signals)
	l.HotButtons = unmarshalList(buttons)
	l.Concerns = unmarshalList(concerns)

	return &l, nil
}

func likePattern(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	p := "%" + *s + "%"
	return &p
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return ""
	}
	b, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}
