package data

import (
	"database/sql"
	"fmt"
)

const (
	// Band counts plus average over successfully scored leads only.
	selectLeadReportSQL = `SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS scored,
			SUM(CASE WHEN band = 'hot' THEN 1 ELSE 0 END) AS hot,
			SUM(CASE WHEN band = 'warm' THEN 1 ELSE 0 END) AS warm,
			SUM(CASE WHEN band = 'cold' THEN 1 ELSE 0 END) AS cold,
			COALESCE(AVG(CASE WHEN status = 'success' THEN score END), 0) AS avg_score
		FROM lead
		WHERE scored_at >= COALESCE(?, scored_at)
	`

	// Monthly score trend: volume and average score per month of scoring.
	selectScoreTrendSQL = `SELECT
			substr(scored_at, 1, 7) AS month,
			COUNT(*) AS cnt,
			COALESCE(AVG(CASE WHEN status = 'success' THEN score END), 0) AS avg_score
		FROM lead
		WHERE scored_at >= COALESCE(?, scored_at)
		GROUP BY month
		ORDER BY month
	`

	selectSummaryReportSQL = `SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS succeeded,
			COALESCE(AVG(CASE WHEN status = 'success' THEN length(summary) END), 0) AS avg_len
		FROM summary
		WHERE created_at >= COALESCE(?, created_at)
	`
)

// LeadReport aggregates the scoring pipeline state, mirroring the analytics
// block the score command emits per run, but across the whole store.
type LeadReport struct {
	TotalLeads         int     `json:"total_leads" yaml:"totalLeads"`
	ScoredSuccessfully int     `json:"scored_successfully" yaml:"scoredSuccessfully"`
	HotLeadsCount      int     `json:"hot_leads_count" yaml:"hotLeadsCount"`
	WarmLeadsCount     int     `json:"warm_leads_count" yaml:"warmLeadsCount"`
	ColdLeadsCount     int     `json:"cold_leads_count" yaml:"coldLeadsCount"`
	AverageScore       float64 `json:"average_score" yaml:"averageScore"`
}

// SummaryReport aggregates the summarization pipeline state.
type SummaryReport struct {
	Total            int     `json:"total" yaml:"total"`
	Succeeded        int     `json:"succeeded" yaml:"succeeded"`
	Failed           int     `json:"failed" yaml:"failed"`
	AvgSummaryLength float64 `json:"avg_summary_length" yaml:"avgSummaryLength"`
}

// MonthBucket is one month of scoring activity.
type MonthBucket struct {
	Month    string  `json:"month" yaml:"month"`
	Count    int     `json:"count" yaml:"count"`
	AvgScore float64 `json:"avg_score" yaml:"avgScore"`
}

// GetLeadReport returns band counts and average score, optionally limited
// to leads scored on or after since (YYYY-MM-DD).
func GetLeadReport(db *sql.DB, since *string) (*LeadReport, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var r LeadReport
	var scored, hot, warm, cold sql.NullInt64
	row := db.QueryRow(selectLeadReportSQL, since)
	if err := row.Scan(&r.TotalLeads, &scored, &hot, &warm, &cold, &r.AverageScore); err != nil {
		return nil, fmt.Errorf("failed to query lead report: %w", err)
	}

	r.ScoredSuccessfully = int(scored.Int64)
	r.HotLeadsCount = int(hot.Int64)
	r.WarmLeadsCount = int(warm.Int64)
	r.ColdLeadsCount = int(cold.Int64)

	return &r, nil
}

// GetScoreTrend returns per-month lead volume and average score.
func GetScoreTrend(db *sql.DB, since *string) ([]*MonthBucket, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectScoreTrendSQL, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query score trend: %w", err)
	}
	defer rows.Close()

	list := make([]*MonthBucket, 0)
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Count, &b.AvgScore); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// GetSummaryReport returns summarization totals and the mean summary length.
func GetSummaryReport(db *sql.DB, since *string) (*SummaryReport, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var r SummaryReport
	var succeeded sql.NullInt64
	row := db.QueryRow(selectSummaryReportSQL, since)
	if err := row.Scan(&r.Total, &succeeded, &r.AvgSummaryLength); err != nil {
		return nil, fmt.Errorf("failed to query summary report: %w", err)
	}

	r.Succeeded = int(succeeded.Int64)
	r.Failed = r.Total - r.Succeeded

	return &r, nil
}

// GetTopLeads returns the best scored leads, highest first.
func GetTopLeads(db *sql.DB, limit int) ([]*Lead, error) {
	status := StatusSuccess
	return SearchLeads(db, &LeadSearchCriteria{
		Status:   &status,
		PageSize: limit,
	})
}
