package cli

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/metrics"
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	slog.Error("request error", "code", code, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); err != nil {
		slog.Error("error encoding error response", "error", err)
	}
}

func queryParamLimit(r *http.Request) int {
	limit := queryResultLimitDefault
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= queryResultLimitDefault {
			limit = n
		}
	}
	return limit
}

func homeViewHandler(tmpl *template.Template, cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := buildReport(cfg, nil, topLeadsLimitDefault)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		d := struct {
			Version string
			Report  *Report
		}{
			Version: version,
			Report:  report,
		}

		if err := tmpl.ExecuteTemplate(w, "home", d); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("error rendering home view: %w", err))
		}
	}
}

func leadsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		criteria := &data.LeadSearchCriteria{
			Band:     optional(strings.ToLower(q.Get("band"))),
			Priority: optional(strings.ToUpper(q.Get("priority"))),
			Status:   optional(q.Get("status")),
			RunID:    optional(q.Get("run")),
			Since:    optional(q.Get("since")),
			Like:     optional(q.Get("like")),
			PageSize: queryParamLimit(r),
		}

		list, err := data.SearchLeads(cfg.DB, criteria)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, list)
	}
}

func leadDetailAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lead, err := data.GetLead(cfg.DB, r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if lead == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("lead not found: %s", r.PathValue("id")))
			return
		}
		writeJSON(w, lead)
	}
}

func summariesAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		criteria := &data.SummarySearchCriteria{
			Status:   optional(q.Get("status")),
			RunID:    optional(q.Get("run")),
			Since:    optional(q.Get("since")),
			Like:     optional(q.Get("like")),
			PageSize: queryParamLimit(r),
		}

		list, err := data.SearchSummaries(cfg.DB, criteria)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, list)
	}
}

func summaryDetailAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := data.GetSummary(cfg.DB, r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if s == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("summary not found: %s", r.PathValue("id")))
			return
		}
		writeJSON(w, s)
	}
}

func runsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := data.ListRuns(cfg.DB, queryParamLimit(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, list)
	}
}

func reportAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := optional(r.URL.Query().Get("since"))

		top := topLeadsLimitDefault
		if v := r.URL.Query().Get("top"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				top = n
			}
		}

		report, err := buildReport(cfg, since, top)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, report)
	}
}
