package summarize

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/metrics"
	"github.com/leadctl/leadctl/pkg/source"
	"golang.org/x/sync/errgroup"
)

const (
	// Summaries are short, no need for the full scoring token budget.
	summaryMaxTokensDefault = 200

	concurrencyDefault = 4

	summaryPrompt = `Summarize the following email in exactly two sentences.
Write plain prose: no preamble, no bullet points, no quotes around the summary.
Capture who is writing, what they want, and any deadline or ask.

Email:
`
)

// Completer is the model call the summarizer depends on.
type Completer interface {
	Complete(ctx context.Context, req *claude.Request) (string, error)
}

// Summarizer turns raw emails into two-sentence summaries.
type Summarizer struct {
	llm       Completer
	model     string
	maxTokens int
}

// NewSummarizer creates a Summarizer. Empty model or maxTokens fall back to
// defaults.
func NewSummarizer(llm Completer, model string, maxTokens int) *Summarizer {
	if model == "" {
		model = claude.DefaultModel
	}
	if maxTokens < 1 {
		maxTokens = summaryMaxTokensDefault
	}
	return &Summarizer{llm: llm, model: model, maxTokens: maxTokens}
}

// Summarize produces a summary for a single email. Failures never return an
// error, they produce a record with status failed so a batch keeps going.
func (s *Summarizer) Summarize(ctx context.Context, runID string, item source.Item) *data.Summary {
	rec := &data.Summary{
		ID:        uuid.NewString(),
		RunID:     runID,
		Source:    item.Source,
		Subject:   Subject(item.Text),
		Excerpt:   data.Excerpt(item.Text),
		Model:     s.model,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if strings.TrimSpace(item.Text) == "" {
		return failed(rec, "email text is empty")
	}

	resp, err := s.llm.Complete(ctx, &claude.Request{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []claude.Message{
			{Role: "user", Content: summaryPrompt + item.Text},
		},
	})
	if err != nil {
		return failed(rec, err.Error())
	}

	summary := strings.TrimSpace(resp)
	if summary == "" {
		return failed(rec, "model returned an empty summary")
	}

	rec.Summary = summary
	rec.Status = data.StatusSuccess

	metrics.RecordItem(data.RunKindSummarize, data.StatusSuccess)
	slog.Debug("email summarized", "source", item.Source, "chars", len(summary))

	return rec
}

// Result is the full output of a batch summarize run.
type Result struct {
	RunID      string              `json:"run_id,omitempty" yaml:"runId,omitempty"`
	AllResults []*data.Summary     `json:"all_results" yaml:"allResults"`
	Analytics  *data.SummaryReport `json:"analytics" yaml:"analytics"`
	Duration   string              `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// SummarizeAll summarizes every item with bounded concurrency. Individual
// failures are recorded in the results, not returned.
func (s *Summarizer) SummarizeAll(ctx context.Context, runID string, items []source.Item, concurrency int) (*Result, error) {
	if concurrency < 1 {
		concurrency = concurrencyDefault
	}

	results := make([]*data.Summary, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Summarize(gctx, runID, item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		RunID:      runID,
		AllResults: results,
		Analytics:  Analyze(results),
	}, nil
}

// Analyze computes the run analytics block for summaries.
func Analyze(list []*data.Summary) *data.SummaryReport {
	r := &data.SummaryReport{}
	lenSum := 0
	for _, s := range list {
		if s == nil {
			continue
		}
		r.Total++
		if s.Status != data.StatusSuccess {
			r.Failed++
			continue
		}
		r.Succeeded++
		lenSum += len(s.Summary)
	}
	if r.Succeeded > 0 {
		r.AvgSummaryLength = float64(lenSum) / float64(r.Succeeded)
	}
	return r
}

// Subject extracts the Subject header from a raw email, falling back to the
// first non-empty line.
func Subject(text string) string {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "Subject:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return data.Excerpt(trimmed)
		}
	}
	return ""
}

func failed(rec *data.Summary, msg string) *data.Summary {
	rec.Status = data.StatusFailed
	rec.Error = msg
	metrics.RecordItem(data.RunKindSummarize, data.StatusFailed)
	slog.Debug("email summarization failed", "source", rec.Source, "error", msg)
	return rec
}
