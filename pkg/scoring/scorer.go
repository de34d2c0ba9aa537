package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/metrics"
	"github.com/leadctl/leadctl/pkg/source"
)

// The prompt is crucial, it pins the rubric and the banding so scores stay
// comparable across runs.
const scorePromptTemplate = `You are a sales expert who evaluates leads.

Score this inquiry on a 1-10 scale based on:
1. Budget/ability to pay (do they mention budget or authority?)
2. Urgency (when do they need this?)
3. Problem fit (is this a real problem they have?)
4. Company size/legitimacy (are they a real prospect?)

Scale:
1-3 = Not a lead (spam, no real interest, no budget)
4-6 = Maybe interested (curious, uncertain fit, timing unclear)
7-10 = Hot lead (clear need, urgency, budget indication, decision maker)

Inquiry:
%s

Return ONLY valid JSON with NO markdown formatting:
{
    "score": <1-10>,
    "reasoning": "<2-3 sentences explaining the score>",
    "priority": "<HIGH/MEDIUM/LOW>",
    "key_signals": ["signal1", "signal2", "signal3"],
    "recommendation": "<What should sales do next?>",
    "hot_buttons": ["if", "any", "urgent", "factors"],
    "concerns": ["if", "any", "concerning", "factors"]
}`

// Completer is the model call the scorer depends on.
type Completer interface {
	Complete(ctx context.Context, req *claude.Request) (string, error)
}

// Scorer turns raw inquiries into scored leads.
type Scorer struct {
	llm       Completer
	model     string
	maxTokens int
}

// NewScorer creates a Scorer. Empty model or maxTokens fall back to the
// client defaults.
func NewScorer(llm Completer, model string, maxTokens int) *Scorer {
	if model == "" {
		model = claude.DefaultModel
	}
	if maxTokens < 1 {
		maxTokens = claude.DefaultMaxTokens
	}
	return &Scorer{llm: llm, model: model, maxTokens: maxTokens}
}

// modelScore is the JSON shape the prompt demands from the model.
type modelScore struct {
	Score          *int     `json:"score"`
	Reasoning      string   `json:"reasoning"`
	Priority       string   `json:"priority"`
	KeySignals     []string `json:"key_signals"`
	Recommendation string   `json:"recommendation"`
	HotButtons     []string `json:"hot_buttons"`
	Concerns       []string `json:"concerns"`
}

// Score evaluates a single inquiry. Failures never return an error, they
// produce a lead with status failed so a batch keeps going.
func (s *Scorer) Score(ctx context.Context, runID string, item source.Item) *data.Lead {
	lead := &data.Lead{
		ID:       uuid.NewString(),
		RunID:    runID,
		Source:   item.Source,
		Inquiry:  item.Text,
		Excerpt:  data.Excerpt(item.Text),
		Model:    s.model,
		ScoredAt: time.Now().UTC().Format(time.RFC3339),
	}

	if strings.TrimSpace(item.Text) == "" {
		return failed(lead, "inquiry text is empty", "")
	}

	resp, err := s.llm.Complete(ctx, &claude.Request{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []claude.Message{
			{Role: "user", Content: fmt.Sprintf(scorePromptTemplate, item.Text)},
		},
	})
	if err != nil {
		return failed(lead, err.Error(), "")
	}

	var ms modelScore
	if err := json.Unmarshal([]byte(claude.ExtractJSON(resp)), &ms); err != nil {
		return failed(lead, fmt.Sprintf("JSON parsing error: %v", err), resp)
	}

	if ms.Score == nil || *ms.Score < 1 || *ms.Score > 10 {
		return failed(lead, "score missing or out of 1-10 range", resp)
	}

	lead.Score = ms.Score
	lead.Band = data.BandForScore(*ms.Score)
	lead.Priority = normalizePriority(ms.Priority, lead.Band)
	lead.Reasoning = ms.Reasoning
	lead.Recommendation = ms.Recommendation
	lead.KeySignals = ms.KeySignals
	lead.HotButtons = ms.HotButtons
	lead.Concerns = ms.Concerns
	lead.Status = data.StatusSuccess

	metrics.RecordItem(data.RunKindScore, data.StatusSuccess)
	slog.Debug("lead scored", "source", item.Source, "score", *ms.Score, "band", lead.Band)

	return lead
}

func failed(lead *data.Lead, msg, raw string) *data.Lead {
	lead.Status = data.StatusFailed
	lead.Error = msg
	lead.RawResponse = raw
	metrics.RecordItem(data.RunKindScore, data.StatusFailed)
	slog.Debug("lead scoring failed", "source", lead.Source, "error", msg)
	return lead
}

// normalizePriority upper-cases the model's priority and falls back to the
// band-implied value when the model returned something off-rubric.
func normalizePriority(p, band string) string {
	switch strings.ToUpper(strings.TrimSpace(p)) {
	case data.PriorityHigh:
		return data.PriorityHigh
	case data.PriorityMedium:
		return data.PriorityMedium
	case data.PriorityLow:
		return data.PriorityLow
	}
	switch band {
	case data.BandHot:
		return data.PriorityHigh
	case data.BandWarm:
		return data.PriorityMedium
	default:
		return data.PriorityLow
	}
}
