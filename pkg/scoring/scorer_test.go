package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned response or error, recording the prompt.
type fakeCompleter struct {
	response string
	err      error
	lastReq  *claude.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req *claude.Request) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const goodResponse = `{
	"score": 8,
	"reasoning": "Budget approved and clear deadline.",
	"priority": "HIGH",
	"key_signals": ["budget", "deadline"],
	"recommendation": "Call them today.",
	"hot_buttons": ["end of quarter"],
	"concerns": []
}`

func TestScore(t *testing.T) {
	llm := &fakeCompleter{response: goodResponse}
	s := NewScorer(llm, "test-model", 100)

	lead := s.Score(context.Background(), "run-1", source.Item{
		Source: "inline",
		Text:   "We need 50 seats by end of quarter, budget approved.",
	})

	require.NotNil(t, lead)
	assert.Equal(t, data.StatusSuccess, lead.Status)
	require.NotNil(t, lead.Score)
	assert.Equal(t, 8, *lead.Score)
	assert.Equal(t, data.BandHot, lead.Band)
	assert.Equal(t, data.PriorityHigh, lead.Priority)
	assert.Equal(t, []string{"budget", "deadline"}, lead.KeySignals)
	assert.Equal(t, "run-1", lead.RunID)
	assert.NotEmpty(t, lead.ID)
	assert.NotEmpty(t, lead.ScoredAt)

	// Prompt carries the inquiry text.
	require.NotNil(t, llm.lastReq)
	assert.Contains(t, llm.lastReq.Messages[0].Content, "50 seats")
	assert.Equal(t, "test-model", llm.lastReq.Model)
}

func TestScore_FencedResponse(t *testing.T) {
	llm := &fakeCompleter{response: "```json\n" + goodResponse + "\n```"}
	s := NewScorer(llm, "", 0)

	lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: "inquiry"})
	assert.Equal(t, data.StatusSuccess, lead.Status)
	require.NotNil(t, lead.Score)
	assert.Equal(t, 8, *lead.Score)
}

func TestScore_EmptyText(t *testing.T) {
	llm := &fakeCompleter{response: goodResponse}
	s := NewScorer(llm, "", 0)

	lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: "  \n "})
	assert.Equal(t, data.StatusFailed, lead.Status)
	assert.Nil(t, lead.Score)
	assert.Nil(t, llm.lastReq, "model should not be called for empty input")
}

func TestScore_ModelError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("model call failed")}
	s := NewScorer(llm, "", 0)

	lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: "inquiry"})
	assert.Equal(t, data.StatusFailed, lead.Status)
	assert.Contains(t, lead.Error, "model call failed")
	assert.Nil(t, lead.Score)
}

func TestScore_BadJSON(t *testing.T) {
	llm := &fakeCompleter{response: "I think this is a great lead!"}
	s := NewScorer(llm, "", 0)

	lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: "inquiry"})
	assert.Equal(t, data.StatusFailed, lead.Status)
	assert.Contains(t, lead.Error, "JSON parsing error")
	assert.Equal(t, "I think this is a great lead!", lead.RawResponse)
}

func TestScore_OutOfRange(t *testing.T) {
	for _, resp := range []string{
		`{"score": 0, "priority": "LOW"}`,
		`{"score": 11, "priority": "HIGH"}`,
		`{"priority": "HIGH"}`,
	} {
		llm := &fakeCompleter{response: resp}
		s := NewScorer(llm, "", 0)

		lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: "inquiry"})
		assert.Equal(t, data.StatusFailed, lead.Status, "response: %s", resp)
		assert.Nil(t, lead.Score)
	}
}

func TestScore_ExcerptTruncated(t *testing.T) {
	llm := &fakeCompleter{response: goodResponse}
	s := NewScorer(llm, "", 0)

	long := strings.Repeat("a", data.ExcerptMaxLen*2)
	lead := s.Score(context.Background(), "run-1", source.Item{Source: "inline", Text: long})
	assert.Equal(t, long, lead.Inquiry)
	assert.True(t, strings.HasSuffix(lead.Excerpt, "..."))
	assert.Len(t, lead.Excerpt, data.ExcerptMaxLen+3)
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, data.PriorityHigh, normalizePriority("HIGH", data.BandCold))
	assert.Equal(t, data.PriorityHigh, normalizePriority(" high ", data.BandCold))
	assert.Equal(t, data.PriorityMedium, normalizePriority("Medium", data.BandHot))
	assert.Equal(t, data.PriorityLow, normalizePriority("low", data.BandHot))

	// Off-rubric values fall back to the band.
	assert.Equal(t, data.PriorityHigh, normalizePriority("URGENT", data.BandHot))
	assert.Equal(t, data.PriorityMedium, normalizePriority("", data.BandWarm))
	assert.Equal(t, data.PriorityLow, normalizePriority("whatever", data.BandCold))
}
