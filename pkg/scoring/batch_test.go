package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter returns responses keyed by a marker in the prompt.
type scriptedCompleter struct {
	calls atomic.Int32
}

func (f *scriptedCompleter) Complete(_ context.Context, req *claude.Request) (string, error) {
	f.calls.Add(1)
	prompt := req.Messages[0].Content
	for score := 10; score >= 1; score-- {
		if marker := fmt.Sprintf("SCORE_%d", score); strings.Contains(prompt, marker) {
			return fmt.Sprintf(`{"score": %d, "priority": "LOW", "reasoning": "r"}`, score), nil
		}
	}
	return "not json", nil
}

func TestScoreAll(t *testing.T) {
	llm := &scriptedCompleter{}
	s := NewScorer(llm, "test-model", 100)

	items := []source.Item{
		{Source: "a", Text: "inquiry SCORE_3"},
		{Source: "b", Text: "inquiry SCORE_9"},
		{Source: "c", Text: "inquiry SCORE_5"},
		{Source: "d", Text: "garbled"},
	}

	res, err := s.ScoreAll(context.Background(), "run-1", items, 2)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int32(4), llm.calls.Load())

	// Input order preserved.
	require.Len(t, res.AllResults, 4)
	assert.Equal(t, "a", res.AllResults[0].Source)
	assert.Equal(t, "d", res.AllResults[3].Source)
	assert.Equal(t, data.StatusFailed, res.AllResults[3].Status)

	// Successes only, best first.
	require.Len(t, res.SortedByPriority, 3)
	assert.Equal(t, "b", res.SortedByPriority[0].Source)
	assert.Equal(t, "c", res.SortedByPriority[1].Source)
	assert.Equal(t, "a", res.SortedByPriority[2].Source)

	require.NotNil(t, res.Analytics)
	assert.Equal(t, 4, res.Analytics.TotalLeads)
	assert.Equal(t, 3, res.Analytics.ScoredSuccessfully)
}

func TestScoreAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &scriptedCompleter{}
	s := NewScorer(llm, "", 0)

	_, err := s.ScoreAll(ctx, "run-1", []source.Item{
		{Source: "a", Text: "inquiry SCORE_3"},
	}, 1)
	assert.Error(t, err)
}

func TestScoreAll_DefaultConcurrency(t *testing.T) {
	llm := &scriptedCompleter{}
	s := NewScorer(llm, "", 0)

	res, err := s.ScoreAll(context.Background(), "run-1", []source.Item{
		{Source: "a", Text: "inquiry SCORE_7"},
	}, 0)
	require.NoError(t, err)
	require.Len(t, res.AllResults, 1)
	assert.Equal(t, data.StatusSuccess, res.AllResults[0].Status)
}

func TestAnalyze(t *testing.T) {
	score := func(n int) *int { return &n }

	leads := []*data.Lead{
		{Status: data.StatusSuccess, Score: score(9), Band: data.BandHot},
		{Status: data.StatusSuccess, Score: score(5), Band: data.BandWarm},
		{Status: data.StatusSuccess, Score: score(1), Band: data.BandCold},
		{Status: data.StatusFailed},
		nil,
	}

	r := Analyze(leads)
	assert.Equal(t, 4, r.TotalLeads)
	assert.Equal(t, 3, r.ScoredSuccessfully)
	assert.Equal(t, 1, r.HotLeadsCount)
	assert.Equal(t, 1, r.WarmLeadsCount)
	assert.Equal(t, 1, r.ColdLeadsCount)
	assert.InDelta(t, 5.0, r.AverageScore, 0.001)
}

func TestAnalyze_Empty(t *testing.T) {
	r := Analyze(nil)
	assert.Zero(t, r.TotalLeads)
	assert.Zero(t, r.AverageScore)
}
