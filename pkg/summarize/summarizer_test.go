package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

const testEmail = `From: pat@example.com
Subject: Contract renewal

Hi team,

our contract is up next month and we want to renew with more seats.
Can someone send over pricing before Friday?

Pat`

func TestSummarize(t *testing.T) {
	llm := &fakeCompleter{response: "Pat asks about renewing the contract with more seats. They need pricing before Friday."}
	s := NewSummarizer(llm, "test-model", 100)

	got := s.Summarize(context.Background(), "run-1", source.Item{Source: "email.txt", Text: testEmail})

	require.NotNil(t, got)
	assert.Equal(t, data.StatusSuccess, got.Status)
	assert.Equal(t, "Contract renewal", got.Subject)
	assert.Contains(t, got.Summary, "pricing before Friday")
	assert.Equal(t, "run-1", got.RunID)
	assert.NotEmpty(t, got.ID)
	assert.NotEmpty(t, got.CreatedAt)

	require.NotNil(t, llm.lastReq)
	assert.Contains(t, llm.lastReq.Messages[0].Content, "renew with more seats")
	assert.Equal(t, "test-model", llm.lastReq.Model)
}

func TestSummarize_EmptyText(t *testing.T) {
	llm := &fakeCompleter{response: "whatever"}
	s := NewSummarizer(llm, "", 0)

	got := s.Summarize(context.Background(), "run-1", source.Item{Source: "x", Text: " \n "})
	assert.Equal(t, data.StatusFailed, got.Status)
	assert.Nil(t, llm.lastReq, "model should not be called for empty input")
}

func TestSummarize_ModelError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("model call failed")}
	s := NewSummarizer(llm, "", 0)

	got := s.Summarize(context.Background(), "run-1", source.Item{Source: "x", Text: testEmail})
	assert.Equal(t, data.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "model call failed")
}

func TestSummarize_EmptyResponse(t *testing.T) {
	llm := &fakeCompleter{response: "   "}
	s := NewSummarizer(llm, "", 0)

	got := s.Summarize(context.Background(), "run-1", source.Item{Source: "x", Text: testEmail})
	assert.Equal(t, data.StatusFailed, got.Status)
}

func TestSummarizeAll(t *testing.T) {
	llm := &fakeCompleter{response: "First sentence. Second sentence."}
	s := NewSummarizer(llm, "", 0)

	items := []source.Item{
		{Source: "a.txt", Text: testEmail},
		{Source: "b.txt", Text: ""},
	}

	res, err := s.SummarizeAll(context.Background(), "run-1", items, 2)
	require.NoError(t, err)
	require.Len(t, res.AllResults, 2)
	assert.Equal(t, "a.txt", res.AllResults[0].Source)
	assert.Equal(t, data.StatusSuccess, res.AllResults[0].Status)
	assert.Equal(t, data.StatusFailed, res.AllResults[1].Status)

	require.NotNil(t, res.Analytics)
	assert.Equal(t, 2, res.Analytics.Total)
	assert.Equal(t, 1, res.Analytics.Succeeded)
	assert.Equal(t, 1, res.Analytics.Failed)
}

func TestAnalyze(t *testing.T) {
	list := []*data.Summary{
		{Status: data.StatusSuccess, Summary: "Ten chars."},
		{Status: data.StatusSuccess, Summary: "Also exactly"},
		{Status: data.StatusFailed},
		nil,
	}

	r := Analyze(list)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.InDelta(t, 11.0, r.AvgSummaryLength, 0.001)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Contract renewal", Subject(testEmail))
	assert.Equal(t, "Hello there", Subject("Hello there\nmore text"))
	assert.Equal(t, "", Subject("  \n \n"))
	assert.Equal(t, "trimmed", Subject("Subject:   trimmed  \nbody"))
}
