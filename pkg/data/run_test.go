package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRun_Validation(t *testing.T) {
	db := setupTestDB(t)

	assert.Error(t, SaveRun(nil, &Run{}))
	assert.Error(t, SaveRun(db, nil))
	assert.Error(t, SaveRun(db, &Run{ID: "r1"}))
}

func TestSaveCompleteRun(t *testing.T) {
	db := setupTestDB(t)

	r := &Run{
		ID:        "run-1",
		Kind:      RunKindScore,
		Model:     "test-model",
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, SaveRun(db, r))

	got, err := GetRun(db, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, RunKindScore, got.Kind)
	assert.Empty(t, got.CompletedAt)
	assert.Zero(t, got.Total)

	r.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	r.Total = 10
	r.Succeeded = 8
	r.Failed = 2
	require.NoError(t, CompleteRun(db, r))

	got, err = GetRun(db, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.CompletedAt)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 8, got.Succeeded)
	assert.Equal(t, 2, got.Failed)
}

func TestCompleteRun_Validation(t *testing.T) {
	db := setupTestDB(t)

	assert.Error(t, CompleteRun(db, nil))
	assert.Error(t, CompleteRun(db, &Run{ID: "r1"}))
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := GetRun(db, "no-such-run")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SaveRun(db, &Run{
		ID:        "run-old",
		Kind:      RunKindScore,
		StartedAt: "2020-01-15T10:00:00Z",
	}))
	require.NoError(t, SaveRun(db, &Run{
		ID:        "run-new",
		Kind:      RunKindSummarize,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}))

	list, err := ListRuns(db, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-new", list[0].ID)

	list, err = ListRuns(db, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
