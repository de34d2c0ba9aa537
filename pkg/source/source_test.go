package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFromText(t *testing.T) {
	items, err := FromText("we want to buy")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SourceInline, items[0].Source)
	assert.Equal(t, "we want to buy", items[0].Text)

	_, err = FromText("   ")
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "inquiry.txt", "need 50 seats")

	items, err := FromFile(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "inquiry.txt", items[0].Source)
	assert.Equal(t, "need 50 seats", items[0].Text)
}

func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestFromFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "  \n")
	_, err := FromFile(path)
	assert.Error(t, err)
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a.eml", "first")
	writeFile(t, dir, "skip.json", "not a text file")
	writeFile(t, dir, "empty.txt", " ")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	items, err := FromDir(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Sorted by name, extensions filtered, empties skipped.
	assert.Equal(t, "a.eml", items[0].Source)
	assert.Equal(t, "first", items[0].Text)
	assert.Equal(t, "b.txt", items[1].Source)
}

func TestFromDir_NoFiles(t *testing.T) {
	_, err := FromDir(t.TempDir())
	assert.Error(t, err)

	_, err = FromDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFromJSONL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.jsonl", `{"id": "lead-1", "text": "first inquiry"}

{"text": "second inquiry"}
`)

	items, err := FromJSONL(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "lead-1", items[0].Source)
	assert.Equal(t, "first inquiry", items[0].Text)
	assert.Equal(t, "line 3", items[1].Source)
}

func TestFromJSONL_BadLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.jsonl", `{"text": "ok"}
not json at all
`)

	_, err := FromJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFromJSONL_MissingText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.jsonl", `{"id": "lead-1"}`)

	_, err := FromJSONL(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestFromJSONL_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "batch.jsonl", "\n\n")

	_, err := FromJSONL(path)
	assert.Error(t, err)
}
