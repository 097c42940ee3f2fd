// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docindex

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, dir
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuild_IndexesMarkdownAndText(t *testing.T) {
	idx, dir := newTestIndex(t)
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))

	writeDoc(t, docsDir, "tower.md", "# Eiffel Tower\n\nThe tower was completed in 1889 for the World's Fair.")
	writeDoc(t, docsDir, "bridge.txt", "The Golden Gate Bridge opened in 1937.")
	writeDoc(t, docsDir, "ignored.pdf", "binary stuff")

	summary, err := idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 0, summary.Failed)
}

func TestBuild_SkipsUnchangedFiles(t *testing.T) {
	idx, dir := newTestIndex(t)
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))
	writeDoc(t, docsDir, "tower.md", "# Eiffel Tower\n\nCompleted in 1889.")

	_, err := idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)

	summary, err := idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Indexed)

	// Touch the file: it should be re-indexed as an update.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(docsDir, "tower.md"), future, future))

	summary, err = idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
}

func TestSearch_RanksMatches(t *testing.T) {
	idx, dir := newTestIndex(t)
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))

	writeDoc(t, docsDir, "tower.md", "# Eiffel Tower\n\nThe Eiffel Tower was completed in 1889.")
	writeDoc(t, docsDir, "other.md", "# Unrelated\n\nNothing about landmarks here at all.")

	_, err := idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), "When was the Eiffel Tower completed?", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Eiffel Tower", hits[0].Title)
	assert.Contains(t, hits[0].Snippet, "1889")
}

func TestSearch_NoMatchesReturnsEmpty(t *testing.T) {
	idx, dir := newTestIndex(t)
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docsDir, 0o755))
	writeDoc(t, docsDir, "tower.md", "# Eiffel Tower\n\nCompleted in 1889.")

	_, err := idx.Build(context.Background(), docsDir, io.Discard)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), "zanzibar quokka", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFTSQuery_QuotesPunctuation(t *testing.T) {
	assert.Equal(t, `"what" OR "year?"`, ftsQuery(`what year?`))
	assert.Equal(t, `"a" OR "b"`, ftsQuery(`a "b"`))
	assert.Equal(t, "", ftsQuery("  "))
}
