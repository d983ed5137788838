package bm25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "a", Path: "a.md", Text: "the quick brown fox jumps over the lazy dog"},
		{ID: "b", Path: "b.md", Text: "a fox den in the forest, fox tracks everywhere"},
		{ID: "c", Path: "c.md", Text: "shipping containers and customs paperwork"},
	}
}

func TestSearchRanksByTermFrequency(t *testing.T) {
	idx := New(testChunks())

	hits, err := idx.Search(context.Background(), "fox", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// b mentions fox twice in a similar-length doc.
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "a", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, 1, hits[0].Rank)
}

func TestSearchOmitsNonMatching(t *testing.T) {
	idx := New(testChunks())

	hits, err := idx.Search(context.Background(), "customs paperwork", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c", hits[0].ID)
}

func TestSearchRareTermOutweighsCommon(t *testing.T) {
	idx := New(testChunks())

	// "the" appears in two docs, "customs" in one; the rare term must
	// dominate.
	hits, err := idx.Search(context.Background(), "the customs", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c", hits[0].ID)
}

func TestSearchNoMatches(t *testing.T) {
	idx := New(testChunks())

	hits, err := idx.Search(context.Background(), "zygote", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTruncatesToK(t *testing.T) {
	idx := New(testChunks())

	hits, err := idx.Search(context.Background(), "fox", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestSearchIsCaseAndPunctuationInsensitive(t *testing.T) {
	idx := New(testChunks())

	hits, err := idx.Search(context.Background(), "FOX!", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(nil)

	hits, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
