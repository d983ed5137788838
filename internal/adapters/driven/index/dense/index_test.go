package dense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "a", Path: "a.md", Text: "axis aligned", Embedding: []float32{1, 0, 0}},
		{ID: "b", Path: "b.md", Text: "diagonal", Embedding: []float32{1, 1, 0}},
		{ID: "c", Path: "c.md", Text: "orthogonal", Embedding: []float32{0, 0, 1}},
	}
}

func TestSearchRanksByInnerProduct(t *testing.T) {
	idx, err := New(testChunks())
	require.NoError(t, err)
	require.Equal(t, 3, idx.Size())

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.Equal(t, "b", hits[1].ID)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, 2, hits[1].Rank)
}

func TestSearchNormalizesStoredVectors(t *testing.T) {
	// Same direction, wildly different magnitude: scores must match.
	idx, err := New([]domain.Chunk{
		{ID: "small", Text: "s", Embedding: []float32{0.001, 0, 0}},
		{ID: "large", Text: "l", Embedding: []float32{1000, 0, 0}},
	})
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, hits[0].Score, hits[1].Score, 1e-5)
}

func TestSearchNormalizesQueryVector(t *testing.T) {
	idx, err := New(testChunks())
	require.NoError(t, err)

	query := []float32{500, 0, 0}
	hits, err := idx.Search(context.Background(), query, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)

	// The caller's slice is not mutated.
	assert.Equal(t, []float32{500, 0, 0}, query)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx, err := New(testChunks())
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{0, 0, 1}, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	assert.Equal(t, "c", hits[0].ID)
}

func TestSearchDimensionMismatch(t *testing.T) {
	idx, err := New(testChunks())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 1)
	require.Error(t, err)
}

func TestNewSkipsChunksWithoutEmbedding(t *testing.T) {
	idx, err := New([]domain.Chunk{
		{ID: "a", Text: "alpha", Embedding: []float32{1, 0}},
		{ID: "bad", Text: "no vector"},
		{ID: "c", Text: "gamma", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
}

func TestNewSkipsMalformedChunks(t *testing.T) {
	idx, err := New([]domain.Chunk{
		{ID: "a", Text: "alpha", Embedding: []float32{1, 0}},
		{ID: "", Text: "no id", Embedding: []float32{0, 1}},
		{ID: "empty", Text: "", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())
}

func TestNewRejectsMixedDimensions(t *testing.T) {
	_, err := New([]domain.Chunk{
		{ID: "a", Text: "alpha", Embedding: []float32{1, 0}},
		{ID: "b", Text: "beta", Embedding: []float32{1, 0, 0}},
	})
	require.Error(t, err)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := New(nil)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
