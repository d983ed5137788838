package driven

import (
	"context"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// DenseIndex provides exact nearest-neighbour search over the chunk
// corpus (inner product over L2-normalized vectors, which equals cosine
// similarity). The index is read-only at query time: it is built by the
// ingestion pipeline and loaded wholesale, with reindex swapping the
// entire snapshot.
type DenseIndex interface {
	// Search finds the k most similar chunks to the query vector,
	// sorted descending by inner product. The query vector is
	// re-normalized before scoring. Returns fewer than k hits when the
	// corpus is smaller; never errors on k exceeding corpus size.
	Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error)

	// Size returns the number of indexed chunks.
	Size() int
}

// LexicalIndex provides keyword search with BM25-style ranking over the
// same chunk corpus. It exists to catch exact rare-token matches (names,
// codes, numbers) that dense embeddings under-rank; its output is only
// ever one fusion input, never a standalone result set.
type LexicalIndex interface {
	// Search performs a keyword search, sorted descending by score.
	// Queries with zero token overlap return an empty list, never an error.
	Search(ctx context.Context, query string, k int) ([]domain.Hit, error)
}
