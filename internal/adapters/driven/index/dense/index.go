// Package dense provides an in-memory exact inner-product index.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.DenseIndex = (*Index)(nil)

// Index holds chunk embeddings in a flat matrix and scores queries by
// exact inner product. With L2-normalized vectors this is cosine
// similarity. The corpus sizes here (thousands of chunks) do not
// justify an ANN structure.
type Index struct {
	chunks  []domain.Chunk
	vectors [][]float32
	dim     int
}

// New builds an index from chunks. Malformed chunks and chunks without
// an embedding are skipped with a warning so one bad row never poisons
// the whole corpus. A dimension mismatch among the remaining embeddings
// still errors: that means the snapshot itself is inconsistent.
func New(chunks []domain.Chunk) (*Index, error) {
	idx := &Index{
		chunks:  make([]domain.Chunk, 0, len(chunks)),
		vectors: make([][]float32, 0, len(chunks)),
	}

	for _, c := range chunks {
		if !c.Valid() {
			logger.Warn("Skipping malformed chunk %q from %s", c.ID, c.Path)
			continue
		}
		if len(c.Embedding) == 0 {
			logger.Warn("Skipping chunk %q: no embedding", c.ID)
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(c.Embedding)
		}
		if len(c.Embedding) != idx.dim {
			return nil, fmt.Errorf("chunk %q embedding dimension %d, index dimension %d",
				c.ID, len(c.Embedding), idx.dim)
		}
		vec := append([]float32{}, c.Embedding...)
		normalize(vec)
		idx.chunks = append(idx.chunks, c)
		idx.vectors = append(idx.vectors, vec)
	}
	return idx, nil
}

// Search returns the k chunks with the highest inner product against
// the query vector, best first.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), idx.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Callers are not trusted to pre-normalize; copy so the caller's
	// slice is left untouched.
	q := append([]float32{}, query...)
	normalize(q)

	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		var dot float64
		for j := range vec {
			dot += float64(vec[j]) * float64(q[j])
		}
		scores[i] = scored{i: i, score: dot}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	hits := make([]domain.Hit, k)
	for rank, s := range scores[:k] {
		c := idx.chunks[s.i]
		hits[rank] = domain.Hit{
			ID:    c.ID,
			Path:  c.Path,
			Text:  c.Text,
			Score: s.score,
			Rank:  rank + 1,
		}
	}
	return hits, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return len(idx.chunks)
}

// Chunks exposes the indexed chunks for building a companion lexical
// index over the same snapshot.
func (idx *Index) Chunks() []domain.Chunk {
	return idx.chunks
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || sum == 1 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
