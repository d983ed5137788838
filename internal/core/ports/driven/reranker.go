package driven

import "context"

// Reranker scores (query, passage) pairs jointly with a cross-encoder
// model for finer relevance ordering. This is an optional precision
// stage: it is expensive, applied only to a bounded candidate prefix,
// and when it fails the caller keeps the pre-rerank order. It is never
// a correctness dependency.
type Reranker interface {
	// Rerank returns one relevance score per passage, in input order.
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)

	// ModelName returns the name of the cross-encoder model being used.
	ModelName() string
}
