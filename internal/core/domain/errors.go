package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrieverNotReady indicates no retrieval source could be
	// initialised at all (index files missing). Callers should surface
	// an actionable message: run ingestion to build the index.
	ErrRetrieverNotReady = errors.New("retriever not ready, run ingestion")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or failed. Dense retrieval is disabled; keyword fallbacks apply.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrMemoryStoreUnavailable indicates the durable memory store is not
	// configured. Memory retrieval contributes nothing to fusion.
	ErrMemoryStoreUnavailable = errors.New("memory store unavailable")
)
