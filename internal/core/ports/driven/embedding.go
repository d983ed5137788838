package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, dense retrieval is disabled and
// the memory and ephemeral scorers degrade to keyword heuristics.
//
// Implementations must be deterministic for a fixed model version: the
// same input yields the same vector. The core L2-normalizes every vector
// it receives, so implementations need not guarantee unit length.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is determined by the model and must match the dense index.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test
	// request. Used at startup so construction failures surface early.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
