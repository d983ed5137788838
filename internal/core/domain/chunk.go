package domain

// Chunk represents a retrievable unit of text from the ingested corpus.
// Chunks are produced by the ingestion pipeline at index-build time and
// are immutable at query time; the whole corpus is replaced wholesale on
// reindex.
type Chunk struct {
	// ID is the unique identifier within one corpus snapshot. The dense
	// and lexical indexes built from the same snapshot agree on IDs.
	ID string

	// Path is the source document's relative path.
	Path string

	// Position is the ordinal position within the source document.
	Position int

	// Text is the chunk content. Never empty for a valid chunk.
	Text string

	// Embedding is the L2-normalized vector representation, present when
	// the snapshot carries precomputed embeddings.
	Embedding []float32
}

// Valid reports whether the chunk satisfies the corpus invariants.
// Malformed chunks are skipped individually during snapshot load.
func (c Chunk) Valid() bool {
	return c.ID != "" && c.Text != ""
}
