package domain

// keyTextPrefix is the number of text bytes folded into a derived fusion
// key for hits that carry no stable identifier.
const keyTextPrefix = 50

// Hit is the retrieval result unit threaded through every ranking stage.
// Score semantics differ by stage: cosine similarity from the dense index,
// BM25 from the lexical index, keyword-overlap counts from degraded
// scorers, and accumulated reciprocal-rank scores after fusion. Scores
// from different stages are never comparable until after fusion.
type Hit struct {
	// ID is the stable identifier of the underlying record: a chunk id,
	// "mem::<id>" for memory records, "ephemeral::<n>" for session items.
	ID string

	// Path is a human-readable provenance string: a source file path,
	// "(memory:<type>)", or an upload name.
	Path string

	// Text is the retrieved content.
	Text string

	// Score is the stage-specific relevance score.
	Score float64

	// Rank is the 1-based position within the source list. It is
	// fusion input only, never display data.
	Rank int

	// CEScore is the cross-encoder relevance score. Nil unless the
	// rerank stage ran over this hit.
	CEScore *float64
}

// Key returns the identity key used to deduplicate hits across ranked
// lists during fusion. Hits with an ID use it directly; hits without one
// derive a key from path plus a short text prefix so unrelated id-less
// hits do not collide.
func (h Hit) Key() string {
	if h.ID != "" {
		return h.ID
	}
	text := h.Text
	if len(text) > keyTextPrefix {
		text = text[:keyTextPrefix]
	}
	return h.Path + "::" + text
}

// ContextBundle is the orchestrator's result: everything the downstream
// prompt builder needs for one query.
type ContextBundle struct {
	// Context is the flattened, numbered context string ("[1] ...\n\n[2] ...").
	Context string

	// Hits is the final fused hit list across all sources.
	Hits []Hit

	// DenseHits is the fused document-hit list before memory and
	// ephemeral sources were merged in. Useful for debugging recall.
	DenseHits []Hit

	// FileContext holds uploaded-file content relevant to the query.
	FileContext string

	// UploadsInfo summarises the session's uploads ("count=2 files: a, b"),
	// empty when the session has none.
	UploadsInfo string
}
