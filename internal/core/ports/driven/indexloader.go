package driven

import "context"

// IndexLoader opens one immutable snapshot of the dense and lexical
// indexes from the files the ingestion pipeline produced. The retrieval
// service calls Load once at startup and again on every reindex trigger;
// each call returns fresh handles so concurrent readers can finish
// against the old snapshot while new requests see the new one.
type IndexLoader interface {
	// Load opens the current on-disk snapshot. Returns
	// domain.ErrRetrieverNotReady (wrapped) when the index files are
	// missing.
	Load(ctx context.Context) (IndexSnapshot, error)
}

// IndexSnapshot is one loaded corpus snapshot. Both indexes are built
// from the same chunk set and agree on chunk IDs.
type IndexSnapshot interface {
	// Dense returns the dense index for this snapshot.
	Dense() DenseIndex

	// Lexical returns the lexical index for this snapshot, or nil when
	// the snapshot carries no keyword index.
	Lexical() LexicalIndex

	// Close releases snapshot resources once no reader needs them.
	Close() error
}
