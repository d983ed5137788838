package driving

import (
	"context"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// RetrievalService composes every retrieval source for one query:
// query expansion, dense and lexical search, memory and ephemeral
// retrieval, reciprocal-rank fusion, and optional cross-encoder
// reranking.
type RetrievalService interface {
	// BuildContext runs the full retrieval pipeline for a query and
	// returns the context bundle the prompt builder consumes. A failing
	// source contributes an empty list; the call errors only when no
	// index is loaded at all (domain.ErrRetrieverNotReady).
	BuildContext(ctx context.Context, userID, query, sessionID string) (domain.ContextBundle, error)

	// Reindex discards the loaded index snapshot and reloads it from
	// disk. Safe to call while reads are in flight: readers complete
	// against the old snapshot or see the new one, never a partial swap.
	Reindex(ctx context.Context) error
}

// SessionService manages per-conversation ephemeral uploads. Items are
// process memory only: they are never written to an index or database
// and do not survive a restart.
type SessionService interface {
	// Add embeds and stores uploaded fragments under the session id.
	Add(ctx context.Context, sessionID string, items []domain.SessionItem) error

	// Retrieve returns the session's top-k fragments by similarity to
	// the query. Unknown sessions return an empty list, never an error.
	Retrieve(ctx context.Context, sessionID, query string, topK int) ([]domain.Hit, error)

	// Clear deletes a session's uploads, preventing context bleed into
	// later conversations.
	Clear(sessionID string)

	// Stats reports live session and item counts.
	Stats() domain.SessionStats
}
