package driven

import (
	"context"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// MemoryStore provides access to a user's durable memory records.
// Retrieval reads a bounded recent window; writes happen outside the
// query path (CLI, extraction pipeline).
type MemoryStore interface {
	// ListMemories returns up to limit of the user's most recent records,
	// newest first.
	ListMemories(ctx context.Context, userID string, limit int) ([]domain.MemoryRecord, error)

	// AddMemory stores a record and returns its assigned id.
	AddMemory(ctx context.Context, userID, mtype, content string) (int64, error)

	// Close releases resources.
	Close() error
}
