// Package memory provides in-memory implementations of driven port
// interfaces, used in tests and for running without a data directory.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// Ensure MemoryStore implements the interface.
var _ driven.MemoryStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory long-term memory store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.MemoryRecord
	nextID  int64
}

// NewMemoryStore creates an empty in-memory memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// AddMemory stores a fact about the user and returns its id.
func (s *MemoryStore) AddMemory(_ context.Context, userID, memoryType, content string) (int64, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return 0, fmt.Errorf("%w: user id and content are required", domain.ErrInvalidInput)
	}
	if memoryType == "" {
		memoryType = "note"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := domain.MemoryRecord{
		ID:        s.nextID,
		UserID:    userID,
		Type:      memoryType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.records = append(s.records, rec)
	return rec.ID, nil
}

// ListMemories returns the most recent memories for a user, newest
// first. A limit of 0 or less means no limit.
func (s *MemoryStore) ListMemories(_ context.Context, userID string, limit int) ([]domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MemoryRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID != userID {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close releases resources.
func (s *MemoryStore) Close() error {
	return nil
}
