package mcp

import (
	"context"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	bundle      domain.ContextBundle
	buildErr    error
	lastUserID  string
	lastQuery   string
	lastSession string
	reindexed   int
}

func (m *mockRetrievalService) BuildContext(_ context.Context, userID, query, sessionID string) (domain.ContextBundle, error) {
	m.lastUserID = userID
	m.lastQuery = query
	m.lastSession = sessionID
	if m.buildErr != nil {
		return domain.ContextBundle{}, m.buildErr
	}
	return m.bundle, nil
}

func (m *mockRetrievalService) Reindex(_ context.Context) error {
	m.reindexed++
	return nil
}

// mockSessionService implements driving.SessionService.
type mockSessionService struct {
	stats   domain.SessionStats
	cleared []string
}

func (m *mockSessionService) Add(_ context.Context, _ string, _ []domain.SessionItem) error {
	return nil
}

func (m *mockSessionService) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.Hit, error) {
	return nil, nil
}

func (m *mockSessionService) Clear(sessionID string) {
	m.cleared = append(m.cleared, sessionID)
}

func (m *mockSessionService) Stats() domain.SessionStats {
	return m.stats
}

// mockMemoryStore implements driven.MemoryStore.
type mockMemoryStore struct {
	records []domain.MemoryRecord
	addErr  error
	listErr error
}

func (m *mockMemoryStore) AddMemory(_ context.Context, userID, memoryType, content string) (int64, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	rec := domain.MemoryRecord{
		ID:      int64(len(m.records) + 1),
		UserID:  userID,
		Type:    memoryType,
		Content: content,
	}
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *mockMemoryStore) ListMemories(_ context.Context, userID string, limit int) ([]domain.MemoryRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.MemoryRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID != userID {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockMemoryStore) Close() error { return nil }
