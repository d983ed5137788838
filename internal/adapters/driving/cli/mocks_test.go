package cli

import (
	"context"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	bundle     domain.ContextBundle
	buildErr   error
	reindexErr error
	reindexed  int
}

func (m *mockRetrievalService) BuildContext(_ context.Context, _, _, _ string) (domain.ContextBundle, error) {
	if m.buildErr != nil {
		return domain.ContextBundle{}, m.buildErr
	}
	return m.bundle, nil
}

func (m *mockRetrievalService) Reindex(_ context.Context) error {
	m.reindexed++
	return m.reindexErr
}

// mockSessionService implements driving.SessionService.
type mockSessionService struct {
	stats   domain.SessionStats
	cleared []string
	added   map[string][]domain.SessionItem
}

func (m *mockSessionService) Add(_ context.Context, sessionID string, items []domain.SessionItem) error {
	if m.added == nil {
		m.added = make(map[string][]domain.SessionItem)
	}
	m.added[sessionID] = append(m.added[sessionID], items...)
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
}

func (m *mockMemoryStore) AddMemory(_ context.Context, userID, memoryType, content string) (int64, error) {
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

// setupTestServices wires mocks into the package-level services and
// returns a cleanup restoring the previous wiring.
func setupTestServices() func() {
	oldRetrieval := retrievalService
	oldSession := sessionService
	oldMemory := memoryStore

	retrievalService = &mockRetrievalService{
		bundle: domain.ContextBundle{
			Context: "[1] mock context chunk",
			Hits: []domain.Hit{
				{ID: "c1", Path: "doc.md", Text: "mock context chunk", Score: 0.03, Rank: 1},
			},
		},
	}
	sessionService = &mockSessionService{stats: domain.SessionStats{Sessions: 1, Items: 3}}
	memoryStore = &mockMemoryStore{}

	return func() {
		retrievalService = oldRetrieval
		sessionService = oldSession
		memoryStore = oldMemory
	}
}
