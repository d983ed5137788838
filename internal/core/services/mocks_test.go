package services

import (
	"context"
	"strings"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// --- Mock implementations of driven ports ---

// mockEmbedder implements driven.EmbeddingService with canned vectors.
// Unknown texts embed to a fixed axis vector so calls never fail unless
// an error is configured.
type mockEmbedder struct {
	vectors  map[string][]float32
	embedErr error
	batchErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32{}, v...)
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.embedErr }
func (m *mockEmbedder) Close() error                 { return nil }

// mockDenseIndex implements driven.DenseIndex with a fixed hit list.
type mockDenseIndex struct {
	hits      []domain.Hit
	searchErr error
}

func (m *mockDenseIndex) Search(_ context.Context, _ []float32, k int) ([]domain.Hit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		k = len(m.hits)
	}
	return m.hits[:k], nil
}

func (m *mockDenseIndex) Size() int { return len(m.hits) }

// mockLexicalIndex implements driven.LexicalIndex with a fixed hit list.
type mockLexicalIndex struct {
	hits      []domain.Hit
	searchErr error
}

func (m *mockLexicalIndex) Search(_ context.Context, _ string, k int) ([]domain.Hit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		k = len(m.hits)
	}
	return m.hits[:k], nil
}

// mockSnapshot implements driven.IndexSnapshot.
type mockSnapshot struct {
	dense   driven.DenseIndex
	lexical driven.LexicalIndex
	closed  bool
}

func (m *mockSnapshot) Dense() driven.DenseIndex     { return m.dense }
func (m *mockSnapshot) Lexical() driven.LexicalIndex { return m.lexical }
func (m *mockSnapshot) Close() error {
	m.closed = true
	return nil
}

// mockLoader implements driven.IndexLoader.
type mockLoader struct {
	snapshots []driven.IndexSnapshot
	loadErr   error
	loads     int
}

func (m *mockLoader) Load(_ context.Context) (driven.IndexSnapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	snap := m.snapshots[0]
	if len(m.snapshots) > 1 {
		m.snapshots = m.snapshots[1:]
	}
	m.loads++
	return snap, nil
}

// mockMemoryStore implements driven.MemoryStore with fixed records.
type mockMemoryStore struct {
	records []domain.MemoryRecord
	listErr error
}

func (m *mockMemoryStore) ListMemories(_ context.Context, userID string, limit int) ([]domain.MemoryRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.MemoryRecord
	for _, r := range m.records {
		if r.UserID == userID || r.UserID == "" {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMemoryStore) AddMemory(_ context.Context, userID, mtype, content string) (int64, error) {
	rec := domain.MemoryRecord{
		ID:      int64(len(m.records) + 1),
		UserID:  userID,
		Type:    mtype,
		Content: content,
	}
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *mockMemoryStore) Close() error { return nil }

// mockReranker implements driven.Reranker by scoring passages on
// lexical overlap, or with canned scores when provided.
type mockReranker struct {
	scores    []float64
	rerankErr error
	calls     int
}

func (m *mockReranker) Rerank(_ context.Context, query string, passages []string) ([]float64, error) {
	m.calls++
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	if m.scores != nil {
		if len(m.scores) > len(passages) {
			return m.scores[:len(passages)], nil
		}
		return m.scores, nil
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		for _, w := range strings.Fields(strings.ToLower(query)) {
			if strings.Contains(strings.ToLower(p), w) {
				out[i]++
			}
		}
	}
	return out, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }
