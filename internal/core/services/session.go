package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/core/ports/driving"
	"github.com/keeva-labs/keeva/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driving.SessionService = (*SessionStore)(nil)

// Default session store bounds.
const (
	DefaultMaxSessions          = 10
	DefaultMaxVectorsPerSession = 50
	DefaultRecentCap            = 24
)

// SessionConfig bounds the ephemeral session store.
type SessionConfig struct {
	// MaxSessions caps live sessions; the oldest half (by last add time)
	// is evicted when the cap is reached.
	MaxSessions int

	// MaxVectorsPerSession caps stored fragments per session; on
	// overflow only the most recent half is retained.
	MaxVectorsPerSession int

	// RecentCap bounds the recency tail used for follow-up context.
	RecentCap int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.MaxVectorsPerSession <= 0 {
		c.MaxVectorsPerSession = DefaultMaxVectorsPerSession
	}
	if c.RecentCap <= 0 {
		c.RecentCap = DefaultRecentCap
	}
	return c
}

// session is one conversation's uploads. vectors and items are parallel:
// vectors[i] is the embedding of items[i], or nil when embedding was
// unavailable at add time (such rows score zero in similarity ranking
// and are still reachable by the keyword fallback).
type session struct {
	vectors     [][]float32
	items       []domain.SessionItem
	recent      []domain.SessionItem
	lastAddedAt time.Time
}

// SessionStore holds per-conversation uploaded fragments in process
// memory only. Nothing here is ever written to an index or database:
// uploads must not leak into durable retrieval results, so loss on
// restart is the contract, not a shortcoming.
//
// A single mutex guards the session map and all session mutation, which
// serialises same-session adds (preserving the items/vectors parallel
// invariant) and keeps the global eviction check from racing an in-flight
// add. Embedding happens before the lock is taken, so concurrent adds for
// different sessions only contend on the cheap append.
type SessionStore struct {
	embedder driven.EmbeddingService
	cfg      SessionConfig

	mu       sync.Mutex
	sessions map[string]*session

	now func() time.Time
}

// NewSessionStore creates a bounded ephemeral session store. The
// embedder may be nil; the store then ranks purely by keyword overlap.
func NewSessionStore(embedder driven.EmbeddingService, cfg SessionConfig) *SessionStore {
	return &SessionStore{
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Add embeds the fragments in one batch call and appends them to the
// session, creating it on first use. Overflow trims to the most recent
// half rather than rejecting the add.
func (s *SessionStore) Add(ctx context.Context, sessionID string, items []domain.SessionItem) error {
	if sessionID == "" {
		return fmt.Errorf("add session items: %w", domain.ErrInvalidInput)
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}

	// Embed outside the lock; this is the slow part.
	vectors := make([][]float32, len(items))
	if s.embedder != nil {
		embedded, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("Session %s: embedding unavailable, storing without vectors: %v", sessionID, err)
		} else {
			for i, v := range embedded {
				vectors[i] = Normalize(v)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictSessionsLocked(sessionID)

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.vectors = append(sess.vectors, vectors...)
	sess.items = append(sess.items, items...)

	// Trim after appending so the per-session bound holds even when a
	// single batch is larger than the cap: retain only the most recent
	// half and let the session grow again.
	if len(sess.items) > s.cfg.MaxVectorsPerSession {
		keep := s.cfg.MaxVectorsPerSession / 2
		sess.vectors = append([][]float32{}, sess.vectors[len(sess.vectors)-keep:]...)
		sess.items = append([]domain.SessionItem{}, sess.items[len(sess.items)-keep:]...)
		logger.Debug("Session %s: trimmed to most recent %d items", sessionID, keep)
	}

	sess.recent = append(sess.recent, items...)
	if len(sess.recent) > s.cfg.RecentCap {
		sess.recent = append([]domain.SessionItem{}, sess.recent[len(sess.recent)-s.cfg.RecentCap:]...)
	}
	sess.lastAddedAt = s.now()

	return nil
}

// evictSessionsLocked enforces the global session cap by dropping the
// oldest half of sessions by last add time. The session currently being
// written is never evicted. Caller must hold s.mu.
func (s *SessionStore) evictSessionsLocked(current string) {
	if len(s.sessions) < s.cfg.MaxSessions {
		return
	}

	type aged struct {
		id string
		at time.Time
	}
	candidates := make([]aged, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if id == current {
			continue
		}
		candidates = append(candidates, aged{id: id, at: sess.lastAddedAt})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].at.Before(candidates[j].at)
	})

	n := len(s.sessions) / 2
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, c := range candidates[:n] {
		delete(s.sessions, c.id)
		logger.Info("Evicted idle ephemeral session %s", c.id)
	}
}

// Retrieve returns the session's top-k fragments by dot product against
// the stored (normalized) vectors. Unknown or empty sessions return an
// empty list. When the embedder is unavailable the score degrades to a
// keyword-overlap count over the stored text.
func (s *SessionStore) Retrieve(ctx context.Context, sessionID, query string, topK int) ([]domain.Hit, error) {
	if sessionID == "" || topK <= 0 {
		return []domain.Hit{}, nil
	}

	items, vectors := s.snapshot(sessionID)
	if len(items) == 0 {
		return []domain.Hit{}, nil
	}

	if s.embedder != nil {
		qv, err := s.embedder.Embed(ctx, query)
		if err == nil {
			Normalize(qv)
			return rankByVector(items, vectors, qv, topK), nil
		}
		logger.Warn("Session %s: query embedding failed, keyword fallback: %v", sessionID, err)
	}

	return rankByKeywords(items, query, topK), nil
}

// snapshot copies a session's parallel slices under the lock, so scoring
// runs without holding it.
func (s *SessionStore) snapshot(sessionID string) ([]domain.SessionItem, [][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	items := append([]domain.SessionItem{}, sess.items...)
	vectors := append([][]float32{}, sess.vectors...)
	return items, vectors
}

func rankByVector(items []domain.SessionItem, vectors [][]float32, qv []float32, topK int) []domain.Hit {
	type scored struct {
		idx   int
		score float64
	}
	all := make([]scored, len(items))
	for i := range items {
		var score float64
		if vectors[i] != nil {
			score = Dot(vectors[i], qv)
		}
		all[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})
	if len(all) > topK {
		all = all[:topK]
	}

	hits := make([]domain.Hit, len(all))
	for rank, sc := range all {
		item := items[sc.idx]
		hits[rank] = domain.Hit{
			ID:    fmt.Sprintf("ephemeral::%d", sc.idx),
			Path:  item.Path,
			Text:  item.Text,
			Score: sc.score,
			Rank:  rank + 1,
		}
	}
	return hits
}

func rankByKeywords(items []domain.SessionItem, query string, topK int) []domain.Hit {
	words := strings.Fields(strings.ToLower(query))
	var hits []domain.Hit
	for i, item := range items {
		text := strings.ToLower(item.Text)
		score := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(text, w) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		hits = append(hits, domain.Hit{
			ID:    fmt.Sprintf("ephemeral::%d", i),
			Path:  item.Path,
			Text:  item.Text,
			Score: float64(score),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}

// Recent returns up to n of the session's most recently added items,
// oldest first.
func (s *SessionStore) Recent(sessionID string, n int) []domain.SessionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return nil
	}
	recent := sess.recent
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	return append([]domain.SessionItem{}, recent...)
}

// Items returns a copy of the session's stored items, capped at max when
// max > 0.
func (s *SessionStore) Items(sessionID string, max int) []domain.SessionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	items := sess.items
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return append([]domain.SessionItem{}, items...)
}

// LastAdded reports when the session last received items.
func (s *SessionStore) LastAdded(sessionID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return time.Time{}, false
	}
	return sess.lastAddedAt, true
}

// Clear deletes a session's uploads to prevent context bleeding into a
// new conversation.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		logger.Debug("Cleared ephemeral session %s", sessionID)
	}
}

// Stats reports live session and item counts.
func (s *SessionStore) Stats() domain.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.SessionStats{Sessions: len(s.sessions)}
	for _, sess := range s.sessions {
		stats.Items += len(sess.items)
	}
	return stats
}
