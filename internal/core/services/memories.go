package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/logger"
)

// Memory retriever defaults. The keyword boost and window size are
// empirically chosen and tunable through configuration; treat them as
// starting points, not derived constants.
const (
	DefaultMemoryWindow  = 500
	DefaultKeywordBoost  = 1.5
	keywordBoostMinToken = 3
)

// MemoryRetriever scores a user's durable memory records against a
// query. Semantic similarity carries the ranking; a flat keyword boost
// keeps exact-term matches from being starved by semantic drift. When
// the embedder is unavailable it degrades to a pure keyword-count
// scorer rather than failing the request.
type MemoryRetriever struct {
	store    driven.MemoryStore
	embedder driven.EmbeddingService

	// Window bounds how many recent records are fetched for scoring.
	Window int

	// KeywordBoost is added to any record sharing a token of length
	// > 3 with the query.
	KeywordBoost float64
}

// NewMemoryRetriever creates a memory retriever over the given store.
// The embedder may be nil, forcing keyword-only scoring.
func NewMemoryRetriever(store driven.MemoryStore, embedder driven.EmbeddingService) *MemoryRetriever {
	return &MemoryRetriever{
		store:        store,
		embedder:     embedder,
		Window:       DefaultMemoryWindow,
		KeywordBoost: DefaultKeywordBoost,
	}
}

// Retrieve returns the user's memories ranked against the query,
// truncated to limit. Hits carry synthetic provenance: path
// "(memory:<type>)" and id "mem::<id>".
func (r *MemoryRetriever) Retrieve(ctx context.Context, userID, query string, limit int) ([]domain.Hit, error) {
	if r.store == nil {
		return nil, domain.ErrMemoryStoreUnavailable
	}
	if limit <= 0 {
		return []domain.Hit{}, nil
	}

	records, err := r.store.ListMemories(ctx, userID, r.Window)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	valid := records[:0]
	for _, rec := range records {
		if !rec.Valid() {
			logger.Warn("Skipping malformed memory record %d", rec.ID)
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return []domain.Hit{}, nil
	}

	scores, err := r.semanticScores(ctx, query, valid)
	if err != nil {
		logger.Warn("Memory retrieval degraded to keyword scoring: %v", err)
		return keywordRank(valid, query, limit), nil
	}

	queryTokens := boostTokens(query)
	type scored struct {
		rec   domain.MemoryRecord
		score float64
	}
	all := make([]scored, len(valid))
	for i, rec := range valid {
		score := scores[i]
		if sharesToken(rec.Content, queryTokens) {
			score += r.KeywordBoost
		}
		all[i] = scored{rec: rec, score: score}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})
	if len(all) > limit {
		all = all[:limit]
	}

	hits := make([]domain.Hit, len(all))
	for i, sc := range all {
		hits[i] = memoryHit(sc.rec, sc.score, i+1)
	}
	return hits, nil
}

// semanticScores embeds the query and every record content in one batch
// and returns the dot products.
func (r *MemoryRetriever) semanticScores(ctx context.Context, query string, records []domain.MemoryRecord) ([]float64, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	Normalize(qv)

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}
	vecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed memories: %w", err)
	}

	scores := make([]float64, len(records))
	for i, v := range vecs {
		scores[i] = Dot(Normalize(v), qv)
	}
	return scores, nil
}

// keywordRank is the degraded scorer: matching-token counts only.
// Records with no overlap are dropped.
func keywordRank(records []domain.MemoryRecord, query string, limit int) []domain.Hit {
	words := strings.Fields(strings.ToLower(query))
	type scored struct {
		rec   domain.MemoryRecord
		score float64
	}
	var all []scored
	for _, rec := range records {
		content := strings.ToLower(rec.Content)
		score := 0.0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(content, w) {
				score++
			}
		}
		if score > 0 {
			all = append(all, scored{rec: rec, score: score})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})
	if len(all) > limit {
		all = all[:limit]
	}

	hits := make([]domain.Hit, len(all))
	for i, sc := range all {
		hits[i] = memoryHit(sc.rec, sc.score, i+1)
	}
	return hits
}

func memoryHit(rec domain.MemoryRecord, score float64, rank int) domain.Hit {
	mtype := rec.Type
	if mtype == "" {
		mtype = "note"
	}
	return domain.Hit{
		ID:    fmt.Sprintf("mem::%d", rec.ID),
		Path:  fmt.Sprintf("(memory:%s)", mtype),
		Text:  rec.Content,
		Score: score,
		Rank:  rank,
	}
}

// boostTokens extracts the query tokens eligible for the keyword boost.
func boostTokens(query string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > keywordBoostMinToken {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

func sharesToken(content string, tokens []string) bool {
	lower := strings.ToLower(content)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
