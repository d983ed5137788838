package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/core/ports/driving"
	"github.com/keeva-labs/keeva/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval pipeline defaults. All are tunable via configuration; the
// floor and boost values are empirical, not derived.
const (
	DefaultTopK                = 5
	DefaultFinalTopK           = 8
	DefaultRelevanceFloor      = 0.01
	DefaultMaxVariants         = 3
	DefaultRerankMinTokens     = 4
	DefaultRerankCandidateMult = 12
	DefaultRecentUploadWindow  = 2 * time.Minute

	// denseOverfetch and lexicalOverfetch widen per-source requests so
	// fusion has enough candidates to disagree about.
	denseOverfetch   = 6
	lexicalOverfetch = 12

	// recentUploadItems and recentUploadTextCap bound the recency block
	// prepended after a fresh upload.
	recentUploadItems   = 3
	recentUploadTextCap = 1200

	// fileContextItems bounds how many session items are considered for
	// the uploaded-file context block.
	fileContextItems = 3

	// uploadsInfoMaxNames bounds filenames listed in the uploads summary.
	uploadsInfoMaxNames = 6

	// fileContextMinToken is the minimum token length that counts as a
	// meaningful overlap between query and uploaded text.
	fileContextMinToken = 4
)

// RetrievalConfig tunes the orchestrator. Zero values select defaults.
type RetrievalConfig struct {
	// TopK is the per-source result count and the doc-fusion truncation.
	TopK int

	// FinalTopK is the size of the final fused hit list.
	FinalTopK int

	// RRFConstant is the reciprocal-rank-fusion k constant.
	RRFConstant float64

	// RelevanceFloor drops doc-fusion hits at or below this score.
	RelevanceFloor float64

	// MaxVariants caps how many expansion variants are searched; each
	// variant costs a full dense round trip.
	MaxVariants int

	// RerankMinTokens skips reranking for queries with fewer tokens;
	// the precision gain does not justify the cost on short queries.
	RerankMinTokens int

	// RerankCandidateMult bounds the reranked prefix at mult x TopK.
	RerankCandidateMult int

	// RecentUploadWindow is how long after an upload the recency block
	// is prepended to the context.
	RecentUploadWindow time.Duration
}

func (c RetrievalConfig) withDefaults() RetrievalConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.FinalTopK <= 0 {
		c.FinalTopK = DefaultFinalTopK
	}
	if c.RRFConstant <= 0 {
		c.RRFConstant = DefaultRRFConstant
	}
	if c.RelevanceFloor <= 0 {
		c.RelevanceFloor = DefaultRelevanceFloor
	}
	if c.MaxVariants <= 0 {
		c.MaxVariants = DefaultMaxVariants
	}
	if c.RerankMinTokens <= 0 {
		c.RerankMinTokens = DefaultRerankMinTokens
	}
	if c.RerankCandidateMult <= 0 {
		c.RerankCandidateMult = DefaultRerankCandidateMult
	}
	if c.RecentUploadWindow <= 0 {
		c.RecentUploadWindow = DefaultRecentUploadWindow
	}
	return c
}

// RetrievalService composes dense, lexical, memory, and ephemeral
// retrieval into one ranked context per query. The index snapshot is
// held behind an atomic pointer: readers grab it once per request and
// Reindex swaps it wholesale, so no reader ever observes a partial
// snapshot.
type RetrievalService struct {
	loader   driven.IndexLoader
	embedder driven.EmbeddingService
	reranker driven.Reranker
	memories *MemoryRetriever
	sessions *SessionStore
	cfg      RetrievalConfig

	snapshot atomic.Pointer[snapshotRef]
	reloadMu sync.Mutex
}

// snapshotRef wraps the snapshot so the atomic pointer has a concrete
// struct type.
type snapshotRef struct {
	snap driven.IndexSnapshot
}

// NewRetrievalService creates the orchestrator. The reranker and
// memories may be nil; those stages are then skipped. Call Reindex once
// at startup to load the initial snapshot; BuildContext also retries the
// load lazily so a late-built index is picked up without a restart.
func NewRetrievalService(
	loader driven.IndexLoader,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	memories *MemoryRetriever,
	sessions *SessionStore,
	cfg RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{
		loader:   loader,
		embedder: embedder,
		reranker: reranker,
		memories: memories,
		sessions: sessions,
		cfg:      cfg.withDefaults(),
	}
}

// Reindex discards the loaded snapshot and reloads from disk. Readers
// in flight finish against the old snapshot; it is closed only after
// the swap.
func (s *RetrievalService) Reindex(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load index snapshot: %w", err)
	}

	old := s.snapshot.Swap(&snapshotRef{snap: snap})
	if old != nil {
		if err := old.snap.Close(); err != nil {
			logger.Warn("Closing previous index snapshot: %v", err)
		}
	}

	logger.Info("Index snapshot loaded: %d chunks", snap.Dense().Size())
	return nil
}

// currentSnapshot returns the loaded snapshot, attempting one lazy load
// when none is present yet.
func (s *RetrievalService) currentSnapshot(ctx context.Context) (driven.IndexSnapshot, error) {
	if ref := s.snapshot.Load(); ref != nil {
		return ref.snap, nil
	}
	if err := s.Reindex(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrieverNotReady, err)
	}
	return s.snapshot.Load().snap, nil
}

// BuildContext runs the full retrieval pipeline for one query.
func (s *RetrievalService) BuildContext(ctx context.Context, userID, query, sessionID string) (domain.ContextBundle, error) {
	logger.Section("Context Build")
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ContextBundle{}, nil
	}

	snap, err := s.currentSnapshot(ctx)
	if err != nil {
		return domain.ContextBundle{}, err
	}

	variants := ExpandQuery(query)
	if len(variants) > s.cfg.MaxVariants {
		variants = variants[:s.cfg.MaxVariants]
	}
	logger.Debug("Query variants: %d", len(variants))

	// Doc, memory, and ephemeral retrieval share no mutable state, so
	// they run concurrently. Failures degrade each source to an empty
	// list; fusion proceeds with whatever succeeded.
	var (
		denseHits []domain.Hit
		memHits   []domain.Hit
		ephHits   []domain.Hit
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		denseHits = s.retrieveDocs(ctx, snap, variants)
	}()
	go func() {
		defer wg.Done()
		memHits = s.retrieveMemories(ctx, userID, query)
	}()
	go func() {
		defer wg.Done()
		ephHits = s.retrieveEphemeral(ctx, sessionID, query)
	}()
	wg.Wait()

	logger.Debug("Source hits: ephemeral=%d memory=%d docs=%d",
		len(ephHits), len(memHits), len(denseHits))

	// Ephemeral and memory sources are listed first: for equal ranks,
	// session-local and personal content must not lose tie-accumulation
	// to general corpus content.
	allHits := RRFMerge([][]domain.Hit{ephHits, memHits, denseHits}, s.cfg.FinalTopK, s.cfg.RRFConstant)
	allHits = s.rerank(ctx, query, allHits)

	fileContext := s.buildFileContext(sessionID, query)
	bundle := domain.ContextBundle{
		Context:     s.renderContext(sessionID, allHits, fileContext),
		Hits:        allHits,
		DenseHits:   denseHits,
		FileContext: fileContext,
		UploadsInfo: s.uploadsInfo(sessionID),
	}
	logger.Info("Context built: %d hits, %d chars", len(bundle.Hits), len(bundle.Context))
	return bundle, nil
}

// retrieveDocs searches the corpus for every query variant and fuses the
// per-variant hybrid lists into one ranked doc list.
func (s *RetrievalService) retrieveDocs(ctx context.Context, snap driven.IndexSnapshot, variants []string) []domain.Hit {
	if snap == nil || len(variants) == 0 {
		return nil
	}

	// No dedup across variants before fusion: two variants retrieving
	// the same chunk both contribute rank bonuses, which is the boost
	// mechanism, not a bug.
	lists := make([][]domain.Hit, len(variants))
	var wg sync.WaitGroup
	wg.Add(len(variants))
	for i, variant := range variants {
		go func(i int, variant string) {
			defer wg.Done()
			lists[i] = s.searchCorpus(ctx, snap, variant)
		}(i, variant)
	}
	wg.Wait()

	return RRFMerge(lists, s.cfg.TopK, s.cfg.RRFConstant)
}

// searchCorpus runs dense and lexical search for one query string and
// fuses them, mirroring classic hybrid search: embeddings for meaning,
// BM25 for exact rare tokens.
func (s *RetrievalService) searchCorpus(ctx context.Context, snap driven.IndexSnapshot, query string) []domain.Hit {
	var (
		dense   []domain.Hit
		lexical []domain.Hit
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		dense = s.denseSearch(ctx, snap, query)
	}()
	go func() {
		defer wg.Done()
		lexical = s.lexicalSearch(ctx, snap, query)
	}()
	wg.Wait()

	fused := RRFMerge([][]domain.Hit{dense, lexical}, s.cfg.TopK, s.cfg.RRFConstant)
	return FilterByScore(fused, s.cfg.RelevanceFloor)
}

func (s *RetrievalService) denseSearch(ctx context.Context, snap driven.IndexSnapshot, query string) []domain.Hit {
	if s.embedder == nil {
		logger.Debug("Dense search skipped: no embedder")
		return nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Dense search degraded, query embedding failed: %v", err)
		return nil
	}

	hits, err := snap.Dense().Search(ctx, Normalize(qv), s.cfg.TopK*denseOverfetch)
	if err != nil {
		logger.Warn("Dense search failed: %v", err)
		return nil
	}
	return hits
}

func (s *RetrievalService) lexicalSearch(ctx context.Context, snap driven.IndexSnapshot, query string) []domain.Hit {
	lex := snap.Lexical()
	if lex == nil {
		return nil
	}

	hits, err := lex.Search(ctx, query, s.cfg.TopK*lexicalOverfetch)
	if err != nil {
		logger.Warn("Lexical search failed: %v", err)
		return nil
	}
	return hits
}

func (s *RetrievalService) retrieveMemories(ctx context.Context, userID, query string) []domain.Hit {
	if s.memories == nil {
		return nil
	}
	hits, err := s.memories.Retrieve(ctx, userID, query, s.cfg.TopK)
	if err != nil {
		logger.Warn("Memory retrieval failed: %v", err)
		return nil
	}
	return hits
}

func (s *RetrievalService) retrieveEphemeral(ctx context.Context, sessionID, query string) []domain.Hit {
	if s.sessions == nil || sessionID == "" {
		return nil
	}
	hits, err := s.sessions.Retrieve(ctx, sessionID, query, s.cfg.TopK)
	if err != nil {
		logger.Warn("Ephemeral retrieval failed: %v", err)
		return nil
	}
	return hits
}

// rerank applies the cross-encoder to a bounded prefix of the fused
// list. The stage is a pure quality enhancement: short queries skip it,
// and any failure returns the fused order unchanged.
func (s *RetrievalService) rerank(ctx context.Context, query string, hits []domain.Hit) []domain.Hit {
	if s.reranker == nil || len(hits) == 0 {
		return hits
	}
	if len(strings.Fields(query)) < s.cfg.RerankMinTokens {
		logger.Debug("Rerank skipped: short query")
		return hits
	}

	prefix := len(hits)
	if limit := s.cfg.RerankCandidateMult * s.cfg.TopK; prefix > limit {
		prefix = limit
	}

	passages := make([]string, prefix)
	for i := 0; i < prefix; i++ {
		passages[i] = hits[i].Text
	}

	scores, err := s.reranker.Rerank(ctx, query, passages)
	if err != nil {
		logger.Warn("Rerank skipped: %v", err)
		return hits
	}
	if len(scores) != prefix {
		logger.Warn("Rerank skipped: got %d scores for %d passages", len(scores), prefix)
		return hits
	}

	reranked := make([]domain.Hit, len(hits))
	copy(reranked, hits)
	for i := 0; i < prefix; i++ {
		score := scores[i]
		reranked[i].CEScore = &score
	}

	head := reranked[:prefix]
	sort.SliceStable(head, func(i, j int) bool {
		if *head[i].CEScore != *head[j].CEScore {
			return *head[i].CEScore > *head[j].CEScore
		}
		// Deterministic tie-break keeps output stable across
		// repeated identical queries.
		if head[i].Path != head[j].Path {
			return head[i].Path < head[j].Path
		}
		return head[i].ID < head[j].ID
	})

	for i := range reranked {
		reranked[i].Rank = i + 1
	}
	return reranked
}

// buildFileContext includes uploaded content only when it shares a
// meaningful token with the query, so irrelevant uploads do not flood
// the prompt.
func (s *RetrievalService) buildFileContext(sessionID, query string) string {
	if s.sessions == nil || sessionID == "" {
		return ""
	}
	items := s.sessions.Items(sessionID, fileContextItems)
	if len(items) == 0 {
		return ""
	}

	words := strings.Fields(strings.ToLower(query))
	var blocks []string
	for _, item := range items {
		text := strings.ToLower(item.Text)
		for _, w := range words {
			if len(w) >= fileContextMinToken && strings.Contains(text, w) {
				path := item.Path
				if path == "" {
					path = "upload"
				}
				blocks = append(blocks, fmt.Sprintf("Content from %s:\n%s", path, item.Text))
				break
			}
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n")
}

// renderContext flattens the final hit list into the numbered context
// string, prepending a recency block when the session just received an
// upload and appending the relevant file content.
func (s *RetrievalService) renderContext(sessionID string, hits []domain.Hit, fileContext string) string {
	var parts []string

	if block := s.recentUploadsBlock(sessionID); block != "" {
		parts = append(parts, block)
	}

	if len(hits) > 0 {
		numbered := make([]string, len(hits))
		for i, h := range hits {
			numbered[i] = fmt.Sprintf("[%d] %s", i+1, h.Text)
		}
		parts = append(parts, strings.Join(numbered, "\n\n"))
	}

	if fileContext != "" {
		parts = append(parts, fileContext)
	}

	return strings.Join(parts, "\n\n")
}

// recentUploadsBlock boosts attachments uploaded moments ago, so a
// question asked right after an upload sees it even when similarity
// ranking would not surface it.
func (s *RetrievalService) recentUploadsBlock(sessionID string) string {
	if s.sessions == nil || sessionID == "" {
		return ""
	}
	at, ok := s.sessions.LastAdded(sessionID)
	if !ok || time.Since(at) >= s.cfg.RecentUploadWindow {
		return ""
	}

	recent := s.sessions.Recent(sessionID, recentUploadItems)
	if len(recent) == 0 {
		return ""
	}

	blocks := make([]string, len(recent))
	for i, item := range recent {
		text := item.Text
		if len(text) > recentUploadTextCap {
			text = text[:recentUploadTextCap]
		}
		blocks[i] = fmt.Sprintf("[upload/recent] %s:\n%s", item.Path, text)
	}
	return strings.Join(blocks, "\n\n")
}

// uploadsInfo summarises which files the session has uploaded, for the
// prompt builder to mention.
func (s *RetrievalService) uploadsInfo(sessionID string) string {
	if s.sessions == nil || sessionID == "" {
		return ""
	}
	items := s.sessions.Items(sessionID, 0)
	if len(items) == 0 {
		return ""
	}

	var files []string
	seen := make(map[string]bool)
	for _, item := range items {
		name := item.Path
		if name == "" {
			name = "(upload)"
		}
		if idx := strings.Index(name, "::"); idx >= 0 {
			name = name[:idx]
		}
		if !seen[name] {
			seen[name] = true
			files = append(files, name)
		}
	}

	listed := files
	if len(listed) > uploadsInfoMaxNames {
		listed = listed[:uploadsInfoMaxNames]
	}
	return fmt.Sprintf("count=%d files: %s", len(files), strings.Join(listed, ", "))
}
