// Command keeva is the personal assistant retrieval engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/keeva-labs/keeva/internal/adapters/driven/config/file"
	"github.com/keeva-labs/keeva/internal/adapters/driven/embedding/ollama"
	"github.com/keeva-labs/keeva/internal/adapters/driven/embedding/openai"
	indexsqlite "github.com/keeva-labs/keeva/internal/adapters/driven/index/sqlite"
	rerankerhttp "github.com/keeva-labs/keeva/internal/adapters/driven/reranker/http"
	storesqlite "github.com/keeva-labs/keeva/internal/adapters/driven/storage/sqlite"
	"github.com/keeva-labs/keeva/internal/adapters/driving/cli"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/core/services"
	"github.com/keeva-labs/keeva/internal/logger"
	"github.com/keeva-labs/keeva/internal/watcher"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := file.NewConfigStore(os.Getenv("KEEVA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	memStore, err := storesqlite.NewStore(os.Getenv("KEEVA_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer memStore.Close()

	loader, err := indexsqlite.NewLoader(cfg.GetString("index.path"))
	if err != nil {
		return fmt.Errorf("creating index loader: %w", err)
	}

	sessions := services.NewSessionStore(embedder, services.SessionConfig{
		MaxSessions:          cfg.GetInt("sessions.max_sessions"),
		MaxVectorsPerSession: cfg.GetInt("sessions.max_vectors_per_session"),
		RecentCap:            cfg.GetInt("sessions.recent_cap"),
	})

	memories := services.NewMemoryRetriever(memStore, embedder)
	if v := cfg.GetInt("memory.window"); v > 0 {
		memories.Window = v
	}
	if v := cfg.GetFloat("memory.keyword_boost"); v > 0 {
		memories.KeywordBoost = v
	}

	retrieval := services.NewRetrievalService(
		loader,
		embedder,
		buildReranker(cfg),
		memories,
		sessions,
		services.RetrievalConfig{
			TopK:                cfg.GetInt("retrieval.top_k"),
			FinalTopK:           cfg.GetInt("retrieval.final_top_k"),
			RRFConstant:         cfg.GetFloat("retrieval.rrf_constant"),
			RelevanceFloor:      cfg.GetFloat("retrieval.relevance_floor"),
			MaxVariants:         cfg.GetInt("retrieval.max_variants"),
			RerankMinTokens:     cfg.GetInt("reranker.min_tokens"),
			RerankCandidateMult: cfg.GetInt("reranker.candidate_mult"),
			RecentUploadWindow:  time.Duration(cfg.GetInt("retrieval.recent_upload_window_s")) * time.Second,
		},
	)

	// First load failing is survivable: the retriever stays not-ready
	// until ingestion produces an index and a reload picks it up.
	if err := retrieval.Reindex(context.Background()); err != nil {
		logger.Warn("No index loaded yet: %v", err)
	}

	if cfg.GetBool("index.watch") {
		w := watcher.New(loader.Path(), time.Duration(cfg.GetInt("index.debounce_ms"))*time.Millisecond, retrieval.Reindex)
		go func() {
			if err := w.Run(context.Background()); err != nil && err != context.Canceled {
				logger.Warn("Index watcher stopped: %v", err)
			}
		}()
	}

	cli.SetVersion(version)
	cli.SetServices(retrieval, sessions, memStore)
	return cli.Execute()
}

// buildEmbedder selects the embedding provider: OpenAI when an API key
// is configured, local Ollama otherwise.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("embedding.openai_api_key")
	}

	if cfg.GetString("embedding.provider") == "openai" || (cfg.GetString("embedding.provider") == "" && apiKey != "") {
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating openai embedder: %w", err)
		}
		return svc, nil
	}

	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.GetString("embedding.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: cfg.GetInt("embedding.dimensions"),
	}), nil
}

// buildReranker returns the cross-encoder client, or nil when
// reranking is disabled. The pipeline treats a nil reranker as
// "skip the stage".
func buildReranker(cfg driven.ConfigStore) driven.Reranker {
	if !cfg.GetBool("reranker.enabled") {
		return nil
	}
	return rerankerhttp.NewReranker(rerankerhttp.Config{
		BaseURL: cfg.GetString("reranker.base_url"),
		Model:   cfg.GetString("reranker.model"),
	})
}
