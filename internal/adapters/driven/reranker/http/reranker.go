// Package http provides a cross-encoder reranker adapter backed by a
// text-embeddings-inference compatible /rerank endpoint.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8787"
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 10 * time.Second
)

// Config holds configuration for the reranker service.
type Config struct {
	// BaseURL is the rerank API base URL (default: http://localhost:8787).
	BaseURL string

	// Model names the cross-encoder model, reported for diagnostics.
	Model string

	// Timeout is the request timeout (default: 10s). Reranking sits on
	// the query path, so the timeout is deliberately short.
	Timeout time.Duration
}

// Reranker scores query-passage pairs with a remote cross-encoder.
type Reranker struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the /rerank request format.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankResult is one element of the /rerank response array. Results
// arrive sorted by score; Index maps back to the input position.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a new cross-encoder reranker client.
func NewReranker(cfg Config) *Reranker {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Rerank scores each passage against the query. The returned slice is
// positional: scores[i] belongs to passages[i].
func (r *Reranker) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Query: query,
		Texts: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rerank error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("rerank error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) != len(passages) {
		return nil, fmt.Errorf("rerank: expected %d scores, got %d", len(passages), len(results))
	}

	scores := make([]float64, len(passages))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, fmt.Errorf("rerank: result index %d out of range", res.Index)
		}
		scores[res.Index] = res.Score
	}
	return scores, nil
}

// ModelName returns the cross-encoder model name.
func (r *Reranker) ModelName() string {
	return r.model
}
