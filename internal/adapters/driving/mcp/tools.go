package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultUserID is used when a tool call does not name a user. The
// assistant is single-tenant in practice; the field exists for shared
// deployments.
const defaultUserID = "default"

// RetrieveContextInput is the input schema for the retrieve_context tool.
type RetrieveContextInput struct {
	Query     string `json:"query" jsonschema:"the question or message to retrieve context for"`
	UserID    string `json:"user_id,omitempty" jsonschema:"user whose memories to include (default: default)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation session with ephemeral uploads"`
}

// RetrieveContextOutput is the output schema for the retrieve_context tool.
type RetrieveContextOutput struct {
	Context     string      `json:"context"`
	UploadsInfo string      `json:"uploads_info,omitempty"`
	Hits        []HitOutput `json:"hits"`
	Count       int         `json:"count"`
}

// HitOutput represents a single ranked hit.
type HitOutput struct {
	ID    string  `json:"id"`
	Path  string  `json:"path,omitempty"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// AddMemoryInput is the input schema for the add_memory tool.
type AddMemoryInput struct {
	Content string `json:"content" jsonschema:"the fact to remember about the user"`
	Type    string `json:"type,omitempty" jsonschema:"memory category such as preference, bio or note"`
	UserID  string `json:"user_id,omitempty" jsonschema:"user the memory belongs to (default: default)"`
}

// AddMemoryOutput is the output schema for the add_memory tool.
type AddMemoryOutput struct {
	ID int64 `json:"id"`
}

// ListMemoriesInput is the input schema for the list_memories tool.
type ListMemoriesInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"user whose memories to list (default: default)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of memories to return (default 20)"`
}

// ListMemoriesOutput is the output schema for the list_memories tool.
type ListMemoriesOutput struct {
	Memories []MemoryOutput `json:"memories"`
	Count    int            `json:"count"`
}

// MemoryOutput represents a single stored memory.
type MemoryOutput struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SessionStatsInput is the input schema for the session_stats tool.
type SessionStatsInput struct{}

// SessionStatsOutput is the output schema for the session_stats tool.
type SessionStatsOutput struct {
	Sessions int `json:"sessions"`
	Items    int `json:"items"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve ranked personal context (documents, memories, session uploads) for a query",
	}, s.handleRetrieveContext)

	if s.ports.Memory != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "add_memory",
			Description: "Store a long-term fact about the user",
		}, s.handleAddMemory)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_memories",
			Description: "List stored facts about the user, newest first",
		}, s.handleListMemories)
	}

	if s.ports.Session != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "session_stats",
			Description: "Report live ephemeral session and upload counts",
		}, s.handleSessionStats)
	}
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveContextInput,
) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = defaultUserID
	}

	bundle, err := s.ports.Retrieval.BuildContext(ctx, userID, input.Query, input.SessionID)
	if err != nil {
		return nil, RetrieveContextOutput{}, err
	}

	output := RetrieveContextOutput{
		Context:     bundle.Context,
		UploadsInfo: bundle.UploadsInfo,
		Hits:        make([]HitOutput, len(bundle.Hits)),
		Count:       len(bundle.Hits),
	}
	for i, h := range bundle.Hits {
		output.Hits[i] = HitOutput{
			ID:    h.ID,
			Path:  h.Path,
			Text:  h.Text,
			Score: h.Score,
			Rank:  h.Rank,
		}
	}
	return nil, output, nil
}

// handleAddMemory handles the add_memory tool invocation.
func (s *Server) handleAddMemory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddMemoryInput,
) (*mcp.CallToolResult, AddMemoryOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = defaultUserID
	}

	id, err := s.ports.Memory.AddMemory(ctx, userID, input.Type, input.Content)
	if err != nil {
		return nil, AddMemoryOutput{}, fmt.Errorf("adding memory: %w", err)
	}
	return nil, AddMemoryOutput{ID: id}, nil
}

// handleListMemories handles the list_memories tool invocation.
func (s *Server) handleListMemories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListMemoriesInput,
) (*mcp.CallToolResult, ListMemoriesOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = defaultUserID
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := s.ports.Memory.ListMemories(ctx, userID, limit)
	if err != nil {
		return nil, ListMemoriesOutput{}, fmt.Errorf("listing memories: %w", err)
	}

	output := ListMemoriesOutput{
		Memories: make([]MemoryOutput, len(records)),
		Count:    len(records),
	}
	for i, r := range records {
		output.Memories[i] = MemoryOutput{
			ID:      r.ID,
			Type:    r.Type,
			Content: r.Content,
		}
	}
	return nil, output, nil
}

// handleSessionStats handles the session_stats tool invocation.
func (s *Server) handleSessionStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ SessionStatsInput,
) (*mcp.CallToolResult, SessionStatsOutput, error) {
	stats := s.ports.Session.Stats()
	return nil, SessionStatsOutput{
		Sessions: stats.Sessions,
		Items:    stats.Items,
	}, nil
}
