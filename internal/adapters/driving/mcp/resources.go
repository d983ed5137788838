package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Keeva resources.
	uriScheme = "keeva://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the default user's memories.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "memories",
		Name:        "memories",
		Description: "Stored long-term facts about the default user",
		MIMEType:    "application/json",
	}, s.handleMemoriesResource)

	// Template for per-user memories.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "memories/{userId}",
		Name:        "user-memories",
		Description: "Stored long-term facts about a specific user",
		MIMEType:    "application/json",
	}, s.handleMemoriesResource)
}

// handleMemoriesResource returns stored memories as JSON. The user id
// is the path segment after "memories/", defaulting when absent.
func (s *Server) handleMemoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	empty := &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     "[]",
		}},
	}
	if s.ports.Memory == nil {
		return empty, nil
	}

	userID := defaultUserID
	if rest := strings.TrimPrefix(req.Params.URI, uriScheme+"memories"); rest != "" {
		userID = strings.TrimPrefix(rest, "/")
	}
	if userID == "" {
		userID = defaultUserID
	}

	records, err := s.ports.Memory.ListMemories(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	if len(records) == 0 {
		return empty, nil
	}

	infos := make([]MemoryOutput, len(records))
	for i, r := range records {
		infos[i] = MemoryOutput{ID: r.ID, Type: r.Type, Content: r.Content}
	}
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling memories: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
