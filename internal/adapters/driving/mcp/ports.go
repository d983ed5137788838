package mcp

import (
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval builds ranked context bundles.
	Retrieval driving.RetrievalService

	// Session manages ephemeral per-conversation uploads.
	Session driving.SessionService

	// Memory stores long-term facts about the user.
	Memory driven.MemoryStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Session and Memory are optional; their tools degrade gracefully.
	return nil
}
