// Package mcp provides an MCP (Model Context Protocol) server adapter for Keeva.
// It lets AI assistants pull ranked personal context, memories, and session
// uploads through the standard tool interface.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
