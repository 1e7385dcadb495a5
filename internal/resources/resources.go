// Package resources implements MCP resource handlers for Tempo.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (tempo://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/syncer"
)

// CacheStatusURI addresses the sync engine status resource.
const CacheStatusURI = "tempo://cache/status"

// StatusSource reports cache health.
type StatusSource interface {
	Status(ctx context.Context) syncer.Status
}

// Handler manages Tempo resource endpoints.
type Handler struct {
	status StatusSource
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(status StatusSource) *Handler {
	return &Handler{status: status}
}

// StatusResource returns the MCP resource definition for cache status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		CacheStatusURI,
		"Tempo Cache Status",
		mcp.WithResourceDescription("Local cache readiness, last sync, staleness and row counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current cache status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.status == nil {
		return errorResource(req.Params.URI, "sync engine not configured"), nil
	}

	data, err := json.MarshalIndent(h.status.Status(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
