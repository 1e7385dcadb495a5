package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// ─── ListClientsTool ─────────────────────────────────────────────────────────

// ListClientsTool handles the list_clients MCP tool.
type ListClientsTool struct {
	engine *syncer.Engine
}

// NewListClientsTool creates a ListClientsTool.
func NewListClientsTool(engine *syncer.Engine) *ListClientsTool {
	return &ListClientsTool{engine: engine}
}

// Definition returns the MCP tool definition for list_clients.
func (t *ListClientsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_clients",
		mcp.WithDescription("List clients and internal work buckets."),
	)
}

// Handle processes the list_clients tool call.
func (t *ListClientsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clients, src, err := t.engine.Clients(ctx)
	if err != nil {
		return failure("list clients", err), nil
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return jsonResult(map[string]any{
		"clients": clients,
		"count":   len(clients),
		"source":  src,
	})
}

// ─── CreateClientTool ────────────────────────────────────────────────────────

// CreateClientTool handles the create_client MCP tool.
type CreateClientTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCreateClientTool creates a CreateClientTool.
func NewCreateClientTool(r remote.Accessor, engine *syncer.Engine) *CreateClientTool {
	return &CreateClientTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for create_client.
func (t *CreateClientTool) Definition() mcp.Tool {
	return mcp.NewTool("create_client",
		mcp.WithDescription("Create a client. Internal clients never count toward clients touched."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Client name (unique, case-insensitive)"),
		),
		mcp.WithString("type",
			mcp.Description("client (default) or internal"),
			mcp.Enum("client", "internal"),
		),
	)
}

// Handle processes the create_client tool call.
func (t *CreateClientTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	c := model.Client{Name: name, Type: model.ClientTypeClient}
	if raw := req.GetString("type", ""); raw != "" {
		ct, err := model.ParseClientType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c.Type = ct
	}

	created, err := t.remote.CreateClient(ctx, c)
	if err != nil {
		return failure("create client", err), nil
	}
	t.engine.PutClient(ctx, created)

	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Created %s #%d: %s", created.Type, created.ID, created.Name),
		"client":  created,
	})
}
