package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/syncer"
)

// ─── SyncCacheTool ───────────────────────────────────────────────────────────

// SyncCacheTool handles the sync_cache MCP tool.
type SyncCacheTool struct {
	engine *syncer.Engine
}

// NewSyncCacheTool creates a SyncCacheTool.
func NewSyncCacheTool(engine *syncer.Engine) *SyncCacheTool {
	return &SyncCacheTool{engine: engine}
}

// Definition returns the MCP tool definition for sync_cache.
func (t *SyncCacheTool) Definition() mcp.Tool {
	return mcp.NewTool("sync_cache",
		mcp.WithDescription("Force a full refresh of the local cache from the remote store."),
	)
}

// Handle processes the sync_cache tool call.
func (t *SyncCacheTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.engine.FullSync(ctx)
	if err != nil {
		return failure("sync cache", err), nil
	}
	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Synced %d clients, %d tasks, %d daily goals and %d habits in %dms",
			res.Clients, res.Tasks, res.DailyGoals, res.Habits, res.DurationMs),
		"result": res,
	})
}

// ─── CacheStatusTool ─────────────────────────────────────────────────────────

// CacheStatusTool handles the get_cache_status MCP tool.
type CacheStatusTool struct {
	engine *syncer.Engine
}

// NewCacheStatusTool creates a CacheStatusTool.
func NewCacheStatusTool(engine *syncer.Engine) *CacheStatusTool {
	return &CacheStatusTool{engine: engine}
}

// Definition returns the MCP tool definition for get_cache_status.
func (t *CacheStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("get_cache_status",
		mcp.WithDescription("Report cache readiness, last sync time, staleness and row counts."),
	)
}

// Handle processes the get_cache_status tool call.
func (t *CacheStatusTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.engine.Status(ctx))
}
