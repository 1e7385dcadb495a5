package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// Personal tasks are ordinary tasks pinned to the personal category.

// ─── ListPersonalTasksTool ───────────────────────────────────────────────────

// ListPersonalTasksTool handles the list_personal_tasks MCP tool.
type ListPersonalTasksTool struct {
	engine *syncer.Engine
}

// NewListPersonalTasksTool creates a ListPersonalTasksTool.
func NewListPersonalTasksTool(engine *syncer.Engine) *ListPersonalTasksTool {
	return &ListPersonalTasksTool{engine: engine}
}

// Definition returns the MCP tool definition for list_personal_tasks.
func (t *ListPersonalTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_personal_tasks",
		mcp.WithDescription("List personal tasks. Defaults to open ones."),
		mcp.WithString("status",
			mcp.Description("Comma-separated statuses to include, or 'all'"),
		),
		mcp.WithString("query",
			mcp.Description("Words that must all appear in the title, description or tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum tasks to return (default: 50)"),
		),
	)
}

// Handle processes the list_personal_tasks tool call.
func (t *ListPersonalTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return listTasks(ctx, t.engine, req, model.CategoryPersonal)
}

// ─── CreatePersonalTaskTool ──────────────────────────────────────────────────

// CreatePersonalTaskTool handles the create_personal_task MCP tool.
type CreatePersonalTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCreatePersonalTaskTool creates a CreatePersonalTaskTool.
func NewCreatePersonalTaskTool(r remote.Accessor, engine *syncer.Engine) *CreatePersonalTaskTool {
	return &CreatePersonalTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for create_personal_task.
func (t *CreatePersonalTaskTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Create a personal task."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
	}
	return mcp.NewTool("create_personal_task", append(opts, taskFieldOptions()...)...)
}

// Handle processes the create_personal_task tool call.
func (t *CreatePersonalTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createTask(ctx, t.remote, t.engine, req, model.CategoryPersonal)
}

// ─── CompletePersonalTaskTool ────────────────────────────────────────────────

// CompletePersonalTaskTool handles the complete_personal_task MCP tool.
type CompletePersonalTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCompletePersonalTaskTool creates a CompletePersonalTaskTool.
func NewCompletePersonalTaskTool(r remote.Accessor, engine *syncer.Engine) *CompletePersonalTaskTool {
	return &CompletePersonalTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for complete_personal_task.
func (t *CompletePersonalTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_personal_task",
		mcp.WithDescription("Mark a personal task done."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the complete_personal_task tool call.
func (t *CompletePersonalTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return completeTask(ctx, t.remote, t.engine, req, model.CategoryPersonal)
}
