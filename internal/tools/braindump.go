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

// maxDumpTitle bounds task titles derived from brain dump content.
const maxDumpTitle = 80

// ─── AddBrainDumpTool ────────────────────────────────────────────────────────

// AddBrainDumpTool handles the add_brain_dump MCP tool.
type AddBrainDumpTool struct {
	remote remote.Accessor
}

// NewAddBrainDumpTool creates an AddBrainDumpTool.
func NewAddBrainDumpTool(r remote.Accessor) *AddBrainDumpTool {
	return &AddBrainDumpTool{remote: r}
}

// Definition returns the MCP tool definition for add_brain_dump.
func (t *AddBrainDumpTool) Definition() mcp.Tool {
	return mcp.NewTool("add_brain_dump",
		mcp.WithDescription("Capture a loose thought to sort out later."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Whatever is on your mind"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

// Handle processes the add_brain_dump tool call.
func (t *AddBrainDumpTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := strings.TrimSpace(req.GetString("content", ""))
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	d, err := t.remote.CreateBrainDump(ctx, model.BrainDump{
		Content: content,
		Tags:    csvArg(req, "tags"),
	})
	if err != nil {
		return failure("add brain dump", err), nil
	}
	return jsonResult(map[string]any{
		"message":    fmt.Sprintf("Captured brain dump #%d", d.ID),
		"brain_dump": d,
	})
}

// ─── ListBrainDumpsTool ──────────────────────────────────────────────────────

// ListBrainDumpsTool handles the list_brain_dumps MCP tool.
type ListBrainDumpsTool struct {
	remote remote.Accessor
}

// NewListBrainDumpsTool creates a ListBrainDumpsTool.
func NewListBrainDumpsTool(r remote.Accessor) *ListBrainDumpsTool {
	return &ListBrainDumpsTool{remote: r}
}

// Definition returns the MCP tool definition for list_brain_dumps.
func (t *ListBrainDumpsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_brain_dumps",
		mcp.WithDescription("List brain dumps, newest first. Unprocessed only unless include_processed is set."),
		mcp.WithBoolean("include_processed",
			mcp.Description("Include dumps already turned into tasks (default: false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default: 20)"),
		),
	)
}

// Handle processes the list_brain_dumps tool call.
func (t *ListBrainDumpsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dumps, err := t.remote.ListBrainDumps(ctx, boolArg(req, "include_processed", false), intArg(req, "limit", 20))
	if err != nil {
		return failure("list brain dumps", err), nil
	}
	if dumps == nil {
		dumps = []model.BrainDump{}
	}
	return jsonResult(map[string]any{
		"brain_dumps": dumps,
		"count":       len(dumps),
	})
}

// ─── ProcessBrainDumpTool ────────────────────────────────────────────────────

// ProcessBrainDumpTool handles the process_brain_dump MCP tool.
type ProcessBrainDumpTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewProcessBrainDumpTool creates a ProcessBrainDumpTool.
func NewProcessBrainDumpTool(r remote.Accessor, engine *syncer.Engine) *ProcessBrainDumpTool {
	return &ProcessBrainDumpTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for process_brain_dump.
func (t *ProcessBrainDumpTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Turn a brain dump into a task and mark the dump processed."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Brain dump id"),
		),
		mcp.WithString("title",
			mcp.Description("Task title (default: first line of the dump)"),
		),
		mcp.WithString("category",
			mcp.Description("work (default) or personal"),
			mcp.Enum("work", "personal"),
		),
	}
	return mcp.NewTool("process_brain_dump", append(opts, taskFieldOptions()...)...)
}

// Handle processes the process_brain_dump tool call.
func (t *ProcessBrainDumpTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := t.remote.GetBrainDump(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("get brain dump %d", id), err), nil
	}
	if d.Processed {
		msg := fmt.Sprintf("brain dump %d is already processed", id)
		if d.TaskID != nil {
			msg += fmt.Sprintf(" (task #%d)", *d.TaskID)
		}
		return mcp.NewToolResultError(msg), nil
	}

	task := model.Task{
		Title:       firstLine(d.Content, maxDumpTitle),
		Description: d.Content,
		Tags:        d.Tags,
	}
	// Explicit title and fields override what the dump supplies.
	if err := applyTaskFields(req, &task); err != nil {
		return failure("process brain dump", err), nil
	}
	task.Normalize()

	created, err := t.remote.ProcessBrainDump(ctx, id, task)
	if err != nil {
		return failure("process brain dump", err), nil
	}
	t.engine.PutTask(ctx, created)

	return jsonResult(map[string]any{
		"message":       fmt.Sprintf("Brain dump #%d became task #%d: %s", id, created.ID, created.Title),
		"task":          created,
		"brain_dump_id": id,
	})
}
