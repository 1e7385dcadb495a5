package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// taskFieldOptions are the optional task attributes shared by the create and
// update tools.
func taskFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("description",
			mcp.Description("Longer description of the work"),
		),
		mcp.WithNumber("client_id",
			mcp.Description("Client the task is for"),
		),
		mcp.WithString("status",
			mcp.Description("Workflow status"),
			mcp.Enum("backlog", "queued", "active", "done"),
		),
		mcp.WithString("value_tier",
			mcp.Description("Output significance; decides completion points (checkbox 1, progress 2, deliverable 4, milestone 7)"),
			mcp.Enum("checkbox", "progress", "deliverable", "milestone"),
		),
		mcp.WithString("cognitive_load",
			mcp.Description("Mental effort required (default: medium)"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithNumber("effort_hours",
			mcp.Description("Estimated hours of work"),
		),
		mcp.WithString("drain_type",
			mcp.Description("Kind of energy drain, e.g. deep, shallow, admin"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithNumber("points",
			mcp.Description("Manual points override; only allowed before completion"),
		),
	}
}

// applyTaskFields copies supplied arguments onto t. Only keys present in the
// request are touched, so it serves both create and partial update.
func applyTaskFields(req mcp.CallToolRequest, t *model.Task) error {
	if hasArg(req, "title") {
		title := strings.TrimSpace(req.GetString("title", ""))
		if title == "" {
			return errors.New("'title' cannot be empty")
		}
		t.Title = title
	}
	if hasArg(req, "description") {
		t.Description = req.GetString("description", "")
	}
	if hasArg(req, "client_id") {
		id, err := optionalIDArg(req, "client_id")
		if err != nil {
			return err
		}
		t.ClientID = id
	}
	if hasArg(req, "status") {
		s, err := model.ParseStatus(req.GetString("status", ""))
		if err != nil {
			return err
		}
		if s == model.StatusDone && !t.IsDone() {
			return errors.New("use the complete tool to mark a task done")
		}
		if err := t.SetStatus(s); err != nil {
			return err
		}
	}
	if hasArg(req, "category") {
		c, err := model.ParseCategory(req.GetString("category", ""))
		if err != nil {
			return err
		}
		t.Category = c
	}
	if hasArg(req, "value_tier") {
		v, err := model.ParseValueTier(req.GetString("value_tier", ""))
		if err != nil {
			return err
		}
		t.ValueTier = v
	}
	if hasArg(req, "cognitive_load") {
		l, err := model.ParseLevel(req.GetString("cognitive_load", ""))
		if err != nil {
			return err
		}
		t.CognitiveLoad = l
	}
	if hasArg(req, "effort_hours") {
		h := intArg(req, "effort_hours", -1)
		if h < 0 {
			return errors.New("'effort_hours' must be a non-negative number")
		}
		t.EffortHours = h
	}
	if hasArg(req, "drain_type") {
		t.DrainType = strings.ToLower(strings.TrimSpace(req.GetString("drain_type", "")))
	}
	if hasArg(req, "tags") {
		t.Tags = csvArg(req, "tags")
	}
	if hasArg(req, "points") {
		if err := t.SetPointsOverride(intArg(req, "points", -1)); err != nil {
			return err
		}
	}
	return nil
}

// createTask builds a task from the request and creates it remotely. A
// non-empty category forces the task's category.
func createTask(ctx context.Context, r remote.Accessor, e *syncer.Engine, req mcp.CallToolRequest, category model.Category) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(req.GetString("title", "")) == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	var t model.Task
	if err := applyTaskFields(req, &t); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if category != "" {
		t.Category = category
	}
	t.Normalize()

	created, err := r.CreateTask(ctx, t)
	if err != nil {
		return failure("create task", err), nil
	}
	e.PutTask(ctx, created)

	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Created task #%d: %s", created.ID, created.Title),
		"task":    created,
	})
}

// completeTask marks a task done remotely. A non-empty category requires the
// task to belong to it.
func completeTask(ctx context.Context, r remote.Accessor, e *syncer.Engine, req mcp.CallToolRequest, category model.Category) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := r.GetTask(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("get task %d", id), err), nil
	}
	if category != "" && t.Category != category {
		return mcp.NewToolResultError(fmt.Sprintf("task %d is not a %s task", id, category)), nil
	}
	if err := t.Complete(timeNow()); err != nil {
		return failure("complete task", err), nil
	}
	if err := r.UpdateTask(ctx, *t); err != nil {
		return failure("complete task", err), nil
	}
	e.RefreshTask(ctx, id)

	return jsonResult(map[string]any{
		"message":       fmt.Sprintf("Completed task #%d: %s (+%d points)", t.ID, t.Title, t.Points()),
		"points_earned": t.Points(),
		"task":          t,
	})
}

// listTasks serves a filtered task list through the engine.
func listTasks(ctx context.Context, e *syncer.Engine, req mcp.CallToolRequest, category model.Category) (*mcp.CallToolResult, error) {
	f := model.TaskFilter{
		Statuses: model.OpenStatuses(),
		Category: category,
		Limit:    intArg(req, "limit", 50),
	}

	switch raw := csvArg(req, "status"); {
	case len(raw) == 1 && strings.EqualFold(raw[0], "all"):
		f.Statuses = nil
	case len(raw) > 0:
		f.Statuses = nil
		for _, s := range raw {
			st, err := model.ParseStatus(s)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			f.Statuses = append(f.Statuses, st)
		}
	}

	if category == "" && hasArg(req, "category") {
		c, err := model.ParseCategory(req.GetString("category", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Category = c
	}
	clientID, err := optionalIDArg(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f.ClientID = clientID

	var (
		tasks []model.Task
		src   syncer.Source
	)
	if query := strings.TrimSpace(req.GetString("query", "")); query != "" {
		tasks, src, err = e.SearchTasks(ctx, query, f)
	} else {
		tasks, src, err = e.Tasks(ctx, f)
	}
	if err != nil {
		return failure("list tasks", err), nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return jsonResult(map[string]any{
		"tasks":  tasks,
		"count":  len(tasks),
		"source": src,
	})
}

// ─── ListTasksTool ───────────────────────────────────────────────────────────

// ListTasksTool handles the list_tasks MCP tool.
type ListTasksTool struct {
	engine *syncer.Engine
}

// NewListTasksTool creates a ListTasksTool.
func NewListTasksTool(engine *syncer.Engine) *ListTasksTool {
	return &ListTasksTool{engine: engine}
}

// Definition returns the MCP tool definition for list_tasks.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks. Defaults to open tasks (backlog, queued, active)."),
		mcp.WithString("status",
			mcp.Description("Comma-separated statuses to include, or 'all'"),
		),
		mcp.WithString("category",
			mcp.Description("Restrict to one category"),
			mcp.Enum("work", "personal"),
		),
		mcp.WithNumber("client_id",
			mcp.Description("Restrict to one client"),
		),
		mcp.WithString("query",
			mcp.Description("Words that must all appear in the title, description or tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum tasks to return (default: 50)"),
		),
	)
}

// Handle processes the list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return listTasks(ctx, t.engine, req, "")
}

// ─── GetTaskTool ─────────────────────────────────────────────────────────────

// GetTaskTool handles the get_task MCP tool.
type GetTaskTool struct {
	engine *syncer.Engine
}

// NewGetTaskTool creates a GetTaskTool.
func NewGetTaskTool(engine *syncer.Engine) *GetTaskTool {
	return &GetTaskTool{engine: engine}
}

// Definition returns the MCP tool definition for get_task.
func (t *GetTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("get_task",
		mcp.WithDescription("Get one task by id."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the get_task tool call.
func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, src, err := t.engine.Task(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("get task %d", id), err), nil
	}
	return jsonResult(map[string]any{"task": task, "source": src})
}

// ─── CreateTaskTool ──────────────────────────────────────────────────────────

// CreateTaskTool handles the create_task MCP tool.
type CreateTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(r remote.Accessor, engine *syncer.Engine) *CreateTaskTool {
	return &CreateTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for create_task.
func (t *CreateTaskTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Create a task."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("category",
			mcp.Description("work (default) or personal"),
			mcp.Enum("work", "personal"),
		),
	}
	return mcp.NewTool("create_task", append(opts, taskFieldOptions()...)...)
}

// Handle processes the create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createTask(ctx, t.remote, t.engine, req, "")
}

// ─── UpdateTaskTool ──────────────────────────────────────────────────────────

// UpdateTaskTool handles the update_task MCP tool.
type UpdateTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewUpdateTaskTool creates an UpdateTaskTool.
func NewUpdateTaskTool(r remote.Accessor, engine *syncer.Engine) *UpdateTaskTool {
	return &UpdateTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for update_task.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Update fields of an existing task. Only supplied fields change. Use complete_task to finish a task."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("category",
			mcp.Description("Move the task to another category"),
			mcp.Enum("work", "personal"),
		),
	}
	return mcp.NewTool("update_task", append(opts, taskFieldOptions()...)...)
}

// Handle processes the update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := t.remote.GetTask(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("get task %d", id), err), nil
	}
	if err := applyTaskFields(req, task); err != nil {
		return failure("update task", err), nil
	}
	task.UpdatedAt = timeNow()

	if err := t.remote.UpdateTask(ctx, *task); err != nil {
		return failure("update task", err), nil
	}
	t.engine.RefreshTask(ctx, id)

	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Updated task #%d", id),
		"task":    task,
	})
}

// ─── CompleteTaskTool ────────────────────────────────────────────────────────

// CompleteTaskTool handles the complete_task MCP tool.
type CompleteTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCompleteTaskTool creates a CompleteTaskTool.
func NewCompleteTaskTool(r remote.Accessor, engine *syncer.Engine) *CompleteTaskTool {
	return &CompleteTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for complete_task.
func (t *CompleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task done. Points come from its value tier unless a manual override was set."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the complete_task tool call.
func (t *CompleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return completeTask(ctx, t.remote, t.engine, req, "")
}

// ─── DeleteTaskTool ──────────────────────────────────────────────────────────

// DeleteTaskTool handles the delete_task MCP tool.
type DeleteTaskTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewDeleteTaskTool creates a DeleteTaskTool.
func NewDeleteTaskTool(r remote.Accessor, engine *syncer.Engine) *DeleteTaskTool {
	return &DeleteTaskTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for delete_task.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

// Handle processes the delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.remote.DeleteTask(ctx, id); err != nil {
		return failure(fmt.Sprintf("delete task %d", id), err), nil
	}
	t.engine.RemoveTask(ctx, id)
	return mcp.NewToolResultText(fmt.Sprintf("Deleted task #%d", id)), nil
}
