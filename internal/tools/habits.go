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

// habitView is a habit plus whether it is done for the current period.
type habitView struct {
	model.Habit
	DoneThisPeriod bool `json:"done_this_period"`
}

// ─── ListHabitsTool ──────────────────────────────────────────────────────────

// ListHabitsTool handles the list_habits MCP tool.
type ListHabitsTool struct {
	engine *syncer.Engine
}

// NewListHabitsTool creates a ListHabitsTool.
func NewListHabitsTool(engine *syncer.Engine) *ListHabitsTool {
	return &ListHabitsTool{engine: engine}
}

// Definition returns the MCP tool definition for list_habits.
func (t *ListHabitsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_habits",
		mcp.WithDescription("List habits with their streaks and whether each is done for the current period."),
	)
}

// Handle processes the list_habits tool call.
func (t *ListHabitsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	habits, src, err := t.engine.Habits(ctx)
	if err != nil {
		return failure("list habits", err), nil
	}

	now := timeNow()
	views := make([]habitView, 0, len(habits))
	for _, h := range habits {
		scratch := h
		done, err := scratch.Complete(now)
		if err != nil {
			done = false
		}
		views = append(views, habitView{Habit: h, DoneThisPeriod: done})
	}
	return jsonResult(map[string]any{
		"habits": views,
		"count":  len(views),
		"source": src,
	})
}

// ─── CreateHabitTool ─────────────────────────────────────────────────────────

// CreateHabitTool handles the create_habit MCP tool.
type CreateHabitTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCreateHabitTool creates a CreateHabitTool.
func NewCreateHabitTool(r remote.Accessor, engine *syncer.Engine) *CreateHabitTool {
	return &CreateHabitTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for create_habit.
func (t *CreateHabitTool) Definition() mcp.Tool {
	return mcp.NewTool("create_habit",
		mcp.WithDescription("Create a habit to track."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Habit name"),
		),
		mcp.WithString("frequency",
			mcp.Description("How often it is expected (default: daily). Weekday streaks carry over weekends."),
			mcp.Enum("daily", "weekly", "weekdays"),
		),
	)
}

// Handle processes the create_habit tool call.
func (t *CreateHabitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	h := model.Habit{Name: name, Frequency: model.FrequencyDaily}
	if raw := req.GetString("frequency", ""); raw != "" {
		f, err := model.ParseFrequency(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.Frequency = f
	}

	created, err := t.remote.CreateHabit(ctx, h)
	if err != nil {
		return failure("create habit", err), nil
	}
	t.engine.PutHabit(ctx, created)

	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Created %s habit #%d: %s", created.Frequency, created.ID, created.Name),
		"habit":   created,
	})
}

// ─── CompleteHabitTool ───────────────────────────────────────────────────────

// CompleteHabitTool handles the complete_habit MCP tool.
type CompleteHabitTool struct {
	remote remote.Accessor
	engine *syncer.Engine
}

// NewCompleteHabitTool creates a CompleteHabitTool.
func NewCompleteHabitTool(r remote.Accessor, engine *syncer.Engine) *CompleteHabitTool {
	return &CompleteHabitTool{remote: r, engine: engine}
}

// Definition returns the MCP tool definition for complete_habit.
func (t *CompleteHabitTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_habit",
		mcp.WithDescription("Record a habit completion for today and update its streak. Completing twice in one period is a no-op."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Habit id"),
		),
	)
}

// Handle processes the complete_habit tool call.
func (t *CompleteHabitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h, err := t.remote.GetHabit(ctx, id)
	if err != nil {
		return failure(fmt.Sprintf("get habit %d", id), err), nil
	}

	already, err := h.Complete(timeNow())
	if err != nil {
		return failure("complete habit", err), nil
	}
	if already {
		return jsonResult(map[string]any{
			"message": fmt.Sprintf("Habit %q is already done for this period (streak %d).", h.Name, h.CurrentStreak),
			"habit":   h,
		})
	}

	if err := t.remote.UpdateHabit(ctx, *h); err != nil {
		return failure("complete habit", err), nil
	}
	t.engine.PutHabit(ctx, *h)

	return jsonResult(map[string]any{
		"message": fmt.Sprintf("Completed %q: streak %d (best %d).", h.Name, h.CurrentStreak, h.LongestStreak),
		"habit":   h,
	})
}
