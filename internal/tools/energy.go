package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/energy"
	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

func readinessOption() mcp.ToolOption {
	return mcp.WithNumber("readiness",
		mcp.Description("Readiness score from a wearable, 0-100. Omit when unavailable."),
	)
}

// openTasks loads every open task through the engine.
func openTasks(ctx context.Context, e *syncer.Engine) ([]model.Task, syncer.Source, error) {
	return e.Tasks(ctx, model.TaskFilter{Statuses: model.OpenStatuses()})
}

// ─── GetEnergyLevelTool ──────────────────────────────────────────────────────

// GetEnergyLevelTool handles the get_energy_level MCP tool.
type GetEnergyLevelTool struct{}

// NewGetEnergyLevelTool creates a GetEnergyLevelTool.
func NewGetEnergyLevelTool() *GetEnergyLevelTool {
	return &GetEnergyLevelTool{}
}

// Definition returns the MCP tool definition for get_energy_level.
func (t *GetEnergyLevelTool) Definition() mcp.Tool {
	return mcp.NewTool("get_energy_level",
		mcp.WithDescription("Map a readiness score to an energy level (high >= 85, medium >= 70, low below) and the task band it unlocks."),
		mcp.WithNumber("readiness",
			mcp.Required(),
			mcp.Description("Readiness score, 0-100"),
		),
	)
}

// Handle processes the get_energy_level tool call.
func (t *GetEnergyLevelTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	readiness, err := readinessArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if readiness == nil {
		return mcp.NewToolResultError("'readiness' is required"), nil
	}
	return jsonResult(map[string]any{
		"readiness":    *readiness,
		"energy_level": energy.MapReadinessToEnergyLevel(*readiness),
		"task_band":    energy.GateBand(*readiness),
	})
}

// ─── RankTasksByEnergyTool ───────────────────────────────────────────────────

// RankTasksByEnergyTool handles the rank_tasks_by_energy MCP tool.
type RankTasksByEnergyTool struct {
	engine *syncer.Engine
}

// NewRankTasksByEnergyTool creates a RankTasksByEnergyTool.
func NewRankTasksByEnergyTool(engine *syncer.Engine) *RankTasksByEnergyTool {
	return &RankTasksByEnergyTool{engine: engine}
}

// Definition returns the MCP tool definition for rank_tasks_by_energy.
func (t *RankTasksByEnergyTool) Definition() mcp.Tool {
	return mcp.NewTool("rank_tasks_by_energy",
		mcp.WithDescription("Rank open tasks by how well they fit the current energy level."),
		readinessOption(),
		mcp.WithString("energy_level",
			mcp.Description("Energy level to rank for when no readiness is given (default: medium)"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum tasks to return (default: 10)"),
		),
	)
}

// Handle processes the rank_tasks_by_energy tool call.
func (t *RankTasksByEnergyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	readiness, err := readinessArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	level := model.LevelMedium
	switch {
	case readiness != nil:
		level = energy.MapReadinessToEnergyLevel(*readiness)
	case hasArg(req, "energy_level"):
		level, err = model.ParseLevel(req.GetString("energy_level", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	tasks, src, err := openTasks(ctx, t.engine)
	if err != nil {
		return failure("rank tasks", err), nil
	}
	ranked := energy.RankTasksByEnergy(tasks, level, intArg(req, "limit", 10))

	return jsonResult(map[string]any{
		"energy_level": level,
		"readiness":    readiness,
		"tasks":        ranked,
		"count":        len(ranked),
		"source":       src,
	})
}

// ─── FilterTasksByEnergyTool ─────────────────────────────────────────────────

// FilterTasksByEnergyTool handles the filter_tasks_by_energy MCP tool.
type FilterTasksByEnergyTool struct {
	engine *syncer.Engine
}

// NewFilterTasksByEnergyTool creates a FilterTasksByEnergyTool.
func NewFilterTasksByEnergyTool(engine *syncer.Engine) *FilterTasksByEnergyTool {
	return &FilterTasksByEnergyTool{engine: engine}
}

// Definition returns the MCP tool definition for filter_tasks_by_energy.
func (t *FilterTasksByEnergyTool) Definition() mcp.Tool {
	return mcp.NewTool("filter_tasks_by_energy",
		mcp.WithDescription("Hide open tasks too demanding for today's readiness: above 75 everything, 60-75 low and medium load, below 60 low load only."),
		readinessOption(),
	)
}

// Handle processes the filter_tasks_by_energy tool call.
func (t *FilterTasksByEnergyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	readiness, err := readinessArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks, src, err := openTasks(ctx, t.engine)
	if err != nil {
		return failure("filter tasks", err), nil
	}
	return jsonResult(map[string]any{
		"result": energy.FilterTasksByEnergy(tasks, readiness),
		"source": src,
	})
}

// ─── AdjustDailyGoalTool ─────────────────────────────────────────────────────

// AdjustDailyGoalTool handles the adjust_daily_goal MCP tool.
type AdjustDailyGoalTool struct {
	remote     remote.Accessor
	engine     *syncer.Engine
	baseTarget int
}

// NewAdjustDailyGoalTool creates an AdjustDailyGoalTool.
func NewAdjustDailyGoalTool(r remote.Accessor, engine *syncer.Engine, baseTarget int) *AdjustDailyGoalTool {
	if baseTarget <= 0 {
		baseTarget = DefaultBaseTarget
	}
	return &AdjustDailyGoalTool{remote: r, engine: engine, baseTarget: baseTarget}
}

// Definition returns the MCP tool definition for adjust_daily_goal.
func (t *AdjustDailyGoalTool) Definition() mcp.Tool {
	return mcp.NewTool("adjust_daily_goal",
		mcp.WithDescription("Scale a day's points target by readiness (+15% high, unchanged medium, -25% low) and record it. Repeating the call replaces the day's goal."),
		readinessOption(),
		mcp.WithNumber("base_target",
			mcp.Description(fmt.Sprintf("Base points target (default: %d)", DefaultBaseTarget)),
		),
		mcp.WithString("date",
			mcp.Description("Day to adjust, YYYY-MM-DD (default: today)"),
		),
	)
}

// Handle processes the adjust_daily_goal tool call.
func (t *AdjustDailyGoalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	readiness, err := readinessArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := dateArg(req, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	base := intArg(req, "base_target", t.baseTarget)
	if base < 1 {
		return mcp.NewToolResultError("'base_target' must be a positive number"), nil
	}

	adj := energy.CalculateDailyGoalAdjustment(readiness, base)
	goal, err := t.remote.UpsertDailyGoal(ctx, model.DailyGoal{
		Date:           date,
		BaseTarget:     adj.BaseTarget,
		AdjustedTarget: adj.AdjustedTarget,
		ReadinessScore: adj.Readiness,
		EnergyLevel:    adj.EnergyLevel,
		Reason:         adj.Reason,
	})
	if err != nil {
		return failure("adjust daily goal", err), nil
	}
	t.engine.PutDailyGoal(ctx, goal)

	return jsonResult(map[string]any{
		"message":    adj.Reason,
		"adjustment": adj,
		"goal":       goal,
	})
}

// ─── GetDailyGoalTool ────────────────────────────────────────────────────────

// GetDailyGoalTool handles the get_daily_goal MCP tool.
type GetDailyGoalTool struct {
	engine     *syncer.Engine
	baseTarget int
}

// NewGetDailyGoalTool creates a GetDailyGoalTool.
func NewGetDailyGoalTool(engine *syncer.Engine, baseTarget int) *GetDailyGoalTool {
	if baseTarget <= 0 {
		baseTarget = DefaultBaseTarget
	}
	return &GetDailyGoalTool{engine: engine, baseTarget: baseTarget}
}

// Definition returns the MCP tool definition for get_daily_goal.
func (t *GetDailyGoalTool) Definition() mcp.Tool {
	return mcp.NewTool("get_daily_goal",
		mcp.WithDescription("Get the points target recorded for a day. Falls back to the base target when none was recorded."),
		mcp.WithString("date",
			mcp.Description("Day, YYYY-MM-DD (default: today)"),
		),
	)
}

// Handle processes the get_daily_goal tool call.
func (t *GetDailyGoalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := dateArg(req, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	goal, src, err := t.engine.DailyGoal(ctx, date)
	switch {
	case err == nil:
		return jsonResult(map[string]any{
			"goal":     goal,
			"target":   goal.Target(),
			"recorded": true,
			"source":   src,
		})
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, cache.ErrNotFound):
		return jsonResult(map[string]any{
			"date":     date,
			"target":   t.baseTarget,
			"recorded": false,
			"message":  "No goal recorded for this day; using the base target.",
		})
	default:
		return failure("get daily goal", err), nil
	}
}
