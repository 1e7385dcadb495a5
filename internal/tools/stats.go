package tools

import (
	"context"
	"errors"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// DailyStats summarizes today's output.
type DailyStats struct {
	Date            string        `json:"date"`
	TasksCompleted  int           `json:"tasks_completed"`
	PointsEarned    int           `json:"points_earned"`
	ClientsTouched  int           `json:"clients_touched"`
	Target          int           `json:"target"`
	GoalAdjusted    bool          `json:"goal_adjusted"`
	Remaining       int           `json:"remaining"`
	ProgressPercent int           `json:"progress_percent"`
	Completed       []model.Task  `json:"completed"`
	Source          syncer.Source `json:"source"`
}

// DailyStatsTool handles the get_daily_stats MCP tool.
type DailyStatsTool struct {
	engine     *syncer.Engine
	baseTarget int
}

// NewDailyStatsTool creates a DailyStatsTool. baseTarget applies when no goal
// has been recorded for today.
func NewDailyStatsTool(engine *syncer.Engine, baseTarget int) *DailyStatsTool {
	if baseTarget <= 0 {
		baseTarget = DefaultBaseTarget
	}
	return &DailyStatsTool{engine: engine, baseTarget: baseTarget}
}

// Definition returns the MCP tool definition for get_daily_stats.
func (t *DailyStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_daily_stats",
		mcp.WithDescription("Today's progress: tasks completed, points earned, distinct clients touched and progress against today's goal."),
	)
}

// Handle processes the get_daily_stats tool call.
func (t *DailyStatsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.compute(ctx)
	if err != nil {
		return failure("get daily stats", err), nil
	}
	return jsonResult(stats)
}

func (t *DailyStatsTool) compute(ctx context.Context) (DailyStats, error) {
	now := timeNow()
	since := startOfDay(now)

	done, src, err := t.engine.Tasks(ctx, model.TaskFilter{
		Statuses:       []model.Status{model.StatusDone},
		CompletedSince: &since,
	})
	if err != nil {
		return DailyStats{}, err
	}
	clients, _, err := t.engine.Clients(ctx)
	if err != nil {
		return DailyStats{}, err
	}

	stats := DailyStats{
		Date:           model.FormatDate(now),
		TasksCompleted: len(done),
		ClientsTouched: model.ClientsTouched(done, clients),
		Target:         t.baseTarget,
		Completed:      done,
		Source:         src,
	}
	if stats.Completed == nil {
		stats.Completed = []model.Task{}
	}
	for _, task := range done {
		stats.PointsEarned += task.Points()
	}

	goal, _, err := t.engine.DailyGoal(ctx, stats.Date)
	switch {
	case err == nil:
		stats.Target = goal.Target()
		stats.GoalAdjusted = goal.AdjustedTarget != goal.BaseTarget
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, cache.ErrNotFound):
	default:
		return DailyStats{}, err
	}

	if stats.Target > 0 {
		stats.ProgressPercent = int(math.Round(float64(stats.PointsEarned) * 100 / float64(stats.Target)))
	}
	stats.Remaining = max(stats.Target-stats.PointsEarned, 0)
	return stats, nil
}
