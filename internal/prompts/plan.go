// Package prompts implements MCP prompt handlers for daily planning.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanDayPrompt handles the plan-my-day MCP prompt.
// It walks the AI through sizing today's goal and picking tasks that fit
// the user's readiness.
type PlanDayPrompt struct{}

// NewPlanDayPrompt creates a PlanDayPrompt.
func NewPlanDayPrompt() *PlanDayPrompt {
	return &PlanDayPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanDayPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("plan-my-day",
		mcp.WithPromptDescription(
			"Plan today around your energy. Sets the day's points target "+
				"from your readiness score and suggests tasks that fit it.",
		),
		mcp.WithArgument("readiness",
			mcp.ArgumentDescription("Readiness score from your wearable, 0-100. Leave empty if you don't have one today."),
		),
	)
}

// Handle processes the plan-my-day prompt request.
func (p *PlanDayPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	readiness := ""
	if args := req.Params.Arguments; args != nil {
		readiness = strings.TrimSpace(args["readiness"])
	}

	var steps string
	description := "Plan my day"
	if n, err := strconv.Atoi(readiness); err == nil && n >= 0 && n <= 100 {
		description = fmt.Sprintf("Plan my day (readiness %d)", n)
		steps = fmt.Sprintf(
			"1. Run `adjust_daily_goal` with readiness=%d to set today's points target\n"+
				"2. Run `filter_tasks_by_energy` with readiness=%d and tell me what is off the table today\n"+
				"3. Run `rank_tasks_by_energy` with readiness=%d and limit=5\n",
			n, n, n)
	} else {
		steps = "1. Run `adjust_daily_goal` without a readiness score to record today's base target\n" +
			"2. Run `filter_tasks_by_energy` without a readiness score\n" +
			"3. Run `rank_tasks_by_energy` with limit=5 (medium energy)\n"
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Help me plan today.\n\n" +
						"Please:\n" +
						steps +
						"4. Propose a short plan whose points add up to the target, favouring the top-ranked tasks\n" +
						"5. Mention any habits from `list_habits` not yet done this period",
				),
			},
		},
	}, nil
}
