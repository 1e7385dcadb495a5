package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewDayPrompt handles the review-my-day MCP prompt.
// It instructs the AI to summarize the day's output and loose ends.
type ReviewDayPrompt struct{}

// NewReviewDayPrompt creates a ReviewDayPrompt.
func NewReviewDayPrompt() *ReviewDayPrompt {
	return &ReviewDayPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewDayPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("review-my-day",
		mcp.WithPromptDescription(
			"Wrap up the day: points against the goal, clients touched, "+
				"habits, and brain dumps still waiting to be sorted.",
		),
	)
}

// Handle processes the review-my-day prompt request.
func (p *ReviewDayPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review my day",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_daily_stats` to see how today went.\n\n" +
						"Then:\n" +
						"1. Show points earned against today's target and the clients I touched\n" +
						"2. Run `list_habits` and list the habits still open for this period\n" +
						"3. Run `list_brain_dumps` and offer to turn the important ones into tasks with `process_brain_dump`\n" +
						"4. Suggest the one task I should start with tomorrow",
				),
			},
		},
	}, nil
}
