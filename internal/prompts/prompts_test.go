package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) == 0 {
		t.Fatal("prompt returned no messages")
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Messages[0].Content)
	}
	return tc.Text
}

func TestPlanDayPrompt_WithReadiness(t *testing.T) {
	p := NewPlanDayPrompt()
	if p.Definition().Name != "plan-my-day" {
		t.Errorf("name = %s", p.Definition().Name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"readiness": " 82 "}

	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	text := promptText(t, res)
	for _, want := range []string{
		"`adjust_daily_goal` with readiness=82",
		"`filter_tasks_by_energy` with readiness=82",
		"`rank_tasks_by_energy` with readiness=82",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(res.Description, "82") {
		t.Errorf("description = %q", res.Description)
	}
}

func TestPlanDayPrompt_WithoutReadiness(t *testing.T) {
	for _, args := range []map[string]string{nil, {"readiness": "tired"}, {"readiness": "140"}} {
		req := mcp.GetPromptRequest{}
		req.Params.Arguments = args

		res, err := NewPlanDayPrompt().Handle(context.Background(), req)
		if err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
		text := promptText(t, res)
		if strings.Contains(text, "readiness=") {
			t.Errorf("args %v: prompt should not pass a readiness score:\n%s", args, text)
		}
		if !strings.Contains(text, "adjust_daily_goal") {
			t.Errorf("args %v: prompt should still set the goal", args)
		}
	}
}

func TestReviewDayPrompt(t *testing.T) {
	res, err := NewReviewDayPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	text := promptText(t, res)
	for _, tool := range []string{"get_daily_stats", "list_habits", "list_brain_dumps"} {
		if !strings.Contains(text, tool) {
			t.Errorf("review prompt does not mention %s", tool)
		}
	}
}
