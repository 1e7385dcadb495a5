// Package tools provides the MCP tool handlers for Tempo's five domains:
// tasks, habits, energy, brain dumps and personal tasks.
//
// Each tool follows the same pattern:
//   - A struct with its dependencies injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Reads go through the sync engine (cache first, remote on miss). Mutations
// go to the remote store first and are then written through to the cache.
// Domain failures are returned as error results, never as Go errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Tool is implemented by every handler in this package.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// DefaultBaseTarget is the daily points target when none is configured.
const DefaultBaseTarget = 18

// ─── Arguments ───────────────────────────────────────────────────────────────

// hasArg reports whether key was supplied.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := numberArg(req, key)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// numberArg accepts JSON numbers and numeric strings.
func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// idArg extracts a required positive id.
func idArg(req mcp.CallToolRequest, key string) (int64, error) {
	v, ok := numberArg(req, key)
	if !ok || v < 1 {
		return 0, fmt.Errorf("'%s' is required and must be a positive integer", key)
	}
	return int64(v), nil
}

// optionalIDArg extracts an optional positive id.
func optionalIDArg(req mcp.CallToolRequest, key string) (*int64, error) {
	if !hasArg(req, key) {
		return nil, nil
	}
	id, err := idArg(req, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// readinessArg extracts an optional 0-100 readiness score.
func readinessArg(req mcp.CallToolRequest) (*int, error) {
	if !hasArg(req, "readiness") {
		return nil, nil
	}
	v, ok := numberArg(req, "readiness")
	if !ok || v < 0 || v > 100 {
		return nil, errors.New("'readiness' must be a number between 0 and 100")
	}
	r := int(v)
	return &r, nil
}

// csvArg splits a comma-separated argument into trimmed, non-empty items.
func csvArg(req mcp.CallToolRequest, key string) []string {
	out := []string{}
	for _, part := range strings.Split(req.GetString(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dateArg returns a YYYY-MM-DD argument, defaulting to today.
func dateArg(req mcp.CallToolRequest, key string) (string, error) {
	d := strings.TrimSpace(req.GetString(key, ""))
	if d == "" {
		return model.FormatDate(timeNow()), nil
	}
	if _, err := time.Parse(model.DateLayout, d); err != nil {
		return "", fmt.Errorf("'%s' must be a date in YYYY-MM-DD format", key)
	}
	return d, nil
}

// ─── Results ─────────────────────────────────────────────────────────────────

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// failure maps store errors to caller-facing error results.
func failure(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, cache.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: not found", action))
	case errors.Is(err, remote.ErrUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("%s: remote store unavailable, try again shortly", action))
	case errors.Is(err, remote.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
	case errors.Is(err, model.ErrInvalidValue),
		errors.Is(err, model.ErrAlreadyCompleted),
		errors.Is(err, model.ErrPointsLocked),
		errors.Is(err, model.ErrReopen):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
	}
}

// startOfDay returns local midnight of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// firstLine returns the first non-empty line of s, cut to max runes.
func firstLine(s string, max int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r := []rune(line)
		if len(r) > max {
			return string(r[:max-3]) + "..."
		}
		return line
	}
	return ""
}
