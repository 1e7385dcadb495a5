// Package router dispatches tool calls to domain handlers.
//
// Every call passes the rate limiter first, then resolves its handler
// through the closed catalog, then runs inside an error boundary: handler
// errors and panics become error results, never protocol failures.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/tempo/internal/ratelimit"
)

// Admitter decides whether a call may proceed and records it if so.
type Admitter interface {
	Admit(tool string) ratelimit.Decision
}

// Router owns one handler table per group.
type Router struct {
	limiter Admitter
	logger  *slog.Logger

	mu       sync.RWMutex
	handlers map[Group]map[ToolID]server.ToolHandlerFunc
}

// New creates a Router. A nil limiter admits everything.
func New(limiter Admitter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	handlers := make(map[Group]map[ToolID]server.ToolHandlerFunc, len(Groups()))
	for _, g := range Groups() {
		handlers[g] = make(map[ToolID]server.ToolHandlerFunc)
	}
	return &Router{limiter: limiter, logger: logger, handlers: handlers}
}

// Register binds a handler to a catalog tool.
func (r *Router) Register(id ToolID, h server.ToolHandlerFunc) error {
	g, ok := catalog[id]
	if !ok {
		return fmt.Errorf("router: %q is not in the tool catalog", id)
	}
	if h == nil {
		return fmt.Errorf("router: nil handler for %q", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[g][id]; dup {
		return fmt.Errorf("router: %q registered twice", id)
	}
	r.handlers[g][id] = h
	return nil
}

// Missing lists catalog tools without a registered handler, sorted.
func (r *Router) Missing() []ToolID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ToolID
	for id, g := range catalog {
		if _, ok := r.handlers[g][id]; !ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Call dispatches a tool by name with raw arguments.
func (r *Router) Call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, _ := r.Handle(ctx, req)
	return res
}

// Handle is an mcp-go tool handler. It never returns a non-nil error.
func (r *Router) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	callID := uuid.NewString()
	log := r.logger.With("tool", name, "call_id", callID)

	if r.limiter != nil {
		if d := r.limiter.Admit(name); !d.Allowed {
			log.Warn("tool call rate limited",
				"limit_type", d.LimitType,
				"current", d.Current,
				"limit", d.Limit,
				"retry_after_s", d.RetryAfterSeconds,
			)
			return rateLimited(d), nil
		}
	}

	h, ok := r.resolve(name)
	if !ok {
		log.Warn("unknown tool")
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool %q", name)), nil
	}

	start := time.Now()
	res := r.invoke(ctx, log, h, req)
	log.Debug("tool call finished", "is_error", res.IsError, "duration", time.Since(start))
	return res, nil
}

func (r *Router) resolve(name string) (server.ToolHandlerFunc, bool) {
	id, g, ok := Lookup(name)
	if !ok {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[g][id]
	return h, ok
}

// invoke runs h, converting errors and panics into error results.
func (r *Router) invoke(ctx context.Context, log *slog.Logger, h server.ToolHandlerFunc, req mcp.CallToolRequest) (res *mcp.CallToolResult) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("tool handler panicked", "panic", p)
			res = mcp.NewToolResultError(fmt.Sprintf("internal error in %s", req.Params.Name))
		}
	}()

	res, err := h(ctx, req)
	if err != nil {
		log.Error("tool handler failed", "error", err)
		return mcp.NewToolResultError(err.Error())
	}
	if res == nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s returned no result", req.Params.Name))
	}
	return res
}

// rateLimited renders a rejection with its structured decision.
func rateLimited(d ratelimit.Decision) *mcp.CallToolResult {
	body, err := json.MarshalIndent(map[string]any{
		"error":               "rate_limited",
		"message":             d.Message,
		"limit_type":          d.LimitType,
		"current":             d.Current,
		"limit":               d.Limit,
		"retry_after_seconds": d.RetryAfterSeconds,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(d.Message)
	}
	return mcp.NewToolResultError(string(body))
}
