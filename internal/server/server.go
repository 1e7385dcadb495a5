// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/config"
	"github.com/HendryAvila/tempo/internal/prompts"
	"github.com/HendryAvila/tempo/internal/ratelimit"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/resources"
	"github.com/HendryAvila/tempo/internal/router"
	"github.com/HendryAvila/tempo/internal/syncer"
	"github.com/HendryAvila/tempo/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Stores are the opened persistence layers.
type Stores struct {
	Remote *remote.Postgres
	Cache  *cache.Store
}

// Close releases both stores.
func (st *Stores) Close() {
	if st.Cache != nil {
		st.Cache.Close()
	}
	if st.Remote != nil {
		st.Remote.Close()
	}
}

// OpenStores prepares the PostgreSQL pool and opens the local cache. An
// unreachable database does not fail startup: the schema is ensured on the
// first call that reaches it, and reads fall back to whatever the cache holds.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	pg, err := remote.Open(ctx, cfg.Remote, logger.With("component", "remote"))
	if err != nil {
		return nil, fmt.Errorf("connecting to remote store: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Warn("remote schema not ensured; retrying on first use", "error", err)
	}

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return &Stores{Remote: pg, Cache: store}, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The cache is bootstrapped before New returns and the background refresh
// runs until ctx is cancelled or cleanup is called. The returned cleanup
// function stops the refresh loop and closes both stores; it must be called
// on shutdown (typically via defer).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	a, err := build(stores.Remote, stores.Cache, cfg, logger)
	if err != nil {
		stores.Close()
		return nil, noop, err
	}

	if !a.engine.EnsureCache(ctx) {
		logger.Warn("cache not ready; reads go to the remote store until the next refresh")
	}
	a.engine.Start(ctx)

	cleanup := func() {
		a.engine.Stop()
		stores.Close()
	}
	return a.mcp, cleanup, nil
}

// app is the wired object graph.
type app struct {
	mcp    *server.MCPServer
	engine *syncer.Engine
	router *router.Router
}

// build wires every component over the given stores. It does not start
// anything.
func build(r remote.Accessor, store *cache.Store, cfg *config.Config, logger *slog.Logger) (*app, error) {
	// --- Create shared dependencies ---

	engine := syncer.New(r, store, cfg.Sync, logger.With("component", "syncer"))

	var limiter router.Admitter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit)
	}
	rt := router.New(limiter, logger.With("component", "router"))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"tempo",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---
	//
	// Every tool is bound in the router's catalog and exposed to MCP
	// through the router, so admission and the error boundary apply to
	// all of them.

	for _, t := range tools.All(r, engine, cfg.BaseTarget) {
		def := t.Definition()
		if err := rt.Register(router.ToolID(def.Name), t.Handle); err != nil {
			return nil, fmt.Errorf("registering tools: %w", err)
		}
		s.AddTool(def, rt.Handle)
	}
	if missing := rt.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("tools without a handler: %v", missing)
	}

	// --- Register prompts ---

	planPrompt := prompts.NewPlanDayPrompt()
	s.AddPrompt(planPrompt.Definition(), planPrompt.Handle)

	reviewPrompt := prompts.NewReviewDayPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(engine)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return &app{mcp: s, engine: engine, router: rt}, nil
}

// noop is a no-op cleanup function used when there's nothing to clean up.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use Tempo effectively.
func serverInstructions() string {
	return `You have access to Tempo, a personal productivity server that tracks
tasks, habits and daily output, and adapts the day's plan to the user's energy.

## POINTS

Completing a task earns points by value tier: checkbox 1, progress 2,
deliverable 4, milestone 7. A manual points override can be set on a task
before it is completed, never after.

## ENERGY

When the user shares a readiness score (0-100, usually from a wearable):
1. adjust_daily_goal sets today's target (+15% at 85 and above, unchanged
   from 70, -25% below 70). Calling it again for the same day replaces the goal.
2. filter_tasks_by_energy hides tasks that are too demanding
   (above 75 everything, 60-75 low and medium load, below 60 low load only).
3. rank_tasks_by_energy orders the remaining work by fit.
Without a score, skip the adjustment and rank for medium energy.

## CAPTURE

Loose thoughts go to add_brain_dump. Offer process_brain_dump later to turn
them into tasks instead of creating tasks mid-conversation.

## CACHE

Reads are served from a local cache that refreshes in the background. If
the user says data looks out of date, call sync_cache. A "rate_limited"
error carries retry_after_seconds: wait that long before retrying.`
}
