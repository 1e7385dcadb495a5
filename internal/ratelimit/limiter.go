// Package ratelimit guards the remote store with per-tool and global
// sliding-window call limits. State is in-memory and resets on restart.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Limit types reported in a rejected Decision.
const (
	LimitTool   = "tool"
	LimitGlobal = "global"
)

// Config controls the limiter.
type Config struct {
	Enabled bool          `yaml:"enabled"`
	Window  time.Duration `yaml:"window"`
	// PerTool is the default per-tool limit within Window.
	PerTool int `yaml:"per_tool"`
	// Global caps calls across all tools within Window. Zero disables it.
	Global int `yaml:"global"`
	// Tools overrides PerTool for specific tool names.
	Tools map[string]int `yaml:"tools"`
}

// DefaultConfig returns the default limits: 60 calls per tool and 300
// overall per minute.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Window:  time.Minute,
		PerTool: 60,
		Global:  300,
	}
}

// Decision is the outcome of a limit check.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	LimitType         string `json:"limit_type,omitempty"`
	Tool              string `json:"tool"`
	Current           int    `json:"current"`
	Limit             int    `json:"limit"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Limiter is a sliding-window call limiter. It is safe for concurrent use.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	tools     map[string][]time.Time
	global    []time.Time
	lastSweep time.Time
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		cfg:   cfg,
		now:   time.Now,
		tools: make(map[string][]time.Time),
	}
}

// SetClock replaces the time source.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Check reports whether a call to tool would be admitted now without
// recording it.
func (l *Limiter) Check(tool string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(tool, l.now())
}

// Record appends a call to tool's window and the global window.
func (l *Limiter) Record(tool string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(tool, l.now())
}

// Admit checks and, if allowed, records a call in one step. Concurrent
// callers cannot jointly exceed a limit.
func (l *Limiter) Admit(tool string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	d := l.check(tool, now)
	if d.Allowed {
		l.record(tool, now)
	}
	return d
}

// Reset forgets all recorded calls.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tools = make(map[string][]time.Time)
	l.global = nil
}

// LimitFor returns the effective per-tool limit.
func (l *Limiter) LimitFor(tool string) int {
	if n, ok := l.cfg.Tools[tool]; ok {
		return n
	}
	return l.cfg.PerTool
}

// check must be called with l.mu held.
func (l *Limiter) check(tool string, now time.Time) Decision {
	limit := l.LimitFor(tool)
	if !l.cfg.Enabled {
		return Decision{Allowed: true, Tool: tool, Limit: limit}
	}

	cutoff := now.Add(-l.cfg.Window)
	l.sweep(now, cutoff)
	calls := prune(l.tools[tool], cutoff)
	if len(calls) == 0 {
		delete(l.tools, tool)
	} else {
		l.tools[tool] = calls
	}
	l.global = prune(l.global, cutoff)

	if limit > 0 && len(calls) >= limit {
		retry := l.retryAfter(calls[0], now)
		return Decision{
			Tool:              tool,
			LimitType:         LimitTool,
			Current:           len(calls),
			Limit:             limit,
			RetryAfterSeconds: retry,
			Message:           fmt.Sprintf("Rate limit exceeded for %s: %d/%d calls per %s. Retry in %ds.", tool, len(calls), limit, l.cfg.Window, retry),
		}
	}
	if l.cfg.Global > 0 && len(l.global) >= l.cfg.Global {
		retry := l.retryAfter(l.global[0], now)
		return Decision{
			Tool:              tool,
			LimitType:         LimitGlobal,
			Current:           len(l.global),
			Limit:             l.cfg.Global,
			RetryAfterSeconds: retry,
			Message:           fmt.Sprintf("Global rate limit exceeded: %d/%d calls per %s. Retry in %ds.", len(l.global), l.cfg.Global, l.cfg.Window, retry),
		}
	}

	return Decision{Allowed: true, Tool: tool, Current: len(calls), Limit: limit}
}

// sweep drops tools with no calls left in the window, at most once per
// window. Must be called with l.mu held.
func (l *Limiter) sweep(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.Window {
		return
	}
	l.lastSweep = now
	for name, ts := range l.tools {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.tools, name)
		}
	}
}

// record must be called with l.mu held.
func (l *Limiter) record(tool string, now time.Time) {
	if !l.cfg.Enabled {
		return
	}
	l.tools[tool] = append(l.tools[tool], now)
	l.global = append(l.global, now)
}

// retryAfter is the whole seconds until oldest leaves the window, at least 1.
func (l *Limiter) retryAfter(oldest, now time.Time) int {
	wait := oldest.Add(l.cfg.Window).Sub(now)
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// order, so the survivors are a suffix.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
