// Package syncer keeps the local cache consistent with the remote store.
//
// The Engine is the only writer of the cache. It performs full syncs
// (one transaction per table), single-record write-through after remote
// mutations, a one-time bootstrap, and a periodic background refresh.
// Readers go through the Engine too: they get cached rows when the cache is
// usable and fall back to the remote store otherwise.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
)

// Source tells where a read was served from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

// Config controls sync timing.
type Config struct {
	StaleAfter      time.Duration `yaml:"stale_after"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// GoalHistory is how many recent daily goals a full sync mirrors.
	GoalHistory int `yaml:"goal_history"`
}

// DefaultConfig returns 5 minute staleness and refresh with 30 days of goals.
func DefaultConfig() Config {
	return Config{
		StaleAfter:      5 * time.Minute,
		RefreshInterval: 5 * time.Minute,
		GoalHistory:     30,
	}
}

// SyncResult reports what a full sync copied.
type SyncResult struct {
	Clients    int       `json:"clients"`
	Tasks      int       `json:"tasks"`
	DailyGoals int       `json:"daily_goals"`
	Habits     int       `json:"habits"`
	SyncedAt   time.Time `json:"synced_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Status is a snapshot of cache health.
type Status struct {
	Ready           bool         `json:"ready"`
	Initialized     bool         `json:"initialized"`
	Stale           bool         `json:"stale"`
	LastSync        *time.Time   `json:"last_sync,omitempty"`
	AgeSeconds      int64        `json:"age_seconds,omitempty"`
	StaleAfter      string       `json:"stale_after"`
	RefreshInterval string       `json:"refresh_interval"`
	BackgroundSync  bool         `json:"background_sync"`
	Counts          cache.Counts `json:"counts"`
	LastResult      *SyncResult  `json:"last_result,omitempty"`
	LastError       string       `json:"last_error,omitempty"`
	CachePath       string       `json:"cache_path"`
}

// Engine synchronizes the cache from the remote store.
type Engine struct {
	remote remote.Accessor
	cache  *cache.Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	syncMu sync.Mutex // serializes full syncs

	initMu      sync.Mutex
	initialized bool
	ready       atomic.Bool

	statusMu   sync.Mutex
	lastResult *SyncResult
	lastErr    error

	runMu   sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// New creates an Engine. A nil logger uses slog.Default().
func New(r remote.Accessor, c *cache.Store, cfg Config, logger *slog.Logger) *Engine {
	defaults := DefaultConfig()
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}
	if cfg.GoalHistory <= 0 {
		cfg.GoalHistory = defaults.GoalHistory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{remote: r, cache: c, cfg: cfg, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Ready reports whether reads may be served from the cache.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// ─── Full sync ───────────────────────────────────────────────────────────────

// FullSync mirrors clients, tasks, recent daily goals and habits into the
// cache and records the sync time. Concurrent calls run one after another.
func (e *Engine) FullSync(ctx context.Context) (SyncResult, error) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	return e.fullSync(ctx)
}

// fullSync must be called with syncMu held.
func (e *Engine) fullSync(ctx context.Context) (SyncResult, error) {
	start := e.now()
	res, err := e.copyTables(ctx)
	if err == nil {
		res.SyncedAt = e.now()
		if err = e.cache.SetLastSync(ctx, res.SyncedAt); err != nil {
			e.logger.Error("cache sync failed", "table", "cache_metadata", "error", err)
		}
	}
	res.DurationMs = e.now().Sub(start).Milliseconds()

	e.statusMu.Lock()
	e.lastErr = err
	if err == nil {
		r := res
		e.lastResult = &r
	}
	e.statusMu.Unlock()

	if err != nil {
		return res, err
	}
	e.ready.Store(true)
	e.logger.Info("cache synced",
		"clients", res.Clients,
		"tasks", res.Tasks,
		"daily_goals", res.DailyGoals,
		"habits", res.Habits,
		"duration_ms", res.DurationMs,
	)
	return res, nil
}

func (e *Engine) copyTables(ctx context.Context) (SyncResult, error) {
	var res SyncResult

	clients, err := e.remote.ListClients(ctx)
	if err != nil {
		return res, e.syncFailed("clients", 0, err)
	}
	if err := e.cache.ReplaceClients(ctx, clients); err != nil {
		return res, e.syncFailed("clients", len(clients), err)
	}
	res.Clients = len(clients)

	tasks, err := e.remote.ListTasks(ctx, model.TaskFilter{})
	if err != nil {
		return res, e.syncFailed("tasks", 0, err)
	}
	if err := e.cache.ReplaceTasks(ctx, tasks); err != nil {
		return res, e.syncFailed("tasks", len(tasks), err)
	}
	res.Tasks = len(tasks)

	goals, err := e.remote.RecentDailyGoals(ctx, e.cfg.GoalHistory)
	if err != nil {
		return res, e.syncFailed("daily_goals", 0, err)
	}
	if err := e.cache.ReplaceDailyGoals(ctx, goals); err != nil {
		return res, e.syncFailed("daily_goals", len(goals), err)
	}
	res.DailyGoals = len(goals)

	habits, err := e.remote.ListHabits(ctx)
	if err != nil {
		return res, e.syncFailed("habits", 0, err)
	}
	if err := e.cache.ReplaceHabits(ctx, habits); err != nil {
		return res, e.syncFailed("habits", len(habits), err)
	}
	res.Habits = len(habits)

	return res, nil
}

func (e *Engine) syncFailed(table string, records int, err error) error {
	e.logger.Error("cache sync failed", "table", table, "records", records, "error", err)
	return fmt.Errorf("sync %s: %w", table, err)
}

// IsStale reports whether the cache needs a full sync: it is empty, was
// never synced, or the last sync is older than the staleness threshold.
func (e *Engine) IsStale(ctx context.Context) bool {
	n, err := e.cache.TaskCount(ctx)
	if err != nil || n == 0 {
		return true
	}
	last, ok, err := e.cache.LastSync(ctx)
	if err != nil || !ok {
		return true
	}
	return e.now().Sub(last) > e.cfg.StaleAfter
}

// EnsureCache bootstraps the cache once per process. The first caller
// syncs if the cache is stale; concurrent callers wait for it and later
// callers return immediately. It reports whether the cache is usable.
func (e *Engine) EnsureCache(ctx context.Context) bool {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.initialized {
		return e.ready.Load()
	}
	e.initialized = true

	if !e.IsStale(ctx) {
		e.ready.Store(true)
		return true
	}
	if _, err := e.FullSync(ctx); err != nil {
		e.logger.Warn("cache bootstrap failed; serving from remote", "error", err)
		return false
	}
	return true
}

// ─── Write-through ───────────────────────────────────────────────────────────

// SyncSingleTask refreshes one task from the remote store, removing it from
// the cache if it no longer exists there.
func (e *Engine) SyncSingleTask(ctx context.Context, id int64) error {
	t, err := e.remote.GetTask(ctx, id)
	if errors.Is(err, remote.ErrNotFound) {
		return e.cache.DeleteTask(ctx, id)
	}
	if err != nil {
		return err
	}
	return e.cache.UpsertTask(ctx, *t)
}

// SyncSingleHabit refreshes one habit from the remote store.
func (e *Engine) SyncSingleHabit(ctx context.Context, id int64) error {
	h, err := e.remote.GetHabit(ctx, id)
	if errors.Is(err, remote.ErrNotFound) {
		return e.cache.DeleteHabit(ctx, id)
	}
	if err != nil {
		return err
	}
	return e.cache.UpsertHabit(ctx, *h)
}

// SyncSingleClient refreshes one client from the remote store.
func (e *Engine) SyncSingleClient(ctx context.Context, id int64) error {
	c, err := e.remote.GetClient(ctx, id)
	if err != nil {
		return err
	}
	return e.cache.UpsertClient(ctx, *c)
}

// SyncDailyGoal refreshes the goal for date from the remote store.
func (e *Engine) SyncDailyGoal(ctx context.Context, date string) error {
	g, err := e.remote.GetDailyGoal(ctx, date)
	if err != nil {
		return err
	}
	return e.cache.UpsertDailyGoal(ctx, *g)
}

// The Put and Remove helpers write a record the caller just received from a
// successful remote mutation. Failures are logged; the remote write already
// succeeded and the next full sync repairs the cache.

// PutTask writes one task through to the cache.
func (e *Engine) PutTask(ctx context.Context, t model.Task) {
	if err := e.cache.UpsertTask(ctx, t); err != nil {
		e.logger.Warn("cache write-through failed", "table", "tasks", "id", t.ID, "error", err)
	}
}

// RemoveTask drops one task from the cache.
func (e *Engine) RemoveTask(ctx context.Context, id int64) {
	if err := e.cache.DeleteTask(ctx, id); err != nil {
		e.logger.Warn("cache write-through failed", "table", "tasks", "id", id, "error", err)
	}
}

// PutHabit writes one habit through to the cache.
func (e *Engine) PutHabit(ctx context.Context, h model.Habit) {
	if err := e.cache.UpsertHabit(ctx, h); err != nil {
		e.logger.Warn("cache write-through failed", "table", "habits", "id", h.ID, "error", err)
	}
}

// PutClient writes one client through to the cache.
func (e *Engine) PutClient(ctx context.Context, c model.Client) {
	if err := e.cache.UpsertClient(ctx, c); err != nil {
		e.logger.Warn("cache write-through failed", "table", "clients", "id", c.ID, "error", err)
	}
}

// PutDailyGoal writes one daily goal through to the cache.
func (e *Engine) PutDailyGoal(ctx context.Context, g model.DailyGoal) {
	if err := e.cache.UpsertDailyGoal(ctx, g); err != nil {
		e.logger.Warn("cache write-through failed", "table", "daily_goals", "date", g.Date, "error", err)
	}
}

// RefreshTask re-reads a task after a remote update and writes it through.
func (e *Engine) RefreshTask(ctx context.Context, id int64) {
	if err := e.SyncSingleTask(ctx, id); err != nil {
		e.logger.Warn("cache write-through failed", "table", "tasks", "id", id, "error", err)
	}
}

// ─── Read-through ────────────────────────────────────────────────────────────

// Tasks returns tasks matching the filter, from the cache when it is ready
// and non-empty for the query, otherwise from the remote store.
func (e *Engine) Tasks(ctx context.Context, f model.TaskFilter) ([]model.Task, Source, error) {
	if e.ready.Load() {
		rows, err := e.cache.Tasks(ctx, f)
		if err == nil && len(rows) > 0 {
			return rows, SourceCache, nil
		}
		e.cacheMiss("tasks", err)
	}
	rows, err := e.remote.ListTasks(ctx, f)
	return rows, SourceRemote, err
}

// SearchTasks returns tasks matching every word of query and the filter.
// The cache answers from its full-text index; the remote fallback lists
// with the filter and matches words in memory.
func (e *Engine) SearchTasks(ctx context.Context, query string, f model.TaskFilter) ([]model.Task, Source, error) {
	if e.ready.Load() {
		rows, err := e.cache.SearchTasks(ctx, query, f)
		if err == nil && len(rows) > 0 {
			return rows, SourceCache, nil
		}
		e.cacheMiss("tasks", err)
	}

	limit := f.Limit
	f.Limit = 0
	rows, err := e.remote.ListTasks(ctx, f)
	if err != nil {
		return nil, SourceRemote, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, t := range rows {
		if !t.MatchesQuery(query) {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, SourceRemote, nil
}

// Task returns one task.
func (e *Engine) Task(ctx context.Context, id int64) (*model.Task, Source, error) {
	if e.ready.Load() {
		t, err := e.cache.Task(ctx, id)
		if err == nil {
			return t, SourceCache, nil
		}
		e.cacheMiss("tasks", err)
	}
	t, err := e.remote.GetTask(ctx, id)
	return t, SourceRemote, err
}

// Clients returns every client.
func (e *Engine) Clients(ctx context.Context) ([]model.Client, Source, error) {
	if e.ready.Load() {
		rows, err := e.cache.Clients(ctx)
		if err == nil && len(rows) > 0 {
			return rows, SourceCache, nil
		}
		e.cacheMiss("clients", err)
	}
	rows, err := e.remote.ListClients(ctx)
	return rows, SourceRemote, err
}

// Habits returns every habit.
func (e *Engine) Habits(ctx context.Context) ([]model.Habit, Source, error) {
	if e.ready.Load() {
		rows, err := e.cache.Habits(ctx)
		if err == nil && len(rows) > 0 {
			return rows, SourceCache, nil
		}
		e.cacheMiss("habits", err)
	}
	rows, err := e.remote.ListHabits(ctx)
	return rows, SourceRemote, err
}

// DailyGoal returns the goal for date.
func (e *Engine) DailyGoal(ctx context.Context, date string) (*model.DailyGoal, Source, error) {
	if e.ready.Load() {
		g, err := e.cache.DailyGoal(ctx, date)
		if err == nil {
			return g, SourceCache, nil
		}
		e.cacheMiss("daily_goals", err)
	}
	g, err := e.remote.GetDailyGoal(ctx, date)
	return g, SourceRemote, err
}

func (e *Engine) cacheMiss(table string, err error) {
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		e.logger.Warn("cache read failed; falling back to remote", "table", table, "error", err)
		return
	}
	e.logger.Debug("cache miss; falling back to remote", "table", table)
}

// ─── Status ──────────────────────────────────────────────────────────────────

// Status returns a snapshot of the cache state.
func (e *Engine) Status(ctx context.Context) Status {
	e.initMu.Lock()
	initialized := e.initialized
	e.initMu.Unlock()

	e.runMu.Lock()
	running := e.running
	e.runMu.Unlock()

	st := Status{
		Ready:           e.ready.Load(),
		Initialized:     initialized,
		Stale:           e.IsStale(ctx),
		StaleAfter:      e.cfg.StaleAfter.String(),
		RefreshInterval: e.cfg.RefreshInterval.String(),
		BackgroundSync:  running,
		CachePath:       e.cache.Path(),
	}
	if last, ok, err := e.cache.LastSync(ctx); err == nil && ok {
		st.LastSync = &last
		st.AgeSeconds = int64(e.now().Sub(last).Seconds())
	}
	if counts, err := e.cache.Counts(ctx); err == nil {
		st.Counts = counts
	}

	e.statusMu.Lock()
	if e.lastResult != nil {
		r := *e.lastResult
		st.LastResult = &r
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	e.statusMu.Unlock()
	return st
}

// ─── Background refresh ──────────────────────────────────────────────────────

// Start launches the background refresh loop. It re-runs a full sync every
// refresh interval until Stop is called or ctx is cancelled. A tick is
// skipped while another sync is in progress. Calling Start twice is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run(ctx, e.stop, e.done)
}

// Stop signals the refresh loop and waits for it to exit.
func (e *Engine) Stop() {
	e.runMu.Lock()
	if !e.running {
		e.runMu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stop, e.done
	e.runMu.Unlock()

	close(stop)
	<-done
}

func (e *Engine) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	e.logger.Debug("background sync started", "interval", e.cfg.RefreshInterval)
	for {
		select {
		case <-stop:
			e.logger.Debug("background sync stopped")
			return
		case <-ctx.Done():
			e.logger.Debug("background sync cancelled")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick runs one background sync unless one is already running.
func (e *Engine) tick(ctx context.Context) {
	if !e.syncMu.TryLock() {
		e.logger.Debug("background sync skipped; sync in progress")
		return
	}
	defer e.syncMu.Unlock()

	if _, err := e.fullSync(ctx); err != nil {
		e.logger.Warn("background sync failed", "error", err)
	}
}
