// Package cache implements the disposable local mirror of the remote store.
//
// It uses an embedded, file-backed SQLite database. Only the sync engine
// writes to it: bulk table replacement after a full sync, or single-row
// write-through after a successful remote mutation. Deleting the file loses
// nothing; the next sync rebuilds it.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/tempo/internal/model"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a row is not in the cache.
var ErrNotFound = errors.New("not in cache")

// timeLayout is RFC 3339 in UTC with fixed-width nanoseconds, so stored
// timestamps compare correctly as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// metaLastSync is the cache_metadata key of the last full sync.
const metaLastSync = "last_full_sync"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds cache store configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns the default configuration for the cache store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".tempo")}
}

// Counts holds per-table row counts.
type Counts struct {
	Clients    int `json:"clients"`
	Tasks      int `json:"tasks"`
	Habits     int `json:"habits"`
	DailyGoals int `json:"daily_goals"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the local SQLite cache.
type Store struct {
	db    *sql.DB
	path  string
	hooks storeHooks
}

type storeHooks struct {
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// Open creates the data directory if needed, opens cache.db with WAL mode,
// and runs migrations.
func Open(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("cache: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "cache.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: dbPath, hooks: defaultStoreHooks()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS clients (
			id         INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id             INTEGER PRIMARY KEY,
			client_id      INTEGER,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL,
			category       TEXT NOT NULL,
			value_tier     TEXT NOT NULL,
			cognitive_load TEXT NOT NULL,
			effort_hours   INTEGER NOT NULL DEFAULT 0,
			drain_type     TEXT NOT NULL DEFAULT '',
			tags           TEXT NOT NULL DEFAULT '[]',
			points_final   INTEGER,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,
			completed_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

		CREATE TABLE IF NOT EXISTS habits (
			id             INTEGER PRIMARY KEY,
			name           TEXT NOT NULL,
			frequency      TEXT NOT NULL,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_completed TEXT,
			created_at     TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_goals (
			id              INTEGER PRIMARY KEY,
			date            TEXT NOT NULL UNIQUE,
			base_target     INTEGER NOT NULL,
			adjusted_target INTEGER NOT NULL,
			readiness_score INTEGER,
			energy_level    TEXT NOT NULL DEFAULT '',
			reason          TEXT NOT NULL DEFAULT '',
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cache_metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	if _, err := s.db.Exec(searchSchema); err != nil {
		return err
	}
	// Rows written before the index existed are not in it yet.
	_, err := s.db.Exec(`INSERT INTO tasks_fts(tasks_fts) VALUES ('rebuild')`)
	return err
}

// ─── Bulk replacement ────────────────────────────────────────────────────────

// replaceTable clears table and re-inserts rows inside one transaction. On
// any failure the previous contents stay visible.
func (s *Store) replaceTable(ctx context.Context, table, insert string, n int, args func(i int) ([]any, error)) error {
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return fmt.Errorf("cache: begin %s replace: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("cache: clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("cache: prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		a, err := args(i)
		if err != nil {
			return fmt.Errorf("cache: encode %s row %d: %w", table, i, err)
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return fmt.Errorf("cache: insert %s row %d: %w", table, i, err)
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("cache: commit %s replace: %w", table, err)
	}
	return nil
}

// ReplaceClients swaps the whole clients table.
func (s *Store) ReplaceClients(ctx context.Context, clients []model.Client) error {
	return s.replaceTable(ctx, "clients", insertClient, len(clients), func(i int) ([]any, error) {
		return clientArgs(clients[i]), nil
	})
}

// ReplaceTasks swaps the whole tasks table.
func (s *Store) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	return s.replaceTable(ctx, "tasks", insertTask, len(tasks), func(i int) ([]any, error) {
		return taskArgs(tasks[i])
	})
}

// ReplaceHabits swaps the whole habits table.
func (s *Store) ReplaceHabits(ctx context.Context, habits []model.Habit) error {
	return s.replaceTable(ctx, "habits", insertHabit, len(habits), func(i int) ([]any, error) {
		return habitArgs(habits[i]), nil
	})
}

// ReplaceDailyGoals swaps the whole daily_goals table.
func (s *Store) ReplaceDailyGoals(ctx context.Context, goals []model.DailyGoal) error {
	return s.replaceTable(ctx, "daily_goals", insertGoal, len(goals), func(i int) ([]any, error) {
		return goalArgs(goals[i]), nil
	})
}

// ─── Write-through ───────────────────────────────────────────────────────────

// UpsertClient inserts or replaces one client.
func (s *Store) UpsertClient(ctx context.Context, c model.Client) error {
	if _, err := s.db.ExecContext(ctx, insertClient, clientArgs(c)...); err != nil {
		return fmt.Errorf("cache: upsert client %d: %w", c.ID, err)
	}
	return nil
}

// UpsertTask inserts or replaces one task. The old row is deleted first so
// the search index triggers see the removal.
func (s *Store) UpsertTask(ctx context.Context, t model.Task) error {
	args, err := taskArgs(t)
	if err != nil {
		return fmt.Errorf("cache: encode task %d: %w", t.ID, err)
	}

	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return fmt.Errorf("cache: begin task upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID); err != nil {
		return fmt.Errorf("cache: upsert task %d: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx, insertTask, args...); err != nil {
		return fmt.Errorf("cache: upsert task %d: %w", t.ID, err)
	}
	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("cache: commit task upsert: %w", err)
	}
	return nil
}

// DeleteTask removes one task. Deleting an absent task is not an error.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("cache: delete task %d: %w", id, err)
	}
	return nil
}

// UpsertHabit inserts or replaces one habit.
func (s *Store) UpsertHabit(ctx context.Context, h model.Habit) error {
	if _, err := s.db.ExecContext(ctx, insertHabit, habitArgs(h)...); err != nil {
		return fmt.Errorf("cache: upsert habit %d: %w", h.ID, err)
	}
	return nil
}

// DeleteHabit removes one habit.
func (s *Store) DeleteHabit(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("cache: delete habit %d: %w", id, err)
	}
	return nil
}

// UpsertDailyGoal inserts or replaces the goal for g.Date.
func (s *Store) UpsertDailyGoal(ctx context.Context, g model.DailyGoal) error {
	if _, err := s.db.ExecContext(ctx, insertGoal, goalArgs(g)...); err != nil {
		return fmt.Errorf("cache: upsert daily goal %s: %w", g.Date, err)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Clients returns every cached client ordered by name.
func (s *Store) Clients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("cache: query clients: %w", err)
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var (
			c       model.Client
			created string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &created); err != nil {
			return nil, fmt.Errorf("cache: scan client: %w", err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Tasks returns cached tasks matching the filter ordered by id.
func (s *Store) Tasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	clauses, args := taskClauses(f)

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.queryTasks(ctx, query, args...)
}

// taskClauses renders the filter's WHERE conditions, Limit excluded.
func taskClauses(f model.TaskFilter) (clauses []string, args []any) {
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.ClientID != nil {
		clauses = append(clauses, "client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.CompletedSince != nil {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, formatTime(*f.CompletedSince))
	}
	return clauses, args
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cache: query tasks: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Task returns one cached task or ErrNotFound.
func (s *Store) Task(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TaskCount returns the number of cached tasks.
func (s *Store) TaskCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count tasks: %w", err)
	}
	return n, nil
}

// Counts returns row counts for every cached table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM habits),
			(SELECT COUNT(*) FROM daily_goals)`,
	).Scan(&c.Clients, &c.Tasks, &c.Habits, &c.DailyGoals)
	if err != nil {
		return c, fmt.Errorf("cache: counts: %w", err)
	}
	return c, nil
}

// Habits returns every cached habit ordered by id.
func (s *Store) Habits(ctx context.Context) ([]model.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("cache: query habits: %w", err)
	}
	defer rows.Close()

	var out []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Habit returns one cached habit or ErrNotFound.
func (s *Store) Habit(ctx context.Context, id int64) (*model.Habit, error) {
	h, err := scanHabit(s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// DailyGoals returns up to limit cached goals, newest date first.
func (s *Store) DailyGoals(ctx context.Context, limit int) ([]model.DailyGoal, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM daily_goals ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("cache: query daily goals: %w", err)
	}
	defer rows.Close()

	var out []model.DailyGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DailyGoal returns the cached goal for date or ErrNotFound.
func (s *Store) DailyGoal(ctx context.Context, date string) (*model.DailyGoal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM daily_goals WHERE date = ?`, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("daily goal %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ─── Metadata ────────────────────────────────────────────────────────────────

// SetLastSync records the time of the last successful full sync.
func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastSync, formatTime(t),
	)
	if err != nil {
		return fmt.Errorf("cache: set last sync: %w", err)
	}
	return nil
}

// LastSync returns the last full sync time; ok is false when never synced.
func (s *Store) LastSync(ctx context.Context) (t time.Time, ok bool, err error) {
	var v string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM cache_metadata WHERE key = ?`, metaLastSync).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cache: read last sync: %w", err)
	}
	t, err = parseTime(v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ─── Row encoding ────────────────────────────────────────────────────────────

const insertClient = `INSERT OR REPLACE INTO clients (id, name, type, created_at) VALUES (?, ?, ?, ?)`

func clientArgs(c model.Client) []any {
	return []any{c.ID, c.Name, string(c.Type), formatTime(c.CreatedAt)}
}

const taskColumns = `id, client_id, title, description, status, category, value_tier,
	cognitive_load, effort_hours, drain_type, tags, points_final,
	created_at, updated_at, completed_at`

const insertTask = `INSERT OR REPLACE INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func taskArgs(t model.Task) ([]any, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	var completed any
	if t.CompletedAt != nil {
		completed = formatTime(*t.CompletedAt)
	}
	var clientID, points any
	if t.ClientID != nil {
		clientID = *t.ClientID
	}
	if t.PointsFinal != nil {
		points = *t.PointsFinal
	}
	return []any{
		t.ID, clientID, t.Title, t.Description, string(t.Status), string(t.Category), string(t.ValueTier),
		string(t.Load()), t.EffortHours, t.DrainType, string(encoded), points,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), completed,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t                 model.Task
		clientID, points  sql.NullInt64
		tags              string
		created, updated  string
		completed         sql.NullString
		status, cat, tier string
		load              string
	)
	err := row.Scan(&t.ID, &clientID, &t.Title, &t.Description, &status, &cat, &tier,
		&load, &t.EffortHours, &t.DrainType, &tags, &points, &created, &updated, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("cache: scan task: %w", err)
	}

	t.Status = model.Status(status)
	t.Category = model.Category(cat)
	t.ValueTier = model.ValueTier(tier)
	t.CognitiveLoad = model.Level(load)
	if clientID.Valid {
		t.ClientID = &clientID.Int64
	}
	if points.Valid {
		v := int(points.Int64)
		t.PointsFinal = &v
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return t, fmt.Errorf("cache: task %d tags: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return t, err
	}
	if completed.Valid {
		ts, err := parseTime(completed.String)
		if err != nil {
			return t, err
		}
		t.CompletedAt = &ts
	}
	t.Normalize()
	return t, nil
}

const habitColumns = `id, name, frequency, current_streak, longest_streak, last_completed, created_at`

const insertHabit = `INSERT OR REPLACE INTO habits (` + habitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func habitArgs(h model.Habit) []any {
	var last any
	if h.LastCompleted != nil {
		last = *h.LastCompleted
	}
	return []any{h.ID, h.Name, string(h.Frequency), h.CurrentStreak, h.LongestStreak, last, formatTime(h.CreatedAt)}
}

func scanHabit(row rowScanner) (model.Habit, error) {
	var (
		h       model.Habit
		freq    string
		last    sql.NullString
		created string
	)
	if err := row.Scan(&h.ID, &h.Name, &freq, &h.CurrentStreak, &h.LongestStreak, &last, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("cache: scan habit: %w", err)
	}
	h.Frequency = model.Frequency(freq)
	if last.Valid {
		h.LastCompleted = &last.String
	}
	var err error
	h.CreatedAt, err = parseTime(created)
	return h, err
}

const goalColumns = `id, date, base_target, adjusted_target, readiness_score,
	energy_level, reason, created_at, updated_at`

const insertGoal = `INSERT OR REPLACE INTO daily_goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func goalArgs(g model.DailyGoal) []any {
	var readiness any
	if g.ReadinessScore != nil {
		readiness = *g.ReadinessScore
	}
	return []any{
		g.ID, g.Date, g.BaseTarget, g.AdjustedTarget, readiness,
		string(g.EnergyLevel), g.Reason, formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	}
}

func scanGoal(row rowScanner) (model.DailyGoal, error) {
	var (
		g                model.DailyGoal
		readiness        sql.NullInt64
		level            string
		created, updated string
	)
	err := row.Scan(&g.ID, &g.Date, &g.BaseTarget, &g.AdjustedTarget, &readiness,
		&level, &g.Reason, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("cache: scan daily goal: %w", err)
	}
	g.EnergyLevel = model.Level(level)
	if readiness.Valid {
		v := int(readiness.Int64)
		g.ReadinessScore = &v
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return g, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return g, err
	}
	return g, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cache: parse timestamp %q: %w", s, err)
	}
	return t, nil
}
