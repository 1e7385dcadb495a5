package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/HendryAvila/tempo/internal/model"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// DefaultConfig returns conservative defaults for a single-user service.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    5,
		QueryTimeout:    10 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// Postgres implements Accessor on PostgreSQL. Every call runs through a
// circuit breaker so a dead database fails fast instead of stalling each
// tool call for the full query timeout.
type Postgres struct {
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger

	// schemaReady is set once EnsureSchema has succeeded. Until then each
	// call retries it first.
	schemaReady atomic.Bool
}

var _ Accessor = (*Postgres)(nil)

// Open prepares the connection pool and pings the database. An unreachable
// database is logged, not returned: the pool connects lazily, so calls
// report ErrUnavailable until the database comes back.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Postgres, error) {
	if cfg.URL == "" {
		return nil, errors.New("remote: database url is empty (set TEMPO_DATABASE_URL)")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("remote: open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	p := NewPostgres(db, cfg, logger)
	if err := p.Ping(ctx); err != nil {
		logger.Warn("remote store unreachable; continuing without it", "error", err)
	}
	return p, nil
}

// NewPostgres wraps an existing *sql.DB.
func NewPostgres(db *sql.DB, cfg Config, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaults.BreakerCooldown
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Missing rows and constraint violations are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("remote circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Postgres{db: db, breaker: breaker, timeout: cfg.QueryTimeout, logger: logger}
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// do runs fn through the breaker with the per-query timeout applied. The
// schema is ensured first if that has not succeeded yet.
func (p *Postgres) do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		if !p.schemaReady.Load() {
			if err := p.EnsureSchema(qctx); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return nil, fn(qctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.do(ctx, func(ctx context.Context) error {
		if err := p.db.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
		}
		return nil
	})
}

// ─── Clients ─────────────────────────────────────────────────────────────────

const clientColumns = `id, name, type, created_at`

// ListClients returns every client ordered by name.
func (p *Postgres) ListClients(ctx context.Context) ([]model.Client, error) {
	var out []model.Client
	err := p.do(ctx, func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
		if err != nil {
			return fmt.Errorf("list clients: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c model.Client
			if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
				return fmt.Errorf("scan client: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

// GetClient returns one client or ErrNotFound.
func (p *Postgres) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	var c model.Client
	err := p.do(ctx, func(ctx context.Context) error {
		err := p.db.QueryRowContext(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt)
		return notFound(err, "client", id)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client. Names are unique ignoring case; a duplicate
// yields ErrConflict.
func (p *Postgres) CreateClient(ctx context.Context, c model.Client) (model.Client, error) {
	if c.Type == "" {
		c.Type = model.ClientTypeClient
	}
	err := p.do(ctx, func(ctx context.Context) error {
		err := p.db.QueryRowContext(ctx,
			`INSERT INTO clients (name, type) VALUES ($1, $2) RETURNING id, created_at`,
			c.Name, c.Type,
		).Scan(&c.ID, &c.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("client %q: %w", c.Name, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert client: %w", err)
		}
		return nil
	})
	return c, err
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

const taskColumns = `id, client_id, title, description, status, category, value_tier,
	cognitive_load, effort_hours, drain_type, tags, points_final,
	created_at, updated_at, completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var (
		t         model.Task
		clientID  sql.NullInt64
		points    sql.NullInt64
		completed sql.NullTime
		tags      []string
	)
	err := row.Scan(
		&t.ID, &clientID, &t.Title, &t.Description, &t.Status, &t.Category, &t.ValueTier,
		&t.CognitiveLoad, &t.EffortHours, &t.DrainType, pq.Array(&tags), &points,
		&t.CreatedAt, &t.UpdatedAt, &completed,
	)
	if err != nil {
		return t, err
	}
	if clientID.Valid {
		t.ClientID = &clientID.Int64
	}
	if points.Valid {
		v := int(points.Int64)
		t.PointsFinal = &v
	}
	if completed.Valid {
		ts := completed.Time
		t.CompletedAt = &ts
	}
	t.Tags = tags
	t.Normalize()
	return t, nil
}

// taskWhere renders a TaskFilter as a Postgres WHERE clause.
func taskWhere(f model.TaskFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		clauses = append(clauses, "status = ANY("+next(pq.Array(statuses))+")")
	}
	if f.Category != "" {
		clauses = append(clauses, "category = "+next(string(f.Category)))
	}
	if f.ClientID != nil {
		clauses = append(clauses, "client_id = "+next(*f.ClientID))
	}
	if f.CompletedSince != nil {
		clauses = append(clauses, "completed_at >= "+next(*f.CompletedSince))
	}

	query := ""
	if len(clauses) > 0 {
		query = " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT " + next(f.Limit)
	}
	return query, args
}

// ListTasks returns tasks matching the filter ordered by id.
func (p *Postgres) ListTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	var out []model.Task
	where, args := taskWhere(f)
	err := p.do(ctx, func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks`+where, args...)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("scan task: %w", err)
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	return out, err
}

// GetTask returns one task or ErrNotFound.
func (p *Postgres) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	err := p.do(ctx, func(ctx context.Context) error {
		var err error
		t, err = scanTask(p.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return notFound(err, "task", id)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a task and returns it with server-assigned fields.
func (p *Postgres) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t.Normalize()
	err := p.do(ctx, func(ctx context.Context) error {
		created, err := insertTask(ctx, p.db, t)
		if err != nil {
			return err
		}
		t = created
		return nil
	})
	return t, err
}

// rowQueryer is satisfied by *sql.DB and *sql.Tx.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTask(ctx context.Context, q rowQueryer, t model.Task) (model.Task, error) {
	created, err := scanTask(q.QueryRowContext(ctx, `
		INSERT INTO tasks (client_id, title, description, status, category, value_tier,
			cognitive_load, effort_hours, drain_type, tags, points_final, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+taskColumns,
		t.ClientID, t.Title, t.Description, t.Status, t.Category, t.ValueTier,
		t.CognitiveLoad, t.EffortHours, t.DrainType, pq.Array(t.Tags), t.PointsFinal, t.CompletedAt,
	))
	if err != nil {
		return created, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// UpdateTask overwrites every mutable column of an existing task.
func (p *Postgres) UpdateTask(ctx context.Context, t model.Task) error {
	t.Normalize()
	return p.do(ctx, func(ctx context.Context) error {
		res, err := p.db.ExecContext(ctx, `
			UPDATE tasks SET client_id = $2, title = $3, description = $4, status = $5,
				category = $6, value_tier = $7, cognitive_load = $8, effort_hours = $9,
				drain_type = $10, tags = $11, points_final = $12, completed_at = $13,
				updated_at = now()
			WHERE id = $1`,
			t.ID, t.ClientID, t.Title, t.Description, t.Status,
			t.Category, t.ValueTier, t.CognitiveLoad, t.EffortHours,
			t.DrainType, pq.Array(t.Tags), t.PointsFinal, t.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("update task %d: %w", t.ID, err)
		}
		return affected(res, "task", t.ID)
	})
}

// DeleteTask removes a task.
func (p *Postgres) DeleteTask(ctx context.Context, id int64) error {
	return p.do(ctx, func(ctx context.Context) error {
		res, err := p.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		return affected(res, "task", id)
	})
}

// ─── Habits ──────────────────────────────────────────────────────────────────

const habitColumns = `id, name, frequency, current_streak, longest_streak, last_completed::text, created_at`

func scanHabit(row scanner) (model.Habit, error) {
	var (
		h    model.Habit
		last sql.NullString
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Frequency, &h.CurrentStreak, &h.LongestStreak, &last, &h.CreatedAt); err != nil {
		return h, err
	}
	if last.Valid {
		h.LastCompleted = &last.String
	}
	return h, nil
}

// ListHabits returns every habit ordered by id.
func (p *Postgres) ListHabits(ctx context.Context) ([]model.Habit, error) {
	var out []model.Habit
	err := p.do(ctx, func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY id`)
		if err != nil {
			return fmt.Errorf("list habits: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			h, err := scanHabit(rows)
			if err != nil {
				return fmt.Errorf("scan habit: %w", err)
			}
			out = append(out, h)
		}
		return rows.Err()
	})
	return out, err
}

// GetHabit returns one habit or ErrNotFound.
func (p *Postgres) GetHabit(ctx context.Context, id int64) (*model.Habit, error) {
	var h model.Habit
	err := p.do(ctx, func(ctx context.Context) error {
		var err error
		h, err = scanHabit(p.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id))
		return notFound(err, "habit", id)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHabit inserts a habit with empty streaks.
func (p *Postgres) CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
	err := p.do(ctx, func(ctx context.Context) error {
		created, err := scanHabit(p.db.QueryRowContext(ctx,
			`INSERT INTO habits (name, frequency) VALUES ($1, $2) RETURNING `+habitColumns,
			h.Name, h.Frequency,
		))
		if err != nil {
			return fmt.Errorf("insert habit: %w", err)
		}
		h = created
		return nil
	})
	return h, err
}

// UpdateHabit persists streak counters and the last completion date.
func (p *Postgres) UpdateHabit(ctx context.Context, h model.Habit) error {
	return p.do(ctx, func(ctx context.Context) error {
		res, err := p.db.ExecContext(ctx, `
			UPDATE habits SET name = $2, frequency = $3, current_streak = $4,
				longest_streak = $5, last_completed = $6::date
			WHERE id = $1`,
			h.ID, h.Name, h.Frequency, h.CurrentStreak, h.LongestStreak, h.LastCompleted,
		)
		if err != nil {
			return fmt.Errorf("update habit %d: %w", h.ID, err)
		}
		return affected(res, "habit", h.ID)
	})
}

// ─── Daily goals ─────────────────────────────────────────────────────────────

const goalColumns = `id, date::text, base_target, adjusted_target, readiness_score,
	energy_level, reason, created_at, updated_at`

func scanGoal(row scanner) (model.DailyGoal, error) {
	var (
		g         model.DailyGoal
		readiness sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.Date, &g.BaseTarget, &g.AdjustedTarget, &readiness,
		&g.EnergyLevel, &g.Reason, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return g, err
	}
	if readiness.Valid {
		v := int(readiness.Int64)
		g.ReadinessScore = &v
	}
	return g, nil
}

// RecentDailyGoals returns up to limit goals, newest first.
func (p *Postgres) RecentDailyGoals(ctx context.Context, limit int) ([]model.DailyGoal, error) {
	if limit <= 0 {
		limit = 30
	}
	var out []model.DailyGoal
	err := p.do(ctx, func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx,
			`SELECT `+goalColumns+` FROM daily_goals ORDER BY date DESC LIMIT $1`, limit)
		if err != nil {
			return fmt.Errorf("list daily goals: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			g, err := scanGoal(rows)
			if err != nil {
				return fmt.Errorf("scan daily goal: %w", err)
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	return out, err
}

// GetDailyGoal returns the goal for a date or ErrNotFound.
func (p *Postgres) GetDailyGoal(ctx context.Context, date string) (*model.DailyGoal, error) {
	var g model.DailyGoal
	err := p.do(ctx, func(ctx context.Context) error {
		var err error
		g, err = scanGoal(p.db.QueryRowContext(ctx,
			`SELECT `+goalColumns+` FROM daily_goals WHERE date = $1::date`, date))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("daily goal %s: %w", date, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertDailyGoal writes the goal for g.Date, replacing any existing row.
func (p *Postgres) UpsertDailyGoal(ctx context.Context, g model.DailyGoal) (model.DailyGoal, error) {
	err := p.do(ctx, func(ctx context.Context) error {
		saved, err := scanGoal(p.db.QueryRowContext(ctx, `
			INSERT INTO daily_goals (date, base_target, adjusted_target, readiness_score, energy_level, reason)
			VALUES ($1::date, $2, $3, $4, $5, $6)
			ON CONFLICT (date) DO UPDATE SET
				base_target = EXCLUDED.base_target,
				adjusted_target = EXCLUDED.adjusted_target,
				readiness_score = EXCLUDED.readiness_score,
				energy_level = EXCLUDED.energy_level,
				reason = EXCLUDED.reason,
				updated_at = now()
			RETURNING `+goalColumns,
			g.Date, g.BaseTarget, g.AdjustedTarget, g.ReadinessScore, g.EnergyLevel, g.Reason,
		))
		if err != nil {
			return fmt.Errorf("upsert daily goal %s: %w", g.Date, err)
		}
		g = saved
		return nil
	})
	return g, err
}

// ─── Brain dumps ─────────────────────────────────────────────────────────────

const dumpColumns = `id, content, tags, processed, task_id, created_at`

func scanDump(row scanner) (model.BrainDump, error) {
	var (
		d      model.BrainDump
		taskID sql.NullInt64
		tags   []string
	)
	if err := row.Scan(&d.ID, &d.Content, pq.Array(&tags), &d.Processed, &taskID, &d.CreatedAt); err != nil {
		return d, err
	}
	if taskID.Valid {
		d.TaskID = &taskID.Int64
	}
	if tags == nil {
		tags = []string{}
	}
	d.Tags = tags
	return d, nil
}

// CreateBrainDump stores a new unprocessed capture.
func (p *Postgres) CreateBrainDump(ctx context.Context, d model.BrainDump) (model.BrainDump, error) {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	err := p.do(ctx, func(ctx context.Context) error {
		created, err := scanDump(p.db.QueryRowContext(ctx,
			`INSERT INTO brain_dumps (content, tags) VALUES ($1, $2) RETURNING `+dumpColumns,
			d.Content, pq.Array(d.Tags),
		))
		if err != nil {
			return fmt.Errorf("insert brain dump: %w", err)
		}
		d = created
		return nil
	})
	return d, err
}

// ListBrainDumps returns captures newest first.
func (p *Postgres) ListBrainDumps(ctx context.Context, includeProcessed bool, limit int) ([]model.BrainDump, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + dumpColumns + ` FROM brain_dumps`
	if !includeProcessed {
		query += ` WHERE NOT processed`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1`

	var out []model.BrainDump
	err := p.do(ctx, func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("list brain dumps: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDump(rows)
			if err != nil {
				return fmt.Errorf("scan brain dump: %w", err)
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	return out, err
}

// GetBrainDump returns one capture or ErrNotFound.
func (p *Postgres) GetBrainDump(ctx context.Context, id int64) (*model.BrainDump, error) {
	var d model.BrainDump
	err := p.do(ctx, func(ctx context.Context) error {
		var err error
		d, err = scanDump(p.db.QueryRowContext(ctx, `SELECT `+dumpColumns+` FROM brain_dumps WHERE id = $1`, id))
		return notFound(err, "brain dump", id)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ProcessBrainDump creates t and links dump id to it in one transaction.
// The dump row is locked first, so two concurrent calls cannot both create
// a task.
func (p *Postgres) ProcessBrainDump(ctx context.Context, id int64, t model.Task) (model.Task, error) {
	t.Normalize()
	err := p.do(ctx, func(ctx context.Context) error {
		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin process brain dump %d: %w", id, err)
		}
		defer func() { _ = tx.Rollback() }()

		var processed bool
		err = tx.QueryRowContext(ctx,
			`SELECT processed FROM brain_dumps WHERE id = $1 FOR UPDATE`, id).Scan(&processed)
		if err := notFound(err, "brain dump", id); err != nil {
			return err
		}
		if processed {
			return fmt.Errorf("brain dump %d is already processed: %w", id, ErrConflict)
		}

		created, err := insertTask(ctx, tx, t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE brain_dumps SET processed = TRUE, task_id = $2 WHERE id = $1`, id, created.ID); err != nil {
			return fmt.Errorf("mark brain dump %d processed: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit process brain dump %d: %w", id, err)
		}
		t = created
		return nil
	})
	return t, err
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func notFound(err error, kind string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return nil
}

func affected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

// isUniqueViolation checks for PostgreSQL error 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
