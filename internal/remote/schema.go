package remote

import (
	"context"
	"fmt"
)

// schema creates the remote tables. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		type       TEXT NOT NULL DEFAULT 'client',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_name_lower ON clients (lower(name))`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id             BIGSERIAL PRIMARY KEY,
		client_id      BIGINT REFERENCES clients(id) ON DELETE SET NULL,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'backlog',
		category       TEXT NOT NULL DEFAULT 'work',
		value_tier     TEXT NOT NULL DEFAULT 'checkbox',
		cognitive_load TEXT NOT NULL DEFAULT 'medium',
		effort_hours   INTEGER NOT NULL DEFAULT 0,
		drain_type     TEXT NOT NULL DEFAULT '',
		tags           TEXT[] NOT NULL DEFAULT '{}',
		points_final   INTEGER,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_completed_at ON tasks(completed_at)`,
	`CREATE TABLE IF NOT EXISTS habits (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		frequency      TEXT NOT NULL DEFAULT 'daily',
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_completed DATE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS daily_goals (
		id              BIGSERIAL PRIMARY KEY,
		date            DATE NOT NULL UNIQUE,
		base_target     INTEGER NOT NULL,
		adjusted_target INTEGER NOT NULL,
		readiness_score INTEGER,
		energy_level    TEXT NOT NULL DEFAULT '',
		reason          TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS brain_dumps (
		id         BIGSERIAL PRIMARY KEY,
		content    TEXT NOT NULL,
		tags       TEXT[] NOT NULL DEFAULT '{}',
		processed  BOOLEAN NOT NULL DEFAULT FALSE,
		task_id    BIGINT REFERENCES tasks(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the remote tables and indexes if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("remote: ensure schema: %w", err)
		}
	}
	p.schemaReady.Store(true)
	return nil
}
