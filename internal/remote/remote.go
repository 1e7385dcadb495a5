// Package remote is the thin accessor for the system of record: a
// PostgreSQL database holding clients, tasks, habits, daily goals and brain
// dumps.
//
// Tasks, clients and habits are created and mutated only through an
// Accessor. The local cache mirrors what this package returns; it never
// writes back.
package remote

import (
	"context"
	"errors"

	"github.com/HendryAvila/tempo/internal/model"
)

// Sentinel errors. Implementations wrap them so callers can use errors.Is.
var (
	// ErrNotFound reports that the requested record does not exist remotely.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable reports that the remote store cannot be reached or the
	// circuit breaker is open.
	ErrUnavailable = errors.New("remote store unavailable")
	// ErrConflict reports a uniqueness violation (e.g. duplicate client name).
	ErrConflict = errors.New("record already exists")
)

// Accessor is the query/write interface to the remote relational store.
type Accessor interface {
	Ping(ctx context.Context) error

	ListClients(ctx context.Context) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)

	ListTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, id int64) error

	ListHabits(ctx context.Context) ([]model.Habit, error)
	GetHabit(ctx context.Context, id int64) (*model.Habit, error)
	CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error)
	UpdateHabit(ctx context.Context, h model.Habit) error

	// RecentDailyGoals returns up to limit goals, newest date first.
	RecentDailyGoals(ctx context.Context, limit int) ([]model.DailyGoal, error)
	GetDailyGoal(ctx context.Context, date string) (*model.DailyGoal, error)
	// UpsertDailyGoal inserts or replaces the goal for g.Date.
	UpsertDailyGoal(ctx context.Context, g model.DailyGoal) (model.DailyGoal, error)

	CreateBrainDump(ctx context.Context, d model.BrainDump) (model.BrainDump, error)
	ListBrainDumps(ctx context.Context, includeProcessed bool, limit int) ([]model.BrainDump, error)
	GetBrainDump(ctx context.Context, id int64) (*model.BrainDump, error)
	// ProcessBrainDump creates t and marks dump id processed with a link to
	// it, atomically. An already-processed dump yields ErrConflict.
	ProcessBrainDump(ctx context.Context, id int64, t model.Task) (model.Task, error)
}
