// Package model defines the shared records served by Tempo: tasks, clients,
// habits, daily goals and brain dumps.
//
// The types here carry no storage concerns. Both the remote accessor
// (PostgreSQL) and the local cache (SQLite) translate to and from them, so
// every field must survive a round-trip through either store.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format (DailyGoal.Date,
// Habit.LastCompleted).
const DateLayout = "2006-01-02"

// Sentinel errors returned by model operations.
var (
	ErrAlreadyCompleted = errors.New("task is already completed")
	ErrPointsLocked     = errors.New("points are locked once a task is completed")
	ErrReopen           = errors.New("a completed task cannot be reopened")
	ErrInvalidValue     = errors.New("invalid value")
)

// ─── Enums ───────────────────────────────────────────────────────────────────

// Status is a task's position in the workflow.
type Status string

const (
	StatusBacklog Status = "backlog"
	StatusQueued  Status = "queued"
	StatusActive  Status = "active"
	StatusDone    Status = "done"
)

// Category separates work tasks from personal ones.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
)

// ValueTier is the output significance of a task. It decides completion points.
type ValueTier string

const (
	TierCheckbox    ValueTier = "checkbox"
	TierProgress    ValueTier = "progress"
	TierDeliverable ValueTier = "deliverable"
	TierMilestone   ValueTier = "milestone"
)

// Level is a low/medium/high scale. It is used both for a task's cognitive
// load and for the caller's energy level.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank orders levels: low=0, medium=1, high=2. Unknown levels rank as medium.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelHigh:
		return 2
	default:
		return 1
	}
}

// ClientType distinguishes paying clients from internal work buckets.
type ClientType string

const (
	ClientTypeClient   ClientType = "client"
	ClientTypeInternal ClientType = "internal"
)

// Frequency is how often a habit is expected to be completed.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyWeekdays Frequency = "weekdays"
)

// ParseStatus validates a task status string.
func ParseStatus(s string) (Status, error) {
	v := Status(normalize(s))
	switch v {
	case StatusBacklog, StatusQueued, StatusActive, StatusDone:
		return v, nil
	}
	return "", fmt.Errorf("%w: status %q (valid: backlog, queued, active, done)", ErrInvalidValue, s)
}

// ParseCategory validates a task category string.
func ParseCategory(s string) (Category, error) {
	v := Category(normalize(s))
	switch v {
	case CategoryWork, CategoryPersonal:
		return v, nil
	}
	return "", fmt.Errorf("%w: category %q (valid: work, personal)", ErrInvalidValue, s)
}

// ParseValueTier validates a value tier string.
func ParseValueTier(s string) (ValueTier, error) {
	v := ValueTier(normalize(s))
	switch v {
	case TierCheckbox, TierProgress, TierDeliverable, TierMilestone:
		return v, nil
	}
	return "", fmt.Errorf("%w: value tier %q (valid: checkbox, progress, deliverable, milestone)", ErrInvalidValue, s)
}

// ParseLevel validates a low/medium/high string.
func ParseLevel(s string) (Level, error) {
	v := Level(normalize(s))
	switch v {
	case LevelLow, LevelMedium, LevelHigh:
		return v, nil
	}
	return "", fmt.Errorf("%w: level %q (valid: low, medium, high)", ErrInvalidValue, s)
}

// ParseClientType validates a client type string.
func ParseClientType(s string) (ClientType, error) {
	v := ClientType(normalize(s))
	switch v {
	case ClientTypeClient, ClientTypeInternal:
		return v, nil
	}
	return "", fmt.Errorf("%w: client type %q (valid: client, internal)", ErrInvalidValue, s)
}

// ParseFrequency validates a habit frequency string.
func ParseFrequency(s string) (Frequency, error) {
	v := Frequency(normalize(s))
	switch v {
	case FrequencyDaily, FrequencyWeekly, FrequencyWeekdays:
		return v, nil
	}
	return "", fmt.Errorf("%w: frequency %q (valid: daily, weekly, weekdays)", ErrInvalidValue, s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ─── Records ─────────────────────────────────────────────────────────────────

// Client is a person or organization tasks are done for.
type Client struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Type      ClientType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsInternal reports whether the client is an internal bucket. Internal
// clients never count toward "clients touched".
func (c Client) IsInternal() bool {
	return c.Type == ClientTypeInternal
}

// Habit is a recurring behavior with streak tracking.
type Habit struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Frequency     Frequency `json:"frequency"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastCompleted *string   `json:"last_completed,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DailyGoal is the points target for one calendar date.
type DailyGoal struct {
	ID             int64     `json:"id"`
	Date           string    `json:"date"`
	BaseTarget     int       `json:"base_target"`
	AdjustedTarget int       `json:"adjusted_target"`
	ReadinessScore *int      `json:"readiness_score,omitempty"`
	EnergyLevel    Level     `json:"energy_level,omitempty"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Target returns the effective target: the adjusted one when set.
func (g DailyGoal) Target() int {
	if g.AdjustedTarget > 0 {
		return g.AdjustedTarget
	}
	return g.BaseTarget
}

// BrainDump is an unstructured capture waiting to be turned into a task.
type BrainDump struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Processed bool      `json:"processed"`
	TaskID    *int64    `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FormatDate renders t as a calendar date in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ClientsTouched counts distinct non-internal clients among completed tasks.
// Tasks without a client, or whose client is unknown, are ignored.
func ClientsTouched(tasks []Task, clients []Client) int {
	byID := make(map[int64]Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	seen := make(map[int64]struct{})
	for _, t := range tasks {
		if t.Status != StatusDone || t.ClientID == nil {
			continue
		}
		c, ok := byID[*t.ClientID]
		if !ok || c.IsInternal() {
			continue
		}
		seen[c.ID] = struct{}{}
	}
	return len(seen)
}
