package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// pointsByTier is the fixed completion-points table.
var pointsByTier = map[ValueTier]int{
	TierCheckbox:    1,
	TierProgress:    2,
	TierDeliverable: 4,
	TierMilestone:   7,
}

// PointsForTier returns the completion points for a value tier. Unknown
// tiers are worth a checkbox.
func PointsForTier(tier ValueTier) int {
	if p, ok := pointsByTier[tier]; ok {
		return p
	}
	return pointsByTier[TierCheckbox]
}

// Task is a unit of work.
type Task struct {
	ID            int64      `json:"id"`
	ClientID      *int64     `json:"client_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        Status     `json:"status"`
	Category      Category   `json:"category"`
	ValueTier     ValueTier  `json:"value_tier"`
	CognitiveLoad Level      `json:"cognitive_load"`
	EffortHours   int        `json:"effort_hours"`
	DrainType     string     `json:"drain_type,omitempty"`
	Tags          []string   `json:"tags"`
	PointsFinal   *int       `json:"points_final,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Normalize fills defaults for fields left empty by the caller.
func (t *Task) Normalize() {
	if t.Status == "" {
		t.Status = StatusBacklog
	}
	if t.Category == "" {
		t.Category = CategoryWork
	}
	if t.ValueTier == "" {
		t.ValueTier = TierCheckbox
	}
	if t.CognitiveLoad == "" {
		t.CognitiveLoad = LevelMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// Load returns the task's cognitive load, medium when absent.
func (t Task) Load() Level {
	if t.CognitiveLoad == "" {
		return LevelMedium
	}
	return t.CognitiveLoad
}

// IsDone reports whether the task has been completed.
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// Complete marks the task done at now. PointsFinal is derived from the value
// tier only when no operator override exists; an existing value is kept.
func (t *Task) Complete(now time.Time) error {
	if t.IsDone() {
		return fmt.Errorf("task %d: %w", t.ID, ErrAlreadyCompleted)
	}
	t.Status = StatusDone
	t.CompletedAt = &now
	t.UpdatedAt = now
	if t.PointsFinal == nil {
		p := PointsForTier(t.ValueTier)
		t.PointsFinal = &p
	}
	return nil
}

// SetStatus changes the task status. Leaving done is refused so the
// points credited at completion stay fixed.
func (t *Task) SetStatus(s Status) error {
	if t.IsDone() && s != StatusDone {
		return fmt.Errorf("task %d: %w", t.ID, ErrReopen)
	}
	t.Status = s
	return nil
}

// SetPointsOverride records an operator-supplied points value. Only allowed
// before completion.
func (t *Task) SetPointsOverride(points int) error {
	if t.IsDone() || t.CompletedAt != nil {
		return fmt.Errorf("task %d: %w", t.ID, ErrPointsLocked)
	}
	if points < 0 {
		return fmt.Errorf("%w: points must be >= 0, got %d", ErrInvalidValue, points)
	}
	t.PointsFinal = &points
	return nil
}

// Points returns the points credited for the task, zero until completed.
func (t Task) Points() int {
	if !t.IsDone() || t.PointsFinal == nil {
		return 0
	}
	return *t.PointsFinal
}

// MatchesQuery reports whether every word of query appears as a whole word,
// case-insensitively, in the title, description or tags. An empty query
// matches everything. Words are split the way the cache's full-text index
// tokenizes them.
func (t Task) MatchesQuery(query string) bool {
	want := searchWords(query)
	if len(want) == 0 {
		return true
	}

	have := make(map[string]bool)
	for _, w := range searchWords(t.Title + " " + t.Description + " " + strings.Join(t.Tags, " ")) {
		have[w] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}

func searchWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TaskFilter narrows task queries. The zero value matches every task.
// Both stores implement identical semantics for each field.
type TaskFilter struct {
	Statuses       []Status   `json:"statuses,omitempty"`
	Category       Category   `json:"category,omitempty"`
	ClientID       *int64     `json:"client_id,omitempty"`
	CompletedSince *time.Time `json:"completed_since,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// Matches reports whether t satisfies the filter (Limit is not considered).
func (f TaskFilter) Matches(t Task) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if t.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.ClientID != nil && (t.ClientID == nil || *t.ClientID != *f.ClientID) {
		return false
	}
	if f.CompletedSince != nil && (t.CompletedAt == nil || t.CompletedAt.Before(*f.CompletedSince)) {
		return false
	}
	return true
}

// OpenStatuses are the statuses of tasks that still need doing.
func OpenStatuses() []Status {
	return []Status{StatusBacklog, StatusQueued, StatusActive}
}
