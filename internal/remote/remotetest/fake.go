// Package remotetest provides an in-memory remote.Accessor for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
)

// Fake is a goroutine-safe in-memory Accessor. Setting Down makes every call
// fail with remote.ErrUnavailable.
type Fake struct {
	mu sync.Mutex

	Down bool
	// Calls counts accessor invocations by method name.
	Calls map[string]int

	failures map[string]error

	nextID  int64
	clients map[int64]model.Client
	tasks   map[int64]model.Task
	habits  map[int64]model.Habit
	goals   map[string]model.DailyGoal
	dumps   map[int64]model.BrainDump
	now     func() time.Time
}

var _ remote.Accessor = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Calls:    make(map[string]int),
		failures: make(map[string]error),
		clients:  make(map[int64]model.Client),
		tasks:    make(map[int64]model.Task),
		habits:   make(map[int64]model.Habit),
		goals:    make(map[string]model.DailyGoal),
		dumps:    make(map[int64]model.BrainDump),
		now:      time.Now,
	}
}

// SetDown toggles the unavailable state.
func (f *Fake) SetDown(down bool) {
	f.mu.Lock()
	f.Down = down
	f.mu.Unlock()
}

// CallCount returns how many times method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

// FailNext makes the next call to method return err without side effects.
func (f *Fake) FailNext(method string, err error) {
	f.mu.Lock()
	f.failures[method] = err
	f.mu.Unlock()
}

// enter must be called with f.mu held.
func (f *Fake) enter(method string) error {
	f.Calls[method]++
	if f.Down {
		return fmt.Errorf("%s: %w", method, remote.ErrUnavailable)
	}
	if err, ok := f.failures[method]; ok {
		delete(f.failures, method)
		return err
	}
	return nil
}

func (f *Fake) id() int64 {
	f.nextID++
	return f.nextID
}

// ─── Seeding ─────────────────────────────────────────────────────────────────

// SeedClient stores c as-is, assigning an id when zero.
func (f *Fake) SeedClient(c model.Client) model.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		c.ID = f.id()
	} else if c.ID > f.nextID {
		f.nextID = c.ID
	}
	f.clients[c.ID] = c
	return c
}

// SeedTask stores t as-is, assigning an id when zero.
func (f *Fake) SeedTask(t model.Task) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.Normalize()
	if t.ID == 0 {
		t.ID = f.id()
	} else if t.ID > f.nextID {
		f.nextID = t.ID
	}
	f.tasks[t.ID] = t
	return t
}

// SeedHabit stores h as-is, assigning an id when zero.
func (f *Fake) SeedHabit(h model.Habit) model.Habit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.ID == 0 {
		h.ID = f.id()
	} else if h.ID > f.nextID {
		f.nextID = h.ID
	}
	f.habits[h.ID] = h
	return h
}

// SeedDailyGoal stores g keyed by date.
func (f *Fake) SeedDailyGoal(g model.DailyGoal) model.DailyGoal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == 0 {
		g.ID = f.id()
	}
	f.goals[g.Date] = g
	return g
}

// DeleteTaskDirect removes a task without counting a call, simulating a
// deletion made by another writer.
func (f *Fake) DeleteTaskDirect(id int64) {
	f.mu.Lock()
	delete(f.tasks, id)
	f.mu.Unlock()
}

// ─── Accessor ────────────────────────────────────────────────────────────────

func (f *Fake) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Ping")
}

func (f *Fake) ListClients(ctx context.Context) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListClients"); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Fake) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetClient"); err != nil {
		return nil, err
	}
	c, ok := f.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %d: %w", id, remote.ErrNotFound)
	}
	return &c, nil
}

func (f *Fake) CreateClient(ctx context.Context, c model.Client) (model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateClient"); err != nil {
		return c, err
	}
	for _, existing := range f.clients {
		if strings.EqualFold(existing.Name, c.Name) {
			return c, fmt.Errorf("client %q: %w", c.Name, remote.ErrConflict)
		}
	}
	if c.Type == "" {
		c.Type = model.ClientTypeClient
	}
	c.ID = f.id()
	c.CreatedAt = f.now().UTC()
	f.clients[c.ID] = c
	return c, nil
}

func (f *Fake) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListTasks"); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if filter.Matches(t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *Fake) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetTask"); err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, remote.ErrNotFound)
	}
	t = cloneTask(t)
	return &t, nil
}

func (f *Fake) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateTask"); err != nil {
		return t, err
	}
	t.Normalize()
	now := f.now().UTC()
	t.ID = f.id()
	t.CreatedAt, t.UpdatedAt = now, now
	f.tasks[t.ID] = cloneTask(t)
	return t, nil
}

func (f *Fake) UpdateTask(ctx context.Context, t model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateTask"); err != nil {
		return err
	}
	if _, ok := f.tasks[t.ID]; !ok {
		return fmt.Errorf("task %d: %w", t.ID, remote.ErrNotFound)
	}
	t.Normalize()
	t.UpdatedAt = f.now().UTC()
	f.tasks[t.ID] = cloneTask(t)
	return nil
}

func (f *Fake) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteTask"); err != nil {
		return err
	}
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, remote.ErrNotFound)
	}
	delete(f.tasks, id)
	return nil
}

func (f *Fake) ListHabits(ctx context.Context) ([]model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListHabits"); err != nil {
		return nil, err
	}
	out := make([]model.Habit, 0, len(f.habits))
	for _, h := range f.habits {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GetHabit(ctx context.Context, id int64) (*model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetHabit"); err != nil {
		return nil, err
	}
	h, ok := f.habits[id]
	if !ok {
		return nil, fmt.Errorf("habit %d: %w", id, remote.ErrNotFound)
	}
	return &h, nil
}

func (f *Fake) CreateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateHabit"); err != nil {
		return h, err
	}
	h.ID = f.id()
	h.CreatedAt = f.now().UTC()
	f.habits[h.ID] = h
	return h, nil
}

func (f *Fake) UpdateHabit(ctx context.Context, h model.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateHabit"); err != nil {
		return err
	}
	if _, ok := f.habits[h.ID]; !ok {
		return fmt.Errorf("habit %d: %w", h.ID, remote.ErrNotFound)
	}
	f.habits[h.ID] = h
	return nil
}

func (f *Fake) RecentDailyGoals(ctx context.Context, limit int) ([]model.DailyGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RecentDailyGoals"); err != nil {
		return nil, err
	}
	out := make([]model.DailyGoal, 0, len(f.goals))
	for _, g := range f.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) GetDailyGoal(ctx context.Context, date string) (*model.DailyGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetDailyGoal"); err != nil {
		return nil, err
	}
	g, ok := f.goals[date]
	if !ok {
		return nil, fmt.Errorf("daily goal %s: %w", date, remote.ErrNotFound)
	}
	return &g, nil
}

func (f *Fake) UpsertDailyGoal(ctx context.Context, g model.DailyGoal) (model.DailyGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertDailyGoal"); err != nil {
		return g, err
	}
	now := f.now().UTC()
	if existing, ok := f.goals[g.Date]; ok {
		g.ID = existing.ID
		g.CreatedAt = existing.CreatedAt
	} else {
		g.ID = f.id()
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	f.goals[g.Date] = g
	return g, nil
}

// GoalCount returns the number of stored daily goals.
func (f *Fake) GoalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.goals)
}

func (f *Fake) CreateBrainDump(ctx context.Context, d model.BrainDump) (model.BrainDump, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateBrainDump"); err != nil {
		return d, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.ID = f.id()
	d.CreatedAt = f.now().UTC()
	f.dumps[d.ID] = d
	return d, nil
}

func (f *Fake) ListBrainDumps(ctx context.Context, includeProcessed bool, limit int) ([]model.BrainDump, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListBrainDumps"); err != nil {
		return nil, err
	}
	out := make([]model.BrainDump, 0, len(f.dumps))
	for _, d := range f.dumps {
		if d.Processed && !includeProcessed {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) GetBrainDump(ctx context.Context, id int64) (*model.BrainDump, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetBrainDump"); err != nil {
		return nil, err
	}
	d, ok := f.dumps[id]
	if !ok {
		return nil, fmt.Errorf("brain dump %d: %w", id, remote.ErrNotFound)
	}
	return &d, nil
}

func (f *Fake) ProcessBrainDump(ctx context.Context, id int64, t model.Task) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ProcessBrainDump"); err != nil {
		return t, err
	}
	d, ok := f.dumps[id]
	if !ok {
		return t, fmt.Errorf("brain dump %d: %w", id, remote.ErrNotFound)
	}
	if d.Processed {
		return t, fmt.Errorf("brain dump %d is already processed: %w", id, remote.ErrConflict)
	}

	t.Normalize()
	now := f.now().UTC()
	t.ID = f.id()
	t.CreatedAt, t.UpdatedAt = now, now
	f.tasks[t.ID] = cloneTask(t)

	d.Processed = true
	d.TaskID = &t.ID
	f.dumps[id] = d
	return t, nil
}

func cloneTask(t model.Task) model.Task {
	if t.Tags != nil {
		t.Tags = append([]string{}, t.Tags...)
	}
	return t
}
