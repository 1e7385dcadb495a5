package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/model"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/remote/remotetest"
	"github.com/HendryAvila/tempo/internal/syncer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine returns an engine over a fresh fake remote and temp cache.
func newTestEngine(t *testing.T, cfg syncer.Config) (*syncer.Engine, *remotetest.Fake, *cache.Store) {
	t.Helper()
	store, err := cache.Open(cache.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("cache.Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fake := remotetest.New()
	e := syncer.New(fake, store, cfg, quietLogger())
	t.Cleanup(e.Stop)
	return e, fake, store
}

func seed(fake *remotetest.Fake) {
	acme := fake.SeedClient(model.Client{Name: "Acme", Type: model.ClientTypeClient})
	fake.SeedTask(model.Task{Title: "Write report", Status: model.StatusActive, ClientID: &acme.ID})
	fake.SeedTask(model.Task{Title: "File taxes", Category: model.CategoryPersonal})
	fake.SeedHabit(model.Habit{Name: "Walk", Frequency: model.FrequencyDaily})
	fake.SeedDailyGoal(model.DailyGoal{Date: "2026-03-02", BaseTarget: 18, AdjustedTarget: 18})
}

// ─── FullSync ────────────────────────────────────────────────────────────────

func TestFullSync_CopiesEveryTable(t *testing.T) {
	e, fake, store := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()

	res, err := e.FullSync(ctx)
	if err != nil {
		t.Fatalf("FullSync() error: %v", err)
	}
	if res.Clients != 1 || res.Tasks != 2 || res.Habits != 1 || res.DailyGoals != 1 {
		t.Errorf("result = %+v", res)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts != (cache.Counts{Clients: 1, Tasks: 2, Habits: 1, DailyGoals: 1}) {
		t.Errorf("cache counts = %+v", counts)
	}
	if _, ok, _ := store.LastSync(ctx); !ok {
		t.Error("last sync not recorded")
	}
	if !e.Ready() {
		t.Error("engine should be ready after a full sync")
	}
}

func TestFullSync_FailureKeepsPreviousCache(t *testing.T) {
	e, fake, store := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()

	if _, err := e.FullSync(ctx); err != nil {
		t.Fatal(err)
	}

	fake.SetDown(true)
	if _, err := e.FullSync(ctx); !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("FullSync() err = %v, want ErrUnavailable", err)
	}

	n, err := store.TaskCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("TaskCount = %d, want previous generation of 2", n)
	}
	if st := e.Status(ctx); st.LastError == "" || st.LastResult == nil {
		t.Errorf("status = %+v, want last error and previous result", st)
	}
}

func TestFullSync_ReadersSeeOneGeneration(t *testing.T) {
	e, fake, store := newTestEngine(t, syncer.Config{})
	ctx := context.Background()

	// Each generation has its own title and row count; sizes is read-only
	// once the readers start.
	const generations = 8
	sizes := make(map[string]int, generations)
	for g := 0; g < generations; g++ {
		sizes[fmt.Sprintf("gen %d", g)] = 5 + g*3
	}
	var ids []int64
	load := func(gen int) {
		for _, id := range ids {
			fake.DeleteTaskDirect(id)
		}
		ids = ids[:0]
		title := fmt.Sprintf("gen %d", gen)
		for i := 0; i < sizes[title]; i++ {
			ids = append(ids, fake.SeedTask(model.Task{Title: title}).ID)
		}
	}

	load(0)
	if _, err := e.FullSync(ctx); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tasks, err := store.Tasks(ctx, model.TaskFilter{})
				if err != nil {
					t.Errorf("Tasks() error: %v", err)
					return
				}
				if len(tasks) == 0 {
					t.Error("read an empty task table mid-sync")
					return
				}
				title := tasks[0].Title
				for _, tk := range tasks[1:] {
					if tk.Title != title {
						t.Errorf("read mixed generations %q and %q", title, tk.Title)
						return
					}
				}
				if len(tasks) != sizes[title] {
					t.Errorf("%s: read %d tasks, want %d", title, len(tasks), sizes[title])
					return
				}
			}
		}()
	}

	for g := 1; g < generations; g++ {
		load(g)
		if _, err := e.FullSync(ctx); err != nil {
			t.Errorf("FullSync() generation %d error: %v", g, err)
			break
		}
	}
	close(stop)
	wg.Wait()
}

// ─── Staleness ───────────────────────────────────────────────────────────────

func TestIsStale(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{StaleAfter: 5 * time.Minute})
	ctx := context.Background()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return now })

	if !e.IsStale(ctx) {
		t.Error("empty cache should be stale")
	}

	seed(fake)
	if _, err := e.FullSync(ctx); err != nil {
		t.Fatal(err)
	}
	if e.IsStale(ctx) {
		t.Error("fresh cache should not be stale")
	}

	now = now.Add(5*time.Minute + time.Second)
	if !e.IsStale(ctx) {
		t.Error("cache older than threshold should be stale")
	}
}

func TestIsStale_EmptyRemoteStaysStale(t *testing.T) {
	e, _, _ := newTestEngine(t, syncer.Config{})
	ctx := context.Background()

	if _, err := e.FullSync(ctx); err != nil {
		t.Fatal(err)
	}
	if !e.IsStale(ctx) {
		t.Error("cache with zero tasks is stale")
	}
}

// ─── EnsureCache ─────────────────────────────────────────────────────────────

func TestEnsureCache_OnlyFirstCallerSyncs(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.EnsureCache(ctx)
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Errorf("caller %d saw unusable cache", i)
		}
	}
	if n := fake.CallCount("ListTasks"); n != 1 {
		t.Errorf("ListTasks called %d times, want 1", n)
	}
}

func TestEnsureCache_FreshCacheSkipsSync(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.Open(cache.Config{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	fake := remotetest.New()
	seed(fake)
	first := syncer.New(fake, store, syncer.Config{}, quietLogger())
	if _, err := first.FullSync(ctx); err != nil {
		t.Fatal(err)
	}
	before := fake.CallCount("ListTasks")

	second := syncer.New(fake, store, syncer.Config{}, quietLogger())
	if !second.EnsureCache(ctx) {
		t.Fatal("EnsureCache() = false on fresh cache")
	}
	if fake.CallCount("ListTasks") != before {
		t.Error("fresh cache should not trigger a sync")
	}
}

func TestEnsureCache_RemoteDown(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	fake.SetDown(true)
	ctx := context.Background()

	if e.EnsureCache(ctx) {
		t.Fatal("EnsureCache() = true with remote down")
	}
	if e.Ready() {
		t.Error("engine must not be ready")
	}
	// Second call is a no-op and does not retry.
	calls := fake.CallCount("ListClients")
	e.EnsureCache(ctx)
	if fake.CallCount("ListClients") != calls {
		t.Error("EnsureCache retried after the first attempt")
	}
}

// ─── Read-through ────────────────────────────────────────────────────────────

func TestTasks_ReadThrough(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()

	// Not ready yet: remote.
	_, src, err := e.Tasks(ctx, model.TaskFilter{})
	if err != nil || src != syncer.SourceRemote {
		t.Fatalf("before sync: src=%s err=%v", src, err)
	}

	if !e.EnsureCache(ctx) {
		t.Fatal("EnsureCache() = false")
	}

	rows, src, err := e.Tasks(ctx, model.TaskFilter{Statuses: []model.Status{model.StatusActive}})
	if err != nil || src != syncer.SourceCache || len(rows) != 1 {
		t.Fatalf("after sync: rows=%d src=%s err=%v", len(rows), src, err)
	}

	// Zero cached rows re-queries the remote store.
	rows, src, err = e.Tasks(ctx, model.TaskFilter{Statuses: []model.Status{model.StatusDone}})
	if err != nil || src != syncer.SourceRemote || len(rows) != 0 {
		t.Errorf("empty result: rows=%d src=%s err=%v", len(rows), src, err)
	}
}

func TestSearchTasks_ReadThrough(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	seed(fake)
	fake.SeedTask(model.Task{Title: "Review report draft", Status: model.StatusBacklog})
	ctx := context.Background()

	// Remote fallback matches words in memory and honours the limit.
	rows, src, err := e.SearchTasks(ctx, "REPORT", model.TaskFilter{Limit: 1})
	if err != nil || src != syncer.SourceRemote || len(rows) != 1 {
		t.Fatalf("before sync: rows=%d src=%s err=%v", len(rows), src, err)
	}

	e.EnsureCache(ctx)

	rows, src, err = e.SearchTasks(ctx, "report", model.TaskFilter{})
	if err != nil || src != syncer.SourceCache || len(rows) != 2 {
		t.Fatalf("after sync: rows=%d src=%s err=%v", len(rows), src, err)
	}

	rows, _, err = e.SearchTasks(ctx, "taxes", model.TaskFilter{Category: model.CategoryPersonal})
	if err != nil || len(rows) != 1 || rows[0].Title != "File taxes" {
		t.Errorf("personal search: %+v err=%v", rows, err)
	}
}

func TestTask_CacheMissFallsBack(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()
	e.EnsureCache(ctx)

	added := fake.SeedTask(model.Task{Title: "created elsewhere"})
	got, src, err := e.Task(ctx, added.ID)
	if err != nil {
		t.Fatalf("Task() error: %v", err)
	}
	if src != syncer.SourceRemote || got.Title != "created elsewhere" {
		t.Errorf("got %+v from %s", got, src)
	}

	if _, _, err := e.Task(ctx, 9999); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("unknown task err = %v", err)
	}
}

func TestClientsHabitsGoal_ReadThrough(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()
	e.EnsureCache(ctx)

	if rows, src, err := e.Clients(ctx); err != nil || src != syncer.SourceCache || len(rows) != 1 {
		t.Errorf("Clients: rows=%d src=%s err=%v", len(rows), src, err)
	}
	if rows, src, err := e.Habits(ctx); err != nil || src != syncer.SourceCache || len(rows) != 1 {
		t.Errorf("Habits: rows=%d src=%s err=%v", len(rows), src, err)
	}
	if g, src, err := e.DailyGoal(ctx, "2026-03-02"); err != nil || src != syncer.SourceCache || g.BaseTarget != 18 {
		t.Errorf("DailyGoal: %+v src=%s err=%v", g, src, err)
	}
	if _, src, err := e.DailyGoal(ctx, "2026-03-03"); !errors.Is(err, remote.ErrNotFound) || src != syncer.SourceRemote {
		t.Errorf("missing goal: src=%s err=%v", src, err)
	}
}

// ─── Write-through ───────────────────────────────────────────────────────────

func TestSyncSingleTask(t *testing.T) {
	e, fake, store := newTestEngine(t, syncer.Config{})
	seed(fake)
	ctx := context.Background()
	e.EnsureCache(ctx)

	task, err := fake.GetTask(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	task.Title = "Write report v2"
	if err := fake.UpdateTask(ctx, *task); err != nil {
		t.Fatal(err)
	}
	if err := e.SyncSingleTask(ctx, task.ID); err != nil {
		t.Fatalf("SyncSingleTask() error: %v", err)
	}
	cached, err := store.Task(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cached.Title != "Write report v2" {
		t.Errorf("cached title = %q", cached.Title)
	}

	fake.DeleteTaskDirect(task.ID)
	if err := e.SyncSingleTask(ctx, task.ID); err != nil {
		t.Fatalf("SyncSingleTask() after delete: %v", err)
	}
	if _, err := store.Task(ctx, task.ID); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("deleted task still cached: %v", err)
	}
}

func TestPutAndRemoveTask(t *testing.T) {
	e, _, store := newTestEngine(t, syncer.Config{})
	ctx := context.Background()

	e.PutTask(ctx, model.Task{ID: 77, Title: "direct"})
	if _, err := store.Task(ctx, 77); err != nil {
		t.Fatalf("PutTask did not write: %v", err)
	}
	e.RemoveTask(ctx, 77)
	if _, err := store.Task(ctx, 77); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("RemoveTask did not delete: %v", err)
	}
}

// ─── Background refresh ──────────────────────────────────────────────────────

func TestStartStop(t *testing.T) {
	e, fake, _ := newTestEngine(t, syncer.Config{RefreshInterval: 10 * time.Millisecond})
	seed(fake)
	ctx := context.Background()

	e.Start(ctx)
	e.Start(ctx) // no-op

	deadline := time.Now().Add(2 * time.Second)
	for fake.CallCount("ListTasks") < 2 {
		if time.Now().After(deadline) {
			t.Fatal("background sync did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !e.Status(ctx).BackgroundSync {
		t.Error("status should report background sync running")
	}

	e.Stop()
	e.Stop() // idempotent

	calls := fake.CallCount("ListTasks")
	time.Sleep(50 * time.Millisecond)
	if fake.CallCount("ListTasks") != calls {
		t.Error("sync ran after Stop")
	}
}

func TestStart_ContextCancel(t *testing.T) {
	e, _, _ := newTestEngine(t, syncer.Config{RefreshInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	e.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}
