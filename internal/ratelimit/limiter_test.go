package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	l := New(cfg)
	l.SetClock(clock.Now)
	return l, clock
}

func TestAdmit_PerToolLimit(t *testing.T) {
	l, clock := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 3})

	for i := 0; i < 3; i++ {
		if d := l.Admit("list_tasks"); !d.Allowed {
			t.Fatalf("call %d rejected: %+v", i+1, d)
		}
	}

	clock.Advance(20 * time.Second)
	d := l.Admit("list_tasks")
	if d.Allowed {
		t.Fatal("4th call within window should be rejected")
	}
	if d.LimitType != LimitTool || d.Current != 3 || d.Limit != 3 {
		t.Errorf("decision = %+v", d)
	}
	if d.RetryAfterSeconds != 40 {
		t.Errorf("RetryAfterSeconds = %d, want 40", d.RetryAfterSeconds)
	}
	if d.Message == "" {
		t.Error("rejection should carry a message")
	}

	// Other tools are unaffected.
	if d := l.Admit("list_habits"); !d.Allowed {
		t.Errorf("list_habits rejected: %+v", d)
	}
}

func TestAdmit_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 2})

	l.Admit("get_task")
	clock.Advance(30 * time.Second)
	l.Admit("get_task")

	if d := l.Admit("get_task"); d.Allowed {
		t.Fatal("expected rejection at the limit")
	}

	clock.Advance(31 * time.Second)
	if d := l.Admit("get_task"); !d.Allowed {
		t.Fatalf("oldest call left the window, expected admission: %+v", d)
	}
}

func TestAdmit_GlobalLimit(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 10, Global: 2})

	l.Admit("a")
	l.Admit("b")
	d := l.Admit("c")
	if d.Allowed {
		t.Fatal("expected global rejection")
	}
	if d.LimitType != LimitGlobal || d.Limit != 2 {
		t.Errorf("decision = %+v", d)
	}
}

func TestAdmit_ToolLimitReportedBeforeGlobal(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 1, Global: 1})

	l.Admit("a")
	if d := l.Admit("a"); d.LimitType != LimitTool {
		t.Errorf("LimitType = %q, want tool", d.LimitType)
	}
}

func TestToolOverride(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 100, Tools: map[string]int{"sync_cache": 1}})

	if d := l.Admit("sync_cache"); !d.Allowed {
		t.Fatal("first sync_cache rejected")
	}
	if d := l.Admit("sync_cache"); d.Allowed || d.Limit != 1 {
		t.Errorf("override not applied: %+v", d)
	}
	if got := l.LimitFor("list_tasks"); got != 100 {
		t.Errorf("LimitFor(list_tasks) = %d, want 100", got)
	}
}

func TestRejectedCallsAreNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 1})

	l.Admit("x")
	for i := 0; i < 5; i++ {
		l.Admit("x")
	}
	clock.Advance(61 * time.Second)
	if d := l.Check("x"); !d.Allowed || d.Current != 0 {
		t.Errorf("after window: %+v", d)
	}
}

func TestCheckAndRecord(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 1})

	if d := l.Check("x"); !d.Allowed {
		t.Fatal("Check should allow the first call")
	}
	if d := l.Check("x"); !d.Allowed {
		t.Fatal("Check alone must not consume quota")
	}
	l.Record("x")
	if d := l.Check("x"); d.Allowed {
		t.Fatal("expected rejection after Record")
	}
}

func TestDisabled_AlwaysAllows(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: false, PerTool: 1, Global: 1})
	for i := 0; i < 10; i++ {
		if d := l.Admit("x"); !d.Allowed {
			t.Fatalf("call %d rejected with limiter disabled", i+1)
		}
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 1})
	l.Admit("x")
	l.Reset()
	if d := l.Admit("x"); !d.Allowed {
		t.Errorf("after Reset: %+v", d)
	}
}

func TestAdmit_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 50})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("hot").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed)
	}
}

func TestIdleToolsAreForgotten(t *testing.T) {
	l, clock := newTestLimiter(Config{Enabled: true, Window: time.Minute, PerTool: 5})

	for i := 0; i < 1000; i++ {
		l.Admit(fmt.Sprintf("unknown_%d", i))
	}
	if n := len(l.tools); n != 1000 {
		t.Fatalf("tracked tools = %d, want 1000", n)
	}

	clock.Advance(time.Hour)
	l.Admit("get_task")

	if n := len(l.tools); n != 1 {
		t.Errorf("tracked tools after the window = %d, want 1", n)
	}
	if _, ok := l.tools["get_task"]; !ok {
		t.Error("the admitted tool should still be tracked")
	}
}
