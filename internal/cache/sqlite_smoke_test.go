package cache_test

import (
	"testing"
)

func TestOpen_UsesWAL(t *testing.T) {
	s := newTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected WAL mode, got %q", mode)
	}
}

func TestOpen_CreatesSearchIndex(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"tasks_fts", "tasks_fts_insert", "tasks_fts_delete", "tasks_fts_update"} {
		var n int
		err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = ?`, name).Scan(&n)
		if err != nil {
			t.Fatalf("failed to query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("%s: found %d schema entries, want 1", name, n)
		}
	}
}

func TestFTS5_RawMatchSyntax(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.DB().Exec(`INSERT INTO tasks (id, title, status, category, value_tier, cognitive_load, created_at, updated_at)
		VALUES (1, 'Fix goroutine leak', 'active', 'work', 'checkbox', 'high', '2026-03-02T00:00:00.000000000Z', '2026-03-02T00:00:00.000000000Z')`); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"single word", `"goroutine"`, 1},
		{"phrase", `"goroutine leak"`, 1},
		{"or", `"kubernetes" OR "leak"`, 1},
		{"no match", `"kubernetes"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n int
			if err := s.DB().QueryRow(`SELECT COUNT(*) FROM tasks_fts WHERE tasks_fts MATCH ?`, tt.query).Scan(&n); err != nil {
				t.Fatalf("FTS5 search failed for %q: %v", tt.query, err)
			}
			if n != tt.want {
				t.Errorf("query %q: got %d rows, want %d", tt.query, n, tt.want)
			}
		})
	}
}
