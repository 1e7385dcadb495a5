package cache

import (
	"context"
	"strings"

	"github.com/HendryAvila/tempo/internal/model"
)

// searchSchema indexes task title, description and tags with FTS5. The
// index is external-content over tasks and kept current by triggers, so
// every write path must go through plain INSERT and DELETE (a REPLACE
// conflict does not fire the delete trigger).
const searchSchema = `
	CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
		title,
		description,
		tags,
		content='tasks',
		content_rowid='id'
	);

	CREATE TRIGGER IF NOT EXISTS tasks_fts_insert AFTER INSERT ON tasks BEGIN
		INSERT INTO tasks_fts(rowid, title, description, tags)
		VALUES (new.id, new.title, new.description, new.tags);
	END;

	CREATE TRIGGER IF NOT EXISTS tasks_fts_delete AFTER DELETE ON tasks BEGIN
		INSERT INTO tasks_fts(tasks_fts, rowid, title, description, tags)
		VALUES ('delete', old.id, old.title, old.description, old.tags);
	END;

	CREATE TRIGGER IF NOT EXISTS tasks_fts_update AFTER UPDATE ON tasks BEGIN
		INSERT INTO tasks_fts(tasks_fts, rowid, title, description, tags)
		VALUES ('delete', old.id, old.title, old.description, old.tags);
		INSERT INTO tasks_fts(rowid, title, description, tags)
		VALUES (new.id, new.title, new.description, new.tags);
	END;
`

// SearchTasks returns cached tasks whose title, description or tags contain
// every word of query, best match first. An empty query behaves like Tasks.
func (s *Store) SearchTasks(ctx context.Context, query string, f model.TaskFilter) ([]model.Task, error) {
	match := sanitizeFTS(query)
	if match == "" {
		return s.Tasks(ctx, f)
	}

	clauses, args := taskClauses(f)
	args = append([]any{match}, args...)

	q := `SELECT ` + taskColumns + ` FROM tasks
		JOIN (SELECT rowid AS hit_id, rank AS hit_rank FROM tasks_fts WHERE tasks_fts MATCH ?) hits
		  ON hits.hit_id = tasks.id`
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY hits.hit_rank, tasks.id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.queryTasks(ctx, q, args...)
}

// sanitizeFTS quotes each word so user input is never parsed as FTS5
// syntax. Quoted words are ANDed.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
