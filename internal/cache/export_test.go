package cache

import "database/sql"

// DB exposes the internal *sql.DB for test helpers in cache_test.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetCommitHook replaces the transaction commit step.
func (s *Store) SetCommitHook(fn func(tx *sql.Tx) error) {
	s.hooks.commit = fn
}
