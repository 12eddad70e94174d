package store

import "github.com/pkg/errors"

func (s *Store) runMigrations() error {
	migrations := []string{
		// State changes of the tracking machine, newest looked up first
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			reason TEXT NOT NULL,
			side TEXT NOT NULL DEFAULT '',
			occurred_at INTEGER NOT NULL
		)`,

		// Application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transitions_occurred_at ON transitions(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_reason ON transitions(reason)`,
	}

	for i, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return errors.Wrapf(err, "migration %d", i)
		}
	}

	return nil
}
