package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Phrases table - ordered fireworks phrase list
		`CREATE TABLE IF NOT EXISTS phrases (
			position INTEGER PRIMARY KEY,
			text TEXT NOT NULL
		)`,

		// Transitions table - append-only journal of state changes
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			trigger TEXT NOT NULL,
			at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transitions_session_id ON transitions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_at ON transitions(at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
