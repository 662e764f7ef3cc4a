package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Translations table - every surfaced interpretation
		`CREATE TABLE IF NOT EXISTS translations (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			confidence TEXT NOT NULL CHECK(confidence IN ('High', 'Medium', 'Low')),
			language TEXT NOT NULL,
			reason TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			context TEXT NOT NULL DEFAULT '',
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_translations_created_at ON translations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_translations_language ON translations(language)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
