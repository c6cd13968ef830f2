package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - key-value application settings
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Shape clouds table - sampled model point clouds, one per shape and particle count
		`CREATE TABLE IF NOT EXISTS shape_clouds (
			id TEXT PRIMARY KEY,
			shape TEXT NOT NULL,
			count INTEGER NOT NULL CHECK(count > 0),
			points BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(shape, count)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_shape_clouds_shape ON shape_clouds(shape)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
