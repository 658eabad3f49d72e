package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per run of the frame loop
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			serial_port TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			sent INTEGER NOT NULL DEFAULT 0
		)`,

		// Angle samples table - the angles computed for each frame with a hand
		`CREATE TABLE IF NOT EXISTS angle_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			a1 INTEGER NOT NULL CHECK(a1 BETWEEN 0 AND 180),
			a2 INTEGER NOT NULL CHECK(a2 BETWEEN 0 AND 180),
			a3 INTEGER NOT NULL CHECK(a3 BETWEEN 0 AND 180),
			a4 INTEGER NOT NULL CHECK(a4 BETWEEN 0 AND 60),
			hand_open INTEGER NOT NULL,
			send_ok INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_angle_samples_session_id ON angle_samples(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
