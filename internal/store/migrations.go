package store

import "fmt"

// Schema notes:
//   - relationships keeps person_a < person_b so each undirected pair
//     has exactly one row; the CHECK makes a reversed insert fail loudly
//     instead of silently duplicating the edge.
//   - meeting_people rows disappear with their meeting or person.
//   - sessions holds pending ingest previews so a later process (the
//     next CLI invocation) can confirm them.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS people (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		phone      TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		company    TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL DEFAULT '',
		context    TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '[]',
		embedding  BLOB,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_people_name ON people(name COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS meetings (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		date       TEXT NOT NULL,
		summary    TEXT NOT NULL DEFAULT '',
		raw_text   TEXT NOT NULL DEFAULT '',
		topics     TEXT NOT NULL DEFAULT '[]',
		embedding  BLOB,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_date ON meetings(date)`,

	`CREATE TABLE IF NOT EXISTS meeting_people (
		meeting_id INTEGER NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		person_id  INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		PRIMARY KEY (meeting_id, person_id)
	)`,

	`CREATE TABLE IF NOT EXISTS relationships (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		person_a   INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		person_b   INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		strength   INTEGER NOT NULL DEFAULT 1,
		context    TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		UNIQUE (person_a, person_b),
		CHECK (person_a < person_b)
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
}

func (s *Store) migrate() error {
	for i, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
