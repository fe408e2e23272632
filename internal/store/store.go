// Package store is ClawCRM's persistence layer: people, meetings, the
// links between them, and pairwise relationships, all in a single
// SQLite database. Embeddings are stored inline as little-endian
// float32 blobs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Person is one contact in the roster. Context accumulates over time:
// every confirmed meeting appends its summary.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Company   string    `json:"company,omitempty"`
	Role      string    `json:"role,omitempty"`
	Context   string    `json:"context,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meeting is one ingested note.
type Meeting struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Summary   string    `json:"summary"`
	RawText   string    `json:"raw_text,omitempty"`
	Topics    []string  `json:"topics,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Relationship is an undirected edge between two people. PersonA is
// always the smaller id; Strength counts shared meetings.
type Relationship struct {
	ID        int64     `json:"id"`
	PersonA   int64     `json:"person_a"`
	PersonB   int64     `json:"person_b"`
	Strength  int       `json:"strength"`
	Context   string    `json:"context,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes the database contents.
type Stats struct {
	People        int `json:"people"`
	Meetings      int `json:"meetings"`
	Relationships int `json:"relationships"`
	Embedded      int `json:"embedded_people"`
}

// Store wraps the SQLite handle. Safe for concurrent use; SQLite
// serializes writes internally.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs
// migrations. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	// _pragma DSN options apply to every pooled connection, unlike a
	// one-off PRAGMA exec.
	const pragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	dsn := "file:" + path + "?" + pragmas
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&" + pragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single writer; modernc's driver returns SQLITE_BUSY under
	// concurrent writers even in WAL mode.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats returns row counts for the main tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM people),
		(SELECT COUNT(*) FROM meetings),
		(SELECT COUNT(*) FROM relationships),
		(SELECT COUNT(*) FROM people WHERE embedding IS NOT NULL AND LENGTH(embedding) > 0)`)
	if err := row.Scan(&st.People, &st.Meetings, &st.Relationships, &st.Embedded); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// timeLayouts covers the formats SQLite hands back depending on whether
// a value was inserted by Go or by a DATETIME default.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
