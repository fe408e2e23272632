package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertRelationship bumps the strength of the edge between two people,
// creating it at strength 1 if absent. The pair is canonicalized to
// ascending id, so (a, b) and (b, a) always hit the same row. A
// non-empty context line is appended to the edge's context.
func (s *Store) UpsertRelationship(ctx context.Context, a, b int64, contextText string) error {
	if a == b {
		return fmt.Errorf("upsert relationship: self edge for person %d", a)
	}
	if a > b {
		a, b = b, a
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (person_a, person_b, strength, context, updated_at)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT(person_a, person_b) DO UPDATE SET
			strength = strength + 1,
			context = CASE
				WHEN excluded.context = '' THEN context
				WHEN context = '' THEN excluded.context
				ELSE context || char(10) || excluded.context
			END,
			updated_at = excluded.updated_at`,
		a, b, contextText, now)
	if err != nil {
		return fmt.Errorf("upsert relationship (%d, %d): %w", a, b, err)
	}
	return nil
}

// GetRelationship loads the edge between two people, order independent.
func (s *Store) GetRelationship(ctx context.Context, a, b int64) (*Relationship, error) {
	if a > b {
		a, b = b, a
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, person_a, person_b, strength, context, updated_at
		 FROM relationships WHERE person_a = ? AND person_b = ?`, a, b)
	return scanRelationship(row)
}

// ListRelationships returns a person's edges strongest first, or every
// edge when personID is zero.
func (s *Store) ListRelationships(ctx context.Context, personID int64) ([]*Relationship, error) {
	q := `SELECT id, person_a, person_b, strength, context, updated_at
	      FROM relationships`
	args := []any{}
	if personID != 0 {
		q += ` WHERE person_a = ? OR person_b = ?`
		args = append(args, personID, personID)
	}
	q += ` ORDER BY strength DESC, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []*Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func scanRelationship(row rowScanner) (*Relationship, error) {
	var (
		r         Relationship
		updatedAt string
	)
	err := row.Scan(&r.ID, &r.PersonA, &r.PersonB, &r.Strength, &r.Context, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan relationship: %w", err)
	}
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}
