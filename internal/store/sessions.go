package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PutSession stores a pending preview payload under its token.
func (s *Store) PutSession(ctx context.Context, token, payload string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, payload, expires_at) VALUES (?, ?, ?)`,
		token, payload, expiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// TakeSession consumes a session: it returns the payload and expiry and
// deletes the row in the same statement, so a token can only ever be
// taken once. ErrNotFound when the token is unknown or already taken.
func (s *Store) TakeSession(ctx context.Context, token string) (string, time.Time, error) {
	var (
		payload   string
		expiresAt string
	)
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM sessions WHERE token = ? RETURNING payload, expires_at`, token).
		Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("take session: %w", err)
	}
	return payload, parseTime(expiresAt), nil
}

// DeleteSession drops a session without consuming it. Unknown tokens
// are not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PruneSessions deletes every session that expired before now and
// returns how many were dropped.
func (s *Store) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}
