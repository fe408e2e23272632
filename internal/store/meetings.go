package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kyrillus/ClawCRM/internal/embed"
)

// AddMeeting inserts a meeting and returns it with its id set. A zero
// date is replaced with the current time.
func (s *Store) AddMeeting(ctx context.Context, date time.Time, summary, rawText string, topics []string, vec []float32) (*Meeting, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (date, summary, raw_text, topics, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		date.UTC().Format(time.RFC3339Nano), summary, rawText, encodeJSON(topics),
		embed.Encode(vec), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("add meeting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add meeting: %w", err)
	}
	return &Meeting{
		ID: id, Date: date.UTC(), Summary: summary, RawText: rawText,
		Topics: topics, Embedding: vec, CreatedAt: now,
	}, nil
}

// GetMeeting loads one meeting by id.
func (s *Store) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, summary, raw_text, topics, embedding, created_at FROM meetings WHERE id = ?`, id)
	return scanMeeting(row)
}

// ListMeetings returns meetings newest first. A non-positive limit
// means no limit.
func (s *Store) ListMeetings(ctx context.Context, limit int) ([]*Meeting, error) {
	q := `SELECT id, date, summary, raw_text, topics, embedding, created_at
	      FROM meetings ORDER BY date DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// UpdateMeetingDate moves a meeting to a new date.
func (s *Store) UpdateMeetingDate(ctx context.Context, id int64, date time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE meetings SET date = ? WHERE id = ?`,
		date.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update meeting %d: %w", id, err)
	}
	return requireRow(res, id)
}

// DeleteMeeting removes a meeting and its person links.
func (s *Store) DeleteMeeting(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meeting %d: %w", id, err)
	}
	return requireRow(res, id)
}

// LinkMeetingPerson records that a person attended a meeting.
// Idempotent.
func (s *Store) LinkMeetingPerson(ctx context.Context, meetingID, personID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO meeting_people (meeting_id, person_id) VALUES (?, ?)`,
		meetingID, personID)
	if err != nil {
		return fmt.Errorf("link meeting %d person %d: %w", meetingID, personID, err)
	}
	return nil
}

// MeetingPeople returns the people linked to a meeting, ordered by id.
func (s *Store) MeetingPeople(ctx context.Context, meetingID int64) ([]*Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.phone, p.email, p.company, p.role, p.context, p.tags,
			p.embedding, p.created_at, p.updated_at
		 FROM people p JOIN meeting_people mp ON mp.person_id = p.id
		 WHERE mp.meeting_id = ? ORDER BY p.id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("meeting %d people: %w", meetingID, err)
	}
	defer rows.Close()

	var people []*Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// PersonMeetings returns the meetings a person attended, newest first.
func (s *Store) PersonMeetings(ctx context.Context, personID int64) ([]*Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.date, m.summary, m.raw_text, m.topics, m.embedding, m.created_at
		 FROM meetings m JOIN meeting_people mp ON mp.meeting_id = m.id
		 WHERE mp.person_id = ? ORDER BY m.date DESC, m.id DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("person %d meetings: %w", personID, err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func scanMeeting(row rowScanner) (*Meeting, error) {
	var (
		m          Meeting
		date       string
		topicsJSON string
		blob       []byte
		createdAt  string
	)
	err := row.Scan(&m.ID, &date, &m.Summary, &m.RawText, &topicsJSON, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	m.Date = parseTime(date)
	m.Topics = decodeJSONList(topicsJSON)
	m.Embedding = embed.Decode(blob)
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}
