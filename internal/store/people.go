package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Kyrillus/ClawCRM/internal/embed"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// AddPerson inserts a new person and returns it with its id set.
func (s *Store) AddPerson(ctx context.Context, name, contextText string, tags []string) (*Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("add person: empty name")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO people (name, context, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, contextText, encodeJSON(tags), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("add person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add person: %w", err)
	}
	return &Person{ID: id, Name: name, Context: contextText, Tags: tags, CreatedAt: now, UpdatedAt: now}, nil
}

// GetPerson loads one person by id.
func (s *Store) GetPerson(ctx context.Context, id int64) (*Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, company, role, context, tags, embedding, created_at, updated_at
		 FROM people WHERE id = ?`, id)
	return scanPerson(row)
}

// FindPersonByName returns the person with exactly this name, case
// insensitive. ErrNotFound when absent.
func (s *Store) FindPersonByName(ctx context.Context, name string) (*Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, company, role, context, tags, embedding, created_at, updated_at
		 FROM people WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1`,
		strings.TrimSpace(name))
	return scanPerson(row)
}

// ListPeople returns every person ordered by name.
func (s *Store) ListPeople(ctx context.Context) ([]*Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, email, company, role, context, tags, embedding, created_at, updated_at
		 FROM people ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
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

// UpdatePerson rewrites a person's identity fields, context, and tags.
func (s *Store) UpdatePerson(ctx context.Context, p *Person) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE people SET name = ?, phone = ?, email = ?, company = ?, role = ?,
			context = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Phone, p.Email, p.Company, p.Role,
		p.Context, encodeJSON(p.Tags), time.Now().UTC().Format(time.RFC3339Nano), p.ID)
	if err != nil {
		return fmt.Errorf("update person %d: %w", p.ID, err)
	}
	return requireRow(res, p.ID)
}

// AppendPersonContext appends a paragraph to a person's accumulated
// context, separated by a blank line.
func (s *Store) AppendPersonContext(ctx context.Context, id int64, contextText string) error {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE people SET
			context = CASE WHEN context = '' THEN ? ELSE context || char(10) || char(10) || ? END,
			updated_at = ?
		 WHERE id = ?`,
		contextText, contextText, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("append context to person %d: %w", id, err)
	}
	return requireRow(res, id)
}

// SetPersonEmbedding stores the person's context embedding.
func (s *Store) SetPersonEmbedding(ctx context.Context, id int64, vec []float32) error {
	res, err := s.db.ExecContext(ctx, `UPDATE people SET embedding = ? WHERE id = ?`, embed.Encode(vec), id)
	if err != nil {
		return fmt.Errorf("set embedding for person %d: %w", id, err)
	}
	return requireRow(res, id)
}

// DeletePerson removes a person. Meeting links and relationships
// cascade away with it.
func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete person %d: %w", id, err)
	}
	return requireRow(res, id)
}

// PersonMatch is a person paired with a similarity score.
type PersonMatch struct {
	Person *Person `json:"person"`
	Score  float64 `json:"score"`
}

// SearchPeopleByVector ranks people by cosine similarity of their
// context embedding against query. People without an embedding are
// skipped. Brute force; fine at personal-CRM scale.
func (s *Store) SearchPeopleByVector(ctx context.Context, query []float32, limit int) ([]PersonMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	people, err := s.ListPeople(ctx)
	if err != nil {
		return nil, err
	}

	var matches []PersonMatch
	for _, p := range people {
		if len(p.Embedding) == 0 {
			continue
		}
		score := embed.CosineSimilarity(query, p.Embedding)
		if score <= 0 {
			continue
		}
		matches = append(matches, PersonMatch{Person: p, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Person.ID < matches[j].Person.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*Person, error) {
	var (
		p         Person
		tagsJSON  string
		blob      []byte
		createdAt string
		updatedAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Company, &p.Role,
		&p.Context, &tagsJSON, &blob, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	p.Tags = decodeJSONList(tagsJSON)
	p.Embedding = embed.Decode(blob)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

func encodeJSON(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func decodeJSONList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
