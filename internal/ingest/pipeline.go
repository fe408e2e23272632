// Package ingest is the two-phase pipeline that turns a raw meeting
// note into stored people, meetings, and relationships.
//
// Phase one, Preview, extracts and resolves without touching the
// roster and hands back a session token. Phase two, Confirm, consumes
// the token and applies the writes, honoring any per-name
// reassignments the user made in between. Sessions live in the
// database so a preview from one process (a CLI invocation, an MCP
// call) can be confirmed from another.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kyrillus/ClawCRM/internal/extract"
	"github.com/Kyrillus/ClawCRM/internal/llm"
	"github.com/Kyrillus/ClawCRM/internal/resolve"
	"github.com/Kyrillus/ClawCRM/internal/store"
)

// sessionTTL bounds how long a preview stays confirmable.
const sessionTTL = 15 * time.Minute

// ErrUnknownSession is returned when a confirm token does not match a
// live preview session (never issued, already confirmed, or expired).
var ErrUnknownSession = errors.New("unknown or expired preview session")

// NameResolution pairs one extracted name with its roster candidates.
type NameResolution struct {
	Name       string              `json:"name"`
	Candidates []resolve.Candidate `json:"candidates,omitempty"`
	Best       *resolve.Candidate  `json:"best,omitempty"`
	IsOwner    bool                `json:"is_owner,omitempty"`
}

// Preview is the dry-run result of phase one.
type Preview struct {
	Token       string           `json:"token"`
	Date        time.Time        `json:"date"`
	Summary     string           `json:"summary"`
	Topics      []string         `json:"topics"`
	Resolutions []NameResolution `json:"resolutions"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// Assignment overrides the pipeline's default action for one extracted
// name during Confirm.
type Assignment struct {
	// Name must match an extracted name from the preview.
	Name string `json:"name"`
	// PersonID links to an existing person. Zero means create new.
	PersonID int64 `json:"person_id,omitempty"`
	// Skip drops the name entirely.
	Skip bool `json:"skip,omitempty"`
}

// Confirmation reports what phase two wrote.
type Confirmation struct {
	MeetingID int64    `json:"meeting_id"`
	PersonIDs []int64  `json:"person_ids"`
	Created   []string `json:"created_people,omitempty"`
	Linked    int      `json:"relationships_touched"`
}

// sessionPayload is the JSON shape a preview session is stored as.
type sessionPayload struct {
	Text    string   `json:"text"`
	Preview *Preview `json:"preview"`
}

// Pipeline orchestrates extraction, resolution, and persistence.
type Pipeline struct {
	store    *store.Store
	provider llm.Provider
	resolver *resolve.Resolver
	log      *zap.Logger
}

// New builds a Pipeline. A nil logger is replaced with a no-op one.
func New(s *store.Store, p llm.Provider, r *resolve.Resolver, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		store:    s,
		provider: p,
		resolver: r,
		log:      log,
	}
}

// Preview runs extraction and resolution on text without touching the
// roster, and stores a confirmable session.
func (p *Pipeline) Preview(ctx context.Context, text string, date time.Time) (*Preview, error) {
	var res extract.Result
	if err := p.provider.ExtractStructured(ctx, text, "", &res); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	roster, err := p.roster(ctx)
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	pv := &Preview{
		Token:   uuid.NewString(),
		Date:    date,
		Summary: res.Summary,
		Topics:  res.Topics,
	}
	for _, name := range res.Names {
		if p.resolver.IsOwner(name) {
			pv.Resolutions = append(pv.Resolutions, NameResolution{Name: name, IsOwner: true})
			continue
		}
		r := p.resolver.Resolve(name, roster)
		pv.Resolutions = append(pv.Resolutions, NameResolution{
			Name:       name,
			Candidates: r.Candidates,
			Best:       r.Best,
		})
	}
	pv.ExpiresAt = time.Now().UTC().Add(sessionTTL)

	if _, err := p.store.PruneSessions(ctx, time.Now()); err != nil {
		p.log.Warn("prune sessions", zap.Error(err))
	}
	payload, err := json.Marshal(sessionPayload{Text: text, Preview: pv})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := p.store.PutSession(ctx, pv.Token, string(payload), pv.ExpiresAt); err != nil {
		return nil, err
	}

	p.log.Info("preview ready",
		zap.String("token", pv.Token),
		zap.Int("names", len(pv.Resolutions)),
		zap.Strings("topics", pv.Topics))
	return pv, nil
}

// Confirm consumes a preview session and persists the meeting, its
// people, and the pairwise relationships between them. With no
// assignments, every resolved name links to its best candidate and
// every unresolved one becomes a new person.
func (p *Pipeline) Confirm(ctx context.Context, token string, assignments []Assignment) (*Confirmation, error) {
	sess, err := p.takeSession(ctx, token)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Assignment, len(assignments))
	for _, a := range assignments {
		byName[normKey(a.Name)] = a
	}

	// Embedding failure degrades to an unembedded meeting; ingestion
	// must not lose the note over a vector.
	vec, err := p.provider.Embed(ctx, sess.Text)
	if err != nil {
		p.log.Warn("meeting embedding failed", zap.Error(err))
		vec = nil
	}

	pv := sess.Preview
	meeting, err := p.store.AddMeeting(ctx, pv.Date, pv.Summary, sess.Text, pv.Topics, vec)
	if err != nil {
		return nil, fmt.Errorf("store meeting: %w", err)
	}

	conf := &Confirmation{MeetingID: meeting.ID}
	for _, nr := range pv.Resolutions {
		if nr.IsOwner {
			continue
		}

		a, overridden := byName[normKey(nr.Name)]
		if overridden && a.Skip {
			continue
		}

		person, created, err := p.materialize(ctx, nr, a, overridden)
		if err != nil {
			return nil, err
		}
		if created {
			conf.Created = append(conf.Created, person.Name)
		}
		if containsID(conf.PersonIDs, person.ID) {
			continue
		}
		conf.PersonIDs = append(conf.PersonIDs, person.ID)

		if err := p.store.LinkMeetingPerson(ctx, meeting.ID, person.ID); err != nil {
			return nil, err
		}
		if err := p.refreshPerson(ctx, person.ID, pv.Summary); err != nil {
			return nil, err
		}
	}

	for i := 0; i < len(conf.PersonIDs); i++ {
		for j := i + 1; j < len(conf.PersonIDs); j++ {
			if err := p.store.UpsertRelationship(ctx, conf.PersonIDs[i], conf.PersonIDs[j], pv.Summary); err != nil {
				return nil, err
			}
			conf.Linked++
		}
	}

	p.log.Info("ingestion confirmed",
		zap.Int64("meeting_id", meeting.ID),
		zap.Int64s("person_ids", conf.PersonIDs),
		zap.Strings("created", conf.Created),
		zap.Int("relationships", conf.Linked))
	return conf, nil
}

// takeSession consumes the stored session for token. The store delete
// is atomic, so a token confirms at most once even under concurrent
// callers.
func (p *Pipeline) takeSession(ctx context.Context, token string) (*sessionPayload, error) {
	raw, expires, err := p.store.TakeSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("confirm %s: %w", token, ErrUnknownSession)
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(expires) {
		return nil, fmt.Errorf("confirm %s: %w", token, ErrUnknownSession)
	}

	var sess sessionPayload
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", token, err)
	}
	if sess.Preview == nil {
		return nil, fmt.Errorf("decode session %s: empty preview", token)
	}
	return &sess, nil
}

// materialize turns one name resolution into a concrete person row,
// creating it when nothing links.
func (p *Pipeline) materialize(ctx context.Context, nr NameResolution, a Assignment, overridden bool) (*store.Person, bool, error) {
	if overridden && a.PersonID != 0 {
		person, err := p.store.GetPerson(ctx, a.PersonID)
		if err != nil {
			return nil, false, fmt.Errorf("assignment for %q: %w", nr.Name, err)
		}
		return person, false, nil
	}
	if !overridden && nr.Best != nil {
		person, err := p.store.GetPerson(ctx, nr.Best.PersonID)
		if err != nil {
			return nil, false, fmt.Errorf("best candidate for %q: %w", nr.Name, err)
		}
		return person, false, nil
	}

	// Creating "Unknown Person" repeatedly would litter the roster;
	// reuse the existing row when one is already there.
	if existing, err := p.store.FindPersonByName(ctx, nr.Name); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	person, err := p.store.AddPerson(ctx, nr.Name, "", nil)
	if err != nil {
		return nil, false, fmt.Errorf("create person %q: %w", nr.Name, err)
	}
	return person, true, nil
}

// refreshPerson appends the meeting summary to the person's context and
// recomputes their context embedding.
func (p *Pipeline) refreshPerson(ctx context.Context, personID int64, summary string) error {
	if err := p.store.AppendPersonContext(ctx, personID, summary); err != nil {
		return err
	}

	person, err := p.store.GetPerson(ctx, personID)
	if err != nil {
		return err
	}
	vec, err := p.provider.Embed(ctx, person.Context)
	if err != nil {
		p.log.Warn("person embedding failed",
			zap.Int64("person_id", personID), zap.Error(err))
		return nil
	}
	return p.store.SetPersonEmbedding(ctx, personID, vec)
}

// Discard drops a preview session without writing anything. Unknown
// tokens are not an error.
func (p *Pipeline) Discard(ctx context.Context, token string) error {
	return p.store.DeleteSession(ctx, token)
}

// roster loads the resolver's view of stored people.
func (p *Pipeline) roster(ctx context.Context) ([]resolve.RosterEntry, error) {
	people, err := p.store.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	roster := make([]resolve.RosterEntry, len(people))
	for i, person := range people {
		roster[i] = resolve.RosterEntry{ID: person.ID, Name: person.Name}
	}
	return roster, nil
}

func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
