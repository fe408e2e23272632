package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kyrillus/ClawCRM/internal/llm"
	"github.com/Kyrillus/ClawCRM/internal/resolve"
	"github.com/Kyrillus/ClawCRM/internal/store"
)

func newTestPipeline(t *testing.T, ownerAliases []string) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := New(s, llm.NewOfflineProvider(0),
		resolve.NewResolver(resolve.DefaultAcceptThreshold, ownerAliases), nil)
	return p, s
}

func TestPreviewWritesNoRosterData(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	pv, err := p.Preview(ctx,
		"Had coffee with Sarah Chen and David Kim about the seed round.", time.Time{})
	require.NoError(t, err)

	assert.NotEmpty(t, pv.Token)
	assert.False(t, pv.Date.IsZero())
	require.Len(t, pv.Resolutions, 2)
	assert.Equal(t, "Sarah Chen", pv.Resolutions[0].Name)
	assert.Equal(t, "David Kim", pv.Resolutions[1].Name)
	assert.Nil(t, pv.Resolutions[0].Best, "empty roster cannot resolve")

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.People, "preview must not create people")
	assert.Zero(t, st.Meetings, "preview must not create meetings")
}

func TestConfirmCreatesEverything(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	pv, err := p.Preview(ctx, "Had coffee with Sarah Chen and David Kim about the seed round.", time.Time{})
	require.NoError(t, err)

	conf, err := p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	require.Len(t, conf.PersonIDs, 2)
	assert.ElementsMatch(t, []string{"Sarah Chen", "David Kim"}, conf.Created)
	assert.Equal(t, 1, conf.Linked)

	// Meeting stored with links and an embedding.
	m, err := s.GetMeeting(ctx, conf.MeetingID)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Summary)
	assert.NotEmpty(t, m.Embedding)

	people, err := s.MeetingPeople(ctx, conf.MeetingID)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	// One relationship at strength 1, context carrying the summary.
	rel, err := s.GetRelationship(ctx, conf.PersonIDs[0], conf.PersonIDs[1])
	require.NoError(t, err)
	assert.Equal(t, 1, rel.Strength)
	assert.NotEmpty(t, rel.Context)

	// Each person picked up context and an embedding.
	for _, id := range conf.PersonIDs {
		person, err := s.GetPerson(ctx, id)
		require.NoError(t, err)
		assert.NotEmpty(t, person.Context)
		assert.NotEmpty(t, person.Embedding)
	}
}

func TestConfirmFromSecondProcess(t *testing.T) {
	// Preview and confirm typically happen in separate CLI invocations,
	// so the session must survive outside the pipeline that issued it.
	// Two pipelines over one store stand in for the two processes.
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	first := New(s, llm.NewOfflineProvider(0),
		resolve.NewResolver(resolve.DefaultAcceptThreshold, nil), nil)
	second := New(s, llm.NewOfflineProvider(0),
		resolve.NewResolver(resolve.DefaultAcceptThreshold, nil), nil)

	pv, err := first.Preview(ctx, "Met Sarah Chen about the roadmap.", time.Time{})
	require.NoError(t, err)

	conf, err := second.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sarah Chen"}, conf.Created)

	_, err = second.Confirm(ctx, pv.Token, nil)
	assert.ErrorIs(t, err, ErrUnknownSession, "token stays single use across pipelines")
}

func TestConfirmTwiceBumpsStrength(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		pv, err := p.Preview(ctx, "Lunch with Sarah Chen and David Kim.", time.Time{})
		require.NoError(t, err)
		_, err = p.Confirm(ctx, pv.Token, nil)
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.People, "second ingestion must resolve, not duplicate")
	assert.Equal(t, 2, st.Meetings)
	assert.Equal(t, 1, st.Relationships)

	sarah, err := s.FindPersonByName(ctx, "Sarah Chen")
	require.NoError(t, err)
	david, err := s.FindPersonByName(ctx, "David Kim")
	require.NoError(t, err)

	rel, err := s.GetRelationship(ctx, sarah.ID, david.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Strength)
}

func TestConfirmResolvesNearMatch(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	existing, err := s.AddPerson(ctx, "Sarah Chen", "", nil)
	require.NoError(t, err)

	// "Sara Chen" scores 0.5 against "Sarah Chen": above threshold.
	pv, err := p.Preview(ctx, "Met Sara Chen for a walk.", time.Time{})
	require.NoError(t, err)
	require.Len(t, pv.Resolutions, 1)
	require.NotNil(t, pv.Resolutions[0].Best)
	assert.Equal(t, existing.ID, pv.Resolutions[0].Best.PersonID)

	conf, err := p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)
	assert.Empty(t, conf.Created)
	assert.Equal(t, []int64{existing.ID}, conf.PersonIDs)
}

func TestConfirmAssignments(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	other, err := s.AddPerson(ctx, "Completely Different", "", nil)
	require.NoError(t, err)

	pv, err := p.Preview(ctx, "Met Sarah Chen and David Kim for lunch.", time.Time{})
	require.NoError(t, err)

	conf, err := p.Confirm(ctx, pv.Token, []Assignment{
		{Name: "Sarah Chen", PersonID: other.ID},
		{Name: "David Kim", Skip: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{other.ID}, conf.PersonIDs)
	assert.Empty(t, conf.Created)
	assert.Zero(t, conf.Linked, "single attendee means no edges")

	_, err = s.FindPersonByName(ctx, "David Kim")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConfirmUnknownToken(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	_, err := p.Confirm(context.Background(), "no-such-token", nil)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestConfirmTokenIsSingleUse(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	pv, err := p.Preview(ctx, "Met Sarah Chen.", time.Time{})
	require.NoError(t, err)

	_, err = p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	_, err = p.Confirm(ctx, pv.Token, nil)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestDiscard(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	pv, err := p.Preview(ctx, "Met Sarah Chen.", time.Time{})
	require.NoError(t, err)

	require.NoError(t, p.Discard(ctx, pv.Token))
	_, err = p.Confirm(ctx, pv.Token, nil)
	assert.ErrorIs(t, err, ErrUnknownSession)

	require.NoError(t, p.Discard(ctx, "never-issued"))
}

func TestOwnerNeverLinked(t *testing.T) {
	p, s := newTestPipeline(t, []string{"Kyrill"})
	ctx := context.Background()

	// "Kyrill mentioned" trips the attribution pattern, so the owner
	// alias shows up as an extracted name.
	pv, err := p.Preview(ctx, "Kyrill mentioned the new plan. Met Sarah Chen for coffee.", time.Time{})
	require.NoError(t, err)

	var ownerSeen bool
	for _, nr := range pv.Resolutions {
		if nr.IsOwner {
			ownerSeen = true
			assert.Empty(t, nr.Candidates)
		}
	}
	assert.True(t, ownerSeen, "owner alias should be flagged, not resolved")

	conf, err := p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	_, err = s.FindPersonByName(ctx, "Kyrill")
	assert.ErrorIs(t, err, store.ErrNotFound, "owner must never become a person row")
	assert.Len(t, conf.PersonIDs, 1)
}

func TestUnknownPersonSentinelFlow(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()

	pv, err := p.Preview(ctx, "Reviewed the budget spreadsheet for an hour.", time.Time{})
	require.NoError(t, err)
	require.Len(t, pv.Resolutions, 1)
	assert.Equal(t, "Unknown Person", pv.Resolutions[0].Name)

	// Confirming verbatim creates the sentinel person once.
	_, err = p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	pv, err = p.Preview(ctx, "Stared at dashboards all afternoon.", time.Time{})
	require.NoError(t, err)
	_, err = p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.People, "sentinel person must be reused, not duplicated")
}

func TestPreviewUsesGivenDate(t *testing.T) {
	p, s := newTestPipeline(t, nil)
	ctx := context.Background()
	date := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	pv, err := p.Preview(ctx, "Met Sarah Chen.", date)
	require.NoError(t, err)
	assert.True(t, pv.Date.Equal(date))

	conf, err := p.Confirm(ctx, pv.Token, nil)
	require.NoError(t, err)

	m, err := s.GetMeeting(ctx, conf.MeetingID)
	require.NoError(t, err)
	assert.True(t, m.Date.Equal(date))
}
