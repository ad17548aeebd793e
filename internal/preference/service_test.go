package preference

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria/internal/audit"
	"memoria/internal/people"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/requestcontext"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Emit(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event{}, r.events...)
}

type fixture struct {
	svc      *Service
	store    *InMemoryStore
	rec      *recordingAudit
	person   *people.Person
	claimant id.ContributorID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewInMemoryStore()
	peopleStore := people.NewInMemoryStore()
	rec := &recordingAudit{}
	// nil cache: snapshots read the store directly
	svc := NewService(store, peopleStore, nil, rec, slog.New(slog.DiscardHandler))

	claimant := id.NewContributorID()
	person := &people.Person{
		ID:            id.NewPersonID(),
		CanonicalName: "Margaret Olsen",
		CreatedBy:     id.NewContributorID(),
		ClaimedBy:     claimant,
	}
	require.NoError(t, peopleStore.Create(context.Background(), person))
	return &fixture{svc: svc, store: store, rec: rec, person: person, claimant: claimant}
}

func adminCtx() context.Context {
	ctx := requestcontext.WithContributorID(context.Background(), id.NewContributorID())
	return requestcontext.WithAdmin(ctx, true)
}

func contributorCtx(contributorID id.ContributorID) context.Context {
	return requestcontext.WithContributorID(context.Background(), contributorID)
}

func TestSet_ContributorScopeByClaimant(t *testing.T) {
	f := newFixture(t)
	scope := id.NewContributorID()

	pref, err := f.svc.Set(contributorCtx(f.claimant), f.person.ID, scope, "blurred", "prefer initials")
	require.NoError(t, err)
	assert.Equal(t, visibility.StateBlurred, pref.State)
	assert.Equal(t, f.claimant, pref.SetBy)

	pair, err := f.svc.SnapshotPair(context.Background(), f.person.ID, scope)
	require.NoError(t, err)
	assert.Equal(t, visibility.StateBlurred, pair.Contributor)

	events := f.rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionPreferenceSet, events[0].Action)
	assert.Equal(t, audit.ScopePreferenceContributor, events[0].Scope)
	assert.Equal(t, visibility.State(""), events[0].OldState)
	assert.Equal(t, visibility.StateBlurred, events[0].NewState)
	assert.Equal(t, "prefer initials", events[0].Reason)
}

func TestSet_GlobalScopeRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Set(contributorCtx(f.claimant), f.person.ID, id.ContributorID{}, "anonymized", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	pref, err := f.svc.Set(adminCtx(), f.person.ID, id.ContributorID{}, "anonymized", "")
	require.NoError(t, err)
	assert.True(t, pref.Global())

	events := f.rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ScopePreferenceGlobal, events[0].Scope)
}

func TestSet_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Set(contributorCtx(id.NewContributorID()), f.person.ID, id.NewContributorID(), "approved", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestSet_UnknownPerson(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Set(adminCtx(), id.NewPersonID(), id.ContributorID{}, "approved", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestSet_StrictStateParsing(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{"Blurred", "hidden", ""} {
		_, err := f.svc.Set(adminCtx(), f.person.ID, id.ContributorID{}, raw, "")
		assert.Truef(t, dErrors.Is(err, dErrors.CodeInvalidInput), "state %q should be rejected", raw)
	}
}

func TestSet_RecordsOldState(t *testing.T) {
	f := newFixture(t)
	scope := id.NewContributorID()

	_, err := f.svc.Set(contributorCtx(f.claimant), f.person.ID, scope, "approved", "")
	require.NoError(t, err)
	_, err = f.svc.Set(contributorCtx(f.claimant), f.person.ID, scope, "removed", "")
	require.NoError(t, err)

	events := f.rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, visibility.StateApproved, events[1].OldState)
	assert.Equal(t, visibility.StateRemoved, events[1].NewState)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	scope := id.NewContributorID()

	_, err := f.svc.Set(contributorCtx(f.claimant), f.person.ID, scope, "blurred", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(contributorCtx(f.claimant), f.person.ID, scope, "changed my mind"))

	pair, err := f.svc.SnapshotPair(context.Background(), f.person.ID, scope)
	require.NoError(t, err)
	assert.True(t, pair.IsZero())

	events := f.rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionPreferenceCleared, events[1].Action)
	assert.Equal(t, visibility.StateBlurred, events[1].OldState)
	assert.Equal(t, visibility.State(""), events[1].NewState)
}

func TestClear_AbsentIsNoOp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Clear(adminCtx(), f.person.ID, id.NewContributorID(), ""))
	assert.Empty(t, f.rec.all())
}

func TestSnapshotPair_NoCacheFallsThrough(t *testing.T) {
	f := newFixture(t)
	scope := id.NewContributorID()

	require.NoError(t, f.store.Set(context.Background(), &Preference{
		PersonID:      f.person.ID,
		ContributorID: scope,
		State:         visibility.StateApproved,
	}))
	require.NoError(t, f.store.Set(context.Background(), &Preference{
		PersonID: f.person.ID,
		State:    visibility.StateBlurred,
	}))

	pair, err := f.svc.SnapshotPair(context.Background(), f.person.ID, scope)
	require.NoError(t, err)
	assert.Equal(t, visibility.StateApproved, pair.Contributor)
	assert.Equal(t, visibility.StateBlurred, pair.Global)
}
