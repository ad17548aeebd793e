package preference

import (
	"context"
	"errors"
	"log/slog"

	"memoria/internal/audit"
	"memoria/internal/people"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

// PersonDirectory is the registry lookup the authorization check needs.
// people.Store satisfies it.
type PersonDirectory interface {
	Get(ctx context.Context, personID id.PersonID) (*people.Person, error)
}

// Service manages audited preference changes and serves the resolution
// snapshots the redactor and scanner consume.
type Service struct {
	store  Store
	people PersonDirectory
	cache  *Cache
	audit  audit.Recorder
	logger *slog.Logger
}

// NewService constructs the preference service. cache may be nil when
// Redis is not configured; snapshots then always read the store.
func NewService(store Store, directory PersonDirectory, cache *Cache, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		people: directory,
		cache:  cache,
		audit:  recorder,
		logger: logger,
	}
}

// Set records a display choice. Contributor-scoped preferences may be
// set by the person's claimant or an admin; the global scope is
// admin-only.
func (s *Service) Set(ctx context.Context, personID id.PersonID, scope id.ContributorID, rawState, reason string) (*Preference, error) {
	state, err := visibility.ParseState(rawState)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, personID, scope); err != nil {
		return nil, err
	}

	old, err := s.currentState(ctx, personID, scope)
	if err != nil {
		return nil, err
	}

	actor := requestcontext.ContributorID(ctx)
	pref := &Preference{
		PersonID:      personID,
		ContributorID: scope,
		State:         state,
		SetBy:         actor,
	}
	if err := s.store.Set(ctx, pref); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "set preference")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionPreferenceSet,
		Person:   personID,
		Scope:    auditScope(scope),
		OldState: old,
		NewState: state,
		Reason:   reason,
	})
	s.cache.InvalidatePerson(ctx, personID)
	return pref, nil
}

// Clear removes a recorded choice. Clearing an absent preference is a
// no-op and emits nothing.
func (s *Service) Clear(ctx context.Context, personID id.PersonID, scope id.ContributorID, reason string) error {
	if err := s.authorize(ctx, personID, scope); err != nil {
		return err
	}

	old, err := s.currentState(ctx, personID, scope)
	if err != nil {
		return err
	}
	if old == "" {
		return nil
	}

	if err := s.store.Clear(ctx, personID, scope); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear preference")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionPreferenceCleared,
		Person:   personID,
		Scope:    auditScope(scope),
		OldState: old,
		Reason:   reason,
	})
	s.cache.InvalidatePerson(ctx, personID)
	return nil
}

// SnapshotPair returns the preference pair for resolution, consulting
// the cache first and filling it on a miss.
func (s *Service) SnapshotPair(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (Pair, error) {
	if pair, ok := s.cache.Get(ctx, personID, contributorID); ok {
		return pair, nil
	}
	pair, err := s.store.PairFor(ctx, personID, contributorID)
	if err != nil {
		return Pair{}, err
	}
	s.cache.Put(ctx, personID, contributorID, pair)
	return pair, nil
}

func (s *Service) authorize(ctx context.Context, personID id.PersonID, scope id.ContributorID) error {
	person, err := s.people.Get(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load person")
	}
	if requestcontext.Admin(ctx) {
		return nil
	}
	if scope.IsZero() {
		return dErrors.New(dErrors.CodeForbidden, "global preferences require admin")
	}
	actor := requestcontext.ContributorID(ctx)
	if person.Claimed() && person.ClaimedBy == actor {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not authorized to manage this person's preferences")
}

func (s *Service) currentState(ctx context.Context, personID id.PersonID, scope id.ContributorID) (visibility.State, error) {
	pair, err := s.store.PairFor(ctx, personID, scope)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read current preference")
	}
	if scope.IsZero() {
		return pair.Global, nil
	}
	return pair.Contributor, nil
}

func auditScope(scope id.ContributorID) audit.Scope {
	if scope.IsZero() {
		return audit.ScopePreferenceGlobal
	}
	return audit.ScopePreferenceContributor
}
