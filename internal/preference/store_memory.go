package preference

import (
	"context"
	"sync"
	"time"

	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

type scopeKey struct {
	person      id.PersonID
	contributor id.ContributorID
}

// InMemoryStore keeps preferences in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	prefs map[scopeKey]*Preference
}

// NewInMemoryStore creates an empty in-memory preference store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{prefs: make(map[scopeKey]*Preference)}
}

func (s *InMemoryStore) Set(_ context.Context, pref *Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey{person: pref.PersonID, contributor: pref.ContributorID}
	now := time.Now()
	if existing, ok := s.prefs[key]; ok {
		existing.State = pref.State
		existing.SetBy = pref.SetBy
		existing.UpdatedAt = now
		return nil
	}
	clone := *pref
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = clone.CreatedAt
	s.prefs[key] = &clone
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, personID id.PersonID, contributorID id.ContributorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey{person: personID, contributor: contributorID}
	if _, ok := s.prefs[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.prefs, key)
	return nil
}

func (s *InMemoryStore) PairFor(_ context.Context, personID id.PersonID, contributorID id.ContributorID) (Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pair Pair
	if !contributorID.IsZero() {
		if pref, ok := s.prefs[scopeKey{person: personID, contributor: contributorID}]; ok {
			pair.Contributor = pref.State
		}
	}
	if pref, ok := s.prefs[scopeKey{person: personID}]; ok {
		pair.Global = pref.State
	}
	return pair, nil
}
