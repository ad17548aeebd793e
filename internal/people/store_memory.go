package people

import (
	"context"
	"strings"
	"sync"
	"time"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// InMemoryStore keeps people in process memory. Used by tests and
// local development without PostgreSQL.
type InMemoryStore struct {
	mu      sync.RWMutex
	people  map[id.PersonID]*Person
	aliases map[id.PersonID][]string
}

// NewInMemoryStore creates an empty in-memory people store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		people:  make(map[id.PersonID]*Person),
		aliases: make(map[id.PersonID][]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, person *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.people[person.ID]; exists {
		return sentinel.ErrConflict
	}
	now := time.Now()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = person.CreatedAt
	clone := *person
	s.people[person.ID] = &clone
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, personID id.PersonID) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.people[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *person
	return &clone, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, sentinel.ErrNotFound
	}

	if p := s.matchOldest(func(p *Person) bool {
		for _, alias := range s.aliases[p.ID] {
			if strings.ToLower(alias) == needle {
				return true
			}
		}
		return false
	}); p != nil {
		return p, nil
	}

	if p := s.matchOldest(func(p *Person) bool {
		return strings.ToLower(p.CanonicalName) == needle
	}); p != nil {
		return p, nil
	}

	if p := s.matchOldest(func(p *Person) bool {
		canonical := strings.ToLower(p.CanonicalName)
		return strings.Contains(canonical, needle) || strings.Contains(needle, canonical)
	}); p != nil {
		return p, nil
	}

	return nil, sentinel.ErrNotFound
}

// matchOldest returns a copy of the earliest-created person satisfying
// the predicate, keeping lookups deterministic across map iteration.
func (s *InMemoryStore) matchOldest(match func(*Person) bool) *Person {
	var best *Person
	for _, p := range s.people {
		if !match(p) {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	clone := *best
	return &clone
}

func (s *InMemoryStore) SetDefaultVisibility(_ context.Context, personID id.PersonID, state visibility.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok {
		return sentinel.ErrNotFound
	}
	person.DefaultVisibility = state
	person.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) SetClaimedBy(_ context.Context, personID id.PersonID, contributorID id.ContributorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok {
		return sentinel.ErrNotFound
	}
	person.ClaimedBy = contributorID
	person.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) AddAliases(_ context.Context, personID id.PersonID, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[personID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if s.hasAlias(personID, name) {
			continue
		}
		s.aliases[personID] = append(s.aliases[personID], name)
	}
	return nil
}

func (s *InMemoryStore) hasAlias(personID id.PersonID, name string) bool {
	for _, existing := range s.aliases[personID] {
		if strings.EqualFold(existing, name) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) Aliases(_ context.Context, personID id.PersonID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.people[personID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]string, len(s.aliases[personID]))
	copy(out, s.aliases[personID])
	return out, nil
}
