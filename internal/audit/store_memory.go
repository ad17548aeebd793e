package audit

import (
	"context"
	"sync"

	id "memoria/pkg/domain"
)

// InMemoryStore keeps audit events in memory, indexed by the person whose
// visibility was affected. The default sink in development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.PersonID][]Event
	all    []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.PersonID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, event)
	if !event.Person.IsZero() {
		s.events[event.Person] = append(s.events[event.Person], event)
	}
	return nil
}

func (s *InMemoryStore) ListByPerson(_ context.Context, personID id.PersonID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[personID]...), nil
}

// ListAll returns every recorded event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.all...), nil
}

// Clear drops all recorded events. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.PersonID][]Event)
	s.all = nil
}
