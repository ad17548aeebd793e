package reference

import (
	"context"
	"sync"
	"time"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// InMemoryStore keeps references in process memory. Used by tests and
// local development without PostgreSQL.
type InMemoryStore struct {
	mu      sync.RWMutex
	refs    map[id.ReferenceID]*Reference
	byStory map[id.StoryID][]id.ReferenceID
}

// NewInMemoryStore creates an empty in-memory reference store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		refs:    make(map[id.ReferenceID]*Reference),
		byStory: make(map[id.StoryID][]id.ReferenceID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, ref *Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.refs[ref.ID]; exists {
		return sentinel.ErrConflict
	}
	now := time.Now()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = now
	}
	ref.UpdatedAt = ref.CreatedAt
	clone := *ref
	s.refs[ref.ID] = &clone
	s.byStory[ref.StoryID] = append(s.byStory[ref.StoryID], ref.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, referenceID id.ReferenceID) (*Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[referenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *ref
	return &clone, nil
}

// ListByStory returns copies in insertion order, which matches creation
// order for this store.
func (s *InMemoryStore) ListByStory(_ context.Context, storyID id.StoryID) ([]Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byStory[storyID]
	out := make([]Reference, 0, len(ids))
	for _, refID := range ids {
		if ref, ok := s.refs[refID]; ok {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SetOverride(_ context.Context, referenceID id.ReferenceID, state visibility.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.refs[referenceID]
	if !ok {
		return sentinel.ErrNotFound
	}
	ref.Override = state
	ref.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) LatestRelationship(_ context.Context, personID id.PersonID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found        bool
		latest       time.Time
		relationship string
	)
	for _, ref := range s.refs {
		if ref.PersonID != personID || ref.Relationship == "" {
			continue
		}
		if !found || ref.CreatedAt.After(latest) {
			found = true
			latest = ref.CreatedAt
			relationship = ref.Relationship
		}
	}
	if !found {
		return "", sentinel.ErrNotFound
	}
	return relationship, nil
}
