package story

import (
	"context"
	"sort"
	"sync"
	"time"

	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// InMemoryStore keeps stories in process memory. Used by tests and
// local development without PostgreSQL.
type InMemoryStore struct {
	mu      sync.RWMutex
	stories map[id.StoryID]*Story
}

// NewInMemoryStore creates an empty in-memory story store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{stories: make(map[id.StoryID]*Story)}
}

func (s *InMemoryStore) Create(_ context.Context, st *Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stories[st.ID]; exists {
		return sentinel.ErrConflict
	}
	now := time.Now()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = st.CreatedAt
	clone := *st
	s.stories[st.ID] = &clone
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, storyID id.StoryID) (*Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stories[storyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *st
	return &clone, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Story, 0, len(s.stories))
	for _, st := range s.stories {
		if st.Status == StatusPublished {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
