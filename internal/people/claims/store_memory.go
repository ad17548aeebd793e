package claims

import (
	"context"
	"sync"
	"time"

	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in process memory.
type InMemoryStore struct {
	mu     sync.Mutex
	claims map[id.ClaimID]*Claim
}

// NewInMemoryStore creates an empty in-memory claims store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{claims: make(map[id.ClaimID]*Claim)}
}

func (s *InMemoryStore) Create(_ context.Context, claim *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[claim.ID]; exists {
		return sentinel.ErrConflict
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now()
	}
	clone := *claim
	s.claims[claim.ID] = &clone
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, claimID id.ClaimID) (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *claim
	return &clone, nil
}

func (s *InMemoryStore) MarkRedeemed(_ context.Context, claimID id.ClaimID, redeemer id.ContributorID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if claim.Redeemed() {
		return sentinel.ErrAlreadyUsed
	}
	claim.RedeemedBy = redeemer
	claim.RedeemedAt = at
	return nil
}
