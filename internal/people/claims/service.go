package claims

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"memoria/internal/audit"
	"memoria/internal/people"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/requestcontext"
)

const (
	secretBytes = 32
	defaultTTL  = 14 * 24 * time.Hour
)

// Service issues and redeems identity claims.
type Service struct {
	store  Store
	people people.Store
	audit  audit.Recorder
	logger *slog.Logger
	ttl    time.Duration
}

// Option configures the claims service.
type Option func(*Service)

// WithTTL overrides how long an issued claim stays redeemable.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService constructs the claims service.
func NewService(store Store, peopleStore people.Store, recorder audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		people: peopleStore,
		audit:  recorder,
		logger: logger,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Issue creates a claim link for an unclaimed person. The returned
// secret appears nowhere else; only its hash is stored.
func (s *Service) Issue(ctx context.Context, personID id.PersonID) (*IssuedClaim, error) {
	actor := requestcontext.ContributorID(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	person, err := s.people.Get(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load person")
	}
	if person.Claimed() {
		return nil, dErrors.New(dErrors.CodeConflict, "person is already claimed")
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate claim secret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash claim secret")
	}

	now := requestcontext.Now(ctx)
	claim := &Claim{
		ID:         id.NewClaimID(),
		PersonID:   personID,
		SecretHash: string(hash),
		IssuedBy:   actor,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.store.Create(ctx, claim); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store claim")
	}

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionClaimIssued,
		Person: personID,
		Scope:  audit.ScopeClaim,
	})
	s.logger.InfoContext(ctx, "identity claim issued",
		"person_id", personID,
		"claim_id", claim.ID,
		"expires_at", claim.ExpiresAt,
	)
	return &IssuedClaim{Claim: claim, Secret: secret}, nil
}

// Redeem verifies a claim secret and binds the calling account to the
// person. Exactly one redemption can succeed per claim.
func (s *Service) Redeem(ctx context.Context, claimID id.ClaimID, secret string) (*people.Person, error) {
	actor := requestcontext.ContributorID(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	claim, err := s.store.Get(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claim")
	}
	if claim.Redeemed() {
		return nil, dErrors.New(dErrors.CodeConflict, "claim already redeemed")
	}

	now := requestcontext.Now(ctx)
	if now.After(claim.ExpiresAt) {
		return nil, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeForbidden, "claim expired")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(claim.SecretHash), []byte(secret)); err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid claim secret")
	}

	if err := s.store.MarkRedeemed(ctx, claimID, actor, now); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "claim already redeemed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mark claim redeemed")
	}
	if err := s.people.SetClaimedBy(ctx, claim.PersonID, actor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "bind claimant")
	}

	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionClaimRedeemed,
		Person: claim.PersonID,
		Scope:  audit.ScopeClaim,
	})
	s.logger.InfoContext(ctx, "identity claim redeemed",
		"person_id", claim.PersonID,
		"claim_id", claimID,
	)

	person, err := s.people.Get(ctx, claim.PersonID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claimed person")
	}
	return person, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
