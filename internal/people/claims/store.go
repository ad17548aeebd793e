package claims

import (
	"context"
	"time"

	id "memoria/pkg/domain"
)

// Store persists claims.
//
// MarkRedeemed must be atomic: it succeeds for exactly one caller per
// claim and returns sentinel.ErrAlreadyUsed for everyone else, so two
// concurrent redemptions cannot both bind an account.
type Store interface {
	Create(ctx context.Context, claim *Claim) error
	Get(ctx context.Context, claimID id.ClaimID) (*Claim, error)
	MarkRedeemed(ctx context.Context, claimID id.ClaimID, redeemer id.ContributorID, at time.Time) error
}
