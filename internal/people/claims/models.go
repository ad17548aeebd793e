// Package claims lets a mentioned person take control of their identity.
// An existing contributor issues a claim link for a person; the secret in
// the link is shown once and stored only as a bcrypt hash. Redeeming the
// claim binds the redeemer's account to the person, granting them control
// over the person's visibility. Delivering the link (SMS, email, invite
// chain) is outside this package.
package claims

import (
	"time"

	id "memoria/pkg/domain"
)

// Claim is one issued claim link. A claim is single-use and expires.
type Claim struct {
	ID       id.ClaimID
	PersonID id.PersonID

	// SecretHash is the bcrypt hash of the link secret. The plaintext
	// secret exists only in the issuance response.
	SecretHash string

	IssuedBy  id.ContributorID
	ExpiresAt time.Time

	RedeemedBy id.ContributorID
	RedeemedAt time.Time

	CreatedAt time.Time
}

// Redeemed reports whether this claim has been used.
func (c *Claim) Redeemed() bool {
	return !c.RedeemedBy.IsZero()
}

// IssuedClaim pairs a stored claim with its one-time plaintext secret.
type IssuedClaim struct {
	Claim  *Claim
	Secret string
}
