package handler

import (
	"time"

	"memoria/internal/people"
	"memoria/internal/people/claims"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// IssuedClaimResponse is the HTTP response for POST /people/{personID}/claims.
// The secret appears here and nowhere else; the store keeps only its hash.
type IssuedClaimResponse struct {
	ClaimID   id.ClaimID  `json:"claim_id"`
	PersonID  id.PersonID `json:"person_id"`
	Secret    string      `json:"secret"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RedeemedResponse is the HTTP response for POST /claims/redeem.
type RedeemedResponse struct {
	ID                id.PersonID      `json:"id"`
	CanonicalName     string           `json:"canonical_name"`
	DefaultVisibility visibility.State `json:"default_visibility"`
	Claimed           bool             `json:"claimed"`
}

// FromIssuedClaim converts an issued claim to an HTTP response.
func FromIssuedClaim(issued *claims.IssuedClaim) *IssuedClaimResponse {
	return &IssuedClaimResponse{
		ClaimID:   issued.Claim.ID,
		PersonID:  issued.Claim.PersonID,
		Secret:    issued.Secret,
		ExpiresAt: issued.Claim.ExpiresAt,
	}
}

// FromPerson converts the newly claimed person to an HTTP response.
func FromPerson(person *people.Person) *RedeemedResponse {
	return &RedeemedResponse{
		ID:                person.ID,
		CanonicalName:     person.CanonicalName,
		DefaultVisibility: person.DefaultVisibility,
		Claimed:           person.Claimed(),
	}
}
