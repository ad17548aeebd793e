package handler

import (
	"strings"

	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
)

const maxSecretLength = 128

// RedeemRequest is the HTTP request body for POST /claims/redeem.
type RedeemRequest struct {
	ClaimID string `json:"claim_id"`
	Secret  string `json:"secret"`

	// Parsed values (populated by Validate)
	parsedClaimID id.ClaimID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RedeemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Secret) > maxSecretLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "secret must be at most %d characters", maxSecretLength)
	}

	// Required fields
	r.ClaimID = strings.TrimSpace(r.ClaimID)
	if r.ClaimID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "claim_id is required")
	}
	r.Secret = strings.TrimSpace(r.Secret)
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "secret is required")
	}

	claimID, err := id.ParseClaimID(r.ClaimID)
	if err != nil {
		return err
	}
	r.parsedClaimID = claimID

	return nil
}

// ParsedClaimID returns the validated claim ID.
func (r *RedeemRequest) ParsedClaimID() id.ClaimID {
	return r.parsedClaimID
}
