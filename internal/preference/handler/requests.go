package handler

import (
	"strings"

	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
)

const maxReasonLength = 500

// SetPreferenceRequest is the HTTP request body for
// PUT /people/{personID}/preference. An absent contributor_id targets the
// global scope.
type SetPreferenceRequest struct {
	Visibility    string `json:"visibility"`
	ContributorID string `json:"contributor_id,omitempty"`
	Reason        string `json:"reason,omitempty"`

	// Parsed values (populated by Validate)
	parsedScope id.ContributorID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SetPreferenceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if len(r.Reason) > maxReasonLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "reason must be at most %d characters", maxReasonLength)
	}

	r.Visibility = strings.TrimSpace(r.Visibility)
	if r.Visibility == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "visibility is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)

	r.ContributorID = strings.TrimSpace(r.ContributorID)
	if r.ContributorID != "" {
		scope, err := id.ParseContributorID(r.ContributorID)
		if err != nil {
			return err
		}
		r.parsedScope = scope
	}

	return nil
}

// ParsedScope returns the validated contributor scope; zero means global.
func (r *SetPreferenceRequest) ParsedScope() id.ContributorID {
	return r.parsedScope
}
