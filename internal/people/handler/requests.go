package handler

import (
	"strings"

	dErrors "memoria/pkg/domain-errors"
)

const (
	maxReasonLength = 500
	maxAliasBatch   = 20
)

// SetVisibilityRequest is the HTTP request body for
// PUT /people/{personID}/visibility.
type SetVisibilityRequest struct {
	Visibility string `json:"visibility"`
	Reason     string `json:"reason,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SetVisibilityRequest) Validate() error {
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

	return nil
}

// AddAliasesRequest is the HTTP request body for
// POST /people/{personID}/aliases.
type AddAliasesRequest struct {
	Aliases []string `json:"aliases"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddAliasesRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if len(r.Aliases) > maxAliasBatch {
		return dErrors.Newf(dErrors.CodeInvalidInput, "at most %d aliases per request", maxAliasBatch)
	}
	if len(r.Aliases) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one alias is required")
	}

	return nil
}
