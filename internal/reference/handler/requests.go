package handler

import (
	"strings"

	dErrors "memoria/pkg/domain-errors"
)

const maxReasonLength = 500

// SetOverrideRequest is the HTTP request body for
// PUT /references/{referenceID}/visibility.
type SetOverrideRequest struct {
	Visibility string `json:"visibility"`
	Reason     string `json:"reason,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SetOverrideRequest) Validate() error {
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
