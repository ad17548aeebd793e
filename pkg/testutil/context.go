package testutil

import (
	"net/http"

	id "memoria/pkg/domain"
	"memoria/pkg/requestcontext"
)

// WithContributor attaches an authenticated contributor to the request
// context. This simulates what the auth middleware does after validating
// a bearer token, so handler tests can skip token plumbing.
func WithContributor(req *http.Request, contributorID id.ContributorID) *http.Request {
	return req.WithContext(requestcontext.WithContributorID(req.Context(), contributorID))
}

// WithAdmin attaches an authenticated contributor holding the admin role.
func WithAdmin(req *http.Request, contributorID id.ContributorID) *http.Request {
	ctx := requestcontext.WithContributorID(req.Context(), contributorID)
	ctx = requestcontext.WithAdmin(ctx, true)
	return req.WithContext(ctx)
}
