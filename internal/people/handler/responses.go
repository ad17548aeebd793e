package handler

import (
	"memoria/internal/people"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// PersonResponse is the HTTP response for person management endpoints.
// It goes only to callers with control over the person, so the canonical
// name appears unmasked.
type PersonResponse struct {
	ID                id.PersonID      `json:"id"`
	CanonicalName     string           `json:"canonical_name"`
	DefaultVisibility visibility.State `json:"default_visibility"`
	Claimed           bool             `json:"claimed"`
}

// AliasesResponse is the HTTP response for POST /people/{personID}/aliases.
type AliasesResponse struct {
	Aliases []string `json:"aliases"`
}

// FromPerson converts a person row to an HTTP response.
func FromPerson(person *people.Person) *PersonResponse {
	return &PersonResponse{
		ID:                person.ID,
		CanonicalName:     person.CanonicalName,
		DefaultVisibility: person.DefaultVisibility,
		Claimed:           person.Claimed(),
	}
}
