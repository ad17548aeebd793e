// Package preference stores how a person wants to be displayed across all
// stories that mention them. Preferences come in two scopes: bound to one
// viewing contributor, or global across the site. The resolver consults
// both (contributor first) between per-reference overrides and the
// person's default.
package preference

import (
	"time"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Preference is one stored display choice.
type Preference struct {
	PersonID id.PersonID

	// ContributorID scopes the preference to one viewing contributor.
	// Zero means the global scope.
	ContributorID id.ContributorID

	State visibility.State

	// SetBy records who made the choice (the claimant, or an admin).
	SetBy id.ContributorID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Global reports whether this preference applies across all contributors.
func (p *Preference) Global() bool {
	return p.ContributorID.IsZero()
}

// Pair carries the two preference signals the resolver consults for one
// (person, contributor) combination. An empty state means no preference
// is recorded at that scope; the resolver treats it as absent.
type Pair struct {
	Contributor visibility.State
	Global      visibility.State
}

// IsZero reports whether neither scope has a recorded preference.
func (p Pair) IsZero() bool {
	return p.Contributor == "" && p.Global == ""
}
