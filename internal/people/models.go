// Package people maintains the registry of persons mentioned in stories.
// A person exists independently of any account: rows are created
// implicitly the first time a contributor tags a name, and may later be
// claimed by the person themselves through the claims flow.
package people

import (
	"time"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Person is a registry entry for someone mentioned in at least one story.
type Person struct {
	ID            id.PersonID
	CanonicalName string

	// DefaultVisibility is the person-wide baseline consulted when no
	// preference or per-reference override applies. Implicitly created
	// people start at pending until someone with standing decides.
	DefaultVisibility visibility.State

	// CreatedBy is the contributor whose submission first mentioned
	// this person.
	CreatedBy id.ContributorID

	// ClaimedBy is the contributor account that redeemed an identity
	// claim for this person. Zero until claimed. The claimant controls
	// the person's default visibility.
	ClaimedBy id.ContributorID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Claimed reports whether an account controls this person's identity.
func (p *Person) Claimed() bool {
	return !p.ClaimedBy.IsZero()
}

// Alias is an alternate name a person is known by. Scans match aliases
// before canonical names so nicknames resolve to the right registry row.
type Alias struct {
	PersonID  id.PersonID
	Name      string
	CreatedAt time.Time
}
