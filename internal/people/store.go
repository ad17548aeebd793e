package people

import (
	"context"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Store persists people and their aliases.
//
// FindByName resolves a free-text name to a registry row using the
// matching ladder: alias exact match, then canonical exact match, then
// substring containment in either direction. All rungs are
// case-insensitive. Stores return sentinel.ErrNotFound when no rung
// matches.
type Store interface {
	Create(ctx context.Context, person *Person) error
	Get(ctx context.Context, personID id.PersonID) (*Person, error)
	FindByName(ctx context.Context, name string) (*Person, error)
	SetDefaultVisibility(ctx context.Context, personID id.PersonID, state visibility.State) error
	SetClaimedBy(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) error
	AddAliases(ctx context.Context, personID id.PersonID, names []string) error
	Aliases(ctx context.Context, personID id.PersonID) ([]string, error)
}
