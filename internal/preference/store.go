package preference

import (
	"context"

	id "memoria/pkg/domain"
)

// Store persists preferences.
//
// PairFor returns both signals for one (person, contributor) combination
// in a single call so resolution needs one store round trip. Absent
// scopes come back as empty states, not errors. Clear returns
// sentinel.ErrNotFound when no row existed at that scope.
type Store interface {
	Set(ctx context.Context, pref *Preference) error
	Clear(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) error
	PairFor(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (Pair, error)
}
