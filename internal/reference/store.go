package reference

import (
	"context"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Store persists story references.
//
// Stores return sentinel.ErrNotFound for unknown reference IDs and for
// relationship lookups on people no story has described yet.
type Store interface {
	Create(ctx context.Context, ref *Reference) error
	Get(ctx context.Context, referenceID id.ReferenceID) (*Reference, error)

	// ListByStory returns a story's references in creation order.
	ListByStory(ctx context.Context, storyID id.StoryID) ([]Reference, error)

	// SetOverride records the per-appearance visibility choice.
	SetOverride(ctx context.Context, referenceID id.ReferenceID, state visibility.State) error

	// LatestRelationship returns the most recently recorded relationship
	// for a person across every story that mentions them.
	LatestRelationship(ctx context.Context, personID id.PersonID) (string, error)
}
