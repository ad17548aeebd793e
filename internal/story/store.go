package story

import (
	"context"

	id "memoria/pkg/domain"
)

// Store persists stories.
//
// Stores return sentinel.ErrNotFound for unknown story IDs.
type Store interface {
	Create(ctx context.Context, st *Story) error
	Get(ctx context.Context, storyID id.StoryID) (*Story, error)

	// ListRecent returns the newest published stories, newest first.
	// Held stories never appear here.
	ListRecent(ctx context.Context, limit int) ([]Story, error)
}
