// Package story owns memory submissions: accepting a contributor's
// story, scanning its body for named people, recording the references
// those names produce, and rendering the body for a viewer with every
// not-yet-approved name masked.
package story

import (
	"time"

	id "memoria/pkg/domain"
)

// Status is a story's publication state. The moderation gate decides it
// at submission time.
type Status string

const (
	// StatusPublished stories appear in the public feed.
	StatusPublished Status = "published"

	// StatusPendingReview stories are held for moderation and are
	// visible only to their author and admins.
	StatusPendingReview Status = "pending_review"
)

// normalizeStatus degrades an unrecognized stored status to held rather
// than published.
func normalizeStatus(v string) Status {
	if Status(v) == StatusPublished {
		return StatusPublished
	}
	return StatusPendingReview
}

// Story is one submitted memory.
type Story struct {
	ID       id.StoryID
	AuthorID id.ContributorID
	Title    string

	// Body is the original submitted text, markup and real names
	// included. It never leaves the service unmasked except to its
	// author; viewers get the rendered form.
	Body string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Submission is the authoring input for one memory.
type Submission struct {
	Title string `json:"title"`
	Body  string `json:"body"`

	// Mentions are the people the author tagged explicitly. Names the
	// detector finds in the body but the author did not tag become
	// references too, just without a relationship.
	Mentions []Mention `json:"mentions,omitempty"`

	// Links are external resources attached to the story.
	Links []Link `json:"links,omitempty"`
}

// Mention tags one named person with what the author knows about them.
type Mention struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Link attaches an external resource to the story.
type Link struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// Rendered is a story prepared for one viewer: title and body with
// every name masked that the viewer is not permitted to see.
type Rendered struct {
	ID        id.StoryID       `json:"id"`
	AuthorID  id.ContributorID `json:"author_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Status    Status           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
