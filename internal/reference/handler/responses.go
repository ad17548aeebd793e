package handler

import (
	"memoria/internal/reference"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// ListReferencesResponse is the HTTP response for
// GET /stories/{storyID}/references.
type ListReferencesResponse struct {
	References []reference.Redacted `json:"references"`
}

// OverrideResponse is the HTTP response for
// PUT /references/{referenceID}/visibility.
type OverrideResponse struct {
	ID         id.ReferenceID   `json:"id"`
	StoryID    id.StoryID       `json:"story_id"`
	Kind       reference.Kind   `json:"type"`
	Visibility visibility.State `json:"visibility"`
}

// FromReference converts an updated reference to an HTTP response.
func FromReference(ref *reference.Reference) *OverrideResponse {
	return &OverrideResponse{
		ID:         ref.ID,
		StoryID:    ref.StoryID,
		Kind:       ref.Kind,
		Visibility: ref.Override,
	}
}
