package handler

import (
	"time"

	"memoria/internal/namescan"
	"memoria/internal/story"
	id "memoria/pkg/domain"
)

// StoryPayload mirrors a stored story back to its author.
type StoryPayload struct {
	ID        id.StoryID `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// SubmitStoryResponse is the HTTP response for POST /stories.
type SubmitStoryResponse struct {
	Story        StoryPayload             `json:"story"`
	References   []story.ReferenceReceipt `json:"references"`
	Cleared      []namescan.ClearedPerson `json:"cleared"`
	NeedsConsent []string                 `json:"needs_consent,omitempty"`
}

// ListStoriesResponse is the HTTP response for GET /stories.
type ListStoriesResponse struct {
	Stories []story.Rendered `json:"stories"`
}

// FromReceipt converts a domain submission receipt to an HTTP response.
func FromReceipt(receipt *story.Receipt) *SubmitStoryResponse {
	return &SubmitStoryResponse{
		Story: StoryPayload{
			ID:        receipt.Story.ID,
			Title:     receipt.Story.Title,
			Body:      receipt.Story.Body,
			Status:    string(receipt.Story.Status),
			CreatedAt: receipt.Story.CreatedAt,
		},
		References:   receipt.References,
		Cleared:      receipt.Cleared,
		NeedsConsent: receipt.NeedsConsent,
	}
}
