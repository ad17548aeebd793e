package handler

import (
	"strings"
	"unicode/utf8"

	"memoria/internal/story"
	dErrors "memoria/pkg/domain-errors"
)

// SubmitStoryRequest is the HTTP request body for POST /stories.
type SubmitStoryRequest struct {
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Mentions []MentionRequest `json:"mentions"`
	Links    []LinkRequest    `json:"links"`
}

// MentionRequest tags a person the author explicitly named.
type MentionRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Role         string `json:"role,omitempty"`
}

// LinkRequest attaches an external resource to the story.
type LinkRequest struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitStoryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if utf8.RuneCountInString(r.Body) > story.MaxBodyLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "body must be at most %d characters", story.MaxBodyLength)
	}
	if utf8.RuneCountInString(r.Title) > story.MaxTitleLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "title must be at most %d characters", story.MaxTitleLength)
	}

	// Required fields
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "body is required")
	}

	for i := range r.Mentions {
		r.Mentions[i].Name = strings.TrimSpace(r.Mentions[i].Name)
		if r.Mentions[i].Name == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "mention name is required")
		}
	}
	for i := range r.Links {
		r.Links[i].URL = strings.TrimSpace(r.Links[i].URL)
		if r.Links[i].URL == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "link url is required")
		}
	}

	return nil
}

// Submission converts the request to a domain submission.
func (r *SubmitStoryRequest) Submission() story.Submission {
	sub := story.Submission{
		Title: strings.TrimSpace(r.Title),
		Body:  r.Body,
	}
	for _, m := range r.Mentions {
		sub.Mentions = append(sub.Mentions, story.Mention{
			Name:         m.Name,
			Relationship: strings.TrimSpace(m.Relationship),
			Role:         strings.TrimSpace(m.Role),
		})
	}
	for _, l := range r.Links {
		sub.Links = append(sub.Links, story.Link{
			URL:   l.URL,
			Label: strings.TrimSpace(l.Label),
		})
	}
	return sub
}

// ScanRequest is the HTTP request body for POST /stories/scan.
type ScanRequest struct {
	Body string `json:"body"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if utf8.RuneCountInString(r.Body) > story.MaxBodyLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "body must be at most %d characters", story.MaxBodyLength)
	}

	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "body is required")
	}

	return nil
}
