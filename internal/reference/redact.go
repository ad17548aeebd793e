package reference

import (
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Redacted is the viewer-facing projection of one reference. Removed
// references never appear as Redacted values at all; they are dropped
// before rendering.
type Redacted struct {
	ID         id.ReferenceID   `json:"id"`
	Kind       Kind             `json:"type"`
	Visibility visibility.State `json:"visibility"`

	RelationshipToSubject string `json:"relationship_to_subject,omitempty"`

	// PersonDisplayName carries the real name only for approved
	// references. Every other state leaves it empty.
	PersonDisplayName string `json:"person_display_name,omitempty"`

	IdentityState     visibility.IdentityClass `json:"identity_state"`
	MediaPresentation visibility.MediaTier     `json:"media_presentation"`
	RenderLabel       string                   `json:"render_label"`

	AuthorPayload *AuthorPayload `json:"author_payload,omitempty"`
}

// AuthorPayload is the richer projection attached only for the story's
// author and for admins. The capability flags always ship false here:
// granting them is an authorization decision made outside this engine.
type AuthorPayload struct {
	// AuthorLabel is the untouched name as the author recorded it.
	AuthorLabel string `json:"author_label"`

	RenderLabel       string                   `json:"render_label"`
	IdentityState     visibility.IdentityClass `json:"identity_state"`
	MediaPresentation visibility.MediaTier     `json:"media_presentation"`

	CanApprove        bool `json:"canApprove"`
	CanAnonymize      bool `json:"canAnonymize"`
	CanRemove         bool `json:"canRemove"`
	CanInvite         bool `json:"canInvite"`
	CanEditDescriptor bool `json:"canEditDescriptor"`
}

// Signals derives the resolver inputs for this snapshot.
//
// Person-linked references run the full cascade. A reference that points
// at a person the store no longer returns resolves with a pending
// default, so orphaned mentions degrade instead of erroring. Link
// references that name nobody on record have no one with standing to
// object; they default to approved and only the per-reference override
// can change them.
func (s Snapshot) Signals() visibility.Signals {
	ref := s.Reference
	if ref.Kind == KindLink && s.Person == nil && ref.PersonID.IsZero() {
		return visibility.Signals{
			Override: ref.Override,
			Default:  visibility.StateApproved,
		}
	}

	sig := visibility.Signals{
		Override:    ref.Override,
		Contributor: s.Preference.Contributor,
		Global:      s.Preference.Global,
	}
	if s.Person != nil {
		sig.Default = s.Person.DefaultVisibility
	}
	return sig
}

// displayName is the real-name string redaction may disclose for this
// snapshot: the linked person's canonical name, else whatever the author
// typed into the reference label.
func (s Snapshot) displayName() string {
	if s.Person != nil && s.Person.CanonicalName != "" {
		return s.Person.CanonicalName
	}
	return s.Reference.Label
}

// RedactOne resolves and renders a single snapshot for the given viewer.
// The second return is false when the effective state is removed;
// callers must drop the reference entirely, never render a placeholder.
//
// The guarantee every caller leans on: the real name reaches the output
// only when the resolved state is exactly approved.
func RedactOne(snap Snapshot, viewer Viewer) (Redacted, bool) {
	state := visibility.Resolve(snap.Signals())
	if state == visibility.StateRemoved {
		return Redacted{}, false
	}

	ref := snap.Reference
	name := snap.displayName()
	label := visibility.Label(state, name, ref.Relationship)
	if label == "" {
		// Approved references with no recorded name land here.
		label = visibility.PlaceholderProse
	}

	out := Redacted{
		ID:                    ref.ID,
		Kind:                  ref.Kind,
		Visibility:            state,
		RelationshipToSubject: ref.Relationship,
		IdentityState:         visibility.ClassFor(state, name, ref.Relationship),
		MediaPresentation:     visibility.MediaPresentation(state),
		RenderLabel:           label,
	}
	if state == visibility.StateApproved {
		out.PersonDisplayName = name
	}
	if viewer.IsAdmin || (!snap.Author.IsZero() && viewer.ContributorID == snap.Author) {
		out.AuthorPayload = &AuthorPayload{
			AuthorLabel:       name,
			RenderLabel:       label,
			IdentityState:     out.IdentityState,
			MediaPresentation: out.MediaPresentation,
		}
	}
	return out, true
}

// RedactAll maps snapshots to their viewer-facing projections, dropping
// effectively removed references. Output order follows input order.
func RedactAll(snaps []Snapshot, viewer Viewer) []Redacted {
	out := make([]Redacted, 0, len(snaps))
	for _, snap := range snaps {
		redacted, ok := RedactOne(snap, viewer)
		if !ok {
			continue
		}
		out = append(out, redacted)
	}
	return out
}
