// Package reference manages the mentions of people inside stories and
// produces the redacted projections viewers are allowed to see. A
// reference row records who was mentioned and the per-appearance
// visibility override; redaction combines that row with the person's
// default and standing preferences into exactly one disclosure level.
package reference

import (
	"time"

	"memoria/internal/people"
	"memoria/internal/preference"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
)

// Kind distinguishes direct person mentions from outbound links that may
// name a person (an obituary, a news article, a tribute page).
type Kind string

const (
	KindPerson Kind = "person"
	KindLink   Kind = "link"
)

// validKinds is the single source of truth for the closed kind set.
var validKinds = map[Kind]bool{
	KindPerson: true,
	KindLink:   true,
}

// ParseKind constructs a Kind from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "reference kind cannot be empty")
	}
	k := Kind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid reference kind")
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Role records how the mentioned person figures in the story itself.
type Role string

const (
	RoleWitness   Role = "witness"
	RoleHeardFrom Role = "heard_from"
	RoleSource    Role = "source"
	RoleRelated   Role = "related"
)

var validRoles = map[Role]bool{
	RoleWitness:   true,
	RoleHeardFrom: true,
	RoleSource:    true,
	RoleRelated:   true,
}

// ParseRole constructs a Role from external input. Role is optional on a
// reference, so the empty string parses to the zero Role.
//
// Errors: returns CodeInvalidInput for non-empty unsupported values.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", nil
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid reference role")
	}
	return r, nil
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Reference is one mention of a person, or one outbound link, inside a
// story.
type Reference struct {
	ID      id.ReferenceID
	StoryID id.StoryID
	Kind    Kind

	// PersonID links the mention to the people registry. Zero for
	// link-kind references that name nobody on record.
	PersonID id.PersonID

	// Relationship is the author-declared relationship of the mentioned
	// person to the story's subject ("cousin", "neighbor").
	Relationship string

	Role Role

	// URL and Label describe link-kind references. Label doubles as the
	// author-typed display name when no person row is linked.
	URL   string
	Label string

	// Override is the per-appearance visibility choice for this one
	// mention. It starts pending; once set it beats standing
	// preferences, but never a removed default or preference.
	Override visibility.State

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot bundles a reference with every standing signal redaction
// consults. Services assemble snapshots from the stores; the redaction
// functions themselves perform no I/O.
type Snapshot struct {
	Reference Reference

	// Author is the contributor who submitted the story.
	Author id.ContributorID

	// Person is the linked person row. Nil when the reference is
	// unlinked or the row has gone missing; a nil person resolves with
	// a pending default rather than failing.
	Person *people.Person

	// Preference is the standing preference pair recorded for the
	// mentioned person, scoped to the viewing contributor.
	Preference preference.Pair
}

// Viewer identifies who is looking at a redacted list. The zero value is
// an anonymous visitor.
type Viewer struct {
	ContributorID id.ContributorID
	IsAdmin       bool
}
