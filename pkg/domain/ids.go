// Package domain holds the typed identifiers and shared value types that
// cross package boundaries. Typed IDs prevent accidental cross-assignment
// (a StoryID can never be passed where a PersonID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "memoria/pkg/domain-errors"
)

// PersonID identifies a person mentioned in stories. People exist
// independently of accounts: a person row may be created implicitly the
// first time a contributor tags a name.
type PersonID uuid.UUID

// ContributorID identifies an authenticated account that submits stories
// or holds visibility preferences.
type ContributorID uuid.UUID

// StoryID identifies a submitted story.
type StoryID uuid.UUID

// ReferenceID identifies a single mention of a person within a story.
type ReferenceID uuid.UUID

// ClaimID identifies a pending identity claim (an invitation for a person
// to take control of their mentions).
type ClaimID uuid.UUID

// parseUUID enforces the shared parsing invariant: IDs must be valid,
// non-empty, non-nil UUIDs. All typed parsers delegate here so validation
// cannot drift between types.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return id, nil
}

// ParsePersonID constructs a PersonID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or
// the nil UUID.
func ParsePersonID(s string) (PersonID, error) {
	id, err := parseUUID(s, "person id")
	return PersonID(id), err
}

// ParseContributorID constructs a ContributorID from external input.
func ParseContributorID(s string) (ContributorID, error) {
	id, err := parseUUID(s, "contributor id")
	return ContributorID(id), err
}

// ParseStoryID constructs a StoryID from external input.
func ParseStoryID(s string) (StoryID, error) {
	id, err := parseUUID(s, "story id")
	return StoryID(id), err
}

// ParseReferenceID constructs a ReferenceID from external input.
func ParseReferenceID(s string) (ReferenceID, error) {
	id, err := parseUUID(s, "reference id")
	return ReferenceID(id), err
}

// ParseClaimID constructs a ClaimID from external input.
func ParseClaimID(s string) (ClaimID, error) {
	id, err := parseUUID(s, "claim id")
	return ClaimID(id), err
}

// NewPersonID generates a fresh random PersonID.
func NewPersonID() PersonID { return PersonID(uuid.New()) }

// NewContributorID generates a fresh random ContributorID.
func NewContributorID() ContributorID { return ContributorID(uuid.New()) }

// NewStoryID generates a fresh random StoryID.
func NewStoryID() StoryID { return StoryID(uuid.New()) }

// NewReferenceID generates a fresh random ReferenceID.
func NewReferenceID() ReferenceID { return ReferenceID(uuid.New()) }

// NewClaimID generates a fresh random ClaimID.
func NewClaimID() ClaimID { return ClaimID(uuid.New()) }

// IsZero reports whether the ID is the nil UUID.
func (id PersonID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ContributorID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id StoryID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ReferenceID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }

// String returns the canonical lowercase UUID form.
func (id PersonID) String() string      { return uuid.UUID(id).String() }
func (id ContributorID) String() string { return uuid.UUID(id).String() }
func (id StoryID) String() string       { return uuid.UUID(id).String() }
func (id ReferenceID) String() string   { return uuid.UUID(id).String() }
func (id ClaimID) String() string       { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler so typed IDs serialize as
// canonical UUID strings in JSON payloads.
func (id PersonID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ContributorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id StoryID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id ReferenceID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ClaimID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

// UnmarshalText parses incoming IDs with the same validation as the Parse
// functions, so malformed IDs fail at decode time.
func (id *PersonID) UnmarshalText(b []byte) error {
	parsed, err := ParsePersonID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ContributorID) UnmarshalText(b []byte) error {
	parsed, err := ParseContributorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *StoryID) UnmarshalText(b []byte) error {
	parsed, err := ParseStoryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReferenceID) UnmarshalText(b []byte) error {
	parsed, err := ParseReferenceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ClaimID) UnmarshalText(b []byte) error {
	parsed, err := ParseClaimID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
