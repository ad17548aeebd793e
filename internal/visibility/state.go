// Package visibility implements the identity disclosure engine: the
// five-state visibility vocabulary, the precedence cascade that reconciles
// conflicting signals into one effective state, the relationship taxonomy,
// and the label rendering rules that decide what a viewer may see.
//
// Everything in this package is pure computation over values passed in.
// There is no I/O and no shared mutable state; callers may invoke any
// function concurrently.
package visibility

import dErrors "memoria/pkg/domain-errors"

// State is the disclosure level for one person. It is either stored (a
// person's default, a preference, a per-reference override) or derived
// (the effective state the resolver computes).
//
// Unknown or absent values are never an error in this package: resolution
// inputs normalize to StatePending, because an unrecognized value must
// never be read as permission to disclose.
type State string

const (
	// StateApproved discloses the real name.
	StateApproved State = "approved"
	// StatePending means no decision has been made yet. It is the safe
	// default for every missing, unknown, or malformed input.
	StatePending State = "pending"
	// StateAnonymized shows a relationship phrase instead of a name.
	StateAnonymized State = "anonymized"
	// StateBlurred shows initials only.
	StateBlurred State = "blurred"
	// StateRemoved suppresses the reference entirely. It is absorbing:
	// once any standing signal is removed, nothing can override it.
	StateRemoved State = "removed"
)

// validStates is the single source of truth for the closed state set.
var validStates = map[State]bool{
	StateApproved:   true,
	StatePending:    true,
	StateAnonymized: true,
	StateBlurred:    true,
	StateRemoved:    true,
}

// Normalize maps any raw visibility value onto the closed state set.
// Anything outside the set, including the empty string, becomes
// StatePending. Use this on the read path wherever external rows or
// payloads supply a visibility value.
func Normalize(v string) State {
	s := State(v)
	if !validStates[s] {
		return StatePending
	}
	return s
}

// ParseState constructs a State from external input on the write path,
// where a contributor or person is explicitly choosing a state. Unlike
// Normalize it rejects unknown values: silently recording a typo as
// "pending" would discard the caller's intent.
//
// Errors: returns CodeInvalidInput when the value is empty or not one of
// the supported states.
func ParseState(v string) (State, error) {
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "visibility cannot be empty")
	}
	s := State(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid visibility state")
	}
	return s, nil
}

// IsValid checks if the state is one of the supported enum values.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// normalized coerces unknown or absent values to StatePending.
func (s State) normalized() State {
	return Normalize(string(s))
}

// MediaTier is the treatment applied to photos and avatars associated
// with a person, derived from the same effective state as the name label.
type MediaTier string

const (
	MediaNormal  MediaTier = "normal"
	MediaBlurred MediaTier = "blurred"
	MediaHidden  MediaTier = "hidden"
)

// MediaPresentation derives the media tier from an effective state.
// Blurred identities get blurred media; approved and anonymized
// identities keep normal media (an anonymized label does not by itself
// identify a face owner); undecided and removed identities hide media.
func MediaPresentation(s State) MediaTier {
	switch s.normalized() {
	case StateBlurred:
		return MediaBlurred
	case StateApproved, StateAnonymized:
		return MediaNormal
	default:
		return MediaHidden
	}
}
