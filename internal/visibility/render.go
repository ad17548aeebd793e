package visibility

import (
	"strings"
	"unicode"
)

// Placeholder vocabulary. Each visual context uses exactly one
// placeholder: prose labels (what a viewer reads in a rendered story
// or reference list) say "someone"; compact inline masking of
// not-yet-cleared names inside story text uses the bracket marker.
const (
	PlaceholderProse  = "someone"
	PlaceholderInline = "[person]"
)

// IdentityClass tells the presentation layer what kind of label it
// received, independent of the visibility state that produced it.
type IdentityClass string

const (
	// IdentityNamed means the label is the person's real name.
	IdentityNamed IdentityClass = "named"
	// IdentityInitials means the label is an initials form.
	IdentityInitials IdentityClass = "initials"
	// IdentityDescribed means the label is a relationship phrase.
	IdentityDescribed IdentityClass = "described"
	// IdentityUndisclosed means the label is a generic placeholder
	// (or nothing at all, for removed references).
	IdentityUndisclosed IdentityClass = "undisclosed"
)

// Label produces the viewer-facing string for a resolved state.
//
// The one guarantee every caller leans on: the real name is returned
// only when state is exactly StateApproved. Every other state yields
// initials, a relationship phrase, a placeholder, or nothing.
//
// Removed references must be filtered out before rendering; Label
// returns the empty string for StateRemoved as a backstop so that a
// missed filter shows nothing rather than something.
func Label(state State, name, relationship string) string {
	switch state.normalized() {
	case StateApproved:
		return name
	case StateBlurred:
		return Initials(name)
	case StateRemoved:
		return ""
	default:
		// Anonymized and pending both fall back to the relationship
		// phrase when one exists, and to the generic placeholder when
		// it does not.
		return DescribeRelationship(relationship)
	}
}

// ClassFor reports which kind of label Label would produce for the
// same inputs. It lets the presentation layer style initials or
// described identities differently without re-deriving the rules.
func ClassFor(state State, name, relationship string) IdentityClass {
	switch state.normalized() {
	case StateApproved:
		if name == "" {
			return IdentityUndisclosed
		}
		return IdentityNamed
	case StateBlurred:
		if len(strings.Fields(name)) == 0 {
			return IdentityUndisclosed
		}
		return IdentityInitials
	case StateRemoved:
		return IdentityUndisclosed
	default:
		if _, ok := RelationshipLabel(relationship); ok {
			return IdentityDescribed
		}
		return IdentityUndisclosed
	}
}

// Initials computes the blurred form of a name: the first characters of
// the first and last whitespace-separated parts, uppercased, each
// followed by a period ("Julie Smith" → "J.S.", "Cher" → "C."). An
// empty or whitespace-only name falls back to the generic placeholder
// rather than an empty string.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return PlaceholderProse
	case 1:
		return initialOf(parts[0]) + "."
	default:
		return initialOf(parts[0]) + "." + initialOf(parts[len(parts)-1]) + "."
	}
}

// initialOf returns the uppercased first rune of a non-empty token.
func initialOf(token string) string {
	r := []rune(token)[0]
	return string(unicode.ToUpper(r))
}
