// Package namescan finds person names in freeform submitted content and
// checks which of them are already cleared for disclosure. It runs at
// submission time, before content is accepted: detection supplies facts
// to the moderation gate, it never blocks a submission on its own.
package namescan

import "strings"

// StripHTML removes tag markup from submitted content, returning the
// visible text and a byte-level position map: byte i of the stripped
// text came from original byte positions[i]. Detection runs over the
// stripped text; the map carries findings back onto the original markup
// so downstream masking never corrupts tags.
//
// Character entities stay encoded and tag contents are dropped
// wholesale; an unterminated tag swallows the remainder of the input.
// A lightweight pass is enough here because detection only needs
// readable prose, not a DOM.
func StripHTML(original string) (string, []int) {
	var (
		out       strings.Builder
		positions = make([]int, 0, len(original))
		inTag     bool
	)
	out.Grow(len(original))
	for i := 0; i < len(original); i++ {
		c := original[i]
		switch {
		case inTag:
			if c == '>' {
				inTag = false
			}
		case c == '<':
			inTag = true
		default:
			out.WriteByte(c)
			positions = append(positions, i)
		}
	}
	return out.String(), positions
}
