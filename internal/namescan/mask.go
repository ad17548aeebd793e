package namescan

import (
	"regexp"
	"sort"
)

// Replacement pairs one detected name with the label allowed to appear
// in its place.
type Replacement struct {
	Name  string
	Label string
}

// Mask substitutes replacement labels into content, case-insensitively,
// longest name first so "Uncle Bob Smith" is rewritten before a bare
// "Bob" can clip it. Search strings are regexp-escaped, so names
// containing regex metacharacters are matched literally. Masking
// already-masked content with the same pairs changes nothing.
func Mask(content string, replacements []Replacement) string {
	sorted := make([]Replacement, len(replacements))
	copy(sorted, replacements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Name) > len(sorted[j].Name)
	})

	for _, r := range sorted {
		if r.Name == "" || r.Name == r.Label {
			continue
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(r.Name))
		if err != nil {
			continue
		}
		content = re.ReplaceAllLiteralString(content, r.Label)
	}
	return content
}
