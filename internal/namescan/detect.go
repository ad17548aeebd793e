package namescan

import (
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"

	platformstrings "memoria/pkg/platform/strings"
)

// DefaultMaxNames caps how many distinct names one submission puts
// through the lookup pipeline. The cap bounds database work per request;
// it is an availability safeguard, not a correctness rule.
const DefaultMaxNames = 20

// Span is one detected person-name occurrence, positioned over the
// original (markup-preserved) submission.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// DetectNames finds person names in submitted content using the
// named-entity pass. Spans are ordered by position and address the
// original string, including any markup between a name's characters.
func DetectNames(content string, maxNames int) ([]Span, error) {
	stripped, positions := StripHTML(content)
	if strings.TrimSpace(stripped) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(stripped, prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, ent := range doc.Entities() {
		if ent.Label == "PERSON" {
			names = append(names, ent.Text)
		}
	}
	return locate(stripped, positions, names, maxNames), nil
}

// DistinctNames returns the distinct detected names in reading order,
// keeping the casing of each name's first occurrence.
func DistinctNames(spans []Span) []string {
	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}
	return platformstrings.DedupeFold(texts)
}

// locate maps detected name occurrences onto the original string and
// applies the distinct-name cap. Input arrives in reading order, one
// entry per occurrence.
func locate(stripped string, positions []int, names []string, maxNames int) []Span {
	if maxNames <= 0 {
		maxNames = DefaultMaxNames
	}

	// Budget distinct names, not occurrences: the cap exists to bound
	// lookups per submission.
	allowed := make(map[string]bool, maxNames)
	for _, name := range platformstrings.DedupeFold(names) {
		if len(allowed) == maxNames {
			break
		}
		allowed[strings.ToLower(name)] = true
	}

	next := make(map[string]int, len(names))
	spans := make([]Span, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || !allowed[strings.ToLower(name)] {
			continue
		}

		// Each repeated occurrence searches onward from the previous hit.
		from := next[name]
		idx := strings.Index(stripped[from:], name)
		if idx < 0 {
			from, idx = 0, strings.Index(stripped, name)
			if idx < 0 {
				continue
			}
		}
		start := from + idx
		end := start + len(name)
		next[name] = end

		spans = append(spans, Span{
			Text:  name,
			Start: positions[start],
			End:   positions[end-1] + 1,
		})
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}
