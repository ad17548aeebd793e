package visibility

import "strings"

// relationshipLabels is the fixed relationship taxonomy: normalized
// relationship keys mapped to the noun used in anonymized phrases.
// Keys outside this set never produce a label.
var relationshipLabels = map[string]string{
	"parent":         "parent",
	"child":          "child",
	"sibling":        "sibling",
	"spouse_partner": "spouse or partner",
	"grandparent":    "grandparent",
	"grandchild":     "grandchild",
	"aunt_uncle":     "aunt or uncle",
	"niece_nephew":   "niece or nephew",
	"cousin":         "cousin",
	"friend":         "friend",
	"neighbor":       "neighbor",
	"coworker":       "coworker",
	"classmate":      "classmate",
	"caregiver":      "caregiver",
	"other":          "loved one",
}

// normalizeRelationshipKey folds free-text relationship values onto the
// taxonomy key form: lowercase, trimmed, separators collapsed to
// underscores ("Aunt/Uncle" and "aunt uncle" both reach "aunt_uncle").
func normalizeRelationshipKey(relationship string) string {
	k := strings.ToLower(strings.TrimSpace(relationship))
	k = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(k)
	for strings.Contains(k, "__") {
		k = strings.ReplaceAll(k, "__", "_")
	}
	return k
}

// RelationshipLabel looks up the human noun for a relationship value.
// The second return is false for empty or unknown relationships.
func RelationshipLabel(relationship string) (string, bool) {
	label, ok := relationshipLabels[normalizeRelationshipKey(relationship)]
	return label, ok
}

// DescribeRelationship builds the anonymized phrase for a relationship
// value: "cousin" becomes "a cousin", "aunt_uncle" becomes "an aunt or
// uncle". Empty or unknown relationships fall back to the generic
// placeholder, never to an empty string.
func DescribeRelationship(relationship string) string {
	label, ok := RelationshipLabel(relationship)
	if !ok {
		return PlaceholderProse
	}
	return indefiniteArticle(label) + " " + label
}

// indefiniteArticle picks "a" or "an" for the given noun phrase.
func indefiniteArticle(noun string) string {
	if noun == "" {
		return "a"
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}
