// Package audit records every visibility-affecting mutation so a mentioned
// person can see who changed what, when, and from which device.
package audit

import (
	"time"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// Action names a visibility-affecting mutation.
type Action string

const (
	ActionStorySubmitted    Action = "story_submitted"
	ActionDefaultChanged    Action = "person_default_changed"
	ActionPersonRemoved     Action = "person_removed"
	ActionPreferenceSet     Action = "preference_set"
	ActionPreferenceCleared Action = "preference_cleared"
	ActionOverrideSet       Action = "reference_override_set"
	ActionClaimIssued       Action = "claim_issued"
	ActionClaimRedeemed     Action = "claim_redeemed"
)

// Category classifies audit events by their primary purpose. Categories
// drive retention and downstream routing.
type Category string

const (
	// CategoryCompliance covers disclosure decisions themselves: default,
	// preference, and override changes. Long retention.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers identity claim issuance and redemption,
	// which grant control over a person's visibility.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine activity such as story
	// submissions. Short retention, may be sampled.
	CategoryOperations Category = "operations"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]Category{
	ActionDefaultChanged:    CategoryCompliance,
	ActionPersonRemoved:     CategoryCompliance,
	ActionPreferenceSet:     CategoryCompliance,
	ActionPreferenceCleared: CategoryCompliance,
	ActionOverrideSet:       CategoryCompliance,

	ActionClaimIssued:   CategorySecurity,
	ActionClaimRedeemed: CategorySecurity,

	ActionStorySubmitted: CategoryOperations,
}

// Category returns the category for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Scope identifies which visibility signal an event touched.
type Scope string

const (
	ScopePersonDefault         Scope = "person_default"
	ScopePreferenceContributor Scope = "preference_contributor"
	ScopePreferenceGlobal      Scope = "preference_global"
	ScopeReferenceOverride     Scope = "reference_override"
	ScopeClaim                 Scope = "claim"
	ScopeStory                 Scope = "story"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time        `json:"timestamp"`
	Action    Action           `json:"action"`
	Category  Category         `json:"category"`
	Actor     id.ContributorID `json:"actor_id"`
	Person    id.PersonID      `json:"person_id,omitzero"`
	Story     id.StoryID       `json:"story_id,omitzero"`
	Reference id.ReferenceID   `json:"reference_id,omitzero"`
	Scope     Scope            `json:"scope,omitempty"`
	OldState  visibility.State `json:"old_state,omitempty"`
	NewState  visibility.State `json:"new_state,omitempty"`
	Reason    string           `json:"reason,omitempty"`

	// Request enrichment, stamped by the publisher from context.
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Device    string `json:"device,omitempty"`
}
