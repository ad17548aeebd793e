package story

import (
	"context"

	"memoria/internal/namescan"
)

// Gate decides whether a submission publishes immediately or waits for
// review. It receives the consent facts the scanner produced and the
// body with every not-yet-cleared name already masked, so a gate
// backed by an external moderation service never sees an unconsented
// name.
//
// The real moderation pipeline is a separate system; this port is
// where it plugs in.
type Gate interface {
	Review(ctx context.Context, maskedBody string, facts namescan.Result) (Status, error)
}

// PermissiveGate publishes everything. It is the default gate for
// deployments that run without a moderation pipeline.
type PermissiveGate struct{}

func (PermissiveGate) Review(context.Context, string, namescan.Result) (Status, error) {
	return StatusPublished, nil
}

// ConsentHoldGate holds any submission that names someone who has not
// approved disclosure, and publishes the rest. It is the built-in
// stand-in for deployments that want uncleared names reviewed by a
// person instead of an external pipeline.
type ConsentHoldGate struct{}

func (ConsentHoldGate) Review(_ context.Context, _ string, facts namescan.Result) (Status, error) {
	if len(facts.NeedsConsent) > 0 {
		return StatusPendingReview, nil
	}
	return StatusPublished, nil
}
