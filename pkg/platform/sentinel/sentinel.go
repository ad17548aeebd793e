package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches, and the claim
// layer return these (optionally wrapped) so services can translate them
// into coded domain errors without string matching.
//
// These describe factual states of a resource, not validation failures:
// - ErrNotFound: row or key does not exist
// - ErrConflict: a uniqueness or concurrency constraint fired
// - ErrExpired: a claim secret is past its expiry
// - ErrAlreadyUsed: a claim secret was already redeemed
// - ErrUnavailable: a backing service (cache, broker) is temporarily down
//
// Validation errors belong to pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
