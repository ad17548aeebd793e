package visibility

// Signals carries the independent visibility inputs consulted for one
// person-reference. Every field is optional: the zero value (empty
// string) reads as "not set" and normalizes to StatePending before the
// cascade runs, so "no preference" and "explicitly pending" are
// indistinguishable on purpose.
type Signals struct {
	// Override is the per-reference visibility set on one specific
	// appearance of the person in one story.
	Override State
	// Contributor is the standing preference scoped to the viewing or
	// authoring contributor.
	Contributor State
	// Global is the standing preference that applies to every
	// contributor (stored with a null contributor scope).
	Global State
	// Default is the person's own default visibility. Leave zero when
	// the person record is missing; resolution still succeeds.
	Default State
}

// Resolve computes the effective visibility state for a reference by
// strict precedence:
//
//  1. Removal is absorbing: if the person default, the contributor
//     preference, or the global preference is removed, the result is
//     removed and no reference-level override can undo it.
//  2. A non-pending reference override wins.
//  3. A non-pending contributor preference wins.
//  4. A non-pending global preference wins.
//  5. Otherwise the person default (pending when the person is unknown).
//
// Resolve is deterministic and total: any input combination yields
// exactly one of the five states, never an error.
func Resolve(sig Signals) State {
	return cascade(sig, true)
}

// ResolveStanding computes the standing visibility of a person before
// any reference exists, e.g. when scanning submitted text for names.
// It is the same cascade with the override step skipped; the absorbing
// removal rule and the remaining fallback order are identical.
func ResolveStanding(sig Signals) State {
	return cascade(sig, false)
}

// cascade is the single shared precedence walk. Both public variants
// delegate here so the absorbing-removal rule cannot drift between them.
func cascade(sig Signals, withOverride bool) State {
	override := sig.Override.normalized()
	contributor := sig.Contributor.normalized()
	global := sig.Global.normalized()
	def := sig.Default.normalized()

	// Hard privacy veto. A removed default or standing preference
	// absorbs every other signal, including an approved override.
	if def == StateRemoved || contributor == StateRemoved || global == StateRemoved {
		return StateRemoved
	}
	if withOverride && override != StatePending {
		return override
	}
	if contributor != StatePending {
		return contributor
	}
	if global != StatePending {
		return global
	}
	return def
}
