package visibility

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// allStates enumerates the closed state set for exhaustive sweeps.
var allStates = []State{StateApproved, StatePending, StateAnonymized, StateBlurred, StateRemoved}

type ResolverSuite struct {
	suite.Suite
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

// =============================================================================
// Absorbing Removal
// =============================================================================
// Once any standing signal (person default, contributor preference, global
// preference) is removed, the effective state is removed for every
// combination of the remaining signals. This is the hard privacy veto and
// must hold as code, not convention.

func (s *ResolverSuite) TestAbsorbingRemoval() {
	s.Run("removed default absorbs all override and preference combinations", func() {
		for _, override := range allStates {
			for _, contributor := range allStates {
				for _, global := range allStates {
					got := Resolve(Signals{
						Override:    override,
						Contributor: contributor,
						Global:      global,
						Default:     StateRemoved,
					})
					s.Equal(StateRemoved, got,
						"override=%s contributor=%s global=%s", override, contributor, global)
				}
			}
		}
	})

	s.Run("removed contributor preference absorbs override and default", func() {
		for _, override := range allStates {
			for _, def := range allStates {
				got := Resolve(Signals{
					Override:    override,
					Contributor: StateRemoved,
					Global:      StateApproved,
					Default:     def,
				})
				s.Equal(StateRemoved, got, "override=%s default=%s", override, def)
			}
		}
	})

	s.Run("removed global preference absorbs override and default", func() {
		for _, override := range allStates {
			for _, def := range allStates {
				got := Resolve(Signals{
					Override:    override,
					Contributor: StatePending,
					Global:      StateRemoved,
					Default:     def,
				})
				s.Equal(StateRemoved, got, "override=%s default=%s", override, def)
			}
		}
	})

	s.Run("removed override yields removed without absorbing standing signals", func() {
		// A removed override wins through the override step, not the veto:
		// it only affects this one reference.
		got := Resolve(Signals{
			Override:    StateRemoved,
			Contributor: StateApproved,
			Default:     StateApproved,
		})
		s.Equal(StateRemoved, got)
	})

	s.Run("standing variant honors the same veto", func() {
		for _, contributor := range allStates {
			for _, global := range allStates {
				got := ResolveStanding(Signals{
					Contributor: contributor,
					Global:      global,
					Default:     StateRemoved,
				})
				s.Equal(StateRemoved, got, "contributor=%s global=%s", contributor, global)
			}
		}
	})
}

// =============================================================================
// Precedence Order
// =============================================================================
// A non-pending override beats both preferences and the default; a
// non-pending contributor preference beats the global preference and the
// default; a non-pending global preference beats only the default.

func (s *ResolverSuite) TestPrecedence() {
	tests := []struct {
		name string
		sig  Signals
		want State
	}{
		{
			name: "override beats contributor preference, global preference, and default",
			sig: Signals{
				Override:    StateBlurred,
				Contributor: StateApproved,
				Global:      StateAnonymized,
				Default:     StateApproved,
			},
			want: StateBlurred,
		},
		{
			name: "contributor preference beats global preference and default",
			sig: Signals{
				Contributor: StateAnonymized,
				Global:      StateApproved,
				Default:     StateApproved,
			},
			want: StateAnonymized,
		},
		{
			name: "global preference beats default",
			sig: Signals{
				Global:  StateBlurred,
				Default: StateApproved,
			},
			want: StateBlurred,
		},
		{
			name: "pending override falls through to contributor preference",
			sig: Signals{
				Override:    StatePending,
				Contributor: StateBlurred,
				Global:      StateApproved,
				Default:     StateApproved,
			},
			want: StateBlurred,
		},
		{
			name: "pending override and preferences fall through to default",
			sig: Signals{
				Override: StatePending,
				Default:  StateAnonymized,
			},
			want: StateAnonymized,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, Resolve(tt.sig))
		})
	}
}

// =============================================================================
// Fallback Completeness and Normalization
// =============================================================================

func (s *ResolverSuite) TestFallback() {
	s.Run("all signals absent resolves to pending", func() {
		s.Equal(StatePending, Resolve(Signals{}))
	})

	s.Run("all signals explicitly pending resolves to pending", func() {
		s.Equal(StatePending, Resolve(Signals{
			Override:    StatePending,
			Contributor: StatePending,
			Global:      StatePending,
			Default:     StatePending,
		}))
	})

	s.Run("missing person default resolves to pending", func() {
		// A name that never matched a person record still resolves.
		s.Equal(StatePending, Resolve(Signals{Contributor: StatePending}))
	})

	s.Run("unknown signal values are read as pending, never as disclosure", func() {
		s.Equal(StatePending, Resolve(Signals{
			Override:    State("APPROVED"),
			Contributor: State("yes"),
			Global:      State("visible"),
			Default:     State("granted"),
		}))
	})

	s.Run("unknown override falls through to a valid default", func() {
		s.Equal(StateBlurred, Resolve(Signals{
			Override: State("garbage"),
			Default:  StateBlurred,
		}))
	})
}

// =============================================================================
// Standing Variant
// =============================================================================
// ResolveStanding answers "is this person already cleared" before any
// reference exists; the override slot must not participate.

func (s *ResolverSuite) TestResolveStanding() {
	s.Run("override is ignored", func() {
		got := ResolveStanding(Signals{
			Override: StateApproved,
			Default:  StateBlurred,
		})
		s.Equal(StateBlurred, got)
	})

	s.Run("contributor preference beats global and default", func() {
		got := ResolveStanding(Signals{
			Contributor: StateAnonymized,
			Global:      StateApproved,
			Default:     StateApproved,
		})
		s.Equal(StateAnonymized, got)
	})

	s.Run("falls back to default then pending", func() {
		s.Equal(StateApproved, ResolveStanding(Signals{Default: StateApproved}))
		s.Equal(StatePending, ResolveStanding(Signals{}))
	})

	s.Run("agrees with Resolve whenever the override is pending", func() {
		for _, contributor := range allStates {
			for _, global := range allStates {
				for _, def := range allStates {
					sig := Signals{Contributor: contributor, Global: global, Default: def}
					s.Equal(Resolve(sig), ResolveStanding(sig),
						"contributor=%s global=%s default=%s", contributor, global, def)
				}
			}
		}
	})
}

// =============================================================================
// End-to-end Scenarios
// =============================================================================

func (s *ResolverSuite) TestScenarios() {
	s.Run("approved override wins over blurred default", func() {
		got := Resolve(Signals{Override: StateApproved, Default: StateBlurred})
		s.Equal(StateApproved, got)
	})

	s.Run("contributor anonymized wins over approved global and approved default", func() {
		got := Resolve(Signals{
			Contributor: StateAnonymized,
			Global:      StateApproved,
			Default:     StateApproved,
		})
		s.Equal(StateAnonymized, got)
	})

	s.Run("removed default defeats approved override", func() {
		got := Resolve(Signals{Override: StateApproved, Default: StateRemoved})
		s.Equal(StateRemoved, got)
	})
}
