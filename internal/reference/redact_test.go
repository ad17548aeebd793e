package reference

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"memoria/internal/people"
	"memoria/internal/preference"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

type RedactSuite struct {
	suite.Suite
}

func TestRedactSuite(t *testing.T) {
	suite.Run(t, new(RedactSuite))
}

var allStates = []visibility.State{
	visibility.StateApproved,
	visibility.StatePending,
	visibility.StateAnonymized,
	visibility.StateBlurred,
	visibility.StateRemoved,
}

func personWith(name string, state visibility.State) *people.Person {
	return &people.Person{
		ID:                id.NewPersonID(),
		CanonicalName:     name,
		DefaultVisibility: state,
	}
}

func personSnapshot(name string, def visibility.State) Snapshot {
	person := personWith(name, def)
	return Snapshot{
		Reference: Reference{
			ID:       id.NewReferenceID(),
			StoryID:  id.NewStoryID(),
			Kind:     KindPerson,
			PersonID: person.ID,
		},
		Person: person,
	}
}

// =============================================================================
// Removed Filtering
// =============================================================================
// N references with M effectively removed yield exactly N−M outputs, and
// the removed names leak into no field of the remaining entries.

func (s *RedactSuite) TestRemovedFiltering() {
	removedByDefault := personSnapshot("Gone Person", visibility.StateRemoved)

	removedByGlobal := personSnapshot("Vetoed Person", visibility.StateApproved)
	removedByGlobal.Preference = preference.Pair{Global: visibility.StateRemoved}

	visible := []Snapshot{
		personSnapshot("Ada Wexler", visibility.StateApproved),
		personSnapshot("Bram Holt", visibility.StateBlurred),
		personSnapshot("Cleo Marsh", visibility.StateAnonymized),
	}

	snaps := []Snapshot{visible[0], removedByDefault, visible[1], removedByGlobal, visible[2]}
	out := RedactAll(snaps, Viewer{})

	s.Len(out, 3, "5 references with 2 removed must yield exactly 3")
	s.Equal(visible[0].Reference.ID, out[0].ID)
	s.Equal(visible[1].Reference.ID, out[1].ID)
	s.Equal(visible[2].Reference.ID, out[2].ID)

	// Leak check across every serialized field of every surviving entry.
	payload, err := json.Marshal(out)
	s.Require().NoError(err)
	s.NotContains(string(payload), "Gone")
	s.NotContains(string(payload), "Vetoed")
}

func (s *RedactSuite) TestRemovedDroppedEvenForAuthorAndAdmin() {
	author := id.NewContributorID()
	snap := personSnapshot("Silent Name", visibility.StateRemoved)
	snap.Author = author

	_, ok := RedactOne(snap, Viewer{ContributorID: author})
	s.False(ok, "author still must not receive a removed reference")

	_, ok = RedactOne(snap, Viewer{IsAdmin: true})
	s.False(ok, "admin listings drop removed references too")
}

// =============================================================================
// Injective-safe Rendering
// =============================================================================
// The real name reaches the serialized output only when the effective
// state is exactly approved.

func (s *RedactSuite) TestRealNameOnlyWhenApproved() {
	const name = "Margarethe Vonn"

	for _, def := range allStates {
		snap := personSnapshot(name, def)
		snap.Reference.Relationship = "cousin"

		out, ok := RedactOne(snap, Viewer{})
		if def == visibility.StateRemoved {
			s.False(ok)
			continue
		}
		s.Require().True(ok)

		payload, err := json.Marshal(out)
		s.Require().NoError(err)
		if def == visibility.StateApproved {
			s.Equal(name, out.RenderLabel)
			s.Equal(name, out.PersonDisplayName)
		} else {
			s.NotContains(string(payload), name, "state=%s", def)
			s.Empty(out.PersonDisplayName, "state=%s", def)
		}
	}
}

// =============================================================================
// Rendering Per State
// =============================================================================

func (s *RedactSuite) TestRenderingPerState() {
	s.Run("approved shows the real name", func() {
		snap := personSnapshot("Julie Smith", visibility.StateApproved)
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal("Julie Smith", out.RenderLabel)
		s.Equal(visibility.IdentityNamed, out.IdentityState)
		s.Equal(visibility.MediaNormal, out.MediaPresentation)
	})

	s.Run("blurred shows initials and blurred media", func() {
		snap := personSnapshot("Julie Smith", visibility.StateBlurred)
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal("J.S.", out.RenderLabel)
		s.Equal(visibility.IdentityInitials, out.IdentityState)
		s.Equal(visibility.MediaBlurred, out.MediaPresentation)
	})

	s.Run("anonymized shows the relationship phrase", func() {
		snap := personSnapshot("Julie Smith", visibility.StateAnonymized)
		snap.Reference.Relationship = "cousin"
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal("a cousin", out.RenderLabel)
		s.Equal(visibility.IdentityDescribed, out.IdentityState)
		s.Equal(visibility.MediaNormal, out.MediaPresentation)
	})

	s.Run("pending without relationship shows the placeholder and hides media", func() {
		snap := personSnapshot("Julie Smith", visibility.StatePending)
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.PlaceholderProse, out.RenderLabel)
		s.Equal(visibility.IdentityUndisclosed, out.IdentityState)
		s.Equal(visibility.MediaHidden, out.MediaPresentation)
	})

	s.Run("approved with no recorded name falls back to the placeholder", func() {
		snap := personSnapshot("", visibility.StateApproved)
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.PlaceholderProse, out.RenderLabel)
		s.Empty(out.PersonDisplayName)
		s.Equal(visibility.IdentityUndisclosed, out.IdentityState)
	})
}

// =============================================================================
// Author Payload
// =============================================================================
// Only the story's author and admins receive the richer payload; its
// capability flags always ship false.

func (s *RedactSuite) TestAuthorPayload() {
	author := id.NewContributorID()
	snap := personSnapshot("Julie Smith", visibility.StateBlurred)
	snap.Author = author
	snap.Reference.Relationship = "cousin"

	s.Run("stranger gets no payload", func() {
		out, ok := RedactOne(snap, Viewer{ContributorID: id.NewContributorID()})
		s.Require().True(ok)
		s.Nil(out.AuthorPayload)
	})

	s.Run("anonymous visitor gets no payload", func() {
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Nil(out.AuthorPayload)
	})

	s.Run("author sees the untouched name with capability flags off", func() {
		out, ok := RedactOne(snap, Viewer{ContributorID: author})
		s.Require().True(ok)
		s.Require().NotNil(out.AuthorPayload)
		s.Equal("Julie Smith", out.AuthorPayload.AuthorLabel)
		s.Equal("J.S.", out.AuthorPayload.RenderLabel)
		s.Equal(visibility.IdentityInitials, out.AuthorPayload.IdentityState)
		s.False(out.AuthorPayload.CanApprove)
		s.False(out.AuthorPayload.CanAnonymize)
		s.False(out.AuthorPayload.CanRemove)
		s.False(out.AuthorPayload.CanInvite)
		s.False(out.AuthorPayload.CanEditDescriptor)
	})

	s.Run("admin sees the payload on someone else's story", func() {
		out, ok := RedactOne(snap, Viewer{ContributorID: id.NewContributorID(), IsAdmin: true})
		s.Require().True(ok)
		s.Require().NotNil(out.AuthorPayload)
		s.Equal("Julie Smith", out.AuthorPayload.AuthorLabel)
	})
}

// =============================================================================
// Link References
// =============================================================================

func (s *RedactSuite) TestLinkReferences() {
	s.Run("unlinked link defaults to approved", func() {
		snap := Snapshot{
			Reference: Reference{
				ID:      id.NewReferenceID(),
				Kind:    KindLink,
				URL:     "https://example.org/obituary",
				Label:   "Obituary for Harold",
			},
		}
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.StateApproved, out.Visibility)
		s.Equal("Obituary for Harold", out.RenderLabel)
	})

	s.Run("link override still applies", func() {
		snap := Snapshot{
			Reference: Reference{
				ID:       id.NewReferenceID(),
				Kind:     KindLink,
				Label:    "Obituary for Harold",
				Override: visibility.StateRemoved,
			},
		}
		_, ok := RedactOne(snap, Viewer{})
		s.False(ok)
	})

	s.Run("link with a linked person runs the person cascade", func() {
		person := personWith("Harold Olsen", visibility.StateRemoved)
		snap := Snapshot{
			Reference: Reference{
				ID:       id.NewReferenceID(),
				Kind:     KindLink,
				PersonID: person.ID,
				Label:    "Harold's obituary",
			},
			Person: person,
		}
		_, ok := RedactOne(snap, Viewer{})
		s.False(ok, "a removed person suppresses links that name them")
	})
}

// =============================================================================
// Degraded Inputs
// =============================================================================

func (s *RedactSuite) TestDegradedInputs() {
	s.Run("person mention with a missing person row resolves to pending", func() {
		snap := Snapshot{
			Reference: Reference{
				ID:           id.NewReferenceID(),
				Kind:         KindPerson,
				PersonID:     id.NewPersonID(),
				Relationship: "neighbor",
			},
			// Person stayed nil: the row vanished or never matched.
		}
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.StatePending, out.Visibility)
		s.Equal("a neighbor", out.RenderLabel)
	})

	s.Run("unknown stored override never discloses", func() {
		person := personWith("Quiet Person", visibility.StatePending)
		snap := Snapshot{
			Reference: Reference{
				ID:       id.NewReferenceID(),
				Kind:     KindPerson,
				PersonID: person.ID,
				Override: visibility.State("Yes"),
			},
			Person: person,
		}
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.StatePending, out.Visibility)
		s.False(strings.Contains(out.RenderLabel, "Quiet"))
	})
}

// =============================================================================
// End-to-end Scenarios
// =============================================================================

func (s *RedactSuite) TestScenarios() {
	s.Run("approved override beats blurred default", func() {
		snap := personSnapshot("Nina Frey", visibility.StateBlurred)
		snap.Reference.Override = visibility.StateApproved
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.StateApproved, out.Visibility)
		s.Equal("Nina Frey", out.RenderLabel)
	})

	s.Run("contributor preference beats global preference and default", func() {
		snap := personSnapshot("Nina Frey", visibility.StateApproved)
		snap.Reference.Relationship = "friend"
		snap.Preference = preference.Pair{
			Contributor: visibility.StateAnonymized,
			Global:      visibility.StateApproved,
		}
		out, ok := RedactOne(snap, Viewer{})
		s.Require().True(ok)
		s.Equal(visibility.StateAnonymized, out.Visibility)
		s.Equal("a friend", out.RenderLabel)
	})

	s.Run("removed default defeats approved override", func() {
		snap := personSnapshot("Nina Frey", visibility.StateRemoved)
		snap.Reference.Override = visibility.StateApproved
		_, ok := RedactOne(snap, Viewer{})
		s.False(ok)
	})
}
