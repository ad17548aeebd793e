//go:build integration

package reference_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"memoria/internal/people"
	"memoria/internal/reference"
	"memoria/internal/story"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
	"memoria/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *reference.PostgresStore
	people   *people.PostgresStore
	stories  *story.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = reference.NewPostgresStore(s.postgres.DB)
	s.people = people.NewPostgresStore(s.postgres.DB)
	s.stories = story.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "people", "stories")
	s.Require().NoError(err)
}

// createPerson and createStory satisfy the foreign keys on
// story_references.
func (s *PostgresStoreSuite) createPerson(name string) *people.Person {
	person := &people.Person{
		ID:                id.NewPersonID(),
		CanonicalName:     name,
		DefaultVisibility: visibility.StatePending,
		CreatedBy:         id.NewContributorID(),
	}
	err := s.people.Create(context.Background(), person)
	s.Require().NoError(err)
	return person
}

func (s *PostgresStoreSuite) createStory() *story.Story {
	st := &story.Story{
		ID:       id.NewStoryID(),
		AuthorID: id.NewContributorID(),
		Title:    "The summer house",
		Body:     "We spent every July at the lake.",
		Status:   story.StatusPublished,
	}
	err := s.stories.Create(context.Background(), st)
	s.Require().NoError(err)
	return st
}

func (s *PostgresStoreSuite) TestCreateAndGetPersonReference() {
	ctx := context.Background()
	person := s.createPerson("Maria Olsen")
	st := s.createStory()

	created := &reference.Reference{
		ID:           id.NewReferenceID(),
		StoryID:      st.ID,
		Kind:         reference.KindPerson,
		PersonID:     person.ID,
		Relationship: "cousin",
		Role:         reference.RoleWitness,
	}
	err := s.store.Create(ctx, created)
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(st.ID, got.StoryID)
	s.Equal(reference.KindPerson, got.Kind)
	s.Equal(person.ID, got.PersonID)
	s.Equal("cousin", got.Relationship)
	s.Equal(reference.RoleWitness, got.Role)
	// An override never set reads as pending, the cascade's no-op value.
	s.Equal(visibility.StatePending, got.Override)
}

func (s *PostgresStoreSuite) TestCreateAndGetLinkReference() {
	ctx := context.Background()
	st := s.createStory()

	created := &reference.Reference{
		ID:      id.NewReferenceID(),
		StoryID: st.ID,
		Kind:    reference.KindLink,
		URL:     "https://example.org/obituary/maria-olsen",
		Label:   "Obituary",
	}
	err := s.store.Create(ctx, created)
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(reference.KindLink, got.Kind)
	s.True(got.PersonID.IsZero(), "an unlinked reference round-trips through the NULL person column")
	s.Equal("https://example.org/obituary/maria-olsen", got.URL)
	s.Equal("Obituary", got.Label)
}

func (s *PostgresStoreSuite) TestGetUnknownReturnsNotFound() {
	_, err := s.store.Get(context.Background(), id.NewReferenceID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByStoryKeepsCreationOrder() {
	ctx := context.Background()
	person := s.createPerson("Maria Olsen")
	st := s.createStory()
	other := s.createStory()

	base := time.Now().Add(-time.Minute)
	var want []id.ReferenceID
	for i := 0; i < 3; i++ {
		ref := &reference.Reference{
			ID:        id.NewReferenceID(),
			StoryID:   st.ID,
			Kind:      reference.KindPerson,
			PersonID:  person.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		s.Require().NoError(s.store.Create(ctx, ref))
		want = append(want, ref.ID)
	}
	s.Require().NoError(s.store.Create(ctx, &reference.Reference{
		ID:       id.NewReferenceID(),
		StoryID:  other.ID,
		Kind:     reference.KindPerson,
		PersonID: person.ID,
	}))

	refs, err := s.store.ListByStory(ctx, st.ID)
	s.Require().NoError(err)
	s.Require().Len(refs, 3)
	for i, ref := range refs {
		s.Equal(want[i], ref.ID)
	}
}

func (s *PostgresStoreSuite) TestSetOverride() {
	ctx := context.Background()
	person := s.createPerson("Maria Olsen")
	st := s.createStory()

	ref := &reference.Reference{
		ID:       id.NewReferenceID(),
		StoryID:  st.ID,
		Kind:     reference.KindPerson,
		PersonID: person.ID,
	}
	s.Require().NoError(s.store.Create(ctx, ref))

	err := s.store.SetOverride(ctx, ref.ID, visibility.StateBlurred)
	s.Require().NoError(err)

	got, err := s.store.Get(ctx, ref.ID)
	s.Require().NoError(err)
	s.Equal(visibility.StateBlurred, got.Override)
	s.False(got.UpdatedAt.Before(got.CreatedAt))

	err = s.store.SetOverride(ctx, id.NewReferenceID(), visibility.StateApproved)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLatestRelationshipPicksNewestNonEmpty() {
	ctx := context.Background()
	person := s.createPerson("Maria Olsen")
	st := s.createStory()

	base := time.Now().Add(-time.Minute)
	for i, relationship := range []string{"neighbor", "cousin", ""} {
		ref := &reference.Reference{
			ID:           id.NewReferenceID(),
			StoryID:      st.ID,
			Kind:         reference.KindPerson,
			PersonID:     person.ID,
			Relationship: relationship,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		s.Require().NoError(s.store.Create(ctx, ref))
	}

	// The newest row has no relationship, so the one before it wins.
	relationship, err := s.store.LatestRelationship(ctx, person.ID)
	s.Require().NoError(err)
	s.Equal("cousin", relationship)
}

func (s *PostgresStoreSuite) TestLatestRelationshipNoneReturnsNotFound() {
	ctx := context.Background()
	person := s.createPerson("Maria Olsen")
	st := s.createStory()
	s.Require().NoError(s.store.Create(ctx, &reference.Reference{
		ID:       id.NewReferenceID(),
		StoryID:  st.ID,
		Kind:     reference.KindPerson,
		PersonID: person.ID,
	}))

	_, err := s.store.LatestRelationship(ctx, person.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
