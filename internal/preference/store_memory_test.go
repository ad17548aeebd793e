package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store       *InMemoryStore
	ctx         context.Context
	person      id.PersonID
	contributor id.ContributorID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.person = id.NewPersonID()
	s.contributor = id.NewContributorID()
}

func (s *InMemoryStoreSuite) TestPairFor() {
	s.Run("empty when nothing recorded", func() {
		pair, err := s.store.PairFor(s.ctx, s.person, s.contributor)
		s.Require().NoError(err)
		s.True(pair.IsZero())
	})

	s.Run("contributor scope only", func() {
		err := s.store.Set(s.ctx, &Preference{
			PersonID:      s.person,
			ContributorID: s.contributor,
			State:         visibility.StateBlurred,
		})
		s.Require().NoError(err)

		pair, err := s.store.PairFor(s.ctx, s.person, s.contributor)
		s.Require().NoError(err)
		s.Equal(visibility.StateBlurred, pair.Contributor)
		s.Empty(pair.Global)
	})

	s.Run("global scope visible to every contributor", func() {
		err := s.store.Set(s.ctx, &Preference{
			PersonID: s.person,
			State:    visibility.StateAnonymized,
		})
		s.Require().NoError(err)

		pair, err := s.store.PairFor(s.ctx, s.person, id.NewContributorID())
		s.Require().NoError(err)
		s.Empty(pair.Contributor)
		s.Equal(visibility.StateAnonymized, pair.Global)
	})

	s.Run("both scopes in one call", func() {
		pair, err := s.store.PairFor(s.ctx, s.person, s.contributor)
		s.Require().NoError(err)
		s.Equal(visibility.StateBlurred, pair.Contributor)
		s.Equal(visibility.StateAnonymized, pair.Global)
	})

	s.Run("zero contributor reads only global", func() {
		pair, err := s.store.PairFor(s.ctx, s.person, id.ContributorID{})
		s.Require().NoError(err)
		s.Empty(pair.Contributor)
		s.Equal(visibility.StateAnonymized, pair.Global)
	})
}

func (s *InMemoryStoreSuite) TestSetOverwrites() {
	pref := &Preference{
		PersonID:      s.person,
		ContributorID: s.contributor,
		State:         visibility.StateApproved,
	}
	s.Require().NoError(s.store.Set(s.ctx, pref))

	pref.State = visibility.StateRemoved
	s.Require().NoError(s.store.Set(s.ctx, pref))

	pair, err := s.store.PairFor(s.ctx, s.person, s.contributor)
	s.Require().NoError(err)
	s.Equal(visibility.StateRemoved, pair.Contributor)
}

func (s *InMemoryStoreSuite) TestClear() {
	s.Require().NoError(s.store.Set(s.ctx, &Preference{
		PersonID:      s.person,
		ContributorID: s.contributor,
		State:         visibility.StateBlurred,
	}))

	s.Require().NoError(s.store.Clear(s.ctx, s.person, s.contributor))
	pair, err := s.store.PairFor(s.ctx, s.person, s.contributor)
	s.Require().NoError(err)
	s.True(pair.IsZero())

	err = s.store.Clear(s.ctx, s.person, s.contributor)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
