package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria/pkg/domain"
)

func TestInMemoryStore_AppendAndList(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	personID := domain.NewPersonID()
	otherID := domain.NewPersonID()

	require.NoError(t, store.Append(ctx, Event{Action: ActionPreferenceSet, Person: personID}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionPreferenceCleared, Person: personID}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionClaimIssued, Person: otherID}))

	events, err := store.ListByPerson(ctx, personID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionPreferenceSet, events[0].Action)
	assert.Equal(t, ActionPreferenceCleared, events[1].Action)

	other, err := store.ListByPerson(ctx, otherID)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, ActionClaimIssued, other[0].Action)
}

func TestInMemoryStore_EventsWithoutPerson(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: ActionStorySubmitted}))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	events, err := store.ListByPerson(ctx, domain.NewPersonID())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestInMemoryStore_Clear(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	personID := domain.NewPersonID()
	require.NoError(t, store.Append(ctx, Event{Action: ActionClaimRedeemed, Person: personID}))
	store.Clear()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	events, err := store.ListByPerson(ctx, personID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestActionCategories(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionDefaultChanged.Category())
	assert.Equal(t, CategoryCompliance, ActionPreferenceSet.Category())
	assert.Equal(t, CategorySecurity, ActionClaimRedeemed.Category())
	assert.Equal(t, CategoryOperations, ActionStorySubmitted.Category())
	assert.Equal(t, CategoryOperations, Action("unknown_action").Category())
}
