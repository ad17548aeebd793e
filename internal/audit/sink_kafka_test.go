package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoria/pkg/domain"
	"memoria/pkg/platform/circuit"
)

type fakePublisher struct {
	calls int
	fail  bool
	keys  []string
}

func (f *fakePublisher) Publish(_ context.Context, key string, _ []byte, _ map[string]string) error {
	f.calls++
	f.keys = append(f.keys, key)
	if f.fail {
		return errors.New("broker unreachable")
	}
	return nil
}

func TestKafkaSink_OpensCircuitAfterFailureRun(t *testing.T) {
	fake := &fakePublisher{fail: true}
	sink := &KafkaSink{
		producer: fake,
		breaker:  circuit.New("audit-kafka", circuit.WithFailureThreshold(3)),
	}
	event := Event{Action: ActionStorySubmitted}

	for i := 0; i < 3; i++ {
		require.Error(t, sink.Append(context.Background(), event))
	}
	assert.Equal(t, 3, fake.calls)

	// The circuit is open now. The next appends drop without touching
	// the broker and report success, since the store sink still has
	// the event.
	require.NoError(t, sink.Append(context.Background(), event))
	assert.Equal(t, 3, fake.calls)
}

func TestKafkaSink_ProbesAndRecovers(t *testing.T) {
	fake := &fakePublisher{fail: true}
	sink := &KafkaSink{
		producer: fake,
		breaker: circuit.New("audit-kafka",
			circuit.WithFailureThreshold(1),
			circuit.WithSuccessThreshold(1)),
	}
	event := Event{Action: ActionPreferenceSet, Person: domain.NewPersonID()}

	require.Error(t, sink.Append(context.Background(), event))
	require.True(t, sink.breaker.IsOpen())

	// Broker comes back, but the sink only notices on a probe.
	fake.fail = false
	for i := 0; i < streamProbeEvery-1; i++ {
		require.NoError(t, sink.Append(context.Background(), event))
	}
	assert.Equal(t, 1, fake.calls, "dropped events must not reach the broker")

	// The probe goes through, succeeds, and closes the circuit.
	require.NoError(t, sink.Append(context.Background(), event))
	assert.Equal(t, 2, fake.calls)
	assert.False(t, sink.breaker.IsOpen())

	// Back to publishing every event.
	require.NoError(t, sink.Append(context.Background(), event))
	assert.Equal(t, 3, fake.calls)
}

func TestKafkaSink_KeysByPersonThenAction(t *testing.T) {
	fake := &fakePublisher{}
	sink := &KafkaSink{producer: fake, breaker: circuit.New("audit-kafka")}

	personID := domain.NewPersonID()
	require.NoError(t, sink.Append(context.Background(), Event{
		Action: ActionPreferenceSet,
		Person: personID,
	}))
	require.NoError(t, sink.Append(context.Background(), Event{
		Action: ActionStorySubmitted,
	}))

	require.Len(t, fake.keys, 2)
	assert.Equal(t, personID.String(), fake.keys[0])
	assert.Equal(t, string(ActionStorySubmitted), fake.keys[1])
}
