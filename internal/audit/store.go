package audit

import (
	"context"

	id "memoria/pkg/domain"
)

// Recorder is the emitting side services depend on. The Publisher
// implements it asynchronously; tests substitute a synchronous recorder.
type Recorder interface {
	Emit(ctx context.Context, event Event)
}

// Sink receives audit events one at a time. Implementations must be safe
// for concurrent use; the worker is the only writer in production but
// tests append directly.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink. The in-memory store implements it; the Kafka
// sink is append-only and does not.
type Store interface {
	Sink
	ListByPerson(ctx context.Context, personID id.PersonID) ([]Event, error)
}
