package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sinkFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "memoria_audit_sink_failures_total",
	Help: "Audit sink append failures",
})

// Worker drains the publisher inbox and appends each event to every
// configured sink. A failing sink is logged and counted but never stops
// the worker: losing one copy of an audit record is preferable to
// blocking the pipeline for all of them.
type Worker struct {
	inbox  <-chan Event
	logger *slog.Logger
	sinks  []Sink
}

// NewWorker creates a worker reading from inbox and writing to sinks.
func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{
		inbox:  inbox,
		logger: logger,
		sinks:  sinks,
	}
}

// Run processes events until ctx is cancelled, then drains whatever is
// already buffered before returning so shutdown does not discard events
// that were accepted by Emit.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case event := <-w.inbox:
			w.append(ctx, event)
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			sinkFailures.Inc()
			if w.logger != nil {
				w.logger.Error("audit sink append failed",
					"error", err,
					"action", event.Action,
					"person_id", event.Person,
				)
			}
		}
	}
}
