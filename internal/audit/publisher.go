package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"memoria/internal/platform/device"
	"memoria/pkg/requestcontext"
)

var (
	eventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_audit_events_total",
		Help: "Audit events accepted into the pipeline, by action",
	}, []string{"action"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memoria_audit_events_dropped_total",
		Help: "Audit events dropped because the buffer was full",
	})
)

// Publisher accepts audit events from request handling and hands them to
// the background worker through a bounded buffer. Emit never blocks: audit
// is best-effort and must not add latency or failure modes to the request
// path. A full buffer drops the event and counts the drop.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(bufferSize int, logger *slog.Logger) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Publisher{
		inbox:  make(chan Event, bufferSize),
		logger: logger,
	}
}

// Emit enriches the event from request context (timestamp, actor, request
// ID, client metadata, device summary) and enqueues it without blocking.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if event.Actor.IsZero() {
		event.Actor = requestcontext.ContributorID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			event.Device = device.ParseUserAgent(ua)
		}
	}

	select {
	case p.inbox <- event:
		eventsEmitted.WithLabelValues(string(event.Action)).Inc()
	default:
		eventsDropped.Inc()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"person_id", event.Person,
			)
		}
	}
}

// Inbox exposes the read side of the buffer for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
