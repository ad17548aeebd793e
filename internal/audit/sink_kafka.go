package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"memoria/internal/platform/kafka"
	"memoria/pkg/platform/circuit"
)

var (
	streamDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memoria_audit_stream_dropped_total",
		Help: "Audit events not streamed because the Kafka circuit was open",
	})
	streamCircuitOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memoria_audit_stream_circuit_open",
		Help: "1 while the Kafka audit circuit is open",
	})
)

// streamProbeEvery is how many events get dropped between probes while
// the circuit is open.
const streamProbeEvery = 10

// publisher is the slice of the Kafka producer the sink needs.
type publisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// KafkaSink appends events to a Kafka topic as JSON. Events are keyed by
// person ID so that all records about one person land in the same
// partition and replay in order; events with no person are keyed by
// action instead.
//
// A circuit breaker guards the broker. After a run of publish failures
// the sink stops attempting and drops the stream copy (the store sink
// still holds the event), letting a probe through every few events until
// the broker answers again.
type KafkaSink struct {
	producer publisher
	breaker  *circuit.Breaker
	skipped  atomic.Uint64
}

// NewKafkaSink wraps a producer as an audit sink.
func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		breaker:  circuit.New("audit-kafka"),
	}
}

// Append publishes the event to the audit topic.
func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	if s.breaker.IsOpen() {
		if s.skipped.Add(1)%streamProbeEvery != 0 {
			streamDropped.Inc()
			return nil
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := string(event.Action)
	if !event.Person.IsZero() {
		key = event.Person.String()
	}

	headers := map[string]string{
		"category": string(event.Category),
	}
	if err := s.producer.Publish(ctx, key, payload, headers); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			streamCircuitOpen.Set(1)
		}
		return fmt.Errorf("publish audit event: %w", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		streamCircuitOpen.Set(0)
	}
	return nil
}
