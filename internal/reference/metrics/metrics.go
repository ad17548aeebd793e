package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for reference redaction.
type Metrics struct {
	// Redacted references by effective visibility state
	RedactedReferences *prometheus.CounterVec

	// References suppressed entirely because they resolved to removed
	RemovedSuppressed prometheus.Counter

	// Per-reference overrides written
	OverridesSet prometheus.Counter
}

// New creates a Metrics instance with all reference metrics registered.
func New() *Metrics {
	return &Metrics{
		RedactedReferences: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memoria_references_redacted_total",
			Help: "Total references redacted for viewers, by effective visibility state",
		}, []string{"state"}),

		RemovedSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_references_removed_suppressed_total",
			Help: "Total references dropped from viewer output because they resolved to removed",
		}),

		OverridesSet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_reference_overrides_set_total",
			Help: "Total per-reference visibility overrides written",
		}),
	}
}

// IncrRedacted records one redacted reference with its effective state.
func (m *Metrics) IncrRedacted(state string) {
	if m != nil {
		m.RedactedReferences.WithLabelValues(state).Inc()
	}
}

// AddRemovedSuppressed records references suppressed from one listing.
func (m *Metrics) AddRemovedSuppressed(n int) {
	if m != nil && n > 0 {
		m.RemovedSuppressed.Add(float64(n))
	}
}

// IncrOverrideSet records one override write.
func (m *Metrics) IncrOverrideSet() {
	if m != nil {
		m.OverridesSet.Inc()
	}
}
