package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the story pipeline.
type Metrics struct {
	// Submitted stories by the status the gate assigned
	StoriesSubmitted *prometheus.CounterVec

	// Reference rows created by submissions
	ReferencesCreated prometheus.Counter

	// Names masked out of rendered story bodies
	NamesMasked prometheus.Counter
}

// New creates a Metrics instance with all story metrics registered.
func New() *Metrics {
	return &Metrics{
		StoriesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memoria_stories_submitted_total",
			Help: "Total story submissions accepted, by publication status",
		}, []string{"status"}),

		ReferencesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_story_references_created_total",
			Help: "Total reference rows created by story submissions",
		}),

		NamesMasked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_story_names_masked_total",
			Help: "Total names masked out of story bodies rendered for viewers",
		}),
	}
}

// IncrSubmitted records one accepted submission with its status.
func (m *Metrics) IncrSubmitted(status string) {
	if m != nil {
		m.StoriesSubmitted.WithLabelValues(status).Inc()
	}
}

// AddReferencesCreated records reference rows created by one submission.
func (m *Metrics) AddReferencesCreated(n int) {
	if m != nil && n > 0 {
		m.ReferencesCreated.Add(float64(n))
	}
}

// AddNamesMasked records names masked out of one rendered story.
func (m *Metrics) AddNamesMasked(n int) {
	if m != nil && n > 0 {
		m.NamesMasked.Add(float64(n))
	}
}
