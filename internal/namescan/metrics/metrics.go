package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the consent scanner.
type Metrics struct {
	// Person names detected in submitted content
	NamesDetected prometheus.Counter

	// Detected names that resolved to an approved person
	ConsentCleared prometheus.Counter

	// Full scan duration including lookups
	ScanDuration prometheus.Histogram
}

// New creates a Metrics instance with all scanner metrics registered.
func New() *Metrics {
	return &Metrics{
		NamesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_namescan_names_detected_total",
			Help: "Total person names detected in submitted content",
		}),

		ConsentCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memoria_namescan_consent_cleared_total",
			Help: "Total detected names that resolved to an approved person",
		}),

		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "memoria_namescan_scan_duration_seconds",
			Help:    "Duration of the full consent scan including per-name lookups",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// AddNamesDetected records detected names from one scan.
func (m *Metrics) AddNamesDetected(n int) {
	if m != nil && n > 0 {
		m.NamesDetected.Add(float64(n))
	}
}

// AddConsentCleared records pre-cleared names from one scan.
func (m *Metrics) AddConsentCleared(n int) {
	if m != nil && n > 0 {
		m.ConsentCleared.Add(float64(n))
	}
}

// ObserveScanDuration records one scan's total duration.
func (m *Metrics) ObserveScanDuration(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}
