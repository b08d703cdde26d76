// Package metrics exposes Prometheus collectors for public verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for verification operations. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Verifications       *prometheus.CounterVec
	VerificationLatency prometheus.Histogram
}

// Outcome labels for Verifications.
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeRevoked  = "revoked"
	OutcomeExpired  = "expired"
	OutcomeNotFound = "not_found"
	OutcomeMismatch = "mismatch"
)

// New registers and returns verification metrics collectors.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecert_verifications_total",
			Help: "Total number of completed verifications, labeled by outcome",
		}, []string{"outcome"}),
		VerificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursecert_verification_latency_seconds",
			Help:    "Latency of verification requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) IncrementVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.VerificationLatency.Observe(seconds)
}
