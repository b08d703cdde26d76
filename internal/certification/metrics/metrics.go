// Package metrics exposes Prometheus collectors for the issuance pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for certification operations. A nil
// *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesPending prometheus.Counter
	CertificatesRevoked prometheus.Counter
	IssuanceFailed      *prometheus.CounterVec
	IssuanceLatency     prometheus.Histogram
	PendingReconciled   *prometheus.CounterVec
}

// New registers and returns certification metrics collectors.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursecert_certificates_issued_total",
			Help: "Total number of certificates fully issued on the ledger",
		}),
		CertificatesPending: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursecert_certificates_pending_total",
			Help: "Total number of issuances recorded pending after the mining wait expired",
		}),
		CertificatesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coursecert_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		IssuanceFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecert_issuance_failed_total",
			Help: "Total number of failed issuance attempts, labeled by pipeline stage",
		}, []string{"stage"}),
		IssuanceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coursecert_issuance_latency_seconds",
			Help:    "End-to-end issuance latency in seconds, including the mining wait",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		PendingReconciled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coursecert_pending_reconciled_total",
			Help: "Total number of pending issuances resolved by the reconciler, labeled by outcome",
		}, []string{"outcome"}),
	}
}

// Pipeline stage labels for IssuanceFailed.
const (
	StageEligibility = "eligibility"
	StageContent     = "content"
	StageLedger      = "ledger"
	StageRecord      = "record"
)

func (m *Metrics) IncrementIssued() {
	if m == nil {
		return
	}
	m.CertificatesIssued.Inc()
}

func (m *Metrics) IncrementPending() {
	if m == nil {
		return
	}
	m.CertificatesPending.Inc()
}

func (m *Metrics) IncrementRevoked() {
	if m == nil {
		return
	}
	m.CertificatesRevoked.Inc()
}

func (m *Metrics) IncrementFailed(stage string) {
	if m == nil {
		return
	}
	m.IssuanceFailed.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveIssuanceLatency(seconds float64) {
	if m == nil {
		return
	}
	m.IssuanceLatency.Observe(seconds)
}

func (m *Metrics) IncrementReconciled(outcome string) {
	if m == nil {
		return
	}
	m.PendingReconciled.WithLabelValues(outcome).Inc()
}
