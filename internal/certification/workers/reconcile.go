// Package workers contains the background jobs of the issuance pipeline.
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"coursecert/internal/certification/metrics"
	"coursecert/internal/certification/models"
	"coursecert/internal/certification/store"
	"coursecert/internal/ledger"
)

const (
	defaultBatchSize = 50
	// defaultMinAge keeps the reconciler off records whose mining wait may
	// still be running in the request path.
	defaultMinAge = 2 * time.Minute
	// defaultAbandonAfter marks a pending record failed once the node has had
	// ample time to mine or drop the transaction.
	defaultAbandonAfter = 24 * time.Hour

	outcomeIssued    = "issued"
	outcomeFailed    = "failed"
	outcomeAbandoned = "abandoned"
	outcomeWaiting   = "waiting"
)

// Reconciler resolves certifications left pending when the issuance request
// outlived its mining wait. It polls transaction receipts and promotes records
// to issued or failed.
type Reconciler struct {
	certs  store.Store
	ledger ledger.Client

	batchSize    int
	minAge       time.Duration
	abandonAfter time.Duration

	cron    *cron.Cron
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// ReconcilerOption configures the reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger instance.
func WithLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger }
}

// WithMetrics sets the metrics instance.
func WithMetrics(m *metrics.Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// WithBatchSize bounds how many pending records one run processes.
func WithBatchSize(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMinAge sets how old a pending record must be before reconciliation.
func WithMinAge(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.minAge = d
		}
	}
}

// WithAbandonAfter sets how long an unmined transaction stays pending before
// the record is marked failed.
func WithAbandonAfter(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.abandonAfter = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler creates a reconciler over the certification store and ledger.
func NewReconciler(certs store.Store, ledgerClient ledger.Client, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		certs:        certs,
		ledger:       ledgerClient,
		batchSize:    defaultBatchSize,
		minAge:       defaultMinAge,
		abandonAfter: defaultAbandonAfter,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start schedules periodic runs. The schedule accepts cron expressions and
// descriptors like "@every 1m".
func (r *Reconciler) Start(schedule string) error {
	r.cron = cron.New()
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		r.Run(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("pending-transaction reconciler started", "schedule", schedule)
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (r *Reconciler) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// Run processes one batch of pending certifications.
func (r *Reconciler) Run(ctx context.Context) {
	cutoff := r.now().Add(-r.minAge)
	pending, err := r.certs.ListPending(ctx, cutoff, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "reconciler failed to list pending certifications", "error", err)
		return
	}

	for _, record := range pending {
		outcome := r.reconcile(ctx, record)
		r.metrics.IncrementReconciled(outcome)
	}
}

func (r *Reconciler) reconcile(ctx context.Context, record *models.Record) string {
	result, err := r.ledger.TransactionOutcome(ctx, record.TxHash)
	if err != nil {
		r.logger.WarnContext(ctx, "reconciler could not fetch receipt",
			"certification_id", record.ID, "tx_hash", record.TxHash, "error", err)
		return outcomeWaiting
	}

	now := r.now().UTC()
	switch {
	case result.Mined && result.Success:
		record.State = models.StateIssued
		record.TokenID = &result.TokenID
	case result.Mined:
		record.State = models.StateFailed
	case now.Sub(record.CreatedAt) > r.abandonAfter:
		record.State = models.StateFailed
	default:
		return outcomeWaiting
	}
	record.UpdatedAt = now

	if err := r.certs.Update(ctx, record); err != nil {
		r.logger.ErrorContext(ctx, "reconciler failed to update certification",
			"certification_id", record.ID, "error", err)
		return outcomeWaiting
	}

	switch record.State {
	case models.StateIssued:
		r.logger.InfoContext(ctx, "pending certification promoted to issued",
			"certification_id", record.ID, "token_id", *record.TokenID)
		return outcomeIssued
	default:
		if result.Mined {
			r.logger.WarnContext(ctx, "pending certification transaction reverted",
				"certification_id", record.ID, "tx_hash", record.TxHash)
			return outcomeFailed
		}
		r.logger.WarnContext(ctx, "pending certification abandoned",
			"certification_id", record.ID, "tx_hash", record.TxHash)
		return outcomeAbandoned
	}
}
