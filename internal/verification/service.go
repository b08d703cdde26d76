// Package verification reconciles the relational mirror against the ledger to
// answer the public "is this certificate genuine" question.
//
// The checks run cheapest-first: record lookup, local revocation and expiry,
// then the ledger. A certificate revoked locally is reported revoked without a
// ledger round trip. Infrastructure failures surface as errors; an invalid
// certificate is a successful verification with Valid false.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coursecert/internal/canonical"
	certmodels "coursecert/internal/certification/models"
	certstore "coursecert/internal/certification/store"
	cwstore "coursecert/internal/coursework/store"
	"coursecert/internal/ledger"
	"coursecert/internal/metadata"
	"coursecert/internal/sentinel"
	"coursecert/internal/verification/metrics"
	"coursecert/internal/verification/models"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// Service orchestrates certificate verification.
type Service struct {
	certs      certstore.Store
	coursework cwstore.Store
	ledger     ledger.Client

	contractAddress string

	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the verification service.
type Option func(*Service)

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a verification service over the certification store, the
// course-work records, and the ledger.
func NewService(certs certstore.Store, coursework cwstore.Store, ledgerClient ledger.Client, contractAddress string, opts ...Option) *Service {
	svc := &Service{
		certs:           certs,
		coursework:      coursework,
		ledger:          ledgerClient,
		contractAddress: contractAddress,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// VerifyByCertificationID verifies a certificate by its platform ID.
func (s *Service) VerifyByCertificationID(ctx context.Context, certID id.CertificationID) (*models.Result, error) {
	record, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.invalid(ctx, models.ReasonNotFound, metrics.OutcomeNotFound, nil), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certification record")
	}
	return s.verify(ctx, record)
}

// VerifyByTokenID verifies a certificate by its ledger token ID.
func (s *Service) VerifyByTokenID(ctx context.Context, tokenID int64) (*models.Result, error) {
	record, err := s.certs.FindByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.invalid(ctx, models.ReasonNotFound, metrics.OutcomeNotFound, nil), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certification record")
	}
	return s.verify(ctx, record)
}

func (s *Service) verify(ctx context.Context, record *certmodels.Record) (*models.Result, error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveLatency(s.now().Sub(started).Seconds())
	}()

	// Local checks first. Revocation and expiry are mirrored locally exactly
	// so that most invalid certificates never cost a ledger call.
	if record.IsRevoked() {
		return s.invalid(ctx, models.ReasonRevoked, metrics.OutcomeRevoked, record), nil
	}
	if record.IsExpired(s.now()) {
		return s.invalid(ctx, models.ReasonExpired, metrics.OutcomeExpired, record), nil
	}
	switch record.State {
	case certmodels.StatePending:
		return s.invalid(ctx, models.ReasonNotConfirmed, metrics.OutcomeInvalid, record), nil
	case certmodels.StateFailed:
		return s.invalid(ctx, models.ReasonFailed, metrics.OutcomeInvalid, record), nil
	}
	if record.TokenID == nil {
		return s.invalid(ctx, models.ReasonNotConfirmed, metrics.OutcomeInvalid, record), nil
	}

	status, err := s.ledger.VerifyCertificate(ctx, *record.TokenID)
	if err != nil {
		s.logger.ErrorContext(ctx, "ledger verification failed",
			"certification_id", record.ID, "token_id", *record.TokenID, "error", err)
		return nil, err
	}
	if !status.Exists {
		// The mirror says issued but the ledger has no such token. This is a
		// data integrity problem, not a user error.
		s.logger.ErrorContext(ctx, "certification record diverges from ledger",
			"certification_id", record.ID, "token_id", *record.TokenID)
		return s.invalid(ctx, models.ReasonNotOnLedger, metrics.OutcomeMismatch, record), nil
	}
	if status.Revoked || !status.Valid {
		result := s.invalid(ctx, models.ReasonRevoked, metrics.OutcomeRevoked, record)
		if result.Certificate != nil {
			// The ledger is authoritative even when the mirror missed the revocation.
			result.Certificate.IsRevoked = true
		}
		return result, nil
	}

	// Recompute the commitment from the retained submissions, then confirm it
	// against both the mirror and the ledger anchor. Tampering with either the
	// stored hash or the submission rows after issuance surfaces here.
	projects, commitment, err := s.recomputeCommitment(ctx, record)
	if err != nil {
		return nil, err
	}
	if commitment.Hex() != record.ProjectsHash {
		s.logger.ErrorContext(ctx, "recomputed commitment diverges from certification record",
			"certification_id", record.ID, "token_id", *record.TokenID)
		return s.invalid(ctx, models.ReasonHashMismatch, metrics.OutcomeMismatch, record), nil
	}
	match, err := s.ledger.VerifyProjects(ctx, *record.TokenID, commitment)
	if err != nil {
		s.logger.ErrorContext(ctx, "ledger commitment check failed",
			"certification_id", record.ID, "token_id", *record.TokenID, "error", err)
		return nil, err
	}
	if !match {
		s.logger.ErrorContext(ctx, "commitment mismatch between mirror and ledger",
			"certification_id", record.ID, "token_id", *record.TokenID)
		return s.invalid(ctx, models.ReasonHashMismatch, metrics.OutcomeMismatch, record), nil
	}

	cert := s.toCertificate(ctx, record)
	cert.Projects = projects
	cert.BlockchainVerified = true
	// Best-effort enrichment; the wallet lives only on the ledger and the
	// cached client makes this read cheap.
	if onLedger, getErr := s.ledger.GetCertificate(ctx, *record.TokenID); getErr == nil && cert.Blockchain != nil {
		cert.Blockchain.StudentWallet = onLedger.StudentWallet
	}

	s.metrics.IncrementVerification(metrics.OutcomeValid)
	return &models.Result{Valid: true, Certificate: cert}, nil
}

// recomputeCommitment rebuilds the canonical submission records exactly as
// issuance did and returns both the display projection and the digest.
func (s *Service) recomputeCommitment(ctx context.Context, record *certmodels.Record) ([]models.Project, canonical.Commitment, error) {
	artifacts, err := s.coursework.RequiredArtifacts(ctx, record.CourseID)
	if err != nil {
		return nil, canonical.Commitment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load required artifacts")
	}
	artifactIDs := make([]id.ArtifactID, 0, len(artifacts))
	for _, artifact := range artifacts {
		artifactIDs = append(artifactIDs, artifact.ID)
	}
	submissions, err := s.coursework.ApprovedSubmissions(ctx, record.LearnerID, artifactIDs)
	if err != nil {
		return nil, canonical.Commitment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submissions")
	}

	records := canonical.BuildRecords(artifacts, submissions)
	commitment, err := canonical.Hash(records)
	if err != nil {
		return nil, canonical.Commitment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to recompute submission commitment")
	}

	projects := make([]models.Project, 0, len(records))
	for _, rec := range records {
		projects = append(projects, models.Project{Title: rec.ArtifactTitle, CompletedAt: rec.ReviewedAt})
	}
	return projects, commitment, nil
}

func (s *Service) invalid(ctx context.Context, reason, outcome string, record *certmodels.Record) *models.Result {
	s.metrics.IncrementVerification(outcome)
	result := &models.Result{Valid: false, Reason: reason}
	if record != nil {
		result.Certificate = s.toCertificate(ctx, record)
	}
	s.logger.InfoContext(ctx, "verification completed", "valid", false, "reason", reason)
	return result
}

func (s *Service) toCertificate(ctx context.Context, record *certmodels.Record) *models.Certificate {
	cert := &models.Certificate{
		CertificationID: record.ID.String(),
		StudentID:       record.LearnerID.String(),
		CourseID:        record.CourseID.String(),
		State:           string(record.State),
		IssuedAt:        record.IssuedAt,
		ExpiresAt:       record.ExpiresAt,
		IsRevoked:       record.IsRevoked(),
		VerificationURL: record.VerificationURL,
	}
	// Display names come from the course-work records; a lookup failure
	// degrades the response, not the verdict.
	if learner, err := s.coursework.Learner(ctx, record.LearnerID); err == nil {
		cert.StudentName = learner.FullName
	} else {
		s.logger.WarnContext(ctx, "learner lookup failed during verification",
			"certification_id", record.ID, "error", err)
	}
	if course, err := s.coursework.Course(ctx, record.CourseID); err == nil {
		cert.Title = metadata.CertificateTitle(course.Title)
		cert.CourseName = course.Title
		cert.InstructorName = course.InstructorName
	} else {
		s.logger.WarnContext(ctx, "course lookup failed during verification",
			"certification_id", record.ID, "error", err)
	}
	if record.Revocation != nil {
		at := record.Revocation.At
		cert.RevokedAt = &at
		cert.RevokeReason = record.Revocation.Reason
	}
	if record.TokenID != nil {
		cert.Blockchain = &models.BlockchainDetails{
			TokenID:           *record.TokenID,
			ContractAddress:   s.contractAddress,
			TxHash:            record.TxHash,
			ProjectsHash:      record.ProjectsHash,
			ContentURI:        record.ContentURI,
			ContentGatewayURL: record.ContentGatewayURL,
			IssuedAt:          record.IssuedAt,
		}
	}
	return cert
}
