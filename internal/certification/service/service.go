// Package service orchestrates certificate issuance across the content store,
// the ledger, and the relational mirror.
//
// The issuance order is deliberate: the metadata document is published and
// confirmed on the content store before the ledger transaction is submitted,
// because a ledger record pointing at missing content is a permanent dangling
// reference, while an orphaned content blob after a failed ledger write is
// harmless and left unpinned by operators.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"coursecert/internal/canonical"
	"coursecert/internal/certification/metrics"
	"coursecert/internal/certification/models"
	"coursecert/internal/certification/store"
	"coursecert/internal/contentstore"
	cwmodels "coursecert/internal/coursework/models"
	cwstore "coursecert/internal/coursework/store"
	"coursecert/internal/eligibility"
	"coursecert/internal/ledger"
	"coursecert/internal/metadata"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// Service runs the issuance saga and the certificate lifecycle operations.
type Service struct {
	certs       store.Store
	coursework  cwstore.Store
	eligibility *eligibility.Service
	publisher   contentstore.Publisher
	ledger      ledger.Client

	verificationBaseURL string
	certificateImageURL string
	// certificateTTL, when positive, sets an expiry on issued certificates.
	certificateTTL time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the certification service.
type Option func(*Service)

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCertificateTTL sets a validity window on issued certificates. Zero or
// negative means certificates never expire.
func WithCertificateTTL(ttl time.Duration) Option {
	return func(s *Service) { s.certificateTTL = ttl }
}

// WithCertificateImage sets the badge image URL embedded in certificate metadata.
func WithCertificateImage(url string) Option {
	return func(s *Service) { s.certificateImageURL = url }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the issuance pipeline.
func NewService(
	certs store.Store,
	coursework cwstore.Store,
	elig *eligibility.Service,
	publisher contentstore.Publisher,
	ledgerClient ledger.Client,
	verificationBaseURL string,
	opts ...Option,
) *Service {
	svc := &Service{
		certs:               certs,
		coursework:          coursework,
		eligibility:         elig,
		publisher:           publisher,
		ledger:              ledgerClient,
		verificationBaseURL: verificationBaseURL,
		logger:              slog.Default(),
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Issue runs the full issuance saga for a learner and course. On success the
// returned record is in StateIssued. When the ledger transaction outlives the
// mining wait, the record is persisted in StatePending with its transaction
// hash and returned without error; the reconciler resolves it later.
func (s *Service) Issue(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*models.Record, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "learner ID is required")
	}
	if courseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "course ID is required")
	}
	started := s.now()

	// Fast-path duplicate check. The store's uniqueness constraint on active
	// records is the actual gate; this only saves the pipeline work.
	if existing, err := s.certs.FindActiveByLearnerAndCourse(ctx, learnerID, courseID); err == nil {
		return nil, dErrors.NewWithDetails(dErrors.CodeConflict,
			"an active certification already exists for this learner and course",
			[]string{existing.ID.String()})
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certifications")
	}

	subject, err := s.loadSubject(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	result, err := s.eligibility.Evaluate(ctx, learnerID, courseID)
	if err != nil {
		s.metrics.IncrementFailed(metrics.StageEligibility)
		return nil, err
	}
	if !result.Eligible {
		s.metrics.IncrementFailed(metrics.StageEligibility)
		return nil, eligibility.IneligibilityError(result)
	}

	records := canonical.BuildRecords(result.RequiredArtifacts, result.ApprovedSubmissions)
	commitment, err := canonical.Hash(records)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute submission commitment")
	}

	certID := id.NewCertificationID()
	verificationURL := s.verificationBaseURL + "/" + certID.String()
	issuedAt := s.now().UTC()

	doc := metadata.Compose(metadata.ComposeInput{
		CertificationID: certID,
		Learner:         subject.learner,
		Course:          subject.course,
		IssuedAt:        issuedAt,
		Projects:        records,
		VerificationURL: verificationURL,
		ImageURL:        s.certificateImageURL,
	})
	ref, err := s.publisher.Publish(ctx, doc)
	if err != nil {
		s.metrics.IncrementFailed(metrics.StageContent)
		s.logger.ErrorContext(ctx, "certificate metadata publish failed",
			"certification_id", certID, "error", err)
		return nil, err
	}

	var expiresAt *time.Time
	if s.certificateTTL > 0 {
		expires := issuedAt.Add(s.certificateTTL)
		expiresAt = &expires
	}

	receipt, issueErr := s.ledger.IssueCertificate(ctx, ledger.IssueRequest{
		StudentWallet: subject.learner.WalletAddress,
		StudentName:   subject.learner.FullName,
		StudentID:     learnerID,
		CourseID:      courseID,
		CourseName:    subject.course.Title,
		ProjectsHash:  commitment,
		ContentURI:    ref.URI,
		ExpiresAt:     expiresAt,
	})

	record := &models.Record{
		ID:                certID,
		LearnerID:         learnerID,
		CourseID:          courseID,
		EnrollmentID:      subject.enrollment.ID,
		TxHash:            receipt.TxHash,
		ProjectsHash:      commitment.Hex(),
		ContentURI:        ref.URI,
		ContentGatewayURL: ref.GatewayURL,
		VerificationURL:   verificationURL,
		IssuedAt:          issuedAt,
		ExpiresAt:         expiresAt,
		CreatedAt:         issuedAt,
		UpdatedAt:         issuedAt,
	}

	switch {
	case issueErr == nil:
		record.State = models.StateIssued
		tokenID := receipt.TokenID
		record.TokenID = &tokenID
	case dErrors.IsRetryable(issueErr) && receipt.TxHash != "":
		// The transaction is in flight; the orphaned content blob stays
		// published either way. Record the hash and let the reconciler finish.
		record.State = models.StatePending
		s.logger.WarnContext(ctx, "issuance recorded pending",
			"certification_id", certID, "tx_hash", receipt.TxHash, "error", issueErr)
	default:
		s.metrics.IncrementFailed(metrics.StageLedger)
		s.logger.ErrorContext(ctx, "ledger issuance failed",
			"certification_id", certID, "error", issueErr)
		return nil, issueErr
	}

	if err := s.certs.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"an active certification already exists for this learner and course")
		}
		s.metrics.IncrementFailed(metrics.StageRecord)
		// The ledger write already happened; the token and tx hash in this log
		// line are what an operator needs to repair the mirror by hand.
		s.logger.ErrorContext(ctx, "certification record write failed after ledger write",
			"certification_id", certID,
			"tx_hash", record.TxHash,
			"token_id", receipt.TokenID,
			"error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist certification record")
	}

	if record.State == models.StateIssued {
		s.metrics.IncrementIssued()
	} else {
		s.metrics.IncrementPending()
	}
	s.metrics.ObserveIssuanceLatency(s.now().Sub(started).Seconds())

	s.logger.InfoContext(ctx, "certification recorded",
		"certification_id", certID,
		"learner_id", learnerID,
		"course_id", courseID,
		"state", record.State,
		"tx_hash", record.TxHash,
	)
	return record, nil
}

// Revoke withdraws an issued certificate on the ledger and mirrors the
// revocation locally. Pending and failed records cannot be revoked.
func (s *Service) Revoke(ctx context.Context, certID id.CertificationID, reason string) (*models.Record, error) {
	record, err := s.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	if record.IsRevoked() {
		return nil, dErrors.New(dErrors.CodeConflict, "certification is already revoked")
	}
	if record.State != models.StateIssued || record.TokenID == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "only issued certifications can be revoked")
	}

	if _, err := s.ledger.RevokeCertificate(ctx, *record.TokenID, reason); err != nil {
		s.logger.ErrorContext(ctx, "ledger revocation failed",
			"certification_id", certID, "token_id", *record.TokenID, "error", err)
		return nil, err
	}

	now := s.now().UTC()
	record.State = models.StateRevoked
	record.Revocation = &models.Revocation{Reason: reason, At: now}
	record.UpdatedAt = now
	if err := s.certs.Update(ctx, record); err != nil {
		// The ledger already holds the revocation; verification reads the
		// ledger, so correctness survives a stale mirror.
		s.logger.ErrorContext(ctx, "revocation mirror update failed",
			"certification_id", certID, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update certification record")
	}

	s.metrics.IncrementRevoked()
	s.logger.InfoContext(ctx, "certification revoked",
		"certification_id", certID, "reason", reason)
	return record, nil
}

// Get returns a certification record by ID.
func (s *Service) Get(ctx context.Context, certID id.CertificationID) (*models.Record, error) {
	if certID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "certification ID is required")
	}
	record, err := s.certs.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certification")
	}
	return record, nil
}

// ListByLearner returns all certification records for a learner, newest first.
func (s *Service) ListByLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Record, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "learner ID is required")
	}
	records, err := s.certs.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certifications")
	}
	return records, nil
}

// ListByCourse returns all certification records for a course, newest first.
func (s *Service) ListByCourse(ctx context.Context, courseID id.CourseID) ([]*models.Record, error) {
	if courseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "course ID is required")
	}
	records, err := s.certs.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certifications")
	}
	return records, nil
}

// Eligibility evaluates without issuing, so admins can preview what is missing.
func (s *Service) Eligibility(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*eligibility.Result, error) {
	return s.eligibility.Evaluate(ctx, learnerID, courseID)
}

// subject bundles the records fetched up front for an issuance.
type subject struct {
	learner    cwmodels.Learner
	course     cwmodels.Course
	enrollment cwmodels.Enrollment
}

// loadSubject fetches the learner, course, and enrollment concurrently and
// validates the learner can receive a certificate.
func (s *Service) loadSubject(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (subject, error) {
	var sub subject
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		learner, err := s.coursework.Learner(gctx, learnerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "learner not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load learner")
		}
		sub.learner = learner
		return nil
	})
	g.Go(func() error {
		course, err := s.coursework.Course(gctx, courseID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "course not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load course")
		}
		sub.course = course
		return nil
	})
	g.Go(func() error {
		enrollment, err := s.coursework.ActiveEnrollment(gctx, learnerID, courseID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInvalidInput, "learner is not actively enrolled in this course")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
		}
		sub.enrollment = enrollment
		return nil
	})

	if err := g.Wait(); err != nil {
		return subject{}, err
	}
	if sub.learner.WalletAddress == "" {
		return subject{}, dErrors.New(dErrors.CodeInvalidInput, "learner has no wallet address on file")
	}
	return sub, nil
}
