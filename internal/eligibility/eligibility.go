// Package eligibility decides whether a learner qualifies for a course
// certificate. Evaluation is read-only, idempotent, and side-effect-free.
package eligibility

import (
	"context"
	"log/slog"

	"coursecert/internal/coursework/models"
	"coursecert/internal/coursework/store"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// ReasonNoRequiredProjects is returned when a course has no published
// artifacts marked required-for-certification. Such a course can never award a
// certificate, which is distinct from "learner not finished yet".
const ReasonNoRequiredProjects = "no required projects configured"

// Result reports the outcome of an eligibility evaluation.
type Result struct {
	Eligible            bool
	Reason              string
	RequiredArtifacts   []models.RequiredArtifact
	MissingArtifacts    []models.RequiredArtifact
	ApprovedSubmissions []models.Submission
}

// Service evaluates certificate eligibility over course-work records.
type Service struct {
	coursework store.Store
	logger     *slog.Logger
}

// Option configures the eligibility service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an eligibility service backed by the course-work store.
func NewService(coursework store.Store, opts ...Option) *Service {
	svc := &Service{coursework: coursework}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Evaluate determines whether the learner has an approved submission for every
// required artifact of the course. Approving a previously-missing artifact can
// only flip the outcome from ineligible to eligible, never the reverse.
func (s *Service) Evaluate(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*Result, error) {
	if learnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "learner ID is required")
	}
	if courseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "course ID is required")
	}

	artifacts, err := s.coursework.RequiredArtifacts(ctx, courseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load required artifacts")
	}
	if len(artifacts) == 0 {
		return &Result{
			Eligible: false,
			Reason:   ReasonNoRequiredProjects,
		}, nil
	}

	artifactIDs := make([]id.ArtifactID, len(artifacts))
	for i, a := range artifacts {
		artifactIDs[i] = a.ID
	}

	approved, err := s.coursework.ApprovedSubmissions(ctx, learnerID, artifactIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approved submissions")
	}

	covered := make(map[string]struct{}, len(approved))
	for _, sub := range approved {
		covered[sub.ArtifactID.String()] = struct{}{}
	}

	var missing []models.RequiredArtifact
	for _, a := range artifacts {
		if _, ok := covered[a.ID.String()]; !ok {
			missing = append(missing, a)
		}
	}

	result := &Result{
		Eligible:            len(missing) == 0,
		RequiredArtifacts:   artifacts,
		MissingArtifacts:    missing,
		ApprovedSubmissions: approved,
	}
	if !result.Eligible {
		result.Reason = "missing approved submissions for required projects"
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "eligibility evaluated",
			"learner_id", learnerID,
			"course_id", courseID,
			"eligible", result.Eligible,
			"missing", len(missing),
		)
	}
	return result, nil
}

// IneligibilityError converts an ineligible result into the typed domain error
// carried by issuance failures, listing the missing artifact titles.
func IneligibilityError(result *Result) error {
	if result.Reason == ReasonNoRequiredProjects {
		return dErrors.New(dErrors.CodeIneligible, ReasonNoRequiredProjects)
	}
	titles := make([]string, len(result.MissingArtifacts))
	for i, a := range result.MissingArtifacts {
		titles[i] = a.Title
	}
	return dErrors.NewWithDetails(dErrors.CodeIneligible, "learner has not completed all required projects", titles)
}
