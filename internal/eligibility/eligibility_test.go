package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"coursecert/internal/coursework/models"
	"coursecert/internal/coursework/store"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

type EligibilitySuite struct {
	suite.Suite
	coursework *store.InMemoryStore
	service    *Service
	learner    id.LearnerID
	course     id.CourseID
}

func TestEligibilitySuite(t *testing.T) {
	suite.Run(t, new(EligibilitySuite))
}

func (s *EligibilitySuite) SetupTest() {
	s.coursework = store.NewInMemoryStore()
	s.service = NewService(s.coursework)

	var err error
	s.learner, err = id.ParseLearnerID(uuid.NewString())
	s.Require().NoError(err)
	s.course, err = id.ParseCourseID(uuid.NewString())
	s.Require().NoError(err)
}

func (s *EligibilitySuite) addArtifact(title string) models.RequiredArtifact {
	artifactID, err := id.ParseArtifactID(uuid.NewString())
	s.Require().NoError(err)
	a := models.RequiredArtifact{ID: artifactID, CourseID: s.course, Title: title, Published: true}
	s.coursework.AddArtifact(a)
	return a
}

func (s *EligibilitySuite) approve(artifact models.RequiredArtifact) {
	submissionID, err := id.ParseSubmissionID(uuid.NewString())
	s.Require().NoError(err)
	s.coursework.AddSubmission(models.Submission{
		ID:          submissionID,
		ArtifactID:  artifact.ID,
		LearnerID:   s.learner,
		Status:      models.StatusApproved,
		SubmittedAt: time.Now(),
	})
}

func (s *EligibilitySuite) TestNoRequiredProjectsConfigured() {
	result, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)

	s.False(result.Eligible)
	s.Equal(ReasonNoRequiredProjects, result.Reason)
}

func (s *EligibilitySuite) TestOneOfTwoApproved() {
	capstone := s.addArtifact("Capstone")
	s.addArtifact("Final Exam")
	s.approve(capstone)

	result, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)

	s.False(result.Eligible)
	s.Len(result.MissingArtifacts, 1)
	s.Equal("Final Exam", result.MissingArtifacts[0].Title)
	s.Len(result.ApprovedSubmissions, 1)
}

func (s *EligibilitySuite) TestAllApproved() {
	capstone := s.addArtifact("Capstone")
	exam := s.addArtifact("Final Exam")
	s.approve(capstone)
	s.approve(exam)

	result, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)

	s.True(result.Eligible)
	s.Empty(result.MissingArtifacts)
	s.Len(result.ApprovedSubmissions, 2)
}

func (s *EligibilitySuite) TestApprovalIsMonotonic() {
	capstone := s.addArtifact("Capstone")
	exam := s.addArtifact("Final Exam")
	s.approve(capstone)

	before, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)
	s.False(before.Eligible)

	s.approve(exam)

	after, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)
	s.True(after.Eligible, "approving a missing artifact flips eligibility true, never the reverse")
}

func (s *EligibilitySuite) TestNonApprovedStatusesDoNotCount() {
	capstone := s.addArtifact("Capstone")
	submissionID, err := id.ParseSubmissionID(uuid.NewString())
	s.Require().NoError(err)
	s.coursework.AddSubmission(models.Submission{
		ID:          submissionID,
		ArtifactID:  capstone.ID,
		LearnerID:   s.learner,
		Status:      models.StatusReviewing,
		SubmittedAt: time.Now(),
	})

	result, err := s.service.Evaluate(context.Background(), s.learner, s.course)
	s.Require().NoError(err)
	s.False(result.Eligible)
	s.Len(result.MissingArtifacts, 1)
}

func TestIneligibilityErrorCarriesMissingTitles(t *testing.T) {
	result := &Result{
		Eligible: false,
		MissingArtifacts: []models.RequiredArtifact{
			{Title: "Capstone"},
			{Title: "Final Exam"},
		},
	}

	err := IneligibilityError(result)
	require.True(t, dErrors.HasCode(err, dErrors.CodeIneligible))
	require.Equal(t, []string{"Capstone", "Final Exam"}, dErrors.Details(err))
}
