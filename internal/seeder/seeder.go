// Package seeder populates the in-memory course-work store with demo data for
// local runs without a database.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coursecert/internal/coursework/models"
	"coursecert/internal/coursework/store"
	id "coursecert/pkg/domain"
)

// Demo wallet from the standard local-node mnemonic; holds test funds on
// hardhat and anvil default chains.
const demoWallet = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

// Seeder populates stores with demo data.
type Seeder struct {
	coursework *store.InMemoryStore
	logger     *slog.Logger
}

// New creates a seeder over the in-memory course-work store.
func New(coursework *store.InMemoryStore, logger *slog.Logger) *Seeder {
	return &Seeder{coursework: coursework, logger: logger}
}

// SeedAll loads a learner who is already eligible for one course and short of
// eligibility on a second, so both issuance outcomes can be exercised
// immediately.
func (s *Seeder) SeedAll(_ context.Context) error {
	s.logger.Info("seeding demo course-work data...")

	learner, err := s.seedLearner("Ada Lovelace", demoWallet)
	if err != nil {
		return err
	}

	completed, err := s.seedCourse("Distributed Systems", "Prof. L. Lamport")
	if err != nil {
		return err
	}
	inProgress, err := s.seedCourse("Compiler Construction", "Prof. G. Hopper")
	if err != nil {
		return err
	}

	if err := s.enroll(learner, completed); err != nil {
		return err
	}
	if err := s.enroll(learner, inProgress); err != nil {
		return err
	}

	// All required projects approved: eligible.
	for i, title := range []string{"Consensus Capstone", "Replication Lab"} {
		artifact, err := s.seedArtifact(completed, title)
		if err != nil {
			return err
		}
		if err := s.approve(learner, artifact, 90+float64(i*5)); err != nil {
			return err
		}
	}

	// One of two approved: ineligible with a concrete missing title.
	done, err := s.seedArtifact(inProgress, "Lexer Project")
	if err != nil {
		return err
	}
	if err := s.approve(learner, done, 88); err != nil {
		return err
	}
	if _, err := s.seedArtifact(inProgress, "Code Generation Project"); err != nil {
		return err
	}

	s.logger.Info("demo data seeded",
		"learner_id", learner,
		"eligible_course_id", completed,
		"ineligible_course_id", inProgress,
	)
	return nil
}

func (s *Seeder) seedLearner(name, wallet string) (id.LearnerID, error) {
	learnerID, err := id.ParseLearnerID(uuid.NewString())
	if err != nil {
		return learnerID, fmt.Errorf("seed learner: %w", err)
	}
	s.coursework.AddLearner(models.Learner{ID: learnerID, FullName: name, WalletAddress: wallet})
	return learnerID, nil
}

func (s *Seeder) seedCourse(title, instructor string) (id.CourseID, error) {
	courseID, err := id.ParseCourseID(uuid.NewString())
	if err != nil {
		return courseID, fmt.Errorf("seed course: %w", err)
	}
	s.coursework.AddCourse(models.Course{ID: courseID, Title: title, InstructorName: instructor})
	return courseID, nil
}

func (s *Seeder) enroll(learnerID id.LearnerID, courseID id.CourseID) error {
	enrollmentID, err := id.ParseEnrollmentID(uuid.NewString())
	if err != nil {
		return fmt.Errorf("seed enrollment: %w", err)
	}
	s.coursework.AddEnrollment(models.Enrollment{
		ID:         enrollmentID,
		LearnerID:  learnerID,
		CourseID:   courseID,
		Active:     true,
		EnrolledAt: time.Now().Add(-60 * 24 * time.Hour),
	})
	return nil
}

func (s *Seeder) seedArtifact(courseID id.CourseID, title string) (models.RequiredArtifact, error) {
	artifactID, err := id.ParseArtifactID(uuid.NewString())
	if err != nil {
		return models.RequiredArtifact{}, fmt.Errorf("seed artifact: %w", err)
	}
	artifact := models.RequiredArtifact{ID: artifactID, CourseID: courseID, Title: title, Published: true}
	s.coursework.AddArtifact(artifact)
	return artifact, nil
}

func (s *Seeder) approve(learnerID id.LearnerID, artifact models.RequiredArtifact, grade float64) error {
	submissionID, err := id.ParseSubmissionID(uuid.NewString())
	if err != nil {
		return fmt.Errorf("seed submission: %w", err)
	}
	reviewed := time.Now().Add(-7 * 24 * time.Hour)
	reviewer := "demo-reviewer"
	s.coursework.AddSubmission(models.Submission{
		ID:          submissionID,
		ArtifactID:  artifact.ID,
		LearnerID:   learnerID,
		Status:      models.StatusApproved,
		Grade:       &grade,
		SubmittedAt: reviewed.Add(-48 * time.Hour),
		ReviewedAt:  &reviewed,
		ReviewerID:  &reviewer,
	})
	return nil
}
