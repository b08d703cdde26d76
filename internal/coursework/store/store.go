package store

import (
	"context"

	"coursecert/internal/coursework/models"
	id "coursecert/pkg/domain"
)

// Store exposes read-only access to course-work records.
// Implementations return sentinel.ErrNotFound (optionally wrapped) for missing
// rows so services can translate errors exactly once.
type Store interface {
	// RequiredArtifacts lists published artifacts marked required-for-certification.
	RequiredArtifacts(ctx context.Context, courseID id.CourseID) ([]models.RequiredArtifact, error)

	// ApprovedSubmissions lists a learner's approved submissions restricted to
	// the given artifacts.
	ApprovedSubmissions(ctx context.Context, learnerID id.LearnerID, artifactIDs []id.ArtifactID) ([]models.Submission, error)

	// ActiveEnrollment resolves the learner's active enrollment in a course.
	ActiveEnrollment(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (models.Enrollment, error)

	// Learner fetches learner display fields.
	Learner(ctx context.Context, learnerID id.LearnerID) (models.Learner, error)

	// Course fetches course display fields.
	Course(ctx context.Context, courseID id.CourseID) (models.Course, error)
}
