// Package models holds the read-only course-work records this subsystem
// consumes. Artifacts, submissions, and enrollments are owned by the course
// and review workflows; this service never mutates them.
package models

import (
	"time"

	id "coursecert/pkg/domain"
)

// SubmissionStatus enumerates the review workflow states.
type SubmissionStatus string

const (
	StatusSubmitted         SubmissionStatus = "submitted"
	StatusReviewing         SubmissionStatus = "reviewing"
	StatusApproved          SubmissionStatus = "approved"
	StatusRejected          SubmissionStatus = "rejected"
	StatusRevisionRequested SubmissionStatus = "revision_requested"
)

// RequiredArtifact is a project marked required-for-certification within a
// course. Immutable once referenced by any submission.
type RequiredArtifact struct {
	ID        id.ArtifactID
	CourseID  id.CourseID
	Title     string
	Published bool
}

// Submission is a learner's project submission. Mutated only by the review
// workflow; read-only here.
type Submission struct {
	ID          id.SubmissionID
	ArtifactID  id.ArtifactID
	LearnerID   id.LearnerID
	Status      SubmissionStatus
	Grade       *float64
	SubmittedAt time.Time
	ReviewedAt  *time.Time
	ReviewerID  *string
}

// Enrollment links a learner to a course.
type Enrollment struct {
	ID         id.EnrollmentID
	LearnerID  id.LearnerID
	CourseID   id.CourseID
	Active     bool
	EnrolledAt time.Time
}

// Learner carries the human-facing fields needed on certificates.
type Learner struct {
	ID            id.LearnerID
	FullName      string
	WalletAddress string
}

// Course carries the human-facing fields needed on certificates.
type Course struct {
	ID             id.CourseID
	Title          string
	InstructorName string
}
