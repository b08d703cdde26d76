package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coursecert/internal/coursework/models"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
)

// PostgresStore reads course-work records from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed course-work store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RequiredArtifacts(ctx context.Context, courseID id.CourseID) ([]models.RequiredArtifact, error) {
	query := `
		SELECT id, course_id, title, published
		FROM artifacts
		WHERE course_id = $1 AND published = TRUE AND required_for_certification = TRUE
		ORDER BY title
	`
	rows, err := s.db.QueryContext(ctx, query, courseID.String())
	if err != nil {
		return nil, fmt.Errorf("list required artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []models.RequiredArtifact
	for rows.Next() {
		var a models.RequiredArtifact
		var artifactID, course string
		if err := rows.Scan(&artifactID, &course, &a.Title, &a.Published); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if a.ID, err = id.ParseArtifactID(artifactID); err != nil {
			return nil, fmt.Errorf("parse artifact id: %w", err)
		}
		if a.CourseID, err = id.ParseCourseID(course); err != nil {
			return nil, fmt.Errorf("parse artifact course id: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func (s *PostgresStore) ApprovedSubmissions(ctx context.Context, learnerID id.LearnerID, artifactIDs []id.ArtifactID) ([]models.Submission, error) {
	if len(artifactIDs) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(artifactIDs)+1)
	args = append(args, learnerID.String())
	placeholders := make([]string, len(artifactIDs))
	for i, a := range artifactIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, a.String())
	}

	query := fmt.Sprintf(`
		SELECT id, artifact_id, learner_id, status, grade, submitted_at, reviewed_at, reviewer_id
		FROM submissions
		WHERE learner_id = $1 AND status = 'approved' AND artifact_id IN (%s)
		ORDER BY submitted_at
	`, strings.Join(placeholders, ", "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approved submissions: %w", err)
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func (s *PostgresStore) ActiveEnrollment(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (models.Enrollment, error) {
	query := `
		SELECT id, learner_id, course_id, active, enrolled_at
		FROM enrollments
		WHERE learner_id = $1 AND course_id = $2 AND active = TRUE
		LIMIT 1
	`
	var e models.Enrollment
	var enrollmentID, learner, course string
	err := s.db.QueryRowContext(ctx, query, learnerID.String(), courseID.String()).
		Scan(&enrollmentID, &learner, &course, &e.Active, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Enrollment{}, sentinel.ErrNotFound
		}
		return models.Enrollment{}, fmt.Errorf("find active enrollment: %w", err)
	}
	if e.ID, err = id.ParseEnrollmentID(enrollmentID); err != nil {
		return models.Enrollment{}, fmt.Errorf("parse enrollment id: %w", err)
	}
	if e.LearnerID, err = id.ParseLearnerID(learner); err != nil {
		return models.Enrollment{}, fmt.Errorf("parse enrollment learner id: %w", err)
	}
	if e.CourseID, err = id.ParseCourseID(course); err != nil {
		return models.Enrollment{}, fmt.Errorf("parse enrollment course id: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Learner(ctx context.Context, learnerID id.LearnerID) (models.Learner, error) {
	query := `SELECT id, full_name, COALESCE(wallet_address, '') FROM learners WHERE id = $1`
	var l models.Learner
	var learner string
	err := s.db.QueryRowContext(ctx, query, learnerID.String()).Scan(&learner, &l.FullName, &l.WalletAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Learner{}, sentinel.ErrNotFound
		}
		return models.Learner{}, fmt.Errorf("find learner: %w", err)
	}
	if l.ID, err = id.ParseLearnerID(learner); err != nil {
		return models.Learner{}, fmt.Errorf("parse learner id: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Course(ctx context.Context, courseID id.CourseID) (models.Course, error) {
	query := `SELECT id, title, COALESCE(instructor_name, '') FROM courses WHERE id = $1`
	var c models.Course
	var course string
	err := s.db.QueryRowContext(ctx, query, courseID.String()).Scan(&course, &c.Title, &c.InstructorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Course{}, sentinel.ErrNotFound
		}
		return models.Course{}, fmt.Errorf("find course: %w", err)
	}
	if c.ID, err = id.ParseCourseID(course); err != nil {
		return models.Course{}, fmt.Errorf("parse course id: %w", err)
	}
	return c, nil
}

type submissionRow interface {
	Scan(dest ...any) error
}

func scanSubmission(row submissionRow) (models.Submission, error) {
	var sub models.Submission
	var subID, artifactID, learnerID, status string
	var grade sql.NullFloat64
	var reviewedAt sql.NullTime
	var reviewerID sql.NullString
	if err := row.Scan(&subID, &artifactID, &learnerID, &status, &grade, &sub.SubmittedAt, &reviewedAt, &reviewerID); err != nil {
		return models.Submission{}, fmt.Errorf("scan submission: %w", err)
	}

	var err error
	if sub.ID, err = id.ParseSubmissionID(subID); err != nil {
		return models.Submission{}, fmt.Errorf("parse submission id: %w", err)
	}
	if sub.ArtifactID, err = id.ParseArtifactID(artifactID); err != nil {
		return models.Submission{}, fmt.Errorf("parse submission artifact id: %w", err)
	}
	if sub.LearnerID, err = id.ParseLearnerID(learnerID); err != nil {
		return models.Submission{}, fmt.Errorf("parse submission learner id: %w", err)
	}
	sub.Status = models.SubmissionStatus(status)
	if grade.Valid {
		g := grade.Float64
		sub.Grade = &g
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}
	if reviewerID.Valid && reviewerID.String != "" {
		r := reviewerID.String
		sub.ReviewerID = &r
	}
	return sub, nil
}

var _ Store = (*PostgresStore)(nil)
