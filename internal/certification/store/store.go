// Package store persists certification records.
//
// Error Contract:
//   - Find* return sentinel.ErrNotFound when no record matches
//   - Create returns sentinel.ErrConflict when an active certification already
//     exists for the learner and course (the partial unique index is the
//     correctness gate; service-level pre-checks are a fast path only)
//   - Records are never deleted; revocation and failure are recorded in place
package store

import (
	"context"
	"time"

	"coursecert/internal/certification/models"
	id "coursecert/pkg/domain"
)

// Store is the certification record persistence interface.
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	Update(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, certID id.CertificationID) (*models.Record, error)
	FindByTokenID(ctx context.Context, tokenID int64) (*models.Record, error)
	// FindActiveByLearnerAndCourse returns the non-revoked, non-failed record
	// for the pair, if any.
	FindActiveByLearnerAndCourse(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*models.Record, error)
	ListByLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Record, error)
	ListByCourse(ctx context.Context, courseID id.CourseID) ([]*models.Record, error)
	// ListPending returns pending records created before the cutoff, oldest
	// first, for the reconciler.
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Record, error)
}
