package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"coursecert/internal/certification/models"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists certification records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificationColumns = `
	id, learner_id, course_id, enrollment_id, state, token_id, tx_hash,
	projects_hash, content_uri, content_gateway_url, verification_url,
	issued_at, expires_at, revoked_at, revoke_reason, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO certifications (
			id, learner_id, course_id, enrollment_id, state, token_id, tx_hash,
			projects_hash, content_uri, content_gateway_url, verification_url,
			issued_at, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	var tokenID sql.NullInt64
	if record.TokenID != nil {
		tokenID = sql.NullInt64{Int64: *record.TokenID, Valid: true}
	}
	var expiresAt sql.NullTime
	if record.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *record.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID.String(), record.LearnerID.String(), record.CourseID.String(),
		record.EnrollmentID.String(), string(record.State), tokenID, record.TxHash,
		record.ProjectsHash, record.ContentURI, record.ContentGatewayURL, record.VerificationURL,
		record.IssuedAt, expiresAt, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert certification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, record *models.Record) error {
	query := `
		UPDATE certifications
		SET state = $2, token_id = $3, tx_hash = $4,
		    revoked_at = $5, revoke_reason = $6, updated_at = $7
		WHERE id = $1
	`
	var tokenID sql.NullInt64
	if record.TokenID != nil {
		tokenID = sql.NullInt64{Int64: *record.TokenID, Valid: true}
	}
	var revokedAt sql.NullTime
	var revokeReason sql.NullString
	if record.Revocation != nil {
		revokedAt = sql.NullTime{Time: record.Revocation.At, Valid: true}
		revokeReason = sql.NullString{String: record.Revocation.Reason, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		record.ID.String(), string(record.State), tokenID, record.TxHash,
		revokedAt, revokeReason, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update certification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certification rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificationID) (*models.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM certifications WHERE id = $1`, certificationColumns)
	return s.queryOne(ctx, query, certID.String())
}

func (s *PostgresStore) FindByTokenID(ctx context.Context, tokenID int64) (*models.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM certifications WHERE token_id = $1`, certificationColumns)
	return s.queryOne(ctx, query, tokenID)
}

func (s *PostgresStore) FindActiveByLearnerAndCourse(ctx context.Context, learnerID id.LearnerID, courseID id.CourseID) (*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM certifications
		WHERE learner_id = $1 AND course_id = $2
		  AND revoked_at IS NULL AND state <> 'failed'
		LIMIT 1
	`, certificationColumns)
	return s.queryOne(ctx, query, learnerID.String(), courseID.String())
}

func (s *PostgresStore) ListByLearner(ctx context.Context, learnerID id.LearnerID) ([]*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM certifications
		WHERE learner_id = $1
		ORDER BY created_at DESC
	`, certificationColumns)
	return s.queryMany(ctx, query, learnerID.String())
}

func (s *PostgresStore) ListByCourse(ctx context.Context, courseID id.CourseID) ([]*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM certifications
		WHERE course_id = $1
		ORDER BY created_at DESC
	`, certificationColumns)
	return s.queryMany(ctx, query, courseID.String())
}

func (s *PostgresStore) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM certifications
		WHERE state = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, certificationColumns)
	return s.queryMany(ctx, query, createdBefore, limit)
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type certificationRow interface {
	Scan(dest ...any) error
}

func scanRecord(row certificationRow) (*models.Record, error) {
	var r models.Record
	var certID, learnerID, courseID, enrollmentID, state string
	var tokenID sql.NullInt64
	var expiresAt, revokedAt sql.NullTime
	var revokeReason sql.NullString

	err := row.Scan(
		&certID, &learnerID, &courseID, &enrollmentID, &state, &tokenID, &r.TxHash,
		&r.ProjectsHash, &r.ContentURI, &r.ContentGatewayURL, &r.VerificationURL,
		&r.IssuedAt, &expiresAt, &revokedAt, &revokeReason, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan certification: %w", err)
	}

	if r.ID, err = id.ParseCertificationID(certID); err != nil {
		return nil, fmt.Errorf("parse certification id: %w", err)
	}
	if r.LearnerID, err = id.ParseLearnerID(learnerID); err != nil {
		return nil, fmt.Errorf("parse certification learner id: %w", err)
	}
	if r.CourseID, err = id.ParseCourseID(courseID); err != nil {
		return nil, fmt.Errorf("parse certification course id: %w", err)
	}
	if r.EnrollmentID, err = id.ParseEnrollmentID(enrollmentID); err != nil {
		return nil, fmt.Errorf("parse certification enrollment id: %w", err)
	}
	r.State = models.State(state)
	if tokenID.Valid {
		t := tokenID.Int64
		r.TokenID = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		r.ExpiresAt = &t
	}
	if revokedAt.Valid {
		r.Revocation = &models.Revocation{At: revokedAt.Time, Reason: revokeReason.String}
	}
	return &r, nil
}

var _ Store = (*PostgresStore)(nil)
