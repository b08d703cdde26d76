package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecert/internal/certification/models"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
)

var recordColumns = []string{
	"id", "learner_id", "course_id", "enrollment_id", "state", "token_id", "tx_hash",
	"projects_hash", "content_uri", "content_gateway_url", "verification_url",
	"issued_at", "expires_at", "revoked_at", "revoke_reason", "created_at", "updated_at",
}

func testRecord(t *testing.T) *models.Record {
	t.Helper()
	learnerID, err := id.ParseLearnerID(uuid.NewString())
	require.NoError(t, err)
	courseID, err := id.ParseCourseID(uuid.NewString())
	require.NoError(t, err)
	enrollmentID, err := id.ParseEnrollmentID(uuid.NewString())
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	tokenID := int64(42)
	return &models.Record{
		ID:                id.NewCertificationID(),
		LearnerID:         learnerID,
		CourseID:          courseID,
		EnrollmentID:      enrollmentID,
		State:             models.StateIssued,
		TokenID:           &tokenID,
		TxHash:            "0xabc",
		ProjectsHash:      "0x1122",
		ContentURI:        "ipfs://bafy",
		ContentGatewayURL: "https://gateway.test/ipfs/bafy",
		VerificationURL:   "https://example.test/certificates/verify/cert",
		IssuedAt:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestCreateInsertsRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := testRecord(t)
	mock.ExpectExec("INSERT INTO certifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgres(db).Create(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUniqueViolationIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO certifications").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "certifications_active_learner_course_idx"})

	err = NewPostgres(db).Create(context.Background(), testRecord(t))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM certifications WHERE id =").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err = NewPostgres(db).FindByID(context.Background(), id.NewCertificationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFindByIDScansRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := testRecord(t)
	rows := sqlmock.NewRows(recordColumns).AddRow(
		record.ID.String(), record.LearnerID.String(), record.CourseID.String(),
		record.EnrollmentID.String(), string(record.State), *record.TokenID, record.TxHash,
		record.ProjectsHash, record.ContentURI, record.ContentGatewayURL, record.VerificationURL,
		record.IssuedAt, nil, nil, nil, record.CreatedAt, record.UpdatedAt,
	)
	mock.ExpectQuery("SELECT (.+) FROM certifications WHERE id =").
		WithArgs(record.ID.String()).
		WillReturnRows(rows)

	got, err := NewPostgres(db).FindByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.EnrollmentID, got.EnrollmentID)
	assert.Equal(t, models.StateIssued, got.State)
	require.NotNil(t, got.TokenID)
	assert.Equal(t, int64(42), *got.TokenID)
	assert.Nil(t, got.Revocation)
}

func TestUpdateMissingRecordIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE certifications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgres(db).Update(context.Background(), testRecord(t))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListPendingPassesCutoffAndLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().Add(-time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM certifications\\s+WHERE state = 'pending'").
		WithArgs(cutoff, 10).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := NewPostgres(db).ListPending(context.Background(), cutoff, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
