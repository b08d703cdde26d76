package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecert/internal/canonical"
	id "coursecert/pkg/domain"
)

func TestFakeIssueVerifyRevokeRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()

	learner, err := id.ParseLearnerID(uuid.NewString())
	require.NoError(t, err)
	course, err := id.ParseCourseID(uuid.NewString())
	require.NoError(t, err)
	hash := canonical.HashBytes([]byte(`[]`))

	receipt, err := fake.IssueCertificate(ctx, IssueRequest{
		StudentWallet: "0x1111111111111111111111111111111111111111",
		StudentName:   "Ada Lovelace",
		StudentID:     learner,
		CourseID:      course,
		CourseName:    "Go",
		ProjectsHash:  hash,
		ContentURI:    "ipfs://abc",
	})
	require.NoError(t, err)
	require.NotZero(t, receipt.TokenID)
	require.NotEmpty(t, receipt.TxHash)

	cert, err := fake.GetCertificate(ctx, receipt.TokenID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", cert.StudentName)
	assert.Nil(t, cert.ExpiresAt)

	status, err := fake.VerifyCertificate(ctx, receipt.TokenID)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.True(t, status.Valid)

	match, err := fake.VerifyProjects(ctx, receipt.TokenID, hash)
	require.NoError(t, err)
	assert.True(t, match)

	_, err = fake.RevokeCertificate(ctx, receipt.TokenID, "issued in error")
	require.NoError(t, err)

	status, err = fake.VerifyCertificate(ctx, receipt.TokenID)
	require.NoError(t, err)
	assert.True(t, status.Revoked)
	assert.False(t, status.Valid)

	byStudent, err := fake.StudentCertificates(ctx, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, []int64{receipt.TokenID}, byStudent)

	byCourse, err := fake.CourseCertificates(ctx, course)
	require.NoError(t, err)
	assert.Equal(t, []int64{receipt.TokenID}, byCourse)
}

func TestFakeExpiredCertificateIsNotValid(t *testing.T) {
	fake := NewFake()
	expired := time.Now().Add(-time.Hour).UTC()
	fake.Seed(Certificate{TokenID: 9, StudentWallet: "0x1111111111111111111111111111111111111111", ExpiresAt: &expired})

	status, err := fake.VerifyCertificate(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.False(t, status.Valid, "expired certificates must not verify as valid")
	assert.False(t, status.Revoked)
}

func TestFakeTimeoutStillReturnsTxHash(t *testing.T) {
	fake := NewFake()
	fake.IssueTimesOut = true

	receipt, err := fake.IssueCertificate(context.Background(), IssueRequest{
		StudentWallet: "0x1111111111111111111111111111111111111111",
	})
	require.Error(t, err)
	assert.NotEmpty(t, receipt.TxHash)
	assert.Zero(t, receipt.TokenID)
}
