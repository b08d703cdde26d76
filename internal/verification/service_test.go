package verification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coursecert/internal/canonical"
	certmodels "coursecert/internal/certification/models"
	certstore "coursecert/internal/certification/store"
	cwmodels "coursecert/internal/coursework/models"
	cwstore "coursecert/internal/coursework/store"
	"coursecert/internal/ledger"
	"coursecert/internal/verification/models"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

const (
	testWallet   = "0x3333333333333333333333333333333333333333"
	testContract = "0x4444444444444444444444444444444444444444"
)

type VerificationSuite struct {
	suite.Suite
	certs      *certstore.InMemoryStore
	coursework *cwstore.InMemoryStore
	ledger     *ledger.FakeClient
	service    *Service

	learner    id.LearnerID
	course     id.CourseID
	submission cwmodels.Submission
	commitment canonical.Commitment
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) SetupTest() {
	s.certs = certstore.NewInMemoryStore()
	s.coursework = cwstore.NewInMemoryStore()
	s.ledger = ledger.NewFake()
	s.service = NewService(s.certs, s.coursework, s.ledger, testContract)

	var err error
	s.learner, err = id.ParseLearnerID(uuid.NewString())
	s.Require().NoError(err)
	s.course, err = id.ParseCourseID(uuid.NewString())
	s.Require().NoError(err)

	s.coursework.AddLearner(cwmodels.Learner{ID: s.learner, FullName: "Ada Lovelace", WalletAddress: testWallet})
	s.coursework.AddCourse(cwmodels.Course{ID: s.course, Title: "Distributed Systems", InstructorName: "Barbara Liskov"})

	artifactID, err := id.ParseArtifactID(uuid.NewString())
	s.Require().NoError(err)
	artifact := cwmodels.RequiredArtifact{ID: artifactID, CourseID: s.course, Title: "Capstone", Published: true}
	s.coursework.AddArtifact(artifact)

	submissionID, err := id.ParseSubmissionID(uuid.NewString())
	s.Require().NoError(err)
	grade := 95.0
	reviewed := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	s.submission = cwmodels.Submission{
		ID:          submissionID,
		ArtifactID:  artifactID,
		LearnerID:   s.learner,
		Status:      cwmodels.StatusApproved,
		Grade:       &grade,
		SubmittedAt: reviewed.Add(-24 * time.Hour),
		ReviewedAt:  &reviewed,
	}
	s.coursework.AddSubmission(s.submission)

	// The seeded commitment is derived exactly as issuance derives it, so
	// verification can recompute and match it.
	records := canonical.BuildRecords([]cwmodels.RequiredArtifact{artifact}, []cwmodels.Submission{s.submission})
	s.commitment, err = canonical.Hash(records)
	s.Require().NoError(err)
}

// issueBoth seeds a matching record on both the mirror and the fake ledger.
func (s *VerificationSuite) issueBoth() *certmodels.Record {
	receipt, err := s.ledger.IssueCertificate(context.Background(), ledger.IssueRequest{
		StudentWallet: testWallet,
		StudentName:   "Ada Lovelace",
		StudentID:     s.learner,
		CourseID:      s.course,
		CourseName:    "Distributed Systems",
		ProjectsHash:  s.commitment,
		ContentURI:    "ipfs://bafytest",
	})
	s.Require().NoError(err)

	now := time.Now().UTC()
	tokenID := receipt.TokenID
	record := &certmodels.Record{
		ID:              id.NewCertificationID(),
		LearnerID:       s.learner,
		CourseID:        s.course,
		State:           certmodels.StateIssued,
		TokenID:         &tokenID,
		TxHash:          receipt.TxHash,
		ProjectsHash:    s.commitment.Hex(),
		ContentURI:      "ipfs://bafytest",
		VerificationURL: "https://example.test/certificates/verify",
		IssuedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.Require().NoError(s.certs.Create(context.Background(), record))
	return record
}

func (s *VerificationSuite) TestValidCertificate() {
	record := s.issueBoth()

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.True(result.Valid)
	s.Empty(result.Reason)
	s.Require().NotNil(result.Certificate)
	s.Equal(record.ID.String(), result.Certificate.CertificationID)
	s.Equal("Distributed Systems - Certificate of Completion", result.Certificate.Title)
	s.Equal("Ada Lovelace", result.Certificate.StudentName)
	s.Equal("Distributed Systems", result.Certificate.CourseName)
	s.Equal("Barbara Liskov", result.Certificate.InstructorName)
	s.False(result.Certificate.IsRevoked)
	s.True(result.Certificate.BlockchainVerified)

	s.Require().Len(result.Certificate.Projects, 1)
	s.Equal("Capstone", result.Certificate.Projects[0].Title)
	s.Require().NotNil(result.Certificate.Projects[0].CompletedAt)
	s.Equal("2026-02-01T10:00:00Z", *result.Certificate.Projects[0].CompletedAt)

	s.Require().NotNil(result.Certificate.Blockchain)
	s.Equal(*record.TokenID, result.Certificate.Blockchain.TokenID)
	s.Equal(testContract, result.Certificate.Blockchain.ContractAddress)
	s.Equal(testWallet, result.Certificate.Blockchain.StudentWallet)
	s.Equal(s.commitment.Hex(), result.Certificate.Blockchain.ProjectsHash)
}

func (s *VerificationSuite) TestResponseCarriesPublicFields() {
	record := s.issueBoth()

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	raw, err := json.Marshal(result)
	s.Require().NoError(err)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(raw, &body))

	s.Equal(true, body["valid"])
	cert, ok := body["certificate"].(map[string]any)
	s.Require().True(ok)
	for _, key := range []string{
		"title", "studentName", "courseName", "instructorName",
		"issuedAt", "projects", "isRevoked", "blockchainVerified",
	} {
		s.Contains(cert, key)
	}
	details, ok := cert["blockchainDetails"].(map[string]any)
	s.Require().True(ok)
	for _, key := range []string{"tokenId", "contractAddress", "txHash", "contentUri"} {
		s.Contains(details, key)
	}
}

func (s *VerificationSuite) TestVerifyByTokenID() {
	record := s.issueBoth()

	result, err := s.service.VerifyByTokenID(context.Background(), *record.TokenID)
	s.Require().NoError(err)
	s.True(result.Valid)
}

func (s *VerificationSuite) TestUnknownCertificateIsInvalidNotError() {
	result, err := s.service.VerifyByCertificationID(context.Background(), id.NewCertificationID())
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonNotFound, result.Reason)
	s.Nil(result.Certificate)
}

func (s *VerificationSuite) TestLocallyRevokedSkipsLedger() {
	record := s.issueBoth()
	record.State = certmodels.StateRevoked
	record.Revocation = &certmodels.Revocation{Reason: "issued in error", At: time.Now().UTC()}
	s.Require().NoError(s.certs.Update(context.Background(), record))

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonRevoked, result.Reason)
	s.Require().NotNil(result.Certificate)
	s.True(result.Certificate.IsRevoked)
	s.False(result.Certificate.BlockchainVerified)
	s.Equal("issued in error", result.Certificate.RevokeReason)
	s.Zero(s.ledger.VerifyCalls, "locally revoked certificates must not cost a ledger call")
}

func (s *VerificationSuite) TestExpiredCertificate() {
	record := s.issueBoth()
	expired := time.Now().Add(-time.Hour).UTC()
	record.ExpiresAt = &expired
	s.Require().NoError(s.certs.Update(context.Background(), record))

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonExpired, result.Reason)
	s.Zero(s.ledger.VerifyCalls)
}

func (s *VerificationSuite) TestPendingCertificateNotYetVerifiable() {
	now := time.Now().UTC()
	record := &certmodels.Record{
		ID:        id.NewCertificationID(),
		LearnerID: s.learner,
		CourseID:  s.course,
		State:     certmodels.StatePending,
		TxHash:    "0xpending",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.certs.Create(context.Background(), record))

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonNotConfirmed, result.Reason)
	s.Zero(s.ledger.VerifyCalls)
}

func (s *VerificationSuite) TestLedgerRevocationWinsOverStaleMirror() {
	record := s.issueBoth()
	_, err := s.ledger.RevokeCertificate(context.Background(), *record.TokenID, "revoked on chain")
	s.Require().NoError(err)

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonRevoked, result.Reason)
	s.Require().NotNil(result.Certificate)
	s.True(result.Certificate.IsRevoked, "the ledger's revoked flag overrides the stale mirror")
}

func (s *VerificationSuite) TestMirrorWithoutLedgerTokenIsMismatch() {
	record := s.issueBoth()
	ghost := *record.TokenID + 100
	record.TokenID = &ghost
	s.Require().NoError(s.certs.Update(context.Background(), record))

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonNotOnLedger, result.Reason)
}

func (s *VerificationSuite) TestTamperedStoredHashIsInvalid() {
	record := s.issueBoth()
	record.ProjectsHash = canonical.HashBytes([]byte(`tampered`)).Hex()
	s.Require().NoError(s.certs.Update(context.Background(), record))

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonHashMismatch, result.Reason)
}

func (s *VerificationSuite) TestTamperedSubmissionRowsAreDetected() {
	record := s.issueBoth()

	// Rewrite the retained submission after issuance. The recomputed
	// commitment no longer matches the one anchored at issuance time.
	tampered := s.submission
	betterGrade := 100.0
	tampered.Grade = &betterGrade
	s.coursework.AddSubmission(tampered)

	result, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.False(result.Valid)
	s.Equal(models.ReasonHashMismatch, result.Reason)
}

func (s *VerificationSuite) TestLedgerOutageIsAnError() {
	record := s.issueBoth()
	s.ledger.VerifyErr = dErrors.New(dErrors.CodeLedgerTransient, "node unreachable")

	_, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLedgerTransient))
}

func (s *VerificationSuite) TestVerificationIsIdempotent() {
	record := s.issueBoth()

	first, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)
	second, err := s.service.VerifyByCertificationID(context.Background(), record.ID)
	s.Require().NoError(err)

	s.Equal(first.Valid, second.Valid)
	s.Equal(first.Certificate.Blockchain.TokenID, second.Certificate.Blockchain.TokenID)
}
