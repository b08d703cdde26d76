package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coursecert/internal/canonical"
	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// FakeClient is an in-memory contract double for tests. Error fields, when
// set, are returned verbatim by the corresponding operation; call counters let
// tests assert which operations were (not) reached.
type FakeClient struct {
	mu sync.Mutex

	certificates map[int64]*Certificate
	outcomes     map[string]TxOutcome
	nextToken    int64
	nextTxSeq    int

	IssueErr  error
	VerifyErr error
	GetErr    error
	RevokeErr error

	// IssueTimesOut makes issuance behave like an unmined transaction: the
	// receipt carries a tx hash but no token ID, and the error is a timeout.
	IssueTimesOut bool

	IssueCalls  int
	VerifyCalls int
	GetCalls    int
	RevokeCalls int
}

// NewFake creates an empty fake ledger.
func NewFake() *FakeClient {
	return &FakeClient{
		certificates: make(map[int64]*Certificate),
		outcomes:     make(map[string]TxOutcome),
		nextToken:    1,
	}
}

// Seed inserts a certificate directly, bypassing issuance.
func (f *FakeClient) Seed(cert Certificate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := cert
	f.certificates[cert.TokenID] = &c
	if cert.TokenID >= f.nextToken {
		f.nextToken = cert.TokenID + 1
	}
}

// SetOutcome registers the receipt outcome returned for a transaction hash.
func (f *FakeClient) SetOutcome(txHash string, outcome TxOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[txHash] = outcome
}

func (f *FakeClient) IssueCertificate(_ context.Context, req IssueRequest) (IssueReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IssueCalls++

	if f.IssueErr != nil {
		return IssueReceipt{}, f.IssueErr
	}

	f.nextTxSeq++
	txHash := fmt.Sprintf("0xfake%064d", f.nextTxSeq)

	if f.IssueTimesOut {
		return IssueReceipt{TxHash: txHash},
			dErrors.New(dErrors.CodeTimeout, "waiting for issuance transaction to mine")
	}

	tokenID := f.nextToken
	f.nextToken++
	f.certificates[tokenID] = &Certificate{
		TokenID:       tokenID,
		StudentWallet: req.StudentWallet,
		StudentName:   req.StudentName,
		StudentID:     req.StudentID.String(),
		CourseID:      req.CourseID.String(),
		CourseName:    req.CourseName,
		ProjectsHash:  req.ProjectsHash,
		ContentURI:    req.ContentURI,
		IssuedAt:      time.Now().UTC(),
		ExpiresAt:     req.ExpiresAt,
	}
	return IssueReceipt{TokenID: tokenID, TxHash: txHash}, nil
}

func (f *FakeClient) RevokeCertificate(_ context.Context, tokenID int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RevokeCalls++

	if f.RevokeErr != nil {
		return "", f.RevokeErr
	}
	cert, ok := f.certificates[tokenID]
	if !ok {
		return "", dErrors.New(dErrors.CodeLedgerReverted, "revocation transaction reverted")
	}
	cert.Revoked = true

	f.nextTxSeq++
	return fmt.Sprintf("0xfake%064d", f.nextTxSeq), nil
}

func (f *FakeClient) VerifyCertificate(_ context.Context, tokenID int64) (VerifyStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VerifyCalls++

	if f.VerifyErr != nil {
		return VerifyStatus{}, f.VerifyErr
	}
	cert, ok := f.certificates[tokenID]
	if !ok {
		return VerifyStatus{}, nil
	}
	expired := cert.ExpiresAt != nil && time.Now().After(*cert.ExpiresAt)
	return VerifyStatus{Exists: true, Valid: !cert.Revoked && !expired, Revoked: cert.Revoked}, nil
}

func (f *FakeClient) GetCertificate(_ context.Context, tokenID int64) (Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++

	if f.GetErr != nil {
		return Certificate{}, f.GetErr
	}
	cert, ok := f.certificates[tokenID]
	if !ok {
		return Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate not found on ledger")
	}
	return *cert, nil
}

func (f *FakeClient) VerifyProjects(_ context.Context, tokenID int64, hash canonical.Commitment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cert, ok := f.certificates[tokenID]
	if !ok {
		return false, nil
	}
	return cert.ProjectsHash == hash, nil
}

func (f *FakeClient) StudentCertificates(_ context.Context, wallet string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []int64
	for tokenID, cert := range f.certificates {
		if cert.StudentWallet == wallet {
			ids = append(ids, tokenID)
		}
	}
	return ids, nil
}

func (f *FakeClient) CourseCertificates(_ context.Context, courseID id.CourseID) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []int64
	for tokenID, cert := range f.certificates {
		if cert.CourseID == courseID.String() {
			ids = append(ids, tokenID)
		}
	}
	return ids, nil
}

func (f *FakeClient) TransactionOutcome(_ context.Context, txHash string) (TxOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	outcome, ok := f.outcomes[txHash]
	if !ok {
		return TxOutcome{Mined: false}, nil
	}
	return outcome, nil
}

var _ Client = (*FakeClient)(nil)
