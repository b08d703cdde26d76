// Package ledger talks to the certificate smart contract. The contract is the
// authoritative record of issuance: token IDs, commitment hashes, content URIs
// and revocation state all live there. Everything the relational store holds
// is a mirror for fast lookups and must be reconcilable against this package.
package ledger

import (
	"context"
	"time"

	"coursecert/internal/canonical"
	id "coursecert/pkg/domain"
)

// Certificate is the on-ledger certificate record. It carries everything an
// independent verifier needs without this service's database, including the
// expiry window.
type Certificate struct {
	TokenID       int64
	StudentWallet string
	StudentName   string
	StudentID     string
	CourseID      string
	CourseName    string
	ProjectsHash  canonical.Commitment
	ContentURI    string
	IssuedAt      time.Time
	// ExpiresAt is nil for non-expiring certificates (stored as zero on chain).
	ExpiresAt *time.Time
	Revoked   bool
}

// IssueRequest carries everything the contract needs to mint a certificate.
// ContentURI must already be confirmed on the content store before this is
// submitted; the contract cannot validate it.
type IssueRequest struct {
	StudentWallet string
	StudentName   string
	StudentID     id.LearnerID
	CourseID      id.CourseID
	CourseName    string
	ProjectsHash  canonical.Commitment
	ContentURI    string
	// ExpiresAt, when set, is anchored on chain so expiry is visible to
	// verifiers that never touch the relational mirror.
	ExpiresAt *time.Time
}

// IssueReceipt is the result of a mined issuance transaction. When issuance
// times out waiting for mining, TxHash is still populated so the caller can
// record the transaction for later reconciliation.
type IssueReceipt struct {
	TokenID int64
	TxHash  string
}

// VerifyStatus is the contract's answer for a token.
type VerifyStatus struct {
	Exists  bool
	Valid   bool
	Revoked bool
}

// TxOutcome reports the fate of a previously submitted transaction. Used by
// the reconciler to resolve issuances that timed out waiting for mining.
type TxOutcome struct {
	Mined   bool
	Success bool
	// TokenID is set only for mined, successful issuance transactions.
	TokenID int64
}

// Client is the certificate contract interface. The EVM implementation is the
// production client; tests use the in-memory fake.
type Client interface {
	IssueCertificate(ctx context.Context, req IssueRequest) (IssueReceipt, error)
	VerifyCertificate(ctx context.Context, tokenID int64) (VerifyStatus, error)
	GetCertificate(ctx context.Context, tokenID int64) (Certificate, error)
	VerifyProjects(ctx context.Context, tokenID int64, hash canonical.Commitment) (bool, error)
	RevokeCertificate(ctx context.Context, tokenID int64, reason string) (string, error)
	StudentCertificates(ctx context.Context, wallet string) ([]int64, error)
	CourseCertificates(ctx context.Context, courseID id.CourseID) ([]int64, error)
	TransactionOutcome(ctx context.Context, txHash string) (TxOutcome, error)
}
