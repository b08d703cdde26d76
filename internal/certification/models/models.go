// Package models defines certification records and request types.
package models

import (
	"strings"
	"time"

	id "coursecert/pkg/domain"
	dErrors "coursecert/pkg/domain-errors"
)

// State is the lifecycle state of a certification record.
type State string

const (
	// StatePending means the issuance transaction was submitted but not yet
	// confirmed mined. The reconciler resolves pending records.
	StatePending State = "pending"
	StateIssued  State = "issued"
	// StateFailed means the issuance transaction mined but reverted. Failed
	// records do not block re-issuance.
	StateFailed  State = "failed"
	StateRevoked State = "revoked"
)

// Revocation captures why and when a certificate was withdrawn.
type Revocation struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Record is the relational mirror of an issued certificate. The ledger is
// authoritative for token state; this record exists for fast lookups and as
// the join point between platform IDs and ledger token IDs.
type Record struct {
	ID           id.CertificationID `json:"certificationId"`
	LearnerID    id.LearnerID       `json:"learnerId"`
	CourseID     id.CourseID        `json:"courseId"`
	EnrollmentID id.EnrollmentID    `json:"enrollmentId"`
	State        State              `json:"state"`

	// TokenID is nil while the issuance transaction is pending or failed.
	TokenID *int64 `json:"tokenId,omitempty"`
	TxHash  string `json:"txHash"`

	ProjectsHash      string `json:"projectsHash"`
	ContentURI        string `json:"contentUri"`
	ContentGatewayURL string `json:"contentGatewayUrl"`
	VerificationURL   string `json:"verificationUrl"`

	IssuedAt   time.Time   `json:"issuedAt"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	Revocation *Revocation `json:"revocation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRevoked reports whether the certificate has been withdrawn.
func (r *Record) IsRevoked() bool {
	return r.State == StateRevoked || r.Revocation != nil
}

// IsExpired reports whether the certificate's validity window has passed.
// Certificates without an expiry never expire.
func (r *Record) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// IssueRequest is the admin-facing issuance request body.
type IssueRequest struct {
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
}

// Validate checks required fields and formats.
func (r *IssueRequest) Validate() error {
	if _, err := id.ParseLearnerID(r.StudentID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "studentId must be a valid UUID")
	}
	if _, err := id.ParseCourseID(r.CourseID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "courseId must be a valid UUID")
	}
	return nil
}

// RevokeRequest is the admin-facing revocation request body.
type RevokeRequest struct {
	Reason string `json:"reason"`
}

// Validate requires a non-empty reason; revocations are audited.
func (r *RevokeRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}
	return nil
}
