// Package models defines the public verification response shape.
package models

import "time"

// Verification failure reasons, in the order the checks run. The cheap local
// checks come first so revoked and expired certificates never cost a ledger
// round trip.
const (
	ReasonNotFound     = "certificate not found"
	ReasonRevoked      = "certificate has been revoked"
	ReasonExpired      = "certificate has expired"
	ReasonNotConfirmed = "certificate issuance is not yet confirmed on the ledger"
	ReasonFailed       = "certificate issuance failed"
	ReasonNotOnLedger  = "certificate is missing from the ledger"
	ReasonHashMismatch = "certificate records do not match the ledger commitment"
)

// BlockchainDetails is the on-ledger portion of a verification response.
type BlockchainDetails struct {
	TokenID           int64     `json:"tokenId"`
	ContractAddress   string    `json:"contractAddress"`
	TxHash            string    `json:"txHash"`
	StudentWallet     string    `json:"studentWallet"`
	ProjectsHash      string    `json:"projectsHash"`
	ContentURI        string    `json:"contentUri"`
	ContentGatewayURL string    `json:"contentGatewayUrl"`
	IssuedAt          time.Time `json:"issuedAt"`
}

// Project is one completed requirement shown on a verified certificate.
type Project struct {
	Title       string  `json:"title"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// Certificate is the certificate portion of a verification response.
// BlockchainVerified is true only when every ledger check passed; a response
// describing an invalid certificate still carries the mirrored fields.
type Certificate struct {
	CertificationID    string             `json:"certificationId"`
	Title              string             `json:"title"`
	StudentID          string             `json:"studentId"`
	StudentName        string             `json:"studentName"`
	CourseID           string             `json:"courseId"`
	CourseName         string             `json:"courseName"`
	InstructorName     string             `json:"instructorName"`
	State              string             `json:"state"`
	IssuedAt           time.Time          `json:"issuedAt"`
	ExpiresAt          *time.Time         `json:"expiresAt,omitempty"`
	Projects           []Project          `json:"projects,omitempty"`
	IsRevoked          bool               `json:"isRevoked"`
	RevokedAt          *time.Time         `json:"revokedAt,omitempty"`
	RevokeReason       string             `json:"revokeReason,omitempty"`
	BlockchainVerified bool               `json:"blockchainVerified"`
	VerificationURL    string             `json:"verificationUrl"`
	Blockchain         *BlockchainDetails `json:"blockchainDetails,omitempty"`
}

// Result is the public verification response. Verification never errors for an
// invalid certificate; Valid false plus Reason is a successful verification.
type Result struct {
	Valid       bool         `json:"valid"`
	Reason      string       `json:"reason,omitempty"`
	Certificate *Certificate `json:"certificate,omitempty"`
}
