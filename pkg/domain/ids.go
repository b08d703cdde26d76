// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "coursecert/pkg/domain-errors"
)

// Distinct ID types - the compiler prevents passing a LearnerID where a
// CourseID is expected.
type (
	LearnerID    uuid.UUID
	CourseID     uuid.UUID
	EnrollmentID uuid.UUID
	ArtifactID   uuid.UUID
	SubmissionID uuid.UUID
)

// CertificationID is the prefixed string identifier for certification records
// (e.g. "cert_9f1b..."). The prefix keeps certification IDs visually distinct
// from raw ledger token IDs on the public verification endpoint.
type CertificationID string

const certificationIDPrefix = "cert_"

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseLearnerID(s string) (LearnerID, error) {
	id, err := parseUUID(s, "learner ID")
	return LearnerID(id), err
}

func ParseCourseID(s string) (CourseID, error) {
	id, err := parseUUID(s, "course ID")
	return CourseID(id), err
}

func ParseEnrollmentID(s string) (EnrollmentID, error) {
	id, err := parseUUID(s, "enrollment ID")
	return EnrollmentID(id), err
}

func ParseArtifactID(s string) (ArtifactID, error) {
	id, err := parseUUID(s, "artifact ID")
	return ArtifactID(id), err
}

func ParseSubmissionID(s string) (SubmissionID, error) {
	id, err := parseUUID(s, "submission ID")
	return SubmissionID(id), err
}

// NewCertificationID generates a certification ID with the stable prefix.
func NewCertificationID() CertificationID {
	return CertificationID(certificationIDPrefix + uuid.NewString())
}

// ParseCertificationID validates and parses a certification ID string.
func ParseCertificationID(s string) (CertificationID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "certification ID cannot be empty")
	}
	if !strings.HasPrefix(s, certificationIDPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "certification ID must start with "+certificationIDPrefix)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(s, certificationIDPrefix)); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid certification ID format")
	}
	return CertificationID(s), nil
}

// String methods - for logging and SQL parameters.

func (id LearnerID) String() string      { return uuid.UUID(id).String() }
func (id CourseID) String() string       { return uuid.UUID(id).String() }
func (id EnrollmentID) String() string   { return uuid.UUID(id).String() }
func (id ArtifactID) String() string     { return uuid.UUID(id).String() }
func (id SubmissionID) String() string   { return uuid.UUID(id).String() }
func (id CertificationID) String() string { return string(id) }

// IsNil checks - used for service-layer validation.

func (id LearnerID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CourseID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EnrollmentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ArtifactID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CertificationID) IsNil() bool { return id == "" }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here; use IsNil() at the service layer for business
// validation so store lookups can return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
