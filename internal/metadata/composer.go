// Package metadata composes the human- and machine-readable certificate
// document published to the content-addressable store. The document carries
// the same canonical project array used for the commitment hash, kept for
// display and audit; it is derivable into the commitment but stored
// independently of it.
package metadata

import (
	"encoding/json"
	"fmt"
	"time"

	"coursecert/internal/canonical"
	"coursecert/internal/coursework/models"
	id "coursecert/pkg/domain"
)

// IssuerName identifies this platform as the certificate issuer.
const IssuerName = "coursecert"

// Attribute is a display attribute in the certificate document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Properties is the structured, machine-readable block of the document.
type Properties struct {
	StudentID       string                    `json:"studentId"`
	CourseID        string                    `json:"courseId"`
	CertificationID string                    `json:"certificationId"`
	IssueDate       string                    `json:"issueDate"`
	Projects        []canonical.ProjectRecord `json:"projects"`
}

// Document is the certificate metadata document published as an immutable blob.
type Document struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
	Properties  Properties  `json:"properties"`
}

// ComposeInput carries everything needed to build a certificate document.
type ComposeInput struct {
	CertificationID id.CertificationID
	Learner         models.Learner
	Course          models.Course
	IssuedAt        time.Time
	Projects        []canonical.ProjectRecord
	VerificationURL string
	ImageURL        string
}

// CertificateTitle is the display title shared by the published document and
// the public verification response.
func CertificateTitle(courseTitle string) string {
	return fmt.Sprintf("%s - Certificate of Completion", courseTitle)
}

// Compose builds the certificate document.
func Compose(in ComposeInput) Document {
	issued := in.IssuedAt.UTC().Format(time.RFC3339)
	return Document{
		Name:        CertificateTitle(in.Course.Title),
		Description: fmt.Sprintf("Certifies that %s completed all required projects of %s.", in.Learner.FullName, in.Course.Title),
		Image:       in.ImageURL,
		ExternalURL: in.VerificationURL,
		Attributes: []Attribute{
			{TraitType: "Course", Value: in.Course.Title},
			{TraitType: "Student", Value: in.Learner.FullName},
			{TraitType: "Issue Date", Value: issued},
			{TraitType: "Issuer", Value: IssuerName},
		},
		Properties: Properties{
			StudentID:       in.Learner.ID.String(),
			CourseID:        in.Course.ID.String(),
			CertificationID: in.CertificationID.String(),
			IssueDate:       issued,
			Projects:        in.Projects,
		},
	}
}

// Encode serializes the document for publication.
func (d Document) Encode() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode certificate document: %w", err)
	}
	return raw, nil
}
