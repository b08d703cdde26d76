package metadata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecert/internal/canonical"
	"coursecert/internal/coursework/models"
	id "coursecert/pkg/domain"
)

func TestComposeBuildsDisplayAndProperties(t *testing.T) {
	learnerID, err := id.ParseLearnerID(uuid.NewString())
	require.NoError(t, err)
	courseID, err := id.ParseCourseID(uuid.NewString())
	require.NoError(t, err)
	certID := id.NewCertificationID()

	projects := []canonical.ProjectRecord{
		{ArtifactTitle: "Capstone", SubmissionID: "s1", SubmittedAt: "2024-02-01T09:00:00Z"},
	}

	doc := Compose(ComposeInput{
		CertificationID: certID,
		Learner:         models.Learner{ID: learnerID, FullName: "Ada Lovelace"},
		Course:          models.Course{ID: courseID, Title: "Distributed Systems", InstructorName: "Prof. Ray"},
		IssuedAt:        time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Projects:        projects,
		VerificationURL: "https://example.test/certificates/verify/" + certID.String(),
		ImageURL:        "https://example.test/badge.png",
	})

	assert.Equal(t, "Distributed Systems - Certificate of Completion", doc.Name)
	assert.Contains(t, doc.Description, "Ada Lovelace")
	assert.Equal(t, certID.String(), doc.Properties.CertificationID)
	assert.Equal(t, "2024-03-01T12:30:00Z", doc.Properties.IssueDate)
	assert.Equal(t, projects, doc.Properties.Projects)

	attrs := map[string]string{}
	for _, a := range doc.Attributes {
		attrs[a.TraitType] = a.Value
	}
	assert.Equal(t, "Distributed Systems", attrs["Course"])
	assert.Equal(t, "Ada Lovelace", attrs["Student"])
	assert.Equal(t, IssuerName, attrs["Issuer"])
}

func TestEncodeProducesStableJSONShape(t *testing.T) {
	doc := Compose(ComposeInput{
		Learner:  models.Learner{FullName: "Ada"},
		Course:   models.Course{Title: "Go"},
		IssuedAt: time.Now(),
	})

	raw, err := doc.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"name", "description", "image", "external_url", "attributes", "properties"} {
		assert.Contains(t, decoded, key)
	}
}
