// Package canonical produces the deterministic serialization and commitment
// hash of an approved-submission set. The commitment is the tamper-evidence
// anchor recorded on the ledger: any independent party holding the same
// submission set must be able to reproduce it byte-for-byte.
package canonical

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/sha3"

	"coursecert/internal/coursework/models"
)

// ProjectRecord is the canonical per-submission record. Field names and JSON
// shape are part of the commitment format and must not change once certificates
// reference them.
type ProjectRecord struct {
	ArtifactID    string  `json:"artifactId"`
	ArtifactTitle string  `json:"artifactTitle"`
	SubmissionID  string  `json:"submissionId"`
	Grade         float64 `json:"grade"`
	SubmittedAt   string  `json:"submittedAt"`
	ReviewedAt    *string `json:"reviewedAt"`
	ReviewerID    *string `json:"reviewerId"`
}

// Commitment is the fixed-size digest anchored on the ledger.
type Commitment [32]byte

// Hex returns the 0x-prefixed hex encoding of the commitment.
func (c Commitment) Hex() string {
	return "0x" + hex.EncodeToString(c[:])
}

// ParseCommitment decodes a 0x-prefixed hex commitment.
func ParseCommitment(s string) (Commitment, error) {
	if len(s) != 66 || s[:2] != "0x" {
		return Commitment{}, fmt.Errorf("commitment must be 0x-prefixed 32-byte hex")
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return Commitment{}, fmt.Errorf("decode commitment: %w", err)
	}
	var c Commitment
	copy(c[:], raw)
	return c, nil
}

// BuildRecords assembles canonical project records from required artifacts and
// the learner's approved submissions. A missing grade defaults to 0; timestamps
// are normalized to UTC RFC 3339.
func BuildRecords(artifacts []models.RequiredArtifact, submissions []models.Submission) []ProjectRecord {
	titles := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		titles[a.ID.String()] = a.Title
	}

	records := make([]ProjectRecord, 0, len(submissions))
	for _, sub := range submissions {
		rec := ProjectRecord{
			ArtifactID:    sub.ArtifactID.String(),
			ArtifactTitle: titles[sub.ArtifactID.String()],
			SubmissionID:  sub.ID.String(),
			SubmittedAt:   sub.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if sub.Grade != nil {
			rec.Grade = *sub.Grade
		}
		if sub.ReviewedAt != nil {
			reviewed := sub.ReviewedAt.UTC().Format(time.RFC3339)
			rec.ReviewedAt = &reviewed
		}
		if sub.ReviewerID != nil {
			reviewer := *sub.ReviewerID
			rec.ReviewerID = &reviewer
		}
		records = append(records, rec)
	}
	return records
}

// Canonicalize returns the RFC 8785 canonical JSON of the record set with the
// specified ordering: ascending submittedAt, ties broken by submissionId
// lexicographically. The tie-break matters - the hash depends on it.
func Canonicalize(records []ProjectRecord) ([]byte, error) {
	sorted := make([]ProjectRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SubmittedAt != sorted[j].SubmittedAt {
			return sorted[i].SubmittedAt < sorted[j].SubmittedAt
		}
		return sorted[i].SubmissionID < sorted[j].SubmissionID
	})

	raw, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("marshal project records: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize project records: %w", err)
	}
	return canonical, nil
}

// Hash computes the keccak-256 commitment over the canonical serialization.
func Hash(records []ProjectRecord) (Commitment, error) {
	canonical, err := Canonicalize(records)
	if err != nil {
		return Commitment{}, err
	}
	return HashBytes(canonical), nil
}

// HashBytes computes the keccak-256 digest of already-canonical bytes.
func HashBytes(canonical []byte) Commitment {
	h := sha3.NewLegacyKeccak256()
	h.Write(canonical)
	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}
