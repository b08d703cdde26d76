package store

import (
	"context"
	"sort"
	"sync"

	"coursecert/internal/coursework/models"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu          sync.RWMutex
	artifacts   map[string]models.RequiredArtifact
	submissions map[string]models.Submission
	enrollments map[string]models.Enrollment
	learners    map[string]models.Learner
	courses     map[string]models.Course
}

// NewInMemoryStore constructs an empty in-memory course-work store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		artifacts:   make(map[string]models.RequiredArtifact),
		submissions: make(map[string]models.Submission),
		enrollments: make(map[string]models.Enrollment),
		learners:    make(map[string]models.Learner),
		courses:     make(map[string]models.Course),
	}
}

// Seed helpers used by tests and the local seeder.

func (s *InMemoryStore) AddArtifact(a models.RequiredArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.ID.String()] = a
}

func (s *InMemoryStore) AddSubmission(sub models.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID.String()] = sub
}

func (s *InMemoryStore) AddEnrollment(e models.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[e.ID.String()] = e
}

func (s *InMemoryStore) AddLearner(l models.Learner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learners[l.ID.String()] = l
}

func (s *InMemoryStore) AddCourse(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID.String()] = c
}

func (s *InMemoryStore) RequiredArtifacts(_ context.Context, courseID id.CourseID) ([]models.RequiredArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var artifacts []models.RequiredArtifact
	for _, a := range s.artifacts {
		if a.CourseID == courseID && a.Published {
			artifacts = append(artifacts, a)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Title < artifacts[j].Title })
	return artifacts, nil
}

func (s *InMemoryStore) ApprovedSubmissions(_ context.Context, learnerID id.LearnerID, artifactIDs []id.ArtifactID) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(artifactIDs))
	for _, a := range artifactIDs {
		wanted[a.String()] = struct{}{}
	}

	var submissions []models.Submission
	for _, sub := range s.submissions {
		if sub.LearnerID != learnerID || sub.Status != models.StatusApproved {
			continue
		}
		if _, ok := wanted[sub.ArtifactID.String()]; !ok {
			continue
		}
		submissions = append(submissions, sub)
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.Before(submissions[j].SubmittedAt)
	})
	return submissions, nil
}

func (s *InMemoryStore) ActiveEnrollment(_ context.Context, learnerID id.LearnerID, courseID id.CourseID) (models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.enrollments {
		if e.LearnerID == learnerID && e.CourseID == courseID && e.Active {
			return e, nil
		}
	}
	return models.Enrollment{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Learner(_ context.Context, learnerID id.LearnerID) (models.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.learners[learnerID.String()]; ok {
		return l, nil
	}
	return models.Learner{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Course(_ context.Context, courseID id.CourseID) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.courses[courseID.String()]; ok {
		return c, nil
	}
	return models.Course{}, sentinel.ErrNotFound
}

var _ Store = (*InMemoryStore)(nil)
