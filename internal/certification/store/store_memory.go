package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"coursecert/internal/certification/models"
	"coursecert/internal/sentinel"
	id "coursecert/pkg/domain"
)

// InMemoryStore is a map-backed certification store for tests. It enforces the
// same active-uniqueness rule as the database's partial unique index.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CertificationID]*models.Record

	// CreateErr and UpdateErr, when set, are returned by the corresponding
	// operation so tests can simulate store failures.
	CreateErr error
	UpdateErr error
}

// NewInMemoryStore creates an empty in-memory certification store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CertificationID]*models.Record)}
}

func blocksReissue(r *models.Record) bool {
	return r.Revocation == nil && r.State != models.StateFailed
}

func sortNewestFirst(records []*models.Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, existing := range s.records {
		if existing.LearnerID == record.LearnerID && existing.CourseID == record.CourseID && blocksReissue(existing) {
			return sentinel.ErrConflict
		}
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, certID id.CertificationID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) FindByTokenID(_ context.Context, tokenID int64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.TokenID != nil && *record.TokenID == tokenID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByLearnerAndCourse(_ context.Context, learnerID id.LearnerID, courseID id.CourseID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.LearnerID == learnerID && record.CourseID == courseID && blocksReissue(record) {
			clone := *record
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByLearner(_ context.Context, learnerID id.LearnerID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.Record
	for _, record := range s.records {
		if record.LearnerID == learnerID {
			clone := *record
			records = append(records, &clone)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *InMemoryStore) ListByCourse(_ context.Context, courseID id.CourseID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.Record
	for _, record := range s.records {
		if record.CourseID == courseID {
			clone := *record
			records = append(records, &clone)
		}
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *InMemoryStore) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.Record
	for _, record := range s.records {
		if record.State == models.StatePending && record.CreatedAt.Before(createdBefore) {
			clone := *record
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ Store = (*InMemoryStore)(nil)
