package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/store"
)

// MemoryStore is an in-memory Store used by tests. The Fn fields may be
// replaced to inject failures.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time

	SaveFn         func(ctx context.Context, job Job) error
	UpdateStatusFn func(ctx context.Context, jobID uuid.UUID, status Status, errorMsg string) error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		records: make(map[uuid.UUID]Record),
		now:     time.Now,
	}
	s.SaveFn = s.save
	s.UpdateStatusFn = s.updateStatus
	return s
}

// Put stores rec as-is, overwriting any record with the same ID.
func (s *MemoryStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

// SaveJob implements Store.
func (s *MemoryStore) SaveJob(ctx context.Context, job Job) error {
	return s.SaveFn(ctx, job)
}

// UpdateJobStatus implements Store.
func (s *MemoryStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status Status, errorMsg string) error {
	return s.UpdateStatusFn(ctx, jobID, status, errorMsg)
}

func (s *MemoryStore) save(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[job.ID()] = NewRecord(job, s.now())
	return nil
}

func (s *MemoryStore) updateStatus(_ context.Context, jobID uuid.UUID, status Status, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[jobID]
	if !ok {
		return store.ErrJobNotFound
	}
	rec.Status = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = s.now().UTC()
	s.records[jobID] = rec
	return nil
}

// GetJob implements Store.
func (s *MemoryStore) GetJob(_ context.Context, jobID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return &rec, nil
}

// GetPendingJobs implements Store.
func (s *MemoryStore) GetPendingJobs(_ context.Context) ([]Record, error) {
	return s.filter(func(rec Record) bool { return rec.Status == StatusPending }), nil
}

// GetProcessingJobs implements Store.
func (s *MemoryStore) GetProcessingJobs(_ context.Context, olderThan time.Duration) ([]Record, error) {
	cutoff := s.now().Add(-olderThan)
	return s.filter(func(rec Record) bool {
		if rec.Status != StatusProcessing {
			return false
		}
		return olderThan == 0 || rec.UpdatedAt.Before(cutoff)
	}), nil
}

// All returns every record, oldest first.
func (s *MemoryStore) All() []Record {
	return s.filter(func(Record) bool { return true })
}

func (s *MemoryStore) filter(keep func(Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var _ Store = (*MemoryStore)(nil)
