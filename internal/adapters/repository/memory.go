package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/metrics"
)

// MemoryStore keeps reports in a map. Reports are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[model.RaceKey]report.Report
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[model.RaceKey]report.Report)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, r report.Report) error {
	defer observe("save", time.Now())
	key := r.Key()
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.reports[key] = r
	metrics.UpdateReportsStored(len(s.reports))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key model.RaceKey) (report.Report, error) {
	defer observe("get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[key]
	if !ok {
		metrics.RecordError("repository", "not_found")
		return report.Report{}, ErrNotFound
	}
	return r, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]report.Report, error) {
	defer observe("list", time.Now())
	s.mu.RLock()
	out := make([]report.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sortReports(out)
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Close marks the store closed; later saves fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
