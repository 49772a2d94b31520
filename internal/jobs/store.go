package jobs

import (
	"sync"

	"github.com/samber/lo"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/notify"
)

// Store holds the configured jobs, at most one per source, in insertion order.
type Store struct {
	mu   sync.RWMutex
	jobs []domain.Job
	hub  notify.Hub[[]domain.Job]
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{}
}

// Add inserts job unless a job with the same source already exists.
// It reports whether the store changed.
func (s *Store) Add(job domain.Job) bool {
	s.mu.Lock()
	if lo.ContainsBy(s.jobs, func(existing domain.Job) bool { return existing.Source == job.Source }) {
		s.mu.Unlock()
		return false
	}
	s.jobs = append(s.jobs, job)
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
	return true
}

// Remove deletes the job for source, if present.
func (s *Store) Remove(source string) bool {
	s.mu.Lock()
	kept := lo.Reject(s.jobs, func(job domain.Job, _ int) bool { return job.Source == source })
	if len(kept) == len(s.jobs) {
		s.mu.Unlock()
		return false
	}
	s.jobs = kept
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
	return true
}

// RemoveAll clears the store.
func (s *Store) RemoveAll() {
	s.mu.Lock()
	if len(s.jobs) == 0 {
		s.mu.Unlock()
		return
	}
	s.jobs = nil
	s.hub.Enqueue([]domain.Job{})
	s.mu.Unlock()

	s.hub.Flush()
}

// List returns a copy of the jobs in insertion order.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the job for source.
func (s *Store) Get(source string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.jobs, func(job domain.Job) bool { return job.Source == source })
}

// Len returns the number of jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Subscribe registers fn to receive the job list after every change.
func (s *Store) Subscribe(fn func([]domain.Job)) *notify.Subscription {
	return s.hub.Subscribe(fn)
}

func (s *Store) snapshotLocked() []domain.Job {
	out := make([]domain.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}
