// Package progress tracks per-job conversion progress and the global
// conversion status.
package progress

import (
	"context"
	"math"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/notify"
)

// Canceler requests abort of an in-flight conversion run.
type Canceler interface {
	Cancel(ctx context.Context) error
}

// Snapshot is a consistent view of the store published to subscribers.
type Snapshot struct {
	Entries   []domain.ProgressEntry  `json:"entries"`
	Status    domain.ConversionStatus `json:"status"`
	Aggregate float64                 `json:"aggregate"`
}

// Store holds the last reported percentage per source and the global status.
// Reports are keyed by source, so any arrival order converges per key.
type Store struct {
	mu       sync.RWMutex
	entries  []domain.ProgressEntry
	index    map[string]int
	status   domain.ConversionStatus
	canceler Canceler
	logger   *zap.Logger
	hub      notify.Hub[Snapshot]
}

// NewStore creates an idle store. canceler may be nil.
func NewStore(canceler Canceler, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		index:    make(map[string]int),
		status:   domain.ConversionStatusIdle,
		canceler: canceler,
		logger:   logger,
	}
}

// SetProgress upserts the percentage for source, clamped to [0, 100].
func (s *Store) SetProgress(source string, percentage float64) {
	percentage = clamp(percentage)

	s.mu.Lock()
	if i, ok := s.index[source]; ok {
		if s.entries[i].Percentage == percentage {
			s.mu.Unlock()
			return
		}
		s.entries[i].Percentage = percentage
	} else {
		s.index[source] = len(s.entries)
		s.entries = append(s.entries, domain.ProgressEntry{Source: source, Percentage: percentage})
	}
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
}

// Progress returns the percentage for source, or 0 if it never reported.
func (s *Store) Progress(source string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[source]; ok {
		return s.entries[i].Percentage
	}
	return 0
}

// Entries returns the progress entries in first-report order.
func (s *Store) Entries() []domain.ProgressEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProgressEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Aggregate returns the mean percentage over all entries, 0 when empty.
func (s *Store) Aggregate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate(s.entries)
}

// Status returns the global conversion status.
func (s *Store) Status() domain.ConversionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// UpdateStatus overwrites the global status unconditionally.
func (s *Store) UpdateStatus(status domain.ConversionStatus) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
}

// Transition moves the status along an edge of the status machine.
// Moving to the current status is a no-op.
func (s *Store) Transition(to domain.ConversionStatus) error {
	s.mu.Lock()
	from := s.status
	if from == to {
		s.mu.Unlock()
		return nil
	}
	if !CanTransition(from, to) {
		s.mu.Unlock()
		return transitionError(from, to)
	}
	s.status = to
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
	return nil
}

// Reset clears all entries and returns the status to IDLE. A run that is
// still converting is sent a cancel request first; its failure is only logged.
func (s *Store) Reset(ctx context.Context) {
	if s.Status() == domain.ConversionStatusConverting && s.canceler != nil {
		if err := s.canceler.Cancel(ctx); err != nil {
			s.logger.Warn("cancel on progress reset failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.entries = nil
	s.index = make(map[string]int)
	s.status = domain.ConversionStatusIdle
	s.hub.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	s.hub.Flush()
}

// Snapshot returns entries, status, and aggregate read together.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *Store) Subscribe(fn func(Snapshot)) *notify.Subscription {
	return s.hub.Subscribe(fn)
}

func (s *Store) snapshotLocked() Snapshot {
	entries := make([]domain.ProgressEntry, len(s.entries))
	copy(entries, s.entries)
	return Snapshot{
		Entries:   entries,
		Status:    s.status,
		Aggregate: aggregate(s.entries),
	}
}

func aggregate(entries []domain.ProgressEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := lo.SumBy(entries, func(e domain.ProgressEntry) float64 { return e.Percentage })
	return sum / float64(len(entries))
}

func clamp(percentage float64) float64 {
	switch {
	case math.IsNaN(percentage), percentage < 0:
		return 0
	case percentage > 100:
		return 100
	default:
		return percentage
	}
}
