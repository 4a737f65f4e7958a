package engine

import (
	"sync"
	"time"

	"github.com/fixboard/fixboard/internal/domain"
)

// Snapshot is the complete, atomically-replaced local copy of the ticket
// set at a point in time. Seq is a monotonic fetch sequence number; a
// snapshot with a lower Seq is stale and must never overwrite a newer one.
type Snapshot struct {
	Tickets     []domain.Ticket `json:"tickets"`
	LastUpdated time.Time       `json:"last_updated"`
	Seq         uint64          `json:"-"`
}

// SnapshotStore holds the last known ticket set. The collection is only
// ever replaced wholesale; there is deliberately no per-ticket mutation
// API, which rules out stale partial updates from concurrent writers.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewSnapshotStore creates an empty store; Current returns a zero
// snapshot until the first Replace
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Replace atomically swaps in a new snapshot. The input slice is copied,
// so the caller may not retain aliasing into the store. Returns false
// when the sequence number is not newer than the held snapshot; the
// stale result is discarded.
func (s *SnapshotStore) Replace(tickets []domain.Ticket, at time.Time, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.snap.Seq {
		return false
	}

	copied := make([]domain.Ticket, len(tickets))
	copy(copied, tickets)

	s.snap = Snapshot{
		Tickets:     copied,
		LastUpdated: at,
		Seq:         seq,
	}
	return true
}

// Current returns the latest complete snapshot. Readers see either the
// old or the new snapshot in full, never a partial mix. Callers must not
// mutate the returned tickets.
func (s *SnapshotStore) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Find returns a copy of the ticket with the given id from the current
// snapshot
func (s *SnapshotStore) Find(id int64) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.snap.Tickets {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Ticket{}, false
}
