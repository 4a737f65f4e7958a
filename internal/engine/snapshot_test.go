package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixboard/fixboard/internal/domain"
)

func TestSnapshotStore_EmptyBeforeFirstLoad(t *testing.T) {
	store := NewSnapshotStore()

	snap := store.Current()
	assert.Empty(t, snap.Tickets)
	assert.True(t, snap.LastUpdated.IsZero())
	assert.Zero(t, snap.Seq)
}

func TestSnapshotStore_ReplaceSwapsWholesale(t *testing.T) {
	store := NewSnapshotStore()
	now := time.Now()

	ok := store.Replace([]domain.Ticket{
		{ID: 1, Code: "TK-2024-001", Status: domain.TicketStatusPending},
		{ID: 2, Code: "TK-2024-002", Status: domain.TicketStatusInProgress},
	}, now, 1)
	require.True(t, ok)

	snap := store.Current()
	assert.Len(t, snap.Tickets, 2)
	assert.Equal(t, now, snap.LastUpdated)

	later := now.Add(10 * time.Second)
	ok = store.Replace([]domain.Ticket{
		{ID: 2, Code: "TK-2024-002", Status: domain.TicketStatusCompleted},
	}, later, 2)
	require.True(t, ok)

	snap = store.Current()
	assert.Len(t, snap.Tickets, 1)
	assert.Equal(t, domain.TicketStatusCompleted, snap.Tickets[0].Status)
	assert.Equal(t, later, snap.LastUpdated)
}

func TestSnapshotStore_StaleSequenceDiscarded(t *testing.T) {
	store := NewSnapshotStore()
	now := time.Now()

	require.True(t, store.Replace([]domain.Ticket{{ID: 1}}, now, 2))

	// A fetch issued earlier but completing later must not win.
	ok := store.Replace([]domain.Ticket{{ID: 1}, {ID: 2}}, now.Add(time.Second), 1)
	assert.False(t, ok)

	snap := store.Current()
	assert.Len(t, snap.Tickets, 1)
	assert.Equal(t, now, snap.LastUpdated)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestSnapshotStore_ReplaceCopiesInput(t *testing.T) {
	store := NewSnapshotStore()
	tickets := []domain.Ticket{{ID: 1, Status: domain.TicketStatusPending}}

	require.True(t, store.Replace(tickets, time.Now(), 1))

	tickets[0].Status = domain.TicketStatusCancelled

	snap := store.Current()
	assert.Equal(t, domain.TicketStatusPending, snap.Tickets[0].Status)
}

func TestSnapshotStore_Find(t *testing.T) {
	store := NewSnapshotStore()
	require.True(t, store.Replace([]domain.Ticket{
		{ID: 1, Code: "TK-2024-001"},
		{ID: 5, Code: "TK-2024-005"},
	}, time.Now(), 1))

	ticket, ok := store.Find(5)
	require.True(t, ok)
	assert.Equal(t, "TK-2024-005", ticket.Code)

	_, ok = store.Find(99)
	assert.False(t, ok)
}

func TestSnapshotStore_ConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	store := NewSnapshotStore()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for seq := uint64(1); ; seq++ {
			select {
			case <-stop:
				return
			default:
			}
			tickets := make([]domain.Ticket, seq%10)
			for i := range tickets {
				tickets[i] = domain.Ticket{ID: int64(i + 1), Code: "TK"}
			}
			store.Replace(tickets, time.Now(), seq)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				snap := store.Current()
				for _, ticket := range snap.Tickets {
					// every ticket in a snapshot is fully formed
					assert.Equal(t, "TK", ticket.Code)
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}
