package engine

import (
	"strings"
	"time"

	"github.com/fixboard/fixboard/internal/domain"
)

// Queue identifies one of the operator work-queues
type Queue string

const (
	QueueAvailable Queue = "available"
	QueueMine      Queue = "mine"
	QueueCompleted Queue = "completed"
)

// Valid reports whether the queue name is known
func (q Queue) Valid() bool {
	switch q {
	case QueueAvailable, QueueMine, QueueCompleted:
		return true
	}
	return false
}

// Filter is the transient, presentation-owned view state. It is
// recomputed on every projection and never persisted.
type Filter struct {
	Queue   Queue
	Search  string
	Status  *domain.TicketStatus
	Urgency *domain.TicketUrgency
}

// Queues is the mutually exclusive work-queue partition of a snapshot.
// Cancelled tickets appear in none of the three: they are neither
// actionable nor a completed success. That is policy, not an oversight.
type Queues struct {
	Available []domain.Ticket
	Mine      []domain.Ticket
	Completed []domain.Ticket
}

// BoardStats are the aggregate counts shown on the dashboard. Urgent
// spans every queue; ThisWeek counts tickets created since weekStart.
type BoardStats struct {
	Available int `json:"available"`
	Mine      int `json:"mine"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Urgent    int `json:"urgent"`
	ThisWeek  int `json:"this_week"`
}

// BoardView is the projection handed to the presentation layer
type BoardView struct {
	Queue       Queue           `json:"queue"`
	Tickets     []domain.Ticket `json:"tickets"`
	Stats       BoardStats      `json:"stats"`
	LastUpdated time.Time       `json:"last_updated"`
}

// PartitionQueues splits a snapshot into the three disjoint work-queues
// for an operator. Computed fresh on every call; nothing is cached
// across snapshot changes.
func PartitionQueues(snap Snapshot, operator domain.Agent) Queues {
	var qs Queues
	for _, t := range snap.Tickets {
		switch {
		case t.Status == domain.TicketStatusCompleted:
			qs.Completed = append(qs.Completed, t)
		case t.Status == domain.TicketStatusCancelled:
			// excluded from every queue
		case !t.Assigned():
			qs.Available = append(qs.Available, t)
		case t.Assignee.ID == operator.ID:
			qs.Mine = append(qs.Mine, t)
		}
	}
	return qs
}

// Project derives the board view for an operator: the active queue with
// secondary filters applied, plus aggregate stats over the unfiltered
// snapshot. Pure function of its inputs.
func Project(snap Snapshot, operator domain.Agent, f Filter, weekStart time.Time) BoardView {
	qs := PartitionQueues(snap, operator)

	queue := f.Queue
	if !queue.Valid() {
		queue = QueueAvailable
	}

	var active []domain.Ticket
	switch queue {
	case QueueMine:
		active = qs.Mine
	case QueueCompleted:
		active = qs.Completed
	default:
		active = qs.Available
	}

	filtered := make([]domain.Ticket, 0, len(active))
	for _, t := range active {
		if matches(t, f) {
			filtered = append(filtered, t)
		}
	}

	stats := BoardStats{
		Available: len(qs.Available),
		Mine:      len(qs.Mine),
		Completed: len(qs.Completed),
	}
	for _, t := range snap.Tickets {
		if t.Status == domain.TicketStatusCancelled {
			stats.Cancelled++
		}
		if t.Urgency.Elevated() {
			stats.Urgent++
		}
		if !t.CreatedAt.Before(weekStart) {
			stats.ThisWeek++
		}
	}

	return BoardView{
		Queue:       queue,
		Tickets:     filtered,
		Stats:       stats,
		LastUpdated: snap.LastUpdated,
	}
}

// matches applies the secondary filters as an intersection on top of the
// active queue
func matches(t domain.Ticket, f Filter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Urgency != nil && t.Urgency != *f.Urgency {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		needle := strings.ToLower(q)
		if !strings.Contains(strings.ToLower(t.Code), needle) &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.ReportedBy), needle) {
			return false
		}
	}
	return true
}

// StartOfWeek returns midnight of the most recent Monday, the boundary
// used for the "this week" total
func StartOfWeek(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(midnight.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return midnight.AddDate(0, 0, -(weekday - 1))
}
