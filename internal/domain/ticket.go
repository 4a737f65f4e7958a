package domain

import (
	"time"
)

// TicketStatus represents the lifecycle status of a repair ticket
type TicketStatus string

const (
	TicketStatusPending      TicketStatus = "PENDING"
	TicketStatusInProgress   TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingParts TicketStatus = "WAITING_PARTS"
	TicketStatusCompleted    TicketStatus = "COMPLETED"
	TicketStatusCancelled    TicketStatus = "CANCELLED"
)

// TicketUrgency represents how urgent a repair ticket is
type TicketUrgency string

const (
	TicketUrgencyNormal   TicketUrgency = "NORMAL"
	TicketUrgencyUrgent   TicketUrgency = "URGENT"
	TicketUrgencyCritical TicketUrgency = "CRITICAL"
)

// Agent is a technician who can be assigned repair tickets
type Agent struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// Ticket represents a repair request reported to the helpdesk.
// The backend owns identity, code issuance and both timestamps; the
// engine never sets any of them.
type Ticket struct {
	ID          int64         `json:"id"`
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Location    string        `json:"location"`
	ReportedBy  string        `json:"reported_by"`
	Status      TicketStatus  `json:"status"`
	Urgency     TicketUrgency `json:"urgency"`
	Assignee    *Agent        `json:"assignee,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Assigned reports whether the ticket has an owner
func (t *Ticket) Assigned() bool {
	return t.Assignee != nil
}

// AssignedTo reports whether the ticket is owned by the given agent
func (t *Ticket) AssignedTo(agentID int64) bool {
	return t.Assignee != nil && t.Assignee.ID == agentID
}

// Terminal reports whether the status admits no further transitions
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// Valid reports whether the status is a known lifecycle state
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusWaitingParts,
		TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the urgency is a known level
func (u TicketUrgency) Valid() bool {
	switch u {
	case TicketUrgencyNormal, TicketUrgencyUrgent, TicketUrgencyCritical:
		return true
	}
	return false
}

// Elevated reports whether the urgency demands attention on the dashboard
func (u TicketUrgency) Elevated() bool {
	return u == TicketUrgencyUrgent || u == TicketUrgencyCritical
}

// transitions is the client-side view of the lifecycle. The backend is
// authoritative; the engine only uses this to reject commands that cannot
// possibly succeed.
var transitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:      {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress:   {TicketStatusWaitingParts, TicketStatusCompleted, TicketStatusCancelled},
	TicketStatusWaitingParts: {TicketStatusInProgress, TicketStatusCancelled},
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another
func CanTransition(from, to TicketStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TicketPatch is a partial update sent to the backend. Nil fields are
// omitted from the request body and left untouched by the backend.
type TicketPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Status      *TicketStatus  `json:"status,omitempty"`
	Urgency     *TicketUrgency `json:"urgency,omitempty"`
	AssigneeID  *int64         `json:"assignee_id,omitempty"`
}

// Empty reports whether the patch carries no changes
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Location == nil && p.Status == nil && p.Urgency == nil && p.AssigneeID == nil
}
