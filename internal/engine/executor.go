package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// EditRequest carries the editable fields of a ticket. Title is
// mandatory; the remaining fields are applied only when set.
type EditRequest struct {
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Location    *string               `json:"location,omitempty"`
	Urgency     *domain.TicketUrgency `json:"urgency,omitempty"`
	AssigneeID  *int64                `json:"assignee_id,omitempty"`
}

// Executor translates a single operator intent into exactly one backend
// write, then triggers a background re-poll so the local view converges
// to the backend's accepted truth. It never mutates the snapshot itself:
// a failed command leaves the store exactly as it was.
type Executor struct {
	svc    ports.HelpdeskService
	store  *SnapshotStore
	resync func()
	log    logger.Logger

	mu       sync.Mutex
	inflight map[int64]struct{}
}

// NewExecutor creates an executor; resync is invoked once after every
// successful write and after every backend conflict
func NewExecutor(svc ports.HelpdeskService, store *SnapshotStore, resync func(), log logger.Logger) *Executor {
	return &Executor{
		svc:      svc,
		store:    store,
		resync:   resync,
		log:      log,
		inflight: make(map[int64]struct{}),
	}
}

// Busy reports whether any command is outstanding; the UI is expected to
// disable re-submission while true
func (e *Executor) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight) > 0
}

// acquire takes the single-flight slot for a ticket id. Commands against
// different ids run concurrently; a second command against the same id
// is rejected rather than queued, so two edits can never interleave into
// an undefined merge order.
func (e *Executor) acquire(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inflight[id]; ok {
		return domain.NewEngineError(domain.ErrCodeBusy, "another command for ticket %d is still in flight", id)
	}
	e.inflight[id] = struct{}{}
	return nil
}

func (e *Executor) release(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

// Claim takes ownership of an unassigned PENDING ticket for the
// operator. The guard against the snapshot is best-effort: two operators
// can still race between the last poll and the write, in which case the
// backend rejects the loser and that rejection is reported, never
// silently retried.
func (e *Executor) Claim(ctx context.Context, ticketID int64, operator domain.Agent) error {
	t, ok := e.store.Find(ticketID)
	if !ok {
		return domain.NewEngineError(domain.ErrCodeNotFound, "ticket %d is not in the current snapshot", ticketID)
	}
	if t.Assigned() {
		return domain.NewEngineError(domain.ErrCodeConflict, "ticket %s is already claimed by %s", t.Code, t.Assignee.Name)
	}
	if t.Status != domain.TicketStatusPending {
		return domain.NewEngineError(domain.ErrCodeConflict, "ticket %s is not claimable in status %s", t.Code, t.Status)
	}

	if err := e.acquire(ticketID); err != nil {
		return err
	}
	defer e.release(ticketID)

	status := domain.TicketStatusInProgress
	patch := domain.TicketPatch{
		Status:     &status,
		AssigneeID: &operator.ID,
	}
	if _, err := e.svc.UpdateTicket(ctx, ticketID, patch); err != nil {
		return e.rejected(ctx, "claim", t.Code, err)
	}

	e.log.Info(ctx, "ticket claimed", map[string]interface{}{
		"ticket":   t.Code,
		"operator": operator.Name,
	})
	e.resync()
	return nil
}

// Complete marks an owned, in-progress ticket as completed. A ticket
// without an assignee can never be completed from here: that would
// create an unrecoverable terminal state with no owner, so the command
// is rejected before any network call.
func (e *Executor) Complete(ctx context.Context, ticketID int64) error {
	t, ok := e.store.Find(ticketID)
	if !ok {
		return domain.NewEngineError(domain.ErrCodeNotFound, "ticket %d is not in the current snapshot", ticketID)
	}
	if !t.Assigned() {
		return domain.NewEngineError(domain.ErrCodePrecondition, "ticket %s has no assignee and cannot be completed", t.Code)
	}
	if !domain.CanTransition(t.Status, domain.TicketStatusCompleted) {
		return domain.NewEngineError(domain.ErrCodePrecondition, "ticket %s cannot be completed from status %s", t.Code, t.Status)
	}

	if err := e.acquire(ticketID); err != nil {
		return err
	}
	defer e.release(ticketID)

	status := domain.TicketStatusCompleted
	if _, err := e.svc.UpdateTicket(ctx, ticketID, domain.TicketPatch{Status: &status}); err != nil {
		return e.rejected(ctx, "complete", t.Code, err)
	}

	e.log.Info(ctx, "ticket completed", map[string]interface{}{"ticket": t.Code})
	e.resync()
	return nil
}

// Edit applies a field patch to a ticket. Title must be non-empty;
// malformed input never reaches the network.
func (e *Executor) Edit(ctx context.Context, ticketID int64, req EditRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return domain.NewEngineError(domain.ErrCodeValidation, "title is required")
	}
	if req.Urgency != nil && !req.Urgency.Valid() {
		return domain.NewEngineError(domain.ErrCodeValidation, "unknown urgency %q", *req.Urgency)
	}
	t, ok := e.store.Find(ticketID)
	if !ok {
		return domain.NewEngineError(domain.ErrCodeNotFound, "ticket %d is not in the current snapshot", ticketID)
	}

	if err := e.acquire(ticketID); err != nil {
		return err
	}
	defer e.release(ticketID)

	title := strings.TrimSpace(req.Title)
	patch := domain.TicketPatch{
		Title:       &title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Urgency:     req.Urgency,
		AssigneeID:  req.AssigneeID,
	}
	if _, err := e.svc.UpdateTicket(ctx, ticketID, patch); err != nil {
		return e.rejected(ctx, "edit", t.Code, err)
	}

	e.log.Info(ctx, "ticket edited", map[string]interface{}{"ticket": t.Code})
	e.resync()
	return nil
}

// Transfer reassigns a ticket to another agent. Handing the ticket to
// its current assignee is a no-op and rejected locally.
func (e *Executor) Transfer(ctx context.Context, ticketID int64, target domain.Agent) error {
	t, ok := e.store.Find(ticketID)
	if !ok {
		return domain.NewEngineError(domain.ErrCodeNotFound, "ticket %d is not in the current snapshot", ticketID)
	}
	if t.Status.Terminal() {
		return domain.NewEngineError(domain.ErrCodePrecondition, "ticket %s is %s and cannot be reassigned", t.Code, t.Status)
	}
	if t.AssignedTo(target.ID) {
		return domain.NewEngineError(domain.ErrCodeValidation, "ticket %s is already assigned to %s", t.Code, target.Name)
	}

	if err := e.acquire(ticketID); err != nil {
		return err
	}
	defer e.release(ticketID)

	if _, err := e.svc.UpdateTicket(ctx, ticketID, domain.TicketPatch{AssigneeID: &target.ID}); err != nil {
		return e.rejected(ctx, "transfer", t.Code, err)
	}

	e.log.Info(ctx, "ticket transferred", map[string]interface{}{
		"ticket": t.Code,
		"target": target.Name,
	})
	e.resync()
	return nil
}

// rejected classifies a backend write failure. A conflict means the
// backend's state diverged from the snapshot, so a re-poll is triggered
// immediately: the operator should see the real current state rather
// than retry blindly.
func (e *Executor) rejected(ctx context.Context, op, code string, err error) error {
	if domain.CodeOf(err) == "" {
		err = domain.WrapEngineError(domain.ErrCodeFetch, err, op+" request failed")
	}
	if domain.IsConflict(err) {
		e.log.Warn(ctx, "command rejected by backend", map[string]interface{}{
			"op":     op,
			"ticket": code,
			"error":  err.Error(),
		})
		e.resync()
		return err
	}
	e.log.Error(ctx, "command failed", err, map[string]interface{}{
		"op":     op,
		"ticket": code,
	})
	return err
}
