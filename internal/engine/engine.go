package engine

import (
	"context"
	"sync"
	"time"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// Engine owns the ticket lifecycle machinery for one operator session:
// the snapshot store, the poller that feeds it, and the command
// executor. It is torn down with Stop and never reused.
type Engine struct {
	svc      ports.HelpdeskService
	store    *SnapshotStore
	poller   *Poller
	executor *Executor
	log      logger.Logger

	mu       sync.Mutex
	operator domain.Agent
	started  bool
}

// New wires an engine around a helpdesk backend
func New(svc ports.HelpdeskService, interval time.Duration, log logger.Logger) *Engine {
	store := NewSnapshotStore()
	poller := NewPoller(svc, store, interval, log)
	executor := NewExecutor(svc, store, poller.Kick, log)
	return &Engine{
		svc:      svc,
		store:    store,
		poller:   poller,
		executor: executor,
		log:      log,
	}
}

// Start resolves the operator identity and begins polling. When the
// credential is missing or rejected no polling starts at all; the
// error is the caller's signal to re-authenticate.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	profile, err := e.svc.Profile(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.operator = *profile
	e.started = true
	e.mu.Unlock()

	e.log.Info(ctx, "engine started", map[string]interface{}{
		"operator": profile.Name,
	})
	e.poller.Start(ctx)
	return nil
}

// Stop tears the engine down; see Poller.Stop for the late-fetch
// guarantee
func (e *Engine) Stop() {
	e.poller.Stop()
}

// Operator returns the identity resolved at Start
func (e *Engine) Operator() domain.Agent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.operator
}

// View projects the current snapshot into the operator's board
func (e *Engine) View(f Filter, now time.Time) BoardView {
	return Project(e.store.Current(), e.Operator(), f, StartOfWeek(now))
}

// Staff returns the assignable-agent roster from the backend
func (e *Engine) Staff(ctx context.Context) ([]domain.Agent, error) {
	return e.svc.ListStaff(ctx)
}

// Refresh re-runs the foreground fetch
func (e *Engine) Refresh(ctx context.Context) error {
	return e.poller.Refresh(ctx)
}

// Claim takes ownership of a ticket for the current operator
func (e *Engine) Claim(ctx context.Context, ticketID int64) error {
	return e.executor.Claim(ctx, ticketID, e.Operator())
}

// Complete marks one of the operator's tickets as completed
func (e *Engine) Complete(ctx context.Context, ticketID int64) error {
	return e.executor.Complete(ctx, ticketID)
}

// Edit applies a field patch to a ticket
func (e *Engine) Edit(ctx context.Context, ticketID int64, req EditRequest) error {
	return e.executor.Edit(ctx, ticketID, req)
}

// Transfer reassigns a ticket to the given agent
func (e *Engine) Transfer(ctx context.Context, ticketID int64, target domain.Agent) error {
	return e.executor.Transfer(ctx, ticketID, target)
}

// Loading reports whether a foreground fetch is in progress
func (e *Engine) Loading() bool {
	return e.poller.Loading()
}

// Busy reports whether any command is outstanding
func (e *Engine) Busy() bool {
	return e.executor.Busy()
}

// LastError returns the most recent foreground fetch failure, if any
func (e *Engine) LastError() error {
	return e.poller.LastError()
}
