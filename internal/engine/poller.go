package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// DefaultPollInterval is used when the caller does not configure one
const DefaultPollInterval = 10 * time.Second

// Poller keeps the snapshot store fresh by periodically re-fetching the
// full ticket set from the backend. The first fetch after Start is a
// foreground fetch (observable via Loading); every subsequent tick is a
// silent background fetch whose failures are logged and retried on the
// next tick.
type Poller struct {
	svc      ports.HelpdeskService
	store    *SnapshotStore
	interval time.Duration
	log      logger.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	seq      atomic.Uint64
	inflight atomic.Bool
	loading  atomic.Bool
	kick     chan struct{}
}

// NewPoller creates a poller writing into the given store
func NewPoller(svc ports.HelpdeskService, store *SnapshotStore, interval time.Duration, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		svc:      svc,
		store:    store,
		interval: interval,
		log:      log,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the polling loop: one foreground fetch immediately,
// then a background fetch every interval until Stop. Calling Start on a
// running or stopped poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil || p.stopped {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.run(runCtx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.fetch(ctx, true)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, false)
		case <-p.kick:
			p.fetch(ctx, false)
		}
	}
}

// Stop halts the loop. After Stop returns, no snapshot replacement will
// occur: an in-flight fetch is allowed to complete but its result is
// discarded. The engine is torn down and recreated across navigation
// events, so a late write into a stopped store would be a correctness
// bug, not just wasted work.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh runs a foreground fetch on the caller's goroutine. It is the
// retry affordance for a failed initial load; the error it returns is
// the one surfaced to the operator. A Refresh issued while another
// fetch is already in flight coalesces with it and returns nil without
// fetching; the in-flight result, and any LastError it records, is the
// one the operator ends up seeing.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.fetch(ctx, true)
}

// Kick requests an immediate background fetch without waiting for the
// next tick. Non-blocking; redundant kicks collapse into one.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Loading reports whether a foreground fetch is in progress
func (p *Poller) Loading() bool {
	return p.loading.Load()
}

// LastError returns the most recent foreground fetch failure, or nil
// after a successful one. Background failures are never recorded here.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// fetch performs one full-list request and replaces the snapshot.
// At most one fetch runs at a time: a tick or kick that finds one in
// flight is skipped, bounding resource use and keeping completions
// ordered through the sequence guard.
func (p *Poller) fetch(ctx context.Context, foreground bool) error {
	if !p.inflight.CompareAndSwap(false, true) {
		return nil
	}
	defer p.inflight.Store(false)

	if foreground {
		p.loading.Store(true)
		defer p.loading.Store(false)
	}

	seq := p.seq.Add(1)
	tickets, err := p.svc.ListTickets(ctx)
	if err != nil {
		if foreground {
			fetchErr := domain.WrapEngineError(domain.ErrCodeFetch, err, "ticket load failed")
			p.mu.Lock()
			if !p.stopped {
				p.lastErr = fetchErr
			}
			p.mu.Unlock()
			p.log.Error(ctx, "foreground ticket fetch failed", err, map[string]interface{}{"seq": seq})
			return fetchErr
		}
		// A single missed background tick is recoverable by the next one;
		// surfacing it to the operator would be noise.
		p.log.Warn(ctx, "background ticket fetch failed", map[string]interface{}{
			"seq":   seq,
			"error": err.Error(),
		})
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		p.log.Debug(ctx, "discarding fetch completed after stop", map[string]interface{}{"seq": seq})
		return nil
	}
	if p.store.Replace(tickets, time.Now(), seq) {
		p.log.Debug(ctx, "snapshot replaced", map[string]interface{}{
			"seq":     seq,
			"tickets": len(tickets),
		})
	}
	if foreground {
		p.lastErr = nil
	}
	return nil
}
