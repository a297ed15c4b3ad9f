package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = time.Second

// Processor polls a Repository for pending records on a fixed interval and
// commits each one at most once, publishing an event per successful commit.
// Per-tick work is fully sequential so capacity adjustments stay
// serializable; a tick that fires while the previous pass is still in flight
// is skipped, never queued.
//
// The loop's lifecycle is reference-counted: every waiter brackets its wait
// with Acquire/Release, and the loop stops only when the last waiter
// releases. One resolved caller therefore cannot halt the loop under
// concurrent waiters that are still pending.
type Processor[T Item[T]] struct {
	repo     Repository[T]
	bus      *Bus[T]
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	refs   int
	cancel context.CancelFunc
	done   chan struct{}

	inFlight atomic.Bool
}

type ProcessorOption[T Item[T]] func(*Processor[T])

// WithInterval overrides the default tick interval.
func WithInterval[T Item[T]](d time.Duration) ProcessorOption[T] {
	return func(p *Processor[T]) {
		if d > 0 {
			p.interval = d
		}
	}
}

func NewProcessor[T Item[T]](repo Repository[T], bus *Bus[T], logger *zap.Logger, opts ...ProcessorOption[T]) *Processor[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor[T]{
		repo:     repo,
		bus:      bus,
		interval: DefaultInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events exposes the processor's notification channel.
func (p *Processor[T]) Events() *Bus[T] { return p.bus }

// Start begins the polling loop. It is a no-op when already running.
func (p *Processor[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

// Stop halts the loop unconditionally, dropping any outstanding
// acquisitions. It is a no-op when already stopped.
func (p *Processor[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs = 0
	p.stopLocked()
}

// Running reports whether the polling loop is active.
func (p *Processor[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Acquire registers a waiter and ensures the loop is running. Each Acquire
// must be paired with a Release.
func (p *Processor[T]) Acquire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs++
	p.startLocked()
}

// Release drops one waiter, stopping the loop when none remain.
func (p *Processor[T]) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 {
		p.stopLocked()
	}
}

func (p *Processor[T]) startLocked() {
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	p.logger.Info("processor started", zap.Duration("interval", p.interval))
}

func (p *Processor[T]) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	p.logger.Info("processor stopped")
}

func (p *Processor[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one reconcile pass. Transient failures are logged and retried on
// a later pass: a failed fetch empties the batch, a failed item skips only
// that item.
func (p *Processor[T]) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	items, err := p.repo.Pending(ctx)
	if err != nil {
		p.logger.Warn("fetch pending records", zap.Error(err))
		return
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		if item.IsCommitted() {
			continue
		}

		current, ok, err := p.repo.Exists(ctx, item.ItemID())
		if err != nil {
			p.logger.Warn("look up record", zap.String("id", item.ItemID()), zap.Error(err))
			continue
		}
		if ok && current.IsCommitted() {
			// Committed by an earlier pass; nothing left to notify.
			continue
		}

		updated, err := p.repo.ApplyUpdate(ctx, item.ItemID(), item.Commit())
		if err != nil {
			p.logger.Warn("commit record", zap.String("id", item.ItemID()), zap.Error(err))
			continue
		}

		p.bus.Publish(Event[T]{ID: item.ItemID(), Item: updated})
	}
}
