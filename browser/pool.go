package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"dividendfetcher/models"
)

// ErrPoolClosed is returned by Acquire after Shutdown.
var ErrPoolClosed = errors.New("browser: pool is shut down")

// acquireResult is what a queued waiter eventually receives: an instance
// handed over directly by a releaser, or a creation error.
type acquireResult struct {
	inst Instance
	err  error
}

// Pool is a bounded set of reusable render instances.
//
// Acquisition order: idle instance (LIFO reuse) → lazy creation while under
// the maximum → FIFO wait queue. A released instance is handed directly to
// the oldest waiter without a round-trip through the idle list, which keeps
// waiter service strictly in arrival order.
//
// A single mutex guards idle, waiters, and the counters. The created counter
// includes in-progress creations, so idle + on-loan + creating never exceeds
// maxSize.
type Pool struct {
	factory Factory
	maxSize int

	mu      sync.Mutex
	idle    []Instance
	waiters []chan acquireResult
	created int // live instances plus creations in flight
	loaned  int // instances currently checked out
	closed  bool
}

// NewPool creates an empty pool. Instances are created lazily on demand.
func NewPool(maxSize int, factory Factory) *Pool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Pool{
		factory: factory,
		maxSize: maxSize,
	}
}

// Acquire returns an instance, suspending when the pool is saturated until a
// release frees one. Waiters are served in arrival order. A context
// cancellation while waiting removes the waiter and returns the context
// error; an instance handed over in that race is returned to the pool.
func (p *Pool) Acquire(ctx context.Context) (Instance, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	if n := len(p.idle); n > 0 {
		inst := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.loaned++
		p.mu.Unlock()
		return inst, nil
	}

	if p.created < p.maxSize {
		p.created++ // reservation, undone on factory failure
		p.mu.Unlock()
		inst, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, models.NewFetchError(models.ErrCodeCreationFailed,
				"failed to create render instance", err)
		}
		p.mu.Lock()
		p.loaned++
		p.mu.Unlock()
		return inst, nil
	}

	w := make(chan acquireResult, 1)
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case res := <-w:
		return res.inst, res.err
	case <-ctx.Done():
		p.mu.Lock()
		for i, q := range p.waiters {
			if q == w {
				p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
				p.mu.Unlock()
				return nil, ctx.Err()
			}
		}
		p.mu.Unlock()
		// Lost the race: a releaser already dequeued us and the handoff is
		// in flight on the buffered channel. Take it and give it back.
		res := <-w
		if res.inst != nil {
			p.Release(res.inst)
		}
		return nil, ctx.Err()
	}
}

// Release returns a borrowed instance. The instance is first reset to a
// single clean context; a reset failure is absorbed (logged) and the
// instance is destroyed instead of reused. A clean instance goes to the
// oldest waiter when one is queued, otherwise to the idle list.
func (p *Pool) Release(inst Instance) {
	if err := inst.Reset(); err != nil {
		slog.Warn("pool: instance reset failed, destroying", "error", err)
		p.discard(inst)
		return
	}

	p.mu.Lock()
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		// The loan transfers to the waiter; loaned stays unchanged.
		w <- acquireResult{inst: inst}
		return
	}

	p.loaned--
	if !p.closed && len(p.idle) < p.maxSize {
		p.idle = append(p.idle, inst)
		p.mu.Unlock()
		return
	}

	// Capacity already covered (or pool shut down while on loan).
	p.created--
	p.mu.Unlock()
	p.close(inst)
}

// discard destroys an unusable instance and, now that a capacity slot is
// free, starts a replacement creation for the oldest waiter so it cannot
// hang forever.
func (p *Pool) discard(inst Instance) {
	p.mu.Lock()
	p.loaned--
	p.created--
	replace := !p.closed && len(p.waiters) > 0
	if replace {
		p.created++
	}
	p.mu.Unlock()
	p.close(inst)

	if !replace {
		return
	}

	fresh, err := p.factory()

	p.mu.Lock()
	var w chan acquireResult
	if len(p.waiters) > 0 {
		w = p.waiters[0]
		p.waiters = p.waiters[1:]
	}
	switch {
	case err != nil:
		p.created--
		p.mu.Unlock()
		if w != nil {
			w <- acquireResult{err: models.NewFetchError(models.ErrCodeCreationFailed,
				"failed to create render instance", err)}
		}
	case w == nil:
		// Waiter gave up in the meantime; keep the fresh instance around.
		if p.closed {
			p.created--
			p.mu.Unlock()
			p.close(fresh)
			return
		}
		p.idle = append(p.idle, fresh)
		p.mu.Unlock()
	default:
		p.loaned++
		p.mu.Unlock()
		w <- acquireResult{inst: fresh}
	}
}

// Shutdown destroys every idle instance and rejects further acquisitions.
// In-flight loans are not revoked: the caller must drain in-flight work
// first. Instances released after shutdown are destroyed on release.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.created -= len(idle)
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		w <- acquireResult{err: ErrPoolClosed}
	}
	for _, inst := range idle {
		p.close(inst)
	}
	slog.Info("pool shut down", "destroyed", len(idle))
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.PoolStats{
		MaxInstances: p.maxSize,
		Active:       p.loaned,
		Idle:         len(p.idle),
		Waiting:      len(p.waiters),
	}
}

func (p *Pool) close(inst Instance) {
	if err := inst.Close(); err != nil {
		slog.Warn("pool: instance close failed", "error", err)
	}
}
