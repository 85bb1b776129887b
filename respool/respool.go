// Package respool implements ResPool[T] and ResPoolMap[K,T], bounded
// resource pools with lazy creation up to capacity and FIFO waiter
// queueing, grounded on original_source/include/dsk/res_pool.hpp.
package respool

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	dsk "github.com/feverzsj/dsk-go"
	"github.com/feverzsj/dsk-go/metrics"
)

// Creator produces a new resource value on demand.
type Creator[T any] func(ctx context.Context) (T, error)

// Recycler runs on a resource just before it's returned to the idle
// list, e.g. to reset state. It is optional.
type Recycler[T any] func(T)

// waiter is one pending Acquire, queued when the pool is at capacity
// and has no idle resource to hand out. delivered carries either a
// resource or an error exactly once. A nil entry in ResPool.waiters is
// a tombstone: a canceled waiter that couldn't remove itself from the
// middle of the slice without disturbing FIFO order for everyone else,
// scavenged lazily the next time the queue is touched (§5: "cancellation
// removes a waiter by marking the slot null and scavenging at the next
// dequeue — avoiding a second index").
type waiter[T any] struct {
	deliver chan Result[T]
}

// Result is the value-or-error a pending Acquire eventually receives.
type Result[T any] struct {
	Val T
	Err error
}

// Option configures a ResPool at construction.
type Option[T any] func(*resPoolConfig[T])

type resPoolConfig[T any] struct {
	recycler Recycler[T]
	log      logr.Logger
	metrics  metrics.Provider
	mu       *sync.Mutex // shared mutex, set only by ResPoolMap under SingleLock
}

// WithRecycler runs fn on every resource just before it goes idle.
func WithRecycler[T any](fn Recycler[T]) Option[T] {
	return func(c *resPoolConfig[T]) { c.recycler = fn }
}

// WithLogger attaches a structured logger, default logr.Discard(). It
// logs waiter queueing at V(1) and creator failures with Error.
func WithLogger[T any](l logr.Logger) Option[T] {
	return func(c *resPoolConfig[T]) { c.log = l }
}

// WithMetrics attaches a metrics.Provider recording acquire counts and
// waiter queue depth; the default discards everything.
func WithMetrics[T any](p metrics.Provider) Option[T] {
	return func(c *resPoolConfig[T]) { c.metrics = p }
}

func withSharedMutex[T any](mu *sync.Mutex) Option[T] {
	return func(c *resPoolConfig[T]) { c.mu = mu }
}

// ResPool is a bounded pool of lazily-created, reusable resources of
// type T. Capacity bounds the total number of resources alive at once
// (idle plus checked out), not just the number concurrently checked
// out — recycling a resource returns it to the idle list rather than
// destroying it, exactly as the source's occupied_cap_nolock (idle +
// in-use) does.
type ResPool[T any] struct {
	mu       *sync.Mutex
	cap      int
	idle     []T
	occupied int // idle + checked out
	creator  Creator[T]
	recycler Recycler[T]
	log      logr.Logger
	metrics  metrics.Provider
	waiters  []*waiter[T]
}

// NewResPool builds a pool bounded at capacity, creating resources via
// creator only as acquires demand them.
func NewResPool[T any](capacity int, creator Creator[T], opts ...Option[T]) *ResPool[T] {
	if capacity <= 0 {
		panic("respool: capacity must be > 0")
	}
	cfg := resPoolConfig[T]{log: logr.Discard(), metrics: metrics.NewNoopProvider()}
	for _, o := range opts {
		o(&cfg)
	}
	mu := cfg.mu
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &ResPool[T]{mu: mu, cap: capacity, creator: creator, recycler: cfg.recycler, log: cfg.log, metrics: cfg.metrics}
}

// Ref is an acquired resource handle. The caller must call Recycle
// exactly once when done — Go has no destructors to do this implicitly,
// unlike the source's res_ref RAII type.
type Ref[T any] struct {
	pool *ResPool[T]
	val  T
	done bool
}

// Get returns the held value.
func (r *Ref[T]) Get() T { return r.val }

// Recycle returns the resource to its pool, handing it directly to the
// oldest waiting Acquire if one exists. Safe to call more than once;
// calls after the first are no-ops.
func (r *Ref[T]) Recycle() {
	if r.done {
		return
	}
	r.done = true
	r.pool.recycle(r.val)
}

// Acquire returns an idle resource, creates a new one if under
// capacity, or blocks in FIFO order until one is recycled or ctx is
// canceled.
func (p *ResPool[T]) Acquire(ctx context.Context) (*Ref[T], error) {
	if ctx.Err() != nil {
		return nil, dsk.Canceled
	}

	p.mu.Lock()
	if v, ok := p.popIdle(); ok {
		p.mu.Unlock()
		p.metrics.Counter("dsk_respool_acquires_total").Add(1)
		return &Ref[T]{pool: p, val: v}, nil
	}
	if p.occupied < p.cap {
		p.occupied++
		p.mu.Unlock()
		v, err := p.creator(ctx)
		if err != nil {
			p.mu.Lock()
			p.occupied--
			p.mu.Unlock()
			p.log.Error(err, "respool: creator failed")
			return nil, err
		}
		p.metrics.Counter("dsk_respool_acquires_total").Add(1)
		return &Ref[T]{pool: p, val: v}, nil
	}

	w := &waiter[T]{deliver: make(chan Result[T], 1)}
	p.waiters = append(p.waiters, w)
	nWaiters := len(p.waiters)
	p.mu.Unlock()
	p.metrics.UpDownCounter("dsk_respool_waiters").Add(1)
	p.log.V(1).Info("respool: acquire queued", "capacity", p.cap, "waiters", nWaiters)

	select {
	case res := <-w.deliver:
		p.metrics.UpDownCounter("dsk_respool_waiters").Add(-1)
		if res.Err != nil {
			return nil, res.Err
		}
		p.metrics.Counter("dsk_respool_acquires_total").Add(1)
		return &Ref[T]{pool: p, val: res.Val}, nil
	case <-ctx.Done():
		p.mu.Lock()
		removed := p.removeWaiter(w)
		p.mu.Unlock()
		if removed {
			p.metrics.UpDownCounter("dsk_respool_waiters").Add(-1)
			return nil, dsk.Canceled
		}
		// Not found: a concurrent recycle already popped w from the
		// queue under the same lock and is committed to delivering to
		// it (deliver is buffered, so that send never blocks). Honor
		// that handoff instead of racing it with cancellation, or the
		// resource it carries is leaked forever.
		res := <-w.deliver
		p.metrics.UpDownCounter("dsk_respool_waiters").Add(-1)
		if res.Err != nil {
			return nil, res.Err
		}
		p.metrics.Counter("dsk_respool_acquires_total").Add(1)
		return &Ref[T]{pool: p, val: res.Val}, nil
	}
}

// TryAcquire is the non-blocking form: it returns ResourceUnavailable
// immediately if no idle resource exists and the pool is at capacity,
// rather than queueing.
func (p *ResPool[T]) TryAcquire(ctx context.Context) (*Ref[T], error) {
	p.mu.Lock()
	if v, ok := p.popIdle(); ok {
		p.mu.Unlock()
		p.metrics.Counter("dsk_respool_acquires_total").Add(1)
		return &Ref[T]{pool: p, val: v}, nil
	}
	if p.occupied >= p.cap {
		p.mu.Unlock()
		return nil, dsk.ResourceUnavailable
	}
	p.occupied++
	p.mu.Unlock()

	v, err := p.creator(ctx)
	if err != nil {
		p.mu.Lock()
		p.occupied--
		p.mu.Unlock()
		p.log.Error(err, "respool: creator failed")
		return nil, err
	}
	p.metrics.Counter("dsk_respool_acquires_total").Add(1)
	return &Ref[T]{pool: p, val: v}, nil
}

// popIdle pops the most recently recycled resource, if any. Must be
// called with p.mu held.
func (p *ResPool[T]) popIdle() (T, bool) {
	if n := len(p.idle); n > 0 {
		v := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return v, true
	}
	var zero T
	return zero, false
}

// removeWaiter tombstones w in place rather than compacting the slice,
// per §5's documented policy, and reports whether w was still queued.
// Must be called with p.mu held.
func (p *ResPool[T]) removeWaiter(w *waiter[T]) bool {
	for i, ww := range p.waiters {
		if ww == w {
			p.waiters[i] = nil
			return true
		}
	}
	return false
}

// nextLiveWaiter scavenges tombstones off the front of the waiter
// queue and returns the next live one, if any. Must be called with
// p.mu held.
func (p *ResPool[T]) nextLiveWaiter() *waiter[T] {
	for len(p.waiters) > 0 && p.waiters[0] == nil {
		p.waiters = p.waiters[1:]
	}
	if len(p.waiters) == 0 {
		return nil
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	return w
}

func (p *ResPool[T]) recycle(v T) {
	if p.recycler != nil {
		p.recycler(v)
	}

	p.mu.Lock()
	w := p.nextLiveWaiter()
	if w == nil {
		p.idle = append(p.idle, v)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	w.deliver <- Result[T]{Val: v}
}

// Capacity returns the current capacity.
func (p *ResPool[T]) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cap
}

// OccupiedCount returns idle-plus-checked-out resources.
func (p *ResPool[T]) OccupiedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.occupied
}

// IdleCount returns the number of idle, immediately reusable resources.
func (p *ResPool[T]) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// SetCapacity sets the pool's capacity, which must be at least the
// current occupied count (shrinking below what's already alive is
// rejected, mirroring the source's DSK_ASSERT(n >= occupied_cap_nolock())).
func (p *ResPool[T]) SetCapacity(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < p.occupied {
		return dsk.OutOfBound
	}
	p.cap = n
	return nil
}

// Reserve grows capacity to at least n, leaving it unchanged if it is
// already >= n.
func (p *ResPool[T]) Reserve(n int) error {
	p.mu.Lock()
	cur := p.cap
	p.mu.Unlock()
	if n <= cur {
		return nil
	}
	return p.SetCapacity(n)
}

// ReserveBy grows capacity by ratio (new = ceil(old*ratio)), capped at
// maxCap if maxCap > 0, leaving capacity unchanged if the computed
// target is not larger than the current one.
func (p *ResPool[T]) ReserveBy(ratio float64, maxCap int) error {
	if ratio <= 0 {
		panic("respool: ratio must be > 0")
	}
	p.mu.Lock()
	cur := p.cap
	p.mu.Unlock()

	target := int(float64(cur)*ratio + 0.999999)
	if maxCap > 0 && target > maxCap {
		target = maxCap
	}
	if target <= cur {
		return nil
	}
	return p.SetCapacity(target)
}
