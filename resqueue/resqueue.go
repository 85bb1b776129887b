// Package resqueue implements ResQueue[T], a bounded many-to-many
// queue with FIFO waiter queueing on both ends, grounded on
// original_source/include/dsk/res_queue.hpp.
package resqueue

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	dsk "github.com/feverzsj/dsk-go"
	"github.com/feverzsj/dsk-go/metrics"
)

// Stats mirrors res_queue_stats: running counters of how often
// enqueue/dequeue had to wait versus completed immediately.
type Stats struct {
	EnqueueTotal int64
	EnqueueWait  int64
	DequeueTotal int64
	DequeueWait  int64
}

type deqResult[T any] struct {
	val T
	err error
}

type enqWaiter[T any] struct {
	val  T
	done chan error
}

type deqWaiter[T any] struct {
	deliver chan deqResult[T]
}

// Option configures a ResQueue at construction.
type Option[T any] func(*resQueueConfig[T])

type resQueueConfig[T any] struct {
	log     logr.Logger
	metrics metrics.Provider
}

// WithLogger attaches a structured logger, default logr.Discard(). It
// logs waiter queueing at V(1); nothing above V(1) since a full queue
// or an empty one are expected operating conditions, not errors.
func WithLogger[T any](l logr.Logger) Option[T] {
	return func(c *resQueueConfig[T]) { c.log = l }
}

// WithMetrics attaches a metrics.Provider recording enqueue/dequeue
// counts and waiter queue depth on both sides; the default discards
// everything.
func WithMetrics[T any](p metrics.Provider) Option[T] {
	return func(c *resQueueConfig[T]) { c.metrics = p }
}

// ResQueue is a bounded queue of values of type T, accessed
// concurrently by many producers and many consumers. Unlike a plain
// buffered channel, an Enqueue on a full queue and a Dequeue on an
// empty queue both register as FIFO waiters rather than racing on a
// single channel, and the queue as a whole can be closed via MarkEnd.
type ResQueue[T any] struct {
	mu        sync.Mutex
	cap       int
	endMarked bool
	buf       []T
	stats     Stats
	log       logr.Logger
	metrics   metrics.Provider

	enqueueWaiters []*enqWaiter[T]
	dequeueWaiters []*deqWaiter[T]
}

// New builds a queue bounded at capacity.
func New[T any](capacity int, opts ...Option[T]) *ResQueue[T] {
	if capacity <= 0 {
		panic("resqueue: capacity must be > 0")
	}
	cfg := resQueueConfig[T]{log: logr.Discard(), metrics: metrics.NewNoopProvider()}
	for _, o := range opts {
		o(&cfg)
	}
	return &ResQueue[T]{cap: capacity, log: cfg.log, metrics: cfg.metrics}
}

// Stats returns a snapshot of the running enqueue/dequeue counters.
func (q *ResQueue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Capacity returns the queue's configured capacity.
func (q *ResQueue[T]) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cap
}

// Len returns the number of values currently buffered.
func (q *ResQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// IncreaseCapacity grows the queue's capacity by n.
func (q *ResQueue[T]) IncreaseCapacity(n int) {
	q.mu.Lock()
	q.cap += n
	q.mu.Unlock()
}

// popOldestDeqWaiter scavenges tombstones off the front of the dequeue
// waiter queue and returns the oldest live one, if any. Must be called
// with q.mu held.
func (q *ResQueue[T]) popOldestDeqWaiter() *deqWaiter[T] {
	for len(q.dequeueWaiters) > 0 && q.dequeueWaiters[0] == nil {
		q.dequeueWaiters = q.dequeueWaiters[1:]
	}
	if len(q.dequeueWaiters) == 0 {
		return nil
	}
	w := q.dequeueWaiters[0]
	q.dequeueWaiters = q.dequeueWaiters[1:]
	return w
}

// popOldestEnqWaiter is popOldestDeqWaiter's enqueue-side counterpart.
func (q *ResQueue[T]) popOldestEnqWaiter() *enqWaiter[T] {
	for len(q.enqueueWaiters) > 0 && q.enqueueWaiters[0] == nil {
		q.enqueueWaiters = q.enqueueWaiters[1:]
	}
	if len(q.enqueueWaiters) == 0 {
		return nil
	}
	w := q.enqueueWaiters[0]
	q.enqueueWaiters = q.enqueueWaiters[1:]
	return w
}

func (q *ResQueue[T]) removeEnqWaiter(w *enqWaiter[T]) bool {
	for i, ww := range q.enqueueWaiters {
		if ww == w {
			q.enqueueWaiters[i] = nil
			return true
		}
	}
	return false
}

func (q *ResQueue[T]) removeDeqWaiter(w *deqWaiter[T]) bool {
	for i, ww := range q.dequeueWaiters {
		if ww == w {
			q.dequeueWaiters[i] = nil
			return true
		}
	}
	return false
}

// tryEnqueueLocked decides the outcome of enqueuing v: handoff is
// non-nil when a waiting dequeuer should directly receive v (bypassing
// the buffer); blocked means the buffer is full and the caller must
// wait; err is non-nil only for the terminal end-reached case. Must be
// called with q.mu held, and with v not yet delivered anywhere.
func (q *ResQueue[T]) tryEnqueueLocked() (handoff *deqWaiter[T], blocked bool, err error) {
	if q.endMarked {
		return nil, false, dsk.EndReached
	}
	q.stats.EnqueueTotal++
	if w := q.popOldestDeqWaiter(); w != nil {
		return w, false, nil
	}
	if len(q.buf) >= q.cap {
		q.stats.EnqueueWait++
		return nil, true, nil
	}
	return nil, false, nil
}

// TryEnqueue enqueues v without waiting, failing with OutOfCapacity if
// the buffer is full and no dequeuer is waiting, or EndReached if the
// queue has been closed.
func (q *ResQueue[T]) TryEnqueue(v T) error {
	q.mu.Lock()
	handoff, blocked, err := q.tryEnqueueLocked()
	if err == nil && !blocked && handoff == nil {
		q.buf = append(q.buf, v)
	}
	q.mu.Unlock()

	if err != nil {
		return err
	}
	if blocked {
		return dsk.OutOfCapacity
	}
	q.metrics.Counter("dsk_resqueue_enqueues_total").Add(1)
	if handoff != nil {
		handoff.deliver <- deqResult[T]{val: v}
	}
	return nil
}

// Enqueue enqueues v, blocking in FIFO order until there is room or a
// dequeuer is waiting, or until ctx is canceled.
func (q *ResQueue[T]) Enqueue(ctx context.Context, v T) error {
	if ctx.Err() != nil {
		return dsk.Canceled
	}

	q.mu.Lock()
	handoff, blocked, err := q.tryEnqueueLocked()
	if err != nil {
		q.mu.Unlock()
		return err
	}
	if !blocked {
		if handoff == nil {
			q.buf = append(q.buf, v)
		}
		q.mu.Unlock()
		q.metrics.Counter("dsk_resqueue_enqueues_total").Add(1)
		if handoff != nil {
			handoff.deliver <- deqResult[T]{val: v}
		}
		return nil
	}

	w := &enqWaiter[T]{val: v, done: make(chan error, 1)}
	q.enqueueWaiters = append(q.enqueueWaiters, w)
	nWaiters := len(q.enqueueWaiters)
	q.mu.Unlock()
	q.metrics.UpDownCounter("dsk_resqueue_enqueue_waiters").Add(1)
	q.log.V(1).Info("resqueue: enqueue queued", "capacity", q.cap, "waiters", nWaiters)

	select {
	case err := <-w.done:
		q.metrics.UpDownCounter("dsk_resqueue_enqueue_waiters").Add(-1)
		if err == nil {
			q.metrics.Counter("dsk_resqueue_enqueues_total").Add(1)
		}
		return err
	case <-ctx.Done():
		q.mu.Lock()
		removed := q.removeEnqWaiter(w)
		q.mu.Unlock()
		if removed {
			q.metrics.UpDownCounter("dsk_resqueue_enqueue_waiters").Add(-1)
			return dsk.Canceled
		}
		// Already claimed by a concurrent dequeue; it is committed to
		// delivering (done is buffered), so honor that handoff.
		err := <-w.done
		q.metrics.UpDownCounter("dsk_resqueue_enqueue_waiters").Add(-1)
		if err == nil {
			q.metrics.Counter("dsk_resqueue_enqueues_total").Add(1)
		}
		return err
	}
}

// tryDequeueLocked is TryEnqueue's dequeue-side mirror. Must be called
// with q.mu held.
func (q *ResQueue[T]) tryDequeueLocked() (v T, handoff *enqWaiter[T], blocked bool, err error) {
	q.stats.DequeueTotal++
	if len(q.buf) == 0 {
		q.stats.DequeueWait++
		if q.endMarked {
			return v, nil, false, dsk.EndReached
		}
		return v, nil, true, nil
	}
	v = q.buf[0]
	q.buf = q.buf[1:]
	if w := q.popOldestEnqWaiter(); w != nil {
		q.buf = append(q.buf, w.val)
		return v, w, false, nil
	}
	return v, nil, false, nil
}

// TryDequeue dequeues without waiting, failing with ResourceUnavailable
// if the buffer is empty (or EndReached if the queue is closed and
// drained).
func (q *ResQueue[T]) TryDequeue() (T, error) {
	q.mu.Lock()
	v, handoff, blocked, err := q.tryDequeueLocked()
	q.mu.Unlock()

	var zero T
	if err != nil {
		return zero, err
	}
	if blocked {
		return zero, dsk.ResourceUnavailable
	}
	q.metrics.Counter("dsk_resqueue_dequeues_total").Add(1)
	if handoff != nil {
		handoff.done <- nil
	}
	return v, nil
}

// Dequeue dequeues, blocking in FIFO order until a value is available
// or the queue is closed, or until ctx is canceled.
func (q *ResQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, dsk.Canceled
	}

	q.mu.Lock()
	v, handoff, blocked, err := q.tryDequeueLocked()
	if err != nil {
		q.mu.Unlock()
		return zero, err
	}
	if !blocked {
		q.mu.Unlock()
		q.metrics.Counter("dsk_resqueue_dequeues_total").Add(1)
		if handoff != nil {
			handoff.done <- nil
		}
		return v, nil
	}

	w := &deqWaiter[T]{deliver: make(chan deqResult[T], 1)}
	q.dequeueWaiters = append(q.dequeueWaiters, w)
	nWaiters := len(q.dequeueWaiters)
	q.mu.Unlock()
	q.metrics.UpDownCounter("dsk_resqueue_dequeue_waiters").Add(1)
	q.log.V(1).Info("resqueue: dequeue queued", "waiters", nWaiters)

	select {
	case res := <-w.deliver:
		q.metrics.UpDownCounter("dsk_resqueue_dequeue_waiters").Add(-1)
		if res.err == nil {
			q.metrics.Counter("dsk_resqueue_dequeues_total").Add(1)
		}
		return res.val, res.err
	case <-ctx.Done():
		q.mu.Lock()
		removed := q.removeDeqWaiter(w)
		q.mu.Unlock()
		if removed {
			q.metrics.UpDownCounter("dsk_resqueue_dequeue_waiters").Add(-1)
			return zero, dsk.Canceled
		}
		res := <-w.deliver
		q.metrics.UpDownCounter("dsk_resqueue_dequeue_waiters").Add(-1)
		if res.err == nil {
			q.metrics.Counter("dsk_resqueue_dequeues_total").Add(1)
		}
		return res.val, res.err
	}
}

// MarkEnd closes the queue: every already-waiting Dequeue is resumed
// with EndReached, future Enqueues fail with EndReached, and future
// Dequeues fail with EndReached once the buffer drains. It reports
// whether this call is the one that actually marked the end (false if
// already marked).
func (q *ResQueue[T]) MarkEnd() bool {
	q.mu.Lock()
	if q.endMarked {
		q.mu.Unlock()
		return false
	}
	q.endMarked = true
	waiters := q.dequeueWaiters
	q.dequeueWaiters = nil
	q.mu.Unlock()

	for _, w := range waiters {
		if w != nil {
			w.deliver <- deqResult[T]{err: dsk.EndReached}
		}
	}
	return true
}

// ClearEndMark un-marks the queue's end, allowing Enqueue to succeed
// again.
func (q *ResQueue[T]) ClearEndMark() {
	q.mu.Lock()
	q.endMarked = false
	q.mu.Unlock()
}

// ForceEnqueueRange enqueues every value in vs in one step, handing
// values directly to any currently-waiting dequeuers before buffering
// the rest. It never blocks and never fails with OutOfCapacity — it
// grows past capacity rather than waiting, which is the point of the
// "force" variants.
func (q *ResQueue[T]) ForceEnqueueRange(vs []T) error {
	if len(vs) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.endMarked {
		q.mu.Unlock()
		return dsk.EndReached
	}
	q.stats.EnqueueTotal++
	q.buf = append(q.buf, vs...)

	var handoffs []*deqWaiter[T]
	var handoffVals []T
	for len(q.buf) > 0 {
		w := q.popOldestDeqWaiter()
		if w == nil {
			break
		}
		handoffs = append(handoffs, w)
		handoffVals = append(handoffVals, q.buf[0])
		q.buf = q.buf[1:]
	}
	q.mu.Unlock()

	for i, w := range handoffs {
		w.deliver <- deqResult[T]{val: handoffVals[i]}
	}
	return nil
}

// ForceDequeueAll drains the entire buffer in one step, refilling it
// from any currently-waiting enqueuers up to capacity before returning.
// An empty, non-closed queue returns a non-nil empty slice and a nil
// error — not EndReached — matching the source's documented behavior;
// EndReached is only returned once the queue is both closed and empty.
func (q *ResQueue[T]) ForceDequeueAll() ([]T, error) {
	q.mu.Lock()
	if len(q.buf) == 0 {
		end := q.endMarked
		q.mu.Unlock()
		if end {
			return nil, dsk.EndReached
		}
		return []T{}, nil
	}

	q.stats.DequeueTotal++
	out := q.buf
	q.buf = nil

	var handoffs []*enqWaiter[T]
	for len(q.buf) < q.cap {
		w := q.popOldestEnqWaiter()
		if w == nil {
			break
		}
		q.buf = append(q.buf, w.val)
		handoffs = append(handoffs, w)
	}
	q.mu.Unlock()

	for _, w := range handoffs {
		w.done <- nil
	}
	return out, nil
}
