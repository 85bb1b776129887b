package resqueue

import (
	"errors"

	dsk "github.com/feverzsj/dsk-go"
)

// enqueueOp wraps Enqueue as an AsyncOp[struct{}], grounded on the same
// shape combinator_timed.go's timerOp uses for a blocking primitive:
// run the wait on its own goroutine, post the continuation through the
// context's resumer once it resolves.
type enqueueOp[T any] struct {
	q   *ResQueue[T]
	val T
	res dsk.Result[struct{}]
}

// EnqueueOp returns an AsyncOp form of Enqueue, so a Task body can
// `Try(tc, q.EnqueueOp(v))` and combinators can compose directly with
// queue production instead of only a bare context.Context-blocking call.
func (q *ResQueue[T]) EnqueueOp(v T) dsk.AsyncOp[struct{}] {
	return &enqueueOp[T]{q: q, val: v}
}

func (o *enqueueOp[T]) IsImmediate() bool                { return false }
func (o *enqueueOp[T]) IsFailed() bool                   { return o.res.HasErr() }
func (o *enqueueOp[T]) TakeResult() dsk.Result[struct{}] { return o.res }

func (o *enqueueOp[T]) Initiate(ctx dsk.AsyncContext, cont dsk.Continuation) bool {
	if ctx.StopRequested() {
		o.res = dsk.Err[struct{}](dsk.Canceled)
		return false
	}

	// Fast path: TryEnqueue first, so an immediately available slot (or
	// a waiting dequeuer) completes synchronously. Only fall through to
	// the blocking path on OutOfCapacity; any other error (EndReached)
	// is terminal and reported synchronously rather than retried.
	if err := o.q.TryEnqueue(o.val); err == nil {
		o.res = dsk.Ok(struct{}{})
		return false
	} else if !errors.Is(err, dsk.OutOfCapacity) {
		o.res = dsk.Err[struct{}](err)
		return false
	}

	go func() {
		err := o.q.Enqueue(ctx.StopToken().Context(), o.val)
		if err != nil {
			o.res = dsk.Err[struct{}](err)
		} else {
			o.res = dsk.Ok(struct{}{})
		}
		ctx.GetResumer().Post(cont)
	}()
	return true
}

// dequeueOp wraps Dequeue as an AsyncOp[T].
type dequeueOp[T any] struct {
	q   *ResQueue[T]
	res dsk.Result[T]
}

// DequeueOp returns an AsyncOp form of Dequeue.
func (q *ResQueue[T]) DequeueOp() dsk.AsyncOp[T] {
	return &dequeueOp[T]{q: q}
}

func (o *dequeueOp[T]) IsImmediate() bool         { return false }
func (o *dequeueOp[T]) IsFailed() bool            { return o.res.HasErr() }
func (o *dequeueOp[T]) TakeResult() dsk.Result[T] { return o.res }

func (o *dequeueOp[T]) Initiate(ctx dsk.AsyncContext, cont dsk.Continuation) bool {
	if ctx.StopRequested() {
		o.res = dsk.Err[T](dsk.Canceled)
		return false
	}

	// Fast path: TryDequeue first. Only fall through to the blocking
	// path on ResourceUnavailable (buffer empty, nothing to steal yet);
	// EndReached is terminal and reported synchronously.
	if v, err := o.q.TryDequeue(); err == nil {
		o.res = dsk.Ok(v)
		return false
	} else if !errors.Is(err, dsk.ResourceUnavailable) {
		o.res = dsk.Err[T](err)
		return false
	}

	go func() {
		v, err := o.q.Dequeue(ctx.StopToken().Context())
		if err != nil {
			o.res = dsk.Err[T](err)
		} else {
			o.res = dsk.Ok(v)
		}
		ctx.GetResumer().Post(cont)
	}()
	return true
}
