package respool

import (
	"errors"

	dsk "github.com/feverzsj/dsk-go"
)

// acquireOp wraps Acquire as an AsyncOp[*Ref[T]] (§4.6/§4.7 of the
// resource-pool component), grounded on the shape combinator_timed.go's
// timerOp already uses for a blocking primitive: run the wait on its
// own goroutine, post the continuation through the context's resumer
// once it resolves.
type acquireOp[T any] struct {
	pool *ResPool[T]
	res  dsk.Result[*Ref[T]]
}

// AcquireOp returns an AsyncOp form of Acquire, so a Task body can
// `Try(tc, pool.AcquireOp())` and combinators (WaitFor, UntilFirstDone,
// UntilAllDone, …) can compose directly with resource acquisition
// instead of only a bare context.Context-blocking call.
func (p *ResPool[T]) AcquireOp() dsk.AsyncOp[*Ref[T]] {
	return &acquireOp[T]{pool: p}
}

func (o *acquireOp[T]) IsImmediate() bool               { return false }
func (o *acquireOp[T]) IsFailed() bool                  { return o.res.HasErr() }
func (o *acquireOp[T]) TakeResult() dsk.Result[*Ref[T]] { return o.res }

func (o *acquireOp[T]) Initiate(ctx dsk.AsyncContext, cont dsk.Continuation) bool {
	if ctx.StopRequested() {
		o.res = dsk.Err[*Ref[T]](dsk.Canceled)
		return false
	}

	// Fast path: try a non-blocking acquire first so an immediately
	// available resource completes synchronously, without spinning up a
	// goroutine or ever reaching the waiter queue. Only fall through to
	// the blocking path on ResourceUnavailable; any other error (e.g.
	// the creator itself failing) is real and reported synchronously.
	if ref, err := o.pool.TryAcquire(ctx.StopToken().Context()); err == nil {
		o.res = dsk.Ok(ref)
		return false
	} else if !errors.Is(err, dsk.ResourceUnavailable) {
		o.res = dsk.Err[*Ref[T]](err)
		return false
	}

	go func() {
		ref, err := o.pool.Acquire(ctx.StopToken().Context())
		if err != nil {
			o.res = dsk.Err[*Ref[T]](err)
		} else {
			o.res = dsk.Ok(ref)
		}
		ctx.GetResumer().Post(cont)
	}()
	return true
}
