package dsk

import "sync"

// streamEvent pairs a completed child's original index with its Result,
// the unit the reorder buffer below keys on.
type streamEvent[R any] struct {
	idx int
	res Result[R]
}

// StreamAllDone drives every op in ops concurrently, exactly like
// UntilAllDone, but hands results to the caller incrementally through a
// Generator instead of making it wait for every child — useful when ops
// is large and the caller wants to start acting on early results while
// slower ones are still running, while still observing them in their
// original input order rather than completion order.
//
// The buffer-by-index-then-flush-contiguous core is adapted from the
// teacher's reorderer.go, which solved the identical problem for
// Workers' preserve-order stream mode. It drops reorderer's second
// "no-result" signal lane: every child here always produces exactly one
// Result (§4.2's AsyncOp contract guarantees a TakeResult), so there is
// no analogue of a worker that completes without emitting anything.
func StreamAllDone[R any](ctx AsyncContext, ops []AsyncOp[R]) *Generator[Result[R]] {
	return NewGenerator(func(gc *GenCtx[Result[R]]) error {
		events := make(chan streamEvent[R])

		var wg sync.WaitGroup
		wg.Add(len(ops))
		for i, op := range ops {
			i, op := i, op
			go func() {
				defer wg.Done()
				res := SyncWait(ctx, op)
				select {
				case events <- streamEvent[R]{idx: i, res: res}:
				case <-gc.Context().Done():
				}
			}()
		}
		go func() {
			wg.Wait()
			close(events)
		}()

		next := 0
		buf := make(map[int]Result[R], len(ops))
		for ev := range events {
			buf[ev.idx] = ev.res
			for {
				v, ok := buf[next]
				if !ok {
					break
				}
				delete(buf, next)
				next++
				if !gc.Yield(v) {
					return Canceled
				}
			}
		}
		return nil
	})
}
