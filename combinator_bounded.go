package dsk

import (
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// UntilAllDoneBounded is UntilAllDone's bounded-concurrency sibling: at
// most maxConcurrent children run at once, gated by a
// semaphore.Weighted, for op counts large enough that driving every
// child's own goroutine simultaneously would be wasteful. Like
// UntilAllDone it never fails by itself and guarantees every child has
// completed before it returns.
func UntilAllDoneBounded[R any](ctx AsyncContext, ops []AsyncOp[R], maxConcurrent int) []Result[R] {
	if maxConcurrent <= 0 {
		panic("dsk: maxConcurrent must be > 0")
	}

	results := make([]Result[R], len(ops))
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var g errgroup.Group

	sctx := ctx.StopToken().Context()

	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			if err := sem.Acquire(sctx, 1); err != nil {
				results[i] = Result[R]{err: Canceled}
				return nil
			}
			defer sem.Release(1)
			results[i] = SyncWait(ctx, op)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
