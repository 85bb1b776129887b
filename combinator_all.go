package dsk

import "golang.org/x/sync/errgroup"

// UntilAllDone drives every op in ops to completion concurrently and
// returns each child's Result in its original (not completion) order
// (§4.4). It never fails by itself — callers inspect individual child
// results — and it guarantees every child's completion callback has
// fired before it returns, the single most load-bearing invariant of
// the combinator family (§4.4, §8).
//
// The fan-out itself is an errgroup.Group (golang.org/x/sync/errgroup):
// each child is driven in its own g.Go goroutine via SyncWait, and
// g.Wait() already gives "every child completes before we return" for
// free — errgroup never abandons a started goroutine early, it only
// stops *launching new* ones after the first error if the caller
// checks group-derived cancellation, which UntilAllDone's children
// never do (they don't share the derived context). Results are
// buffered into a pre-sized slice indexed by the child's position, the
// same completion-order-to-input-order reindexing the teacher's
// reorderer.go performs for preserve-order mode.
func UntilAllDone[R any](ctx AsyncContext, ops []AsyncOp[R]) []Result[R] {
	results := make([]Result[R], len(ops))
	var g errgroup.Group

	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			results[i] = SyncWait(ctx, op)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// UntilAllSucceeded is the symmetric dual of UntilFirstFailed (§4.4):
// it runs every op and, if none fail, returns all their values in
// input order; if any fail, the stragglers are canceled (via a child
// stop-source derived from ctx) but still driven to completion, and the
// combinator reports an *AggregateError wrapping Failed.
func UntilAllSucceeded[R any](ctx AsyncContext, ops []AsyncOp[R]) ([]R, error) {
	childCtx, cancel := newChildStopContext(ctx)
	defer cancel()

	results := make([]Result[R], len(ops))
	var g errgroup.Group

	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			res := SyncWait(childCtx, op)
			results[i] = res
			if res.HasErr() {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	values := make([]R, len(ops))
	var failed []error
	for i, r := range results {
		if r.HasErr() {
			failed = append(failed, &OpError{Err: r.GetErr(), Index: i})
		} else {
			values[i] = r.GetVal()
		}
	}
	if len(failed) > 0 {
		return nil, &AggregateError{Kind: Failed, Children: failed}
	}
	return values, nil
}
