package dsk

import "sync"

// untilFirst drives every op in ops concurrently against a shared child
// stop-source, and declares the first child whose Result satisfies
// match the winner, signaling cancellation to the rest exactly once
// (§4.4). It still waits for every child's own completion callback to
// fire before returning, regardless of whether it matched.
//
// The "first signal wins, cancel once, everyone still finishes" shape
// is grounded on the teacher's errorForwarder (error_forwarder.go): that
// type already tracked "has the first qualifying event been claimed"
// under a lock before canceling and forwarding — generalized here from
// "first error from a channel" to "first op result matching an
// arbitrary predicate", and from one outward channel to an indexed
// winner slot.
func untilFirst[R any](ctx AsyncContext, ops []AsyncOp[R], match func(Result[R]) bool) (winIndex int, winRes Result[R], found bool) {
	childCtx, cancel := newChildStopContext(ctx)
	defer cancel()

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		claimedYet bool
	)
	winIndex = -1

	wg.Add(len(ops))
	for i, op := range ops {
		i, op := i, op
		go func() {
			defer wg.Done()
			res := SyncWait(childCtx, op)
			if !match(res) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if claimedYet {
				return
			}
			claimedYet = true
			winIndex = i
			winRes = res
			cancel() // first signal wins; remaining children observe StopRequested.
		}()
	}
	wg.Wait()

	found = claimedYet
	return
}

// UntilFirstDone returns the index and Result of whichever op in ops
// completes first; every op still runs to completion (§4.4).
func UntilFirstDone[R any](ctx AsyncContext, ops []AsyncOp[R]) (int, Result[R]) {
	i, res, _ := untilFirst(ctx, ops, func(Result[R]) bool { return true })
	return i, res
}

// UntilFirstSucceeded returns the index and value of the first op that
// succeeds, or NotFound if every op failed.
func UntilFirstSucceeded[R any](ctx AsyncContext, ops []AsyncOp[R]) (int, R, error) {
	i, res, found := untilFirst(ctx, ops, func(r Result[R]) bool { return r.HasVal() })
	if !found {
		var zero R
		return -1, zero, NotFound
	}
	return i, res.GetVal(), nil
}

// UntilFirstFailed returns the index and error of the first op that
// fails, or NotFound if every op succeeded.
func UntilFirstFailed[R any](ctx AsyncContext, ops []AsyncOp[R]) (int, error) {
	i, res, found := untilFirst(ctx, ops, func(r Result[R]) bool { return r.HasErr() })
	if !found {
		return -1, NotFound
	}
	return i, res.GetErr()
}
