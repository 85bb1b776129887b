package dsk

import "sync"

// CleanupScope is an ordered list of pending async cleanup ops bound to
// a lexical block (§3, §4.5), grounded on the teacher's
// lifecycleCoordinator (lifecycle.go): that type already encoded "run an
// ordered shutdown sequence exactly once, tolerate nil steps, wait
// inflight work first." CleanupScope generalizes the same shape from a
// single hard-coded Workers shutdown sequence to an arbitrary, caller-
// growable LIFO stack of cleanup ops.
//
// A scope is meant to be coroutine-local, pushed to only by the frame
// that owns it (§4.5); push itself is guarded by a mutex. Exit is
// idempotent and is called once from the owning frame.
type CleanupScope struct {
	mu    sync.Mutex
	ops   []AsyncOp[struct{}]
	once  sync.Once
	errs  []error
}

// NewCleanupScope creates an empty scope.
func NewCleanupScope() *CleanupScope { return &CleanupScope{} }

// push appends op to the scope. Exported indirectly via AddCleanup
// (context.go) and AddParentCleanup below.
func (s *CleanupScope) push(op AsyncOp[struct{}]) {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
}

// AddParentCleanup targets the enclosing frame's scope rather than the
// current one (§4.5), used when a helper returns an object whose
// cleanup must survive the helper's own return (e.g. a transaction
// handle). parent is typically obtained by the caller before invoking
// the helper and threaded in explicitly, since Go has no implicit
// "enclosing coroutine frame" to reach for.
func AddParentCleanup(parent *CleanupScope, op AsyncOp[struct{}]) {
	if parent == nil {
		return
	}
	parent.push(op)
}

// Exit runs every pending op in reverse (LIFO) order to completion,
// with cancellation disabled on the context passed to them (§4.5: "a
// cleanup op that itself fails does not abort the remaining cleanup
// ops"). It is idempotent: calling it more than once only runs the
// sequence the first time, mirroring lifecycleCoordinator.Close's
// sync.Once guard. The error returned, if non-nil, is an
// *AggregateError wrapping OneOrMoreCleanupOpsFailed with every
// individual cleanup failure reachable via errors.Join semantics.
func (s *CleanupScope) Exit(ctx AsyncContext) error {
	var out error
	s.once.Do(func() {
		cleanupCtx := ctx.WithoutCancellation()

		s.mu.Lock()
		ops := s.ops
		s.ops = nil
		s.mu.Unlock()

		var failed []error
		for i := len(ops) - 1; i >= 0; i-- {
			res := SyncWait[struct{}](cleanupCtx, ops[i])
			if _, err := res.Unwrap(); err != nil {
				failed = append(failed, err)
			}
		}

		if len(failed) > 0 {
			out = &AggregateError{Kind: OneOrMoreCleanupOpsFailed, Children: failed}
		}
		s.errs = failed
	})
	return out
}

// Errors returns the individual cleanup-op failures observed by the
// last Exit call, or nil if Exit has not run or every op succeeded.
func (s *CleanupScope) Errors() []error { return s.errs }
