package dsk

import (
	"context"
	"fmt"
	"sync"
)

// TaskCtx is the per-invocation handle a Task body receives, grounded on
// the teacher's execTask goroutine-plus-select shape (the original
// task.go: run the body in its own goroutine, race it against
// ctx.Done()). Here cancellation is observed once per awaited child op
// rather than once for the whole body: Wait/Try hand the task's
// AsyncContext to the child, which checks it before initiating and may
// watch it while running. Wait/Try themselves do not select on
// ctx.Done() (§5: "a coroutine suspends at every await").
type TaskCtx struct {
	Async AsyncContext
	scope *CleanupScope
}

// Context returns the underlying context.Context, for bridging into
// context-aware third-party adapters.
func (tc *TaskCtx) Context() context.Context { return tc.Async.StopToken().Context() }

// Scope returns the cleanup scope opened for this task invocation.
func (tc *TaskCtx) Scope() *CleanupScope { return tc.scope }

// taskAbort is the control-flow signal Try uses to short-circuit a task
// body on a failed await, caught by Task.runBody's recover. It is never
// allowed to escape runBody.
type taskAbort struct{ err error }

// Wait awaits op without error propagation — the caller inspects the
// returned error itself. It is the Go-idiomatic core of the protocol's
// "await" control form: since Task bodies run on their own goroutine
// (see Task's doc comment below), awaiting an op is exactly SyncWait
// against the task's own AsyncContext, which already tolerates both
// synchronous and asynchronous completion without blocking unnecessarily.
func Wait[X any](tc *TaskCtx, op AsyncOp[X]) (X, error) {
	return SyncWait(tc.Async, op).Unwrap()
}

// Try awaits op and, on failure, aborts the enclosing task body,
// propagating the error to the task's own awaiter — the "await; on
// failure return the error" control form (§4.2). It must only be
// called from within a task body running under a Task's own runBody,
// which installs the matching recover.
func Try[X any](tc *TaskCtx, op AsyncOp[X]) X {
	v, err := Wait(tc, op)
	if err != nil {
		panic(taskAbort{err: err})
	}
	return v
}

// Task is a coroutine-shaped AsyncOp (§4.2): it owns a cleanup scope, is
// itself awaitable, and supports error short-circuiting via Try. Go has
// no stackless coroutines, so a Task's frame is a goroutine: Initiate
// spawns it, the goroutine runs the body to completion (awaiting child
// ops along the way by blocking on SyncWait, which in turn blocks only
// that goroutine, not an OS thread — the same trade-off the teacher's
// task.go already makes by running every task body on its own
// goroutine), and the goroutine's own completion resumes the awaiter's
// continuation through the context's resumer.
type Task[R any] struct {
	fn    func(tc *TaskCtx) (R, error)
	scope *CleanupScope

	mu      sync.Mutex
	started bool
	res     Result[R]
}

// NewTask builds a Task from a body function. The body receives a
// TaskCtx scoped to this invocation and returns its own result directly
// (no yielding — see Generator for the producer shape).
func NewTask[R any](fn func(tc *TaskCtx) (R, error)) *Task[R] {
	return &Task[R]{fn: fn}
}

// WithCleanupScope attaches an existing scope to the task instead of
// letting it open a fresh one at Initiate time — used when a helper
// returns a Task whose cleanup must be attributed to the caller's scope
// (§4.5's add_parent_cleanup use case).
func (t *Task[R]) WithCleanupScope(scope *CleanupScope) *Task[R] {
	t.scope = scope
	return t
}

// Run is a convenience entry point for non-coroutine callers: it drives
// the task to completion via SyncWait against ctx and unwraps the
// Result, mirroring the teacher's Task.Run(ctx) adapters (task.go).
func (t *Task[R]) Run(ctx context.Context) (R, error) {
	return SyncWait[R](NewAsyncContext(ctx), t).Unwrap()
}

func (t *Task[R]) IsImmediate() bool { return false }

func (t *Task[R]) IsFailed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.res.HasErr()
}

func (t *Task[R]) TakeResult() Result[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.res
}

// Initiate begins running the task body on its own goroutine. Per
// §4.1, it first checks for a stop already requested and, if so,
// completes synchronously with Canceled rather than spawning anything.
func (t *Task[R]) Initiate(ctx AsyncContext, cont Continuation) bool {
	if res, stop := checkStopBeforeInitiate[R](ctx); stop {
		t.mu.Lock()
		t.res = res
		t.mu.Unlock()
		return false
	}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		panic("dsk: task already initiated")
	}
	t.started = true
	t.mu.Unlock()

	scope := t.scope
	if scope == nil {
		scope = NewCleanupScope()
	}
	tc := &TaskCtx{Async: ctx.WithCleanupScope(scope), scope: scope}

	go func() {
		res := t.runBody(tc)

		if t.scope == nil { // we opened it; we own closing it.
			if cerr := scope.Exit(ctx); cerr != nil && res.HasVal() {
				res = Err[R](cerr)
			}
		}

		t.mu.Lock()
		t.res = res
		t.mu.Unlock()

		ctx.GetResumer().Post(cont)
	}()

	return true
}

// runBody executes fn, converting both a genuine panic and a Try-driven
// taskAbort into a failed Result, mirroring the teacher's worker.execute
// panic recovery (worker.go) generalized from "send to an errors
// channel" to "store as this op's Result".
func (t *Task[R]) runBody(tc *TaskCtx) (result Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			if ab, ok := r.(taskAbort); ok {
				result = Err[R](ab.err)
				return
			}
			result = Err[R](fmt.Errorf("dsk: task panicked: %v", r))
		}
	}()

	v, err := t.fn(tc)
	if err != nil {
		return Err[R](err)
	}
	return Ok(v)
}
