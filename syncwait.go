package dsk

// syncWaitResumer is the resumer SyncWait installs on the context it
// hands to the driven op, mirroring §4.8: "a resumer that signals a
// local condition variable." dsk-go uses a channel instead of a raw
// condition variable (the idiomatic Go equivalent), and additionally
// runs cont inline before signaling, so any asynchronous completion
// (e.g. a timer firing on its own goroutine) resumes immediately rather
// than waiting for a third party to drain it.
type syncWaitResumer struct {
	wake chan struct{}
}

func (r syncWaitResumer) Post(cont Continuation) {
	cont()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r syncWaitResumer) Equal(other Resumer) bool {
	o, ok := other.(syncWaitResumer)
	return ok && o.wake == r.wake
}

// SyncWait drives op from non-coroutine code, blocking the calling
// goroutine until op's continuation fires, then returns its Result
// (§4.8). It tolerates Initiate reporting synchronous completion
// without deadlocking: ManualInitiate already normalizes that case to
// "cont is invoked exactly once", and cont here always fires — whether
// called back inline by Initiate or later from another goroutine.
func SyncWait[R any](ctx AsyncContext, op AsyncOp[R]) Result[R] {
	wake := make(chan struct{}, 1)
	waitCtx := ctx.WithResumer(syncWaitResumer{wake: wake})

	var result Result[R]
	done := make(chan struct{})

	ManualInitiate[R](op, waitCtx, func() {
		result = op.TakeResult()
		close(done)
	})

	<-done
	return result
}

// startOnOp wraps op so its first action — Initiate itself — runs via
// a post to scheduler s, mirroring start_on(S, op) (§4.8). The op's own
// internal resumption behavior (including any resumer already layered
// on ctx) is left untouched; only the initial dispatch moves to S.
type startOnOp[R any] struct {
	inner AsyncOp[R]
	s     Poster
}

// StartOn returns an op that posts its own initiation onto s before
// delegating to inner.
func StartOn[R any](s Poster, inner AsyncOp[R]) AsyncOp[R] {
	return &startOnOp[R]{inner: inner, s: s}
}

func (o *startOnOp[R]) IsImmediate() bool { return false }
func (o *startOnOp[R]) IsFailed() bool    { return o.inner.IsFailed() }
func (o *startOnOp[R]) TakeResult() Result[R] { return o.inner.TakeResult() }

func (o *startOnOp[R]) Initiate(ctx AsyncContext, cont Continuation) bool {
	s := o.s
	inner := o.inner
	s.Post(func() {
		ManualInitiate[R](inner, ctx, cont)
	})
	return true
}

// runOnOp wraps op so that S additionally becomes the resumer for every
// suspension inside it, mirroring run_on(S, op) (§4.8): "posts its own
// initiation... additionally substitutes S as the resumer for all
// suspensions inside op."
type runOnOp[R any] struct {
	inner AsyncOp[R]
	s     Poster
}

// RunOn returns an op equivalent to StartOn(s, inner) except the
// context handed down to inner also has its resumer replaced with s.
func RunOn[R any](s Poster, inner AsyncOp[R]) AsyncOp[R] {
	return &runOnOp[R]{inner: inner, s: s}
}

func (o *runOnOp[R]) IsImmediate() bool      { return false }
func (o *runOnOp[R]) IsFailed() bool         { return o.inner.IsFailed() }
func (o *runOnOp[R]) TakeResult() Result[R]  { return o.inner.TakeResult() }

func (o *runOnOp[R]) Initiate(ctx AsyncContext, cont Continuation) bool {
	s := o.s
	inner := o.inner
	childCtx := ctx.WithResumer(NewSchedulerResumer(s))
	s.Post(func() {
		ManualInitiate[R](inner, childCtx, cont)
	})
	return true
}

// resumeOnOp is a one-shot "jump to S for the next resume" op (§4.8):
// it produces struct{} and completes by posting its own continuation to
// S, regardless of the context's own resumer.
type resumeOnOp struct {
	s Poster
	done bool
}

// ResumeOn returns a one-shot op that, when awaited, suspends the
// current frame and resumes it on s.
func ResumeOn(s Poster) AsyncOp[struct{}] { return &resumeOnOp{s: s} }

func (o *resumeOnOp) IsImmediate() bool     { return false }
func (o *resumeOnOp) IsFailed() bool        { return false }
func (o *resumeOnOp) TakeResult() Result[struct{}] { return Ok(struct{}{}) }

func (o *resumeOnOp) Initiate(ctx AsyncContext, cont Continuation) bool {
	o.s.Post(func() { cont() })
	return true
}
