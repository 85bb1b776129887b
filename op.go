package dsk

// AsyncOp is the async-operation protocol (§4.1): a movable value
// representing pending work plus storage for its result. Any type
// satisfying this interface for some R is an async op; unlike the
// source's concept-based (compile-time, non-virtual) dispatch, dsk-go
// uses a real interface, since Go generics cannot check "has a method
// with this approximate shape" the way a C++ concept can without also
// paying for a vtable somewhere — and an explicit interface here is the
// idiomatic Go way to say "plugs into the protocol" (§9 design note:
// "choose between static dispatch via generics and a single virtual
// interface; do not mix both at the hot path" — dsk-go picks the
// virtual interface for AsyncOp itself, and reserves generics for the
// combinators that compose ops of a known, fixed shape).
//
// Initiate begins the work. It must invoke cont at most once, and must
// not invoke it before returning true. An Initiate that returns false
// has completed synchronously and must not invoke cont itself: the
// caller (ManualInitiate) invokes it after Initiate returns.
//
// IsImmediate is an optional fast path: ManualInitiate (below, backed by
// manualInitiate in continuation.go) skips calling Initiate entirely
// when it reports true, reading the result directly instead.
type AsyncOp[R any] interface {
	// Initiate begins the operation. Returning true means cont will be
	// invoked later (possibly on another goroutine); returning false
	// means the op already completed synchronously and the caller (or
	// ManualInitiate) must invoke cont itself.
	Initiate(ctx AsyncContext, cont Continuation) (willCompleteAsync bool)

	// IsImmediate reports whether this op completes without scheduling,
	// letting drivers skip Initiate and read the result straight away.
	IsImmediate() bool

	// IsFailed inspects the stored result without consuming it.
	IsFailed() bool

	// TakeResult consumes the stored result exactly once.
	TakeResult() Result[R]
}

// ManualInitiate drives op to completion, invoking cont exactly once
// according to the tri-state rules of §4.1, and is the only sanctioned
// way combinators and Task/Generator internals should initiate a child
// op (see continuation.go's design note on keeping the shim central).
func ManualInitiate[R any](op AsyncOp[R], ctx AsyncContext, cont Continuation) {
	manualInitiate[R](op, ctx, cont)
}

// checkStopBeforeInitiate is the stop-semantics check every concrete op
// in this package performs before doing real work (§4.1): "before
// initiating, an op MUST check stop_requested(ctx) and, if set, store
// errc::canceled and complete with false (i.e. no suspension)." It
// returns a ready Result[R] plus true when the op must short-circuit.
func checkStopBeforeInitiate[R any](ctx AsyncContext) (Result[R], bool) {
	if ctx.StopRequested() {
		return Err[R](Canceled), true
	}
	var zero Result[R]
	return zero, false
}

// immediateOp wraps an already-available Result as a trivial AsyncOp,
// useful for combinator base cases and tests.
type immediateOp[R any] struct {
	res Result[R]
}

// Immediate returns an AsyncOp that completes synchronously with res,
// without ever invoking its continuation asynchronously.
func Immediate[R any](res Result[R]) AsyncOp[R] { return immediateOp[R]{res: res} }

func (o immediateOp[R]) Initiate(ctx AsyncContext, cont Continuation) bool { return false }
func (o immediateOp[R]) IsImmediate() bool                                 { return true }
func (o immediateOp[R]) IsFailed() bool                                    { return o.res.HasErr() }
func (o immediateOp[R]) TakeResult() Result[R]                             { return o.res }
