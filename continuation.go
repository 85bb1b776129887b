package dsk

// Continuation is an erased, move-only-by-convention callable handle to
// "resume work", mirroring the source's continuation concept
// (original_source/include/dsk/async_op.hpp). Go has no move semantics
// to enforce the "invoked exactly once" rule at compile time; callers
// must honor it by convention, same as the teacher's done/results
// channels are only ever sent to once per task.
//
// A Continuation must be invoked at most once.
type Continuation func()

// manualInitiate normalizes the three initiate return conventions the
// source documents (void / bool / coroutine handle) into a single
// "the continuation fires exactly once" guarantee. In dsk-go, AsyncOp's
// Initiate always returns a bool (there is no coroutine_handle
// equivalent without native stackless coroutines — see DESIGN.md), so
// this shim's job narrows to: run synchronous completions inline
// without losing the exactly-once guarantee. On a false return the shim
// invokes cont itself (so Initiate must not have invoked it); on a true
// return the op invokes cont later and the shim does not.
//
// manualInitiate is kept central per the source's §9 design note:
// "Keep this shim central; do not replicate the three-way check at
// every call site."
func manualInitiate[R any](op AsyncOp[R], ctx AsyncContext, cont Continuation) {
	if op.IsImmediate() {
		cont()
		return
	}

	willCompleteAsync := op.Initiate(ctx, cont)
	if !willCompleteAsync {
		// Synchronous completion: Initiate has already stored the result
		// and expects us to resume cont ourselves.
		cont()
	}
	// else: op took responsibility for invoking cont exactly once, later.
}
