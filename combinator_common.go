package dsk

import "context"

// newChildStopContext derives a fresh, cancellable AsyncContext from
// ctx, dependent on ctx's own stop source (§4.4: "each child is
// initiated with a child context that wraps a fresh stop-source,
// registered as a dependent of the parent's stop-source"). Canceling
// the returned cancel func — or the parent context firing first —
// cancels the child. The returned cancel is always safe to call more
// than once or after the parent already fired.
func newChildStopContext(ctx AsyncContext) (AsyncContext, context.CancelFunc) {
	childGoCtx, cancel := context.WithCancel(ctx.StopToken().Context())
	return ctx.WithStopSource(NewStopSource(childGoCtx)), cancel
}
