package dsk

import (
	"context"
	"sync"
)

// StopSource is the cancellation half of an AsyncContext (§3.1). It
// wraps a Go context.Context's cancellation so ops can both poll
// ("is a stop requested") and register a callback to run when one is.
// A nil StopSource means "uncancellable", per spec.
type StopSource struct {
	ctx context.Context
}

// NewStopSource wraps a context.Context as a StopSource.
func NewStopSource(ctx context.Context) StopSource { return StopSource{ctx: ctx} }

// Requested reports whether cancellation has already fired.
func (s StopSource) Requested() bool {
	if s.ctx == nil {
		return false
	}
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// OnStop registers fn to run when the stop source fires. It returns an
// unregister function; calling it before the stop fires prevents fn
// from ever running (mirrors a stop-callback's destructor in the
// source). OnStop on a nil/absent StopSource returns a no-op unregister
// and never calls fn, matching "absent means uncancellable".
func (s StopSource) OnStop(fn func()) (unregister func()) {
	if s.ctx == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-s.ctx.Done():
			fn()
		case <-done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Context returns the underlying context.Context, or context.Background()
// if this StopSource is absent. Ops that delegate to context-aware
// third-party libraries (the adapters §1 describes) use this to bridge.
func (s StopSource) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// CleanupSink is where trailing async cleanup ops are deposited on a
// scope's exit (§3.1, §4.5). A nil CleanupSink means "no cleanup
// support"; add_cleanup on such a context silently drops the op, same
// as the source's documented no-op default for the customization point.
type CleanupSink struct {
	scope *CleanupScope
}

// AsyncContext is the lightweight, pass-by-value per-await metadata
// every Initiate receives (§3). It layers a stop source, a resumer, and
// a cleanup sink; any of the three may be absent (zero value).
//
// AsyncContext is intentionally a small struct copied by value, not a
// reference-counted handle, per the source's design note: "Implement as
// a small-struct-by-value with layered overrides; avoid reference-
// counted contexts in the hot path."
type AsyncContext struct {
	stop    StopSource
	resumer Resumer
	cleanup CleanupSink
}

// Background returns the empty AsyncContext: uncancellable, inline-
// resuming, no cleanup support. It is the base every real context is
// layered on top of via With*.
func Background() AsyncContext { return AsyncContext{} }

// NewAsyncContext builds a root AsyncContext from a Go context.Context,
// with the inline resumer and no cleanup scope. Most callers instead
// start from Background() plus WithResumer/WithCleanupScope, or use
// MakeAsyncContext directly.
func NewAsyncContext(ctx context.Context) AsyncContext {
	return AsyncContext{stop: NewStopSource(ctx)}
}

// StopRequested is the stop_requested(ctx) customization point.
func (c AsyncContext) StopRequested() bool { return c.stop.Requested() }

// StopToken returns the context's StopSource (get_stop_token).
func (c AsyncContext) StopToken() StopSource { return c.stop }

// GetResumer is the get_resumer customization point. Absent means
// inline-resume (§3).
func (c AsyncContext) GetResumer() Resumer {
	if c.resumer == nil {
		return InlineResumer
	}
	return c.resumer
}

// AddCleanup is the add_cleanup(ctx, op) customization point (§4.5): it
// appends op to the context's current cleanup scope, if any. Absent
// scope makes this a silent no-op, per the documented no-op default.
func AddCleanup(ctx AsyncContext, op AsyncOp[struct{}]) {
	if ctx.cleanup.scope == nil {
		return
	}
	ctx.cleanup.scope.push(op)
}

// WithStopSource layers a new stop source atop base without copying or
// mutating it, per make_async_ctx(base, override...) (§3).
func (c AsyncContext) WithStopSource(s StopSource) AsyncContext {
	c2 := c
	c2.stop = s
	return c2
}

// WithResumer layers a new resumer atop c.
func (c AsyncContext) WithResumer(r Resumer) AsyncContext {
	c2 := c
	c2.resumer = r
	return c2
}

// WithCleanupScope layers a new cleanup scope atop c. Used when a task
// body opens a nested scope (§4.5); the enclosing scope is not lost,
// only shadowed for the nested frame's lifetime.
func (c AsyncContext) WithCleanupScope(scope *CleanupScope) AsyncContext {
	c2 := c
	c2.cleanup = CleanupSink{scope: scope}
	return c2
}

// cleanupScope returns the context's current cleanup scope, or nil.
func (c AsyncContext) cleanupScope() *CleanupScope { return c.cleanup.scope }

// WithoutCancellation returns a context whose StopRequested always
// reports false and whose OnStop never fires, regardless of the
// underlying Go context. Cleanup ops are always run with cancellation
// disabled on the context passed to them (§4.5, §5): "Cleanup-scope ops
// run with cancellation disabled on their context."
func (c AsyncContext) WithoutCancellation() AsyncContext {
	return c.WithStopSource(StopSource{})
}

// MakeAsyncContext composes a base context with a set of override
// functions, mirroring make_async_ctx(base, override...). Each override
// is one of WithStopSource/WithResumer/WithCleanupScope bound to its
// argument; this helper just threads them in order, which is the only
// thing make_async_ctx does beyond what chaining already achieves. It
// gives call sites that build up a context from a variadic slice of
// transforms a single entry point instead of manual chaining; the
// combinators in this package call WithStopSource directly instead.
func MakeAsyncContext(base AsyncContext, overrides ...func(AsyncContext) AsyncContext) AsyncContext {
	c := base
	for _, o := range overrides {
		c = o(c)
	}
	return c
}
