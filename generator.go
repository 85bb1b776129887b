package dsk

import (
	"fmt"
	"sync"
)

// Optional is the "value or nothing" shape Generator.Next produces: an
// empty Optional signals the generator returned (§4.2).
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Present: true} }

// None is the absent value.
func None[T any]() Optional[T] { return Optional[T]{} }

// GenCtx is the handle a generator body receives; Yield is its only
// addition over TaskCtx, and is itself the generator's suspension
// point: a blocking, unbuffered channel send that only unblocks once a
// consumer calls Next (§4.2: "Generator<T> is a Task whose body emits
// values via a yield operation").
type GenCtx[T any] struct {
	TaskCtx
	out chan<- T
}

// Yield hands v to whichever goroutine is currently waiting in Next,
// suspending the generator body until that happens, or until the
// generator's context is canceled, in which case Yield returns false
// and the body should return promptly.
func (g *GenCtx[T]) Yield(v T) bool {
	select {
	case g.out <- v:
		return true
	case <-g.Context().Done():
		return false
	}
}

// Generator is a Task whose body lazily produces values of T via Yield,
// consumed one at a time through Next, itself an AsyncOp (§4.2). Built
// on an unbuffered channel instead of a buffered queue so that
// production is exactly as eager as consumption demands — a generator
// that is never polled never runs ahead.
type Generator[T any] struct {
	fn    func(gc *GenCtx[T]) error
	scope *CleanupScope

	startOnce sync.Once
	out       chan T
	doneCh    chan struct{} // closed once the body has returned and finalErr is set

	mu       sync.Mutex
	finalErr error

	ctx AsyncContext
}

// NewGenerator builds a Generator from a body function that yields
// values through the GenCtx it's given.
func NewGenerator[T any](fn func(gc *GenCtx[T]) error) *Generator[T] {
	return &Generator[T]{fn: fn, out: make(chan T), doneCh: make(chan struct{})}
}

func (g *Generator[T]) ensureStarted(ctx AsyncContext) {
	g.startOnce.Do(func() {
		scope := g.scope
		if scope == nil {
			scope = NewCleanupScope()
		}
		g.ctx = ctx.WithCleanupScope(scope)
		gc := &GenCtx[T]{
			TaskCtx: TaskCtx{Async: g.ctx, scope: scope},
			out:     g.out,
		}

		go func() {
			err := g.runBody(gc)
			if g.scope == nil {
				if cerr := scope.Exit(ctx); cerr != nil && err == nil {
					err = cerr
				}
			}
			g.mu.Lock()
			g.finalErr = err
			g.mu.Unlock()
			close(g.out)
			close(g.doneCh)
		}()
	})
}

func (g *Generator[T]) runBody(gc *GenCtx[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ab, ok := r.(taskAbort); ok {
				err = ab.err
				return
			}
			err = fmt.Errorf("dsk: generator panicked: %v", r)
		}
	}()
	return g.fn(gc)
}

// Next returns the async op that produces the generator's next value,
// or an empty Optional once the body has returned (§4.2).
func (g *Generator[T]) Next() AsyncOp[Optional[T]] { return &genNextOp[T]{g: g} }

type genNextOp[T any] struct {
	g   *Generator[T]
	res Result[Optional[T]]
}

func (o *genNextOp[T]) IsImmediate() bool { return false }
func (o *genNextOp[T]) IsFailed() bool    { return o.res.HasErr() }
func (o *genNextOp[T]) TakeResult() Result[Optional[T]] { return o.res }

func (o *genNextOp[T]) Initiate(ctx AsyncContext, cont Continuation) bool {
	if res, stop := checkStopBeforeInitiate[Optional[T]](ctx); stop {
		o.res = res
		return false
	}

	o.g.ensureStarted(ctx)

	go func() {
		select {
		case v, ok := <-o.g.out:
			if ok {
				o.res = Ok(Some(v))
			} else {
				// Channel closed: the body has returned. finalErr is set
				// before out is closed and doneCh is closed right after
				// it, so this never blocks meaningfully.
				<-o.g.doneCh
				o.g.mu.Lock()
				err := o.g.finalErr
				o.g.mu.Unlock()
				if err != nil {
					o.res = Err[Optional[T]](err)
				} else {
					o.res = Ok(None[T]())
				}
			}
		case <-ctx.StopToken().Context().Done():
			o.res = Err[Optional[T]](Canceled)
		}
		ctx.GetResumer().Post(cont)
	}()

	return true
}
