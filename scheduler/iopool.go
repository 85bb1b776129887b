package scheduler

import (
	"context"
	"sync"
)

// IOPool models spec.md §4.3's "I/O pool": rather than owning a queue
// of its own, it hands posted work straight to the Go runtime's own
// scheduler, which already multiplexes goroutines over its integrated
// netpoller — the same role an io_uring/epoll-backed executor plays for
// the source's I/O context object. MaxConcurrency is enforced with a
// counting semaphore standing in for "N threads driving the context",
// not a worker-local or shared queue: there is nothing to drain, only
// an admission limit on how many posted items may run at once.
type IOPool struct {
	lifecycle
	n    int
	opts options

	mu  sync.Mutex
	ctx context.Context
	sem chan struct{}
}

// NewIOPool builds a pool admitting up to n concurrently-running posted
// work items.
func NewIOPool(n int, opts ...Option) *IOPool {
	if n <= 0 {
		n = 1
	}
	o := buildOptions(opts)
	return &IOPool{n: n, opts: o}
}

func (p *IOPool) MaxConcurrency() int { return p.n }

func (p *IOPool) Start(ctx context.Context) error {
	return p.lifecycle.start(ctx, func(ctx context.Context) {
		p.mu.Lock()
		p.ctx = ctx
		p.sem = make(chan struct{}, p.n)
		p.mu.Unlock()
	})
}

func (p *IOPool) Stop()                            { p.lifecycle.stop() }
func (p *IOPool) Join()                             { p.lifecycle.join() }
func (p *IOPool) StopAndJoin()                       { p.lifecycle.stopAndJoin() }
func (p *IOPool) Restart(ctx context.Context) error {
	p.lifecycle.stopAndJoin()
	return p.Start(ctx)
}

// Post spawns a goroutine for work, gated by the admission semaphore
// and bound to the pool's running context; if the pool is stopped
// before a slot frees up, work is dropped rather than run, the same
// "pending jobs may be dropped on stop" contract the other pools honor.
func (p *IOPool) Post(work func()) {
	p.mu.Lock()
	ctx, sem := p.ctx, p.sem
	p.mu.Unlock()
	if ctx == nil {
		return
	}

	p.lifecycle.wg.Add(1)
	go func() {
		defer p.lifecycle.wg.Done()
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-sem }()

		select {
		case <-ctx.Done():
			return
		default:
		}
		runOne(p.opts.log, p.opts.tracer, p.opts.metrics, work)
	}()
}
