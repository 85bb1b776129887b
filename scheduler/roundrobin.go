package scheduler

import "context"

// RoundRobinPool is spec.md §4.3's "round-robin pool": a single shared
// queue drained by N workers, simpler and lower-contention than a
// per-worker-queue design since there is nothing to balance — every
// worker just pulls the next item off the one channel. Grounded on the
// teacher's dispatcher.go (one shared tasks channel drained by pool
// goroutines), unchanged in shape: "round-robin" describes how workers
// take turns draining the shared queue, not how Post assigns work.
type RoundRobinPool struct {
	lifecycle
	n        int
	queueCap int
	opts     options

	queue chan func()
}

// NewRoundRobinPool builds a pool of n workers sharing one queue.
func NewRoundRobinPool(n int, opts ...Option) *RoundRobinPool {
	if n <= 0 {
		n = 1
	}
	o := buildOptions(opts)
	return &RoundRobinPool{n: n, queueCap: o.queueCap, opts: o}
}

func (p *RoundRobinPool) MaxConcurrency() int { return p.n }

func (p *RoundRobinPool) Start(ctx context.Context) error {
	return p.lifecycle.start(ctx, func(ctx context.Context) {
		p.queue = make(chan func(), p.queueCap)
		for i := 0; i < p.n; i++ {
			p.lifecycle.wg.Add(1)
			go p.runWorker(ctx)
		}
	})
}

func (p *RoundRobinPool) Stop()                           { p.lifecycle.stop() }
func (p *RoundRobinPool) Join()                            { p.lifecycle.join() }
func (p *RoundRobinPool) StopAndJoin()                     { p.lifecycle.stopAndJoin() }
func (p *RoundRobinPool) Restart(ctx context.Context) error {
	p.lifecycle.stopAndJoin()
	return p.Start(ctx)
}

// Post enqueues work onto the shared queue, blocking if it is full.
func (p *RoundRobinPool) Post(work func()) { p.queue <- work }

func (p *RoundRobinPool) runWorker(ctx context.Context) {
	defer p.lifecycle.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-p.queue:
			runOne(p.opts.log, p.opts.tracer, p.opts.metrics, w)
		}
	}
}
