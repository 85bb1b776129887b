package scheduler

import (
	"context"
	"sync/atomic"
)

// WorkStealingPool is a reference Scheduler where each of N workers
// owns a local queue, but an idle worker first tries to steal from its
// peers' queues before falling back to a shared overflow queue. Post
// assigns to a worker's local queue round-robin and only spills to the
// shared overflow queue when that worker's local queue is full, so the
// common case never touches contended shared state.
type WorkStealingPool struct {
	lifecycle
	n        int
	queueCap int
	opts     options

	local    []chan func()
	overflow chan func()
	next     atomic.Uint64
}

// NewWorkStealingPool builds a pool of n workers sharing one overflow
// queue.
func NewWorkStealingPool(n int, opts ...Option) *WorkStealingPool {
	if n <= 0 {
		n = 1
	}
	o := buildOptions(opts)
	return &WorkStealingPool{n: n, queueCap: o.queueCap, opts: o}
}

func (p *WorkStealingPool) MaxConcurrency() int { return p.n }

func (p *WorkStealingPool) Start(ctx context.Context) error {
	return p.lifecycle.start(ctx, func(ctx context.Context) {
		p.local = make([]chan func(), p.n)
		for i := range p.local {
			p.local[i] = make(chan func(), p.queueCap)
		}
		p.overflow = make(chan func(), p.queueCap*p.n)
		for i := 0; i < p.n; i++ {
			p.lifecycle.wg.Add(1)
			go p.runWorker(ctx, i)
		}
	})
}

func (p *WorkStealingPool) Stop()                            { p.lifecycle.stop() }
func (p *WorkStealingPool) Join()                             { p.lifecycle.join() }
func (p *WorkStealingPool) StopAndJoin()                       { p.lifecycle.stopAndJoin() }
func (p *WorkStealingPool) Restart(ctx context.Context) error {
	p.lifecycle.stopAndJoin()
	return p.Start(ctx)
}

// Post assigns work to the next worker round-robin, spilling to the
// shared overflow queue if that worker's local queue is momentarily
// full rather than blocking the poster on one specific worker.
func (p *WorkStealingPool) Post(work func()) {
	i := int(p.next.Add(1)-1) % p.n
	select {
	case p.local[i] <- work:
	default:
		p.overflow <- work
	}
}

func (p *WorkStealingPool) runWorker(ctx context.Context, id int) {
	defer p.lifecycle.wg.Done()
	for {
		w, ok := p.next2(ctx, id)
		if !ok {
			return
		}
		runOne(p.opts.log, p.opts.tracer, p.opts.metrics, w)
	}
}

// next2 fetches the next work item for worker id: its own queue first,
// then a non-blocking scan of every peer's queue (the "steal"), then a
// blocking wait on either the overflow queue, its own queue refilling,
// or ctx firing.
func (p *WorkStealingPool) next2(ctx context.Context, id int) (func(), bool) {
	select {
	case w := <-p.local[id]:
		return w, true
	default:
	}

	for off := 1; off < p.n; off++ {
		j := (id + off) % p.n
		select {
		case w := <-p.local[j]:
			return w, true
		default:
		}
	}

	select {
	case w := <-p.overflow:
		return w, true
	case w := <-p.local[id]:
		return w, true
	case <-ctx.Done():
		return nil, false
	}
}
