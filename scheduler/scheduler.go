// Package scheduler provides the Scheduler contract and three reference
// worker-pool implementations: a round-robin pool (a single shared
// queue drained by N workers), a work-stealing pool (N per-worker
// queues, each worker trying peers before blocking on its own), and an
// I/O-context-style pool (no queue at all — posted work runs directly
// on the Go runtime's own scheduler, admission-limited by a semaphore).
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/feverzsj/dsk-go/metrics"
)

// Scheduler is the contract every pool below satisfies: a place to post
// nullary work, plus the lifecycle operations a long-running pool needs
// (start/stop/restart, and a way to wait for drain).
type Scheduler interface {
	// Post enqueues work for eventual execution on one of the pool's
	// worker goroutines. Post never runs work synchronously.
	Post(work func())

	// Start spawns the pool's worker goroutines, bound to ctx. It
	// returns an error if the pool is already running.
	Start(ctx context.Context) error

	// Stop requests every worker to exit after finishing its current
	// item, without waiting for them to actually exit.
	Stop()

	// Join blocks until every worker goroutine spawned by the most
	// recent Start has exited.
	Join()

	// StopAndJoin is Stop followed by Join.
	StopAndJoin()

	// Restart is StopAndJoin followed by Start(ctx).
	Restart(ctx context.Context) error

	// MaxConcurrency reports the configured worker count.
	MaxConcurrency() int
}

// Option configures a pool at construction time.
type Option func(*options)

type options struct {
	queueCap int
	log      logr.Logger
	tracer   trace.Tracer
	metrics  metrics.Provider
}

func defaultOptions() options {
	return options{queueCap: 64, log: logr.Discard(), metrics: metrics.NewNoopProvider()}
}

// WithQueueCapacity sets the buffered capacity of each internal work
// queue. A value <= 0 leaves the default (64).
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCap = n
		}
	}
}

// WithLogger attaches a structured logger used to report panics from
// posted work; the default discards everything.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTracer wraps every executed work item in a span named
// "dsk.scheduler.run"; the default performs no tracing.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics attaches a metrics.Provider recording a run counter, a
// panic counter, and a run-duration histogram for every posted work
// item; the default discards everything (metrics.NewNoopProvider).
func WithMetrics(p metrics.Provider) Option {
	return func(o *options) { o.metrics = p }
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// lifecycle is the shared start/stop/join bookkeeping every pool below
// embeds, grounded on the teacher's lifecycleCoordinator
// (lifecycle.go): cancel the internal context, then wait for every
// worker goroutine via a WaitGroup, with the whole sequence guarded so
// it only ever runs against a single live generation of workers at a
// time. Unlike the teacher's one-shot sync.Once (a Workers instance is
// used once and discarded), a Scheduler must support Restart, so the
// guard here is a running flag under a mutex rather than a Once.
type lifecycle struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func (l *lifecycle) start(parent context.Context, spawn func(ctx context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("scheduler: already started")
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.running = true
	spawn(ctx)
	return nil
}

func (l *lifecycle) stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.running = false
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (l *lifecycle) join() { l.wg.Wait() }

func (l *lifecycle) stopAndJoin() {
	l.stop()
	l.join()
}

// runOne executes work, recovering a panic into a log line instead of
// propagating it — Post has no result channel for the caller to
// observe an error on, so a panicking work item is reported and
// swallowed rather than crashing the worker goroutine, generalizing
// the teacher's worker.execute panic-recovery (worker.go) from "send to
// an errors channel" to "log and move on".
//
// Each execution gets its own correlation id so a panic log line and
// its matching span can be joined after the fact even when many work
// items run concurrently across the pool's workers.
func runOne(log logr.Logger, tracer trace.Tracer, m metrics.Provider, work func()) {
	workID := uuid.New().String()
	started := time.Now()
	defer func() {
		m.Counter("dsk_scheduler_runs_total").Add(1)
		m.Histogram("dsk_scheduler_run_duration_seconds").Record(time.Since(started).Seconds())
		if r := recover(); r != nil {
			m.Counter("dsk_scheduler_panics_total").Add(1)
			log.Error(fmt.Errorf("%v", r), "scheduler: posted work panicked", "work_id", workID)
		}
	}()
	if tracer != nil {
		_, span := tracer.Start(context.Background(), "dsk.scheduler.run", trace.WithAttributes(
			attribute.String("dsk.work_id", workID),
		))
		defer span.End()
	}
	work()
}
