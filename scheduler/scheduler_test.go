package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func runsAllPostedWork(t *testing.T, s Scheduler) {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	defer s.StopAndJoin()

	const n = 200
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		s.Post(func() {
			count.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted work")
	}
	require.EqualValues(t, n, count.Load())
}

func TestRoundRobinPool_RunsAllPostedWork(t *testing.T) {
	runsAllPostedWork(t, NewRoundRobinPool(4, WithQueueCapacity(8)))
}

func TestWorkStealingPool_RunsAllPostedWork(t *testing.T) {
	runsAllPostedWork(t, NewWorkStealingPool(4, WithQueueCapacity(4)))
}

func TestIOPool_RunsAllPostedWork(t *testing.T) {
	runsAllPostedWork(t, NewIOPool(4, WithQueueCapacity(8)))
}

func TestRoundRobinPool_PanicInWorkIsRecovered(t *testing.T) {
	p := NewRoundRobinPool(2)
	require.NoError(t, p.Start(context.Background()))
	defer p.StopAndJoin()

	done := make(chan struct{})
	p.Post(func() { panic("boom") })
	p.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker appears to have died after a panic")
	}
}

func TestRoundRobinPool_RestartAfterStop(t *testing.T) {
	p := NewRoundRobinPool(2)
	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	p.StopAndJoin()
	require.NoError(t, p.Restart(ctx))
	defer p.StopAndJoin()

	done := make(chan struct{})
	p.Post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not process work after restart")
	}
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	p := NewRoundRobinPool(1)
	require.NoError(t, p.Start(context.Background()))
	defer p.StopAndJoin()
	require.Error(t, p.Start(context.Background()))
}
