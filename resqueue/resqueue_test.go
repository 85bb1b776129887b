package resqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dsk "github.com/feverzsj/dsk-go"
)

func TestResQueue_TryEnqueueDequeueRoundTrip(t *testing.T) {
	q := New[int](2)
	require.NoError(t, q.TryEnqueue(1))
	require.NoError(t, q.TryEnqueue(2))
	require.ErrorIs(t, q.TryEnqueue(3), dsk.OutOfCapacity)

	v, err := q.TryDequeue()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = q.TryDequeue()
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = q.TryDequeue()
	require.ErrorIs(t, err, dsk.ResourceUnavailable)
}

func TestResQueue_DequeueBlocksThenUnblocksOnEnqueue(t *testing.T) {
	q := New[int](1)
	done := make(chan int, 1)
	go func() {
		v, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), 42))

	select {
	case v := <-done:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("dequeue never unblocked")
	}
}

func TestResQueue_EnqueueBlocksThenUnblocksOnDequeue(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.TryEnqueue(1))

	done := make(chan struct{})
	go func() {
		require.NoError(t, q.Enqueue(context.Background(), 2))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	v, err := q.TryDequeue()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue never unblocked")
	}

	v, err = q.TryDequeue()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestResQueue_EnqueueCanceled(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.TryEnqueue(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, 2)
	require.ErrorIs(t, err, dsk.Canceled)
}

func TestResQueue_MarkEndResumesDequeueWaiters(t *testing.T) {
	q := New[int](1)
	errc := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, q.MarkEnd())

	select {
	case err := <-errc:
		require.ErrorIs(t, err, dsk.EndReached)
	case <-time.After(time.Second):
		t.Fatal("dequeue never resumed on MarkEnd")
	}

	require.ErrorIs(t, q.TryEnqueue(1), dsk.EndReached)
	q.ClearEndMark()
	require.NoError(t, q.TryEnqueue(1))
}

func TestResQueue_ForceEnqueueRangeBypassesCapacity(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.ForceEnqueueRange([]int{1, 2, 3}))
	require.Equal(t, 3, q.Len())

	out, err := q.ForceDequeueAll()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, out)
}

func TestResQueue_ForceDequeueAllEmptyBehavior(t *testing.T) {
	q := New[int](1)

	out, err := q.ForceDequeueAll()
	require.NoError(t, err)
	require.Empty(t, out)

	q.MarkEnd()
	_, err = q.ForceDequeueAll()
	require.ErrorIs(t, err, dsk.EndReached)
}

func TestResQueue_Stats(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.TryEnqueue(1))
	_, err := q.TryDequeue()
	require.NoError(t, err)

	s := q.Stats()
	require.EqualValues(t, 1, s.EnqueueTotal)
	require.EqualValues(t, 1, s.DequeueTotal)
}
