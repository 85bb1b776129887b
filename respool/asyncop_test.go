package respool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dsk "github.com/feverzsj/dsk-go"
)

func TestAcquireOp_CompletesImmediatelyWhenIdleAvailable(t *testing.T) {
	p := NewResPool(1, func(ctx context.Context) (int, error) { return 7, nil })

	res := dsk.SyncWait(dsk.Background(), p.AcquireOp())
	require.False(t, res.HasErr())
	require.Equal(t, 7, res.GetVal().Get())
}

func TestAcquireOp_WaitsForRecycleWhenAtCapacity(t *testing.T) {
	p := NewResPool(1, func(ctx context.Context) (int, error) { return 1, nil })
	held, err := p.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan dsk.Result[*Ref[int]], 1)
	go func() {
		done <- dsk.SyncWait(dsk.Background(), p.AcquireOp())
	}()

	time.Sleep(20 * time.Millisecond)
	held.Recycle()

	res := <-done
	require.False(t, res.HasErr())
	res.GetVal().Recycle()
}

func TestAcquireOp_SurfacesCreatorFailureSynchronously(t *testing.T) {
	p := NewResPool(1, func(ctx context.Context) (int, error) {
		return 0, context.DeadlineExceeded
	})

	res := dsk.SyncWait(dsk.Background(), p.AcquireOp())
	require.True(t, res.HasErr())
	require.ErrorIs(t, res.GetErr(), context.DeadlineExceeded)
}
