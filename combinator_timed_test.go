package dsk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitForDuration_CompletesAfterElapsed(t *testing.T) {
	start := time.Now()
	res := SyncWait(Background(), WaitForDuration(30*time.Millisecond))
	require.False(t, res.HasErr())
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitFor_OpWinsBeforeTimer(t *testing.T) {
	op := Immediate(Ok(7))
	res := SyncWait(Background(), WaitFor(time.Second, op))
	require.False(t, res.HasErr())
	require.Equal(t, 7, res.GetVal())
}

func TestWaitFor_TimerWinsBeforeOp(t *testing.T) {
	slow := &slowCancelAwareOp{d: 2 * time.Second}
	start := time.Now()
	res := SyncWait(Background(), WaitFor[int](30*time.Millisecond, slow))
	elapsed := time.Since(start)

	require.True(t, res.HasErr())
	require.ErrorIs(t, res.GetErr(), Timeout)
	require.Less(t, elapsed, time.Second)
}

func TestWaitUntil_DeadlineInPast(t *testing.T) {
	slow := &slowCancelAwareOp{d: 2 * time.Second}
	res := SyncWait(Background(), WaitUntil[int](time.Now().Add(-time.Second), slow))
	require.ErrorIs(t, res.GetErr(), Timeout)
}
