package dsk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncWait_ImmediateCompletion(t *testing.T) {
	res := SyncWait(Background(), Immediate(Ok(5)))
	require.Equal(t, 5, res.GetVal())
}

func TestSyncWait_AsyncCompletion(t *testing.T) {
	res := SyncWait(Background(), &slowCancelAwareOp{d: 10 * time.Millisecond})
	require.Equal(t, 0, res.GetVal())
}

func TestStartOn_PostsInitiationToScheduler(t *testing.T) {
	p := &recordingPoster{}
	op := StartOn[int](p, Immediate(Ok(9)))
	res := SyncWait(Background(), op)
	require.Equal(t, 9, res.GetVal())
	require.Len(t, p.posted, 1)
}

func TestRunOn_ReplacesResumerForInnerSuspensions(t *testing.T) {
	p := &recordingPoster{}
	inner := &resumerCapturingOp{}
	op := RunOn[int](p, inner)

	res := SyncWait(Background(), op)
	require.Equal(t, 1, res.GetVal())
	require.True(t, inner.capturedResumer.Equal(NewSchedulerResumer(p)))
}

// resumerCapturingOp records the resumer its Initiate was given, letting
// RunOn's "substitute S as the resumer" contract be asserted directly.
type resumerCapturingOp struct {
	capturedResumer Resumer
	res             Result[int]
}

func (o *resumerCapturingOp) IsImmediate() bool      { return false }
func (o *resumerCapturingOp) IsFailed() bool         { return o.res.HasErr() }
func (o *resumerCapturingOp) TakeResult() Result[int] { return o.res }

func (o *resumerCapturingOp) Initiate(ctx AsyncContext, cont Continuation) bool {
	o.capturedResumer = ctx.GetResumer()
	o.res = Ok(1)
	return false
}

func TestResumeOn_PostsOnceThenCompletes(t *testing.T) {
	p := &recordingPoster{}
	op := ResumeOn(p)
	res := SyncWait(Background(), op)
	require.False(t, res.HasErr())
	require.Len(t, p.posted, 1)
}
