package dsk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUntilFirstSucceeded_ReturnsFirstWinner(t *testing.T) {
	ops := []AsyncOp[int]{
		Immediate(Err[int](Failed)),
		Immediate(Ok(2)),
		Immediate(Ok(3)),
	}
	i, v, err := UntilFirstSucceeded(Background(), ops)
	require.NoError(t, err)
	require.Contains(t, []int{1, 2}, i)
	require.Contains(t, []int{2, 3}, v)
}

func TestUntilFirstSucceeded_NoneSucceed(t *testing.T) {
	ops := []AsyncOp[int]{Immediate(Err[int](Failed)), Immediate(Err[int](Failed))}
	_, _, err := UntilFirstSucceeded(Background(), ops)
	require.ErrorIs(t, err, NotFound)
}

func TestUntilFirstFailed_ReturnsFirstFailure(t *testing.T) {
	ops := []AsyncOp[int]{Immediate(Ok(1)), Immediate(Err[int](Failed))}
	_, err := UntilFirstFailed(Background(), ops)
	require.ErrorIs(t, err, Failed)
}

func TestUntilFirstFailed_NoneFail(t *testing.T) {
	ops := []AsyncOp[int]{Immediate(Ok(1)), Immediate(Ok(2))}
	_, err := UntilFirstFailed(Background(), ops)
	require.ErrorIs(t, err, NotFound)
}

// slowCancelAwareOp blocks until either d elapses or its context is
// canceled, reporting which happened via its Result.
type slowCancelAwareOp struct {
	d   time.Duration
	res Result[int]
}

func (o *slowCancelAwareOp) IsImmediate() bool      { return false }
func (o *slowCancelAwareOp) IsFailed() bool         { return o.res.HasErr() }
func (o *slowCancelAwareOp) TakeResult() Result[int] { return o.res }

func (o *slowCancelAwareOp) Initiate(ctx AsyncContext, cont Continuation) bool {
	go func() {
		select {
		case <-time.After(o.d):
			o.res = Ok(0)
		case <-ctx.StopToken().Context().Done():
			o.res = Err[int](Canceled)
		}
		ctx.GetResumer().Post(cont)
	}()
	return true
}

func TestUntilFirstDone_CancelsStragglers(t *testing.T) {
	fast := Immediate(Ok(1))
	slow := &slowCancelAwareOp{d: 2 * time.Second}

	start := time.Now()
	i, res := UntilFirstDone(Background(), []AsyncOp[int]{fast, slow})
	elapsed := time.Since(start)

	require.Equal(t, 0, i)
	require.Equal(t, 1, res.GetVal())
	require.Less(t, elapsed, time.Second, "straggler should have observed cancellation, not the full 2s timeout")
}
