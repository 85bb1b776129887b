package dsk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUntilAllDone_PreservesInputOrder(t *testing.T) {
	ops := []AsyncOp[int]{
		Immediate(Ok(1)),
		Immediate(Err[int](Failed)),
		Immediate(Ok(3)),
	}
	results := UntilAllDone(Background(), ops)

	require.Len(t, results, 3)
	require.Equal(t, 1, results[0].GetVal())
	require.True(t, results[1].HasErr())
	require.Equal(t, 3, results[2].GetVal())
}

func TestUntilAllSucceeded_AllOk(t *testing.T) {
	ops := []AsyncOp[int]{Immediate(Ok(1)), Immediate(Ok(2))}
	vals, err := UntilAllSucceeded(Background(), ops)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, vals)
}

func TestUntilAllSucceeded_OneFails(t *testing.T) {
	ops := []AsyncOp[int]{Immediate(Ok(1)), Immediate(Err[int](Failed))}
	_, err := UntilAllSucceeded(Background(), ops)
	require.Error(t, err)

	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, Failed, agg.Kind)
	require.Len(t, agg.Children, 1)
}
