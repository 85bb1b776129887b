package dsk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanupScope_RunsLIFO(t *testing.T) {
	var order []int
	scope := NewCleanupScope()
	scope.push(cleanupFunc(func() { order = append(order, 1) }))
	scope.push(cleanupFunc(func() { order = append(order, 2) }))
	scope.push(cleanupFunc(func() { order = append(order, 3) }))

	err := scope.Exit(Background())
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1}, order)
}

func TestCleanupScope_IdempotentExit(t *testing.T) {
	var n int
	scope := NewCleanupScope()
	scope.push(cleanupFunc(func() { n++ }))

	require.NoError(t, scope.Exit(Background()))
	require.NoError(t, scope.Exit(Background()))
	require.Equal(t, 1, n)
}

func TestCleanupScope_FailuresAggregateButDoNotAbortRemaining(t *testing.T) {
	var ran []int
	scope := NewCleanupScope()
	scope.push(cleanupFunc(func() { ran = append(ran, 1) }))
	scope.push(failingCleanupOp{})
	scope.push(cleanupFunc(func() { ran = append(ran, 3) }))

	err := scope.Exit(Background())
	require.Error(t, err)

	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, OneOrMoreCleanupOpsFailed, agg.Kind)
	require.Equal(t, []int{3, 1}, ran, "op 1 (first pushed) still runs despite op 2 failing")
	require.Len(t, scope.Errors(), 1)
}

type failingCleanupOp struct{}

func (failingCleanupOp) Initiate(ctx AsyncContext, cont Continuation) bool { return false }
func (failingCleanupOp) IsImmediate() bool                                 { return true }
func (failingCleanupOp) IsFailed() bool                                   { return true }
func (failingCleanupOp) TakeResult() Result[struct{}]                     { return Err[struct{}](Failed) }

func TestAddParentCleanup_NilParentIsNoop(t *testing.T) {
	require.NotPanics(t, func() {
		AddParentCleanup(nil, cleanupFunc(func() {}))
	})
}
