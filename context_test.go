package dsk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsyncContext_BackgroundIsUncancellable(t *testing.T) {
	ctx := Background()
	require.False(t, ctx.StopRequested())
	require.Equal(t, context.Background(), ctx.StopToken().Context())
}

func TestAsyncContext_WithStopSourceReflectsCancellation(t *testing.T) {
	goCtx, cancel := context.WithCancel(context.Background())
	ctx := NewAsyncContext(goCtx)
	require.False(t, ctx.StopRequested())
	cancel()
	require.True(t, ctx.StopRequested())
}

func TestAsyncContext_GetResumerDefaultsToInline(t *testing.T) {
	ctx := Background()
	require.True(t, ctx.GetResumer().Equal(InlineResumer))
}

func TestAsyncContext_WithoutCancellationIgnoresParentCancel(t *testing.T) {
	goCtx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := NewAsyncContext(goCtx).WithoutCancellation()
	require.False(t, ctx.StopRequested())
}

func TestAsyncContext_AddCleanupNoopWithoutScope(t *testing.T) {
	require.NotPanics(t, func() {
		AddCleanup(Background(), cleanupFunc(func() { t.Fatal("must not run") }))
	})
}

func TestStopSource_OnStopFiresOnCancel(t *testing.T) {
	goCtx, cancel := context.WithCancel(context.Background())
	s := NewStopSource(goCtx)

	fired := make(chan struct{})
	s.OnStop(func() { close(fired) })
	cancel()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("OnStop callback never fired")
	}
}

func TestStopSource_UnregisterPreventsCallback(t *testing.T) {
	goCtx, cancel := context.WithCancel(context.Background())
	s := NewStopSource(goCtx)

	called := false
	unregister := s.OnStop(func() { called = true })
	unregister()
	cancel()
	time.Sleep(20 * time.Millisecond)
	require.False(t, called)
}
