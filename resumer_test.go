package dsk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingPoster struct {
	posted []func()
}

func (p *recordingPoster) Post(work func()) {
	p.posted = append(p.posted, work)
	work()
}

func TestSchedulerResumer_EqualityByWrappedPoster(t *testing.T) {
	p1 := &recordingPoster{}
	p2 := &recordingPoster{}

	r1 := NewSchedulerResumer(p1)
	r1b := NewSchedulerResumer(p1)
	r2 := NewSchedulerResumer(p2)

	require.True(t, r1.Equal(r1b))
	require.False(t, r1.Equal(r2))
	require.False(t, r1.Equal(InlineResumer))
}

func TestSchedulerResumer_PostRunsOnPoster(t *testing.T) {
	p := &recordingPoster{}
	r := NewSchedulerResumer(p)

	ran := false
	r.Post(func() { ran = true })
	require.True(t, ran)
	require.Len(t, p.posted, 1)
}

func TestStatelessSchedulerResumer_CollapsesWhenAlreadyOnScheduler(t *testing.T) {
	p := &recordingPoster{}
	r := StatelessSchedulerResumer(p, func() (Poster, bool) { return p, true })

	ran := false
	r.Post(func() { ran = true })
	require.True(t, ran)
	require.Empty(t, p.posted, "must not Post when already on the target scheduler")
}

func TestStatelessSchedulerResumer_PostsWhenElsewhere(t *testing.T) {
	p := &recordingPoster{}
	r := StatelessSchedulerResumer(p, func() (Poster, bool) { return nil, false })

	ran := false
	r.Post(func() { ran = true })
	require.True(t, ran)
	require.Len(t, p.posted, 1)
}

func TestInlineResumer_PostRunsSynchronously(t *testing.T) {
	ran := false
	InlineResumer.Post(func() { ran = true })
	require.True(t, ran)
}
