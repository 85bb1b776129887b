package resqueue

import (
	"testing"

	"pgregory.net/rapid"
)

// TestResQueue_FIFOUnderRandomInterleaving drives random interleavings of
// TryEnqueue/TryDequeue through a single goroutine (no blocking waits)
// and checks values come out in the same order they went in.
func TestResQueue_FIFOUnderRandomInterleaving(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		q := New[int](capacity)

		var pending []int
		var out []int
		next := 0
		steps := rapid.IntRange(1, 80).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "enqueue") {
				if err := q.TryEnqueue(next); err == nil {
					pending = append(pending, next)
					next++
				}
			} else if len(pending) > 0 {
				v, err := q.TryDequeue()
				if err == nil {
					out = append(out, v)
					pending = pending[1:]
				}
			}
		}

		for {
			v, err := q.TryDequeue()
			if err != nil {
				break
			}
			out = append(out, v)
		}

		want := 0
		for _, v := range out {
			if v != want {
				t.Fatalf("expected %d next, got %d: FIFO order violated", want, v)
			}
			want++
		}
	})
}
