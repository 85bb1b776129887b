package respool

import (
	"context"
	"testing"

	"pgregory.net/rapid"
)

// TestResPool_OccupiedNeverExceedsCapacity runs random sequences of
// TryAcquire/Recycle and checks the pool's core invariant: occupied
// (idle + checked out) never exceeds its configured capacity.
func TestResPool_OccupiedNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cap := rapid.IntRange(1, 8).Draw(t, "capacity")
		p := NewResPool(cap, func(ctx context.Context) (int, error) { return 1, nil })

		var held []*Ref[int]
		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(held) > 0 && rapid.Bool().Draw(t, "recycle") {
				idx := rapid.IntRange(0, len(held)-1).Draw(t, "idx")
				held[idx].Recycle()
				held = append(held[:idx], held[idx+1:]...)
				continue
			}
			ref, err := p.TryAcquire(context.Background())
			if err == nil {
				held = append(held, ref)
			}
			if p.OccupiedCount() > cap {
				t.Fatalf("occupied count %d exceeds capacity %d", p.OccupiedCount(), cap)
			}
		}
		for _, ref := range held {
			ref.Recycle()
		}
		if p.IdleCount() > cap {
			t.Fatalf("idle count %d exceeds capacity %d after draining", p.IdleCount(), cap)
		}
	})
}
