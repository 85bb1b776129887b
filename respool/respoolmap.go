package respool

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// LockPolicy selects whether every sub-pool of a ResPoolMap guards its
// state with its own mutex, or all sub-pools share one, mirroring
// res_pool_map_lock_policy (res_pool.hpp).
type LockPolicy int

const (
	// LockPerPool gives each key's ResPool its own mutex (the default:
	// maximum concurrency across distinct keys).
	LockPerPool LockPolicy = iota
	// SingleLock shares one mutex across every sub-pool, trading
	// cross-key concurrency for a single, simpler lock to reason
	// about — useful when keys are numerous but individually low
	// traffic, where per-pool mutexes would just be memory overhead.
	SingleLock
)

// KeyedCreator produces a resource scoped to a specific key.
type KeyedCreator[K comparable, T any] func(ctx context.Context, key K) (T, error)

// MapOption configures a ResPoolMap at construction.
type MapOption[K comparable, T any] func(*mapConfig[K, T])

type mapConfig[K comparable, T any] struct {
	policy   LockPolicy
	recycler Recycler[T]
	log      logr.Logger
}

// WithMapLockPolicy selects LockPerPool (default) or SingleLock.
func WithMapLockPolicy[K comparable, T any](p LockPolicy) MapOption[K, T] {
	return func(c *mapConfig[K, T]) { c.policy = p }
}

// WithMapRecycler runs fn on every resource in every sub-pool just
// before it goes idle.
func WithMapRecycler[K comparable, T any](fn Recycler[T]) MapOption[K, T] {
	return func(c *mapConfig[K, T]) { c.recycler = fn }
}

// ResPoolMap lazily manages one ResPool[T] per key K, auto-creating a
// sub-pool bounded at perKeyCapacity on first access to a new key.
type ResPoolMap[K comparable, T any] struct {
	perKeyCapacity int
	creator        KeyedCreator[K, T]
	cfg            mapConfig[K, T]

	mapMu  sync.Mutex
	shared *sync.Mutex // non-nil iff cfg.policy == SingleLock
	pools  map[K]*ResPool[T]
}

// NewResPoolMap builds a map of per-key pools, each bounded at
// perKeyCapacity and populated lazily via creator.
func NewResPoolMap[K comparable, T any](perKeyCapacity int, creator KeyedCreator[K, T], opts ...MapOption[K, T]) *ResPoolMap[K, T] {
	cfg := mapConfig[K, T]{log: logr.Discard()}
	for _, o := range opts {
		o(&cfg)
	}
	m := &ResPoolMap[K, T]{
		perKeyCapacity: perKeyCapacity,
		creator:        creator,
		cfg:            cfg,
		pools:          make(map[K]*ResPool[T]),
	}
	if cfg.policy == SingleLock {
		m.shared = &sync.Mutex{}
	}
	return m
}

// pool returns (creating if necessary) the sub-pool for key.
func (m *ResPoolMap[K, T]) pool(key K) *ResPool[T] {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()

	if p, ok := m.pools[key]; ok {
		return p
	}

	opts := []Option[T]{WithLogger[T](m.cfg.log)}
	if m.cfg.recycler != nil {
		opts = append(opts, WithRecycler(m.cfg.recycler))
	}
	if m.shared != nil {
		opts = append(opts, withSharedMutex[T](m.shared))
	}

	p := NewResPool(m.perKeyCapacity, func(ctx context.Context) (T, error) {
		return m.creator(ctx, key)
	}, opts...)
	m.pools[key] = p
	return p
}

// Acquire acquires from the sub-pool for key, auto-creating that
// sub-pool if it doesn't exist yet (res_pool_map_auto_add_pool, the
// only policy this port implements — the no-auto-add variant has no
// use without an explicit AddPool/RemovePool surface this port doesn't
// expose).
func (m *ResPoolMap[K, T]) Acquire(ctx context.Context, key K) (*Ref[T], error) {
	return m.pool(key).Acquire(ctx)
}

// TryAcquire is Acquire's non-blocking counterpart.
func (m *ResPoolMap[K, T]) TryAcquire(ctx context.Context, key K) (*Ref[T], error) {
	return m.pool(key).TryAcquire(ctx)
}

// Keys returns the set of keys with a sub-pool currently instantiated.
func (m *ResPoolMap[K, T]) Keys() []K {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	keys := make([]K, 0, len(m.pools))
	for k := range m.pools {
		keys = append(keys, k)
	}
	return keys
}
