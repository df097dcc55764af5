package allocator

import (
	"sync"
	"sync/atomic"
)

// affinityRouter maps the calling goroutine to one of M local heaps so that
// consecutive allocations from the same goroutine tend to land on the same
// heap. Go deliberately does not expose an OS-thread or goroutine identity
// to user code, so there is no thread id to hash the way a traditional
// allocator would.
//
// Instead this reuses the mechanism the standard library itself uses to get
// per-P (not per-goroutine, but close enough for the contention this cares
// about) affinity without locking: sync.Pool. A Get immediately followed by
// a Put on the same goroutine overwhelmingly returns the object most
// recently Put back on that P's private slot, so repeated calls from a hot
// goroutine land on the same affinitySlot, and therefore the same local
// heap index, the overwhelming majority of the time — giving the caching
// benefit a per-thread heap is meant to provide. See DESIGN.md for why this
// was chosen over linking into runtime internals.
type affinityRouter struct {
	m       int
	counter uint64
	pool    sync.Pool
}

type affinitySlot struct {
	idx int
}

func newAffinityRouter(m int) *affinityRouter {
	r := &affinityRouter{m: m}
	r.pool.New = func() interface{} {
		i := atomic.AddUint64(&r.counter, 1) - 1

		return &affinitySlot{idx: int(i % uint64(r.m))}
	}

	return r
}

// index returns a local heap index in [0, M).
func (r *affinityRouter) index() int {
	slot, _ := r.pool.Get().(*affinitySlot)
	idx := slot.idx
	r.pool.Put(slot)

	return idx
}
