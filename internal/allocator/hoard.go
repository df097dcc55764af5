package allocator

import (
	"sync"
	"unsafe"
)

// hoard is the top-level allocator: it owns the global heap and M local
// heaps (locals[0] through locals[M-1]), routes a goroutine to a local heap, and implements the
// local/global ownership protocol plus the large-allocation passthrough.
type hoard struct {
	cfg        Config
	classSizes []uintptr // index i -> block size 2^i
	global     *heap
	locals     []*heap
	affinity   *affinityRouter

	largeMu     sync.Mutex
	largeAllocs map[unsafe.Pointer][]byte // base (pre-back-pointer) -> backing slice
}

func newHoard(cfg Config) *hoard {
	classes := sizeClasses(cfg.SuperblockSize)

	h := &hoard{
		cfg:         cfg,
		classSizes:  classes,
		global:      newHeap(true, len(classes), cfg.SuperblockSize),
		locals:      make([]*heap, cfg.LocalHeaps),
		affinity:    newAffinityRouter(cfg.LocalHeaps),
		largeAllocs: make(map[unsafe.Pointer][]byte),
	}

	for i := range h.locals {
		h.locals[i] = newHeap(false, len(classes), cfg.SuperblockSize)
	}

	return h
}

// localHeap picks this goroutine's affine local heap.
func (h *hoard) localHeap() *heap {
	return h.locals[h.affinity.index()]
}

// alloc serves size bytes, routing large requests to the arena directly
// and everything else through the caller's local heap.
func (h *hoard) alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		// alloc(0) returns a unique, freeable pointer rather than nil, by
		// rounding to the smallest size class like a 1-byte request (see
		// DESIGN.md).
		size = 1
	}

	if isLarge(size, h.cfg.SuperblockSize) {
		return h.allocateLarge(size)
	}

	blockSize, classLog2 := ceilLog2Size(size)
	lh := h.localHeap()

	lh.mu.Lock()

	if p, _ := lh.allocate(classLog2, blockSize); p != nil {
		lh.mu.Unlock()

		return p
	}

	// Still holding lh.mu: the lock-ordering rule is (local, global),
	// never the reverse.
	h.global.mu.Lock()
	s := h.global.releaseSuperblock(classLog2)

	if s != nil {
		// Publish lh as the new owner before dropping the global lock, so a
		// free that locked the global heap re-reads s.owner and follows it.
		p := s.getBlock()
		lh.acquireSuperblock(s)
		h.global.mu.Unlock()
		lh.mu.Unlock()

		return p
	}

	h.global.mu.Unlock()

	if s == nil {
		var err error

		s, err = newSuperblock(classLog2, blockSize, h.cfg.SuperblockSize, h.cfg.Arena)
		if err != nil {
			lh.mu.Unlock()
			recordError(err)

			return nil
		}
	}

	// Pull one block before installing, so acquireSuperblock's
	// h.used += s.used already reflects the outstanding block.
	p := s.getBlock()
	lh.acquireSuperblock(s)
	lh.mu.Unlock()

	return p
}

// free reclaims p, routing it back to whichever heap currently owns its
// superblock, or to the arena directly for a large allocation.
func (h *hoard) free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	s := backpointer(p)
	if s == nil {
		h.freeLarge(p)

		return
	}

	// Re-read owner under its own lock until the read is stable: between
	// loading s.owner and acquiring its lock, another goroutine may have
	// migrated s elsewhere.
	var lh *heap

	for {
		lh = s.owner.Load()
		lh.mu.Lock()

		if s.owner.Load() == lh {
			break
		}

		lh.mu.Unlock()
	}

	lh.free(p, s)

	if lh.isGlobal {
		lh.mu.Unlock()

		return
	}

	// Emptiness heuristic: more than one full superblock's
	// worth of free space AND below 75% utilization.
	if lh.used < lh.allocated-h.cfg.SuperblockSize && 4*lh.used < 3*lh.allocated {
		h.global.mu.Lock()

		if released := lh.releaseAnySuperblock(); released != nil {
			h.global.acquireSuperblock(released)
		}

		h.global.mu.Unlock()
	}

	lh.mu.Unlock()
}

// Stats snapshots the allocator's aggregate counters across every heap.
func (h *hoard) Stats() AllocatorStats {
	var stats AllocatorStats

	stats.GlobalUsed, stats.GlobalAllocated = h.global.stats()

	for _, lh := range h.locals {
		used, allocated := lh.stats()
		stats.LocalUsed += used
		stats.LocalAllocated += allocated
	}

	h.largeMu.Lock()
	stats.LargeAllocationsLive = len(h.largeAllocs)

	for _, mem := range h.largeAllocs {
		stats.LargeBytesInUse += uintptr(len(mem)) - ptrSize
	}

	h.largeMu.Unlock()

	total := stats.GlobalAllocated + stats.LocalAllocated
	stats.SuperblocksLive = int(total / h.cfg.SuperblockSize)

	return stats
}
