package allocator

import "unsafe"

// allocateLarge reserves size+ptrSize bytes, writes a nil back-pointer at
// the head, and returns base+ptrSize. The nil
// back-pointer is what lets free's fast path discriminate a large
// allocation from a size-classed one in a single read.
//
// The backing slice is tracked in largeAllocs (keyed by its base address)
// because freeLarge only ever sees a bare unsafe.Pointer and Go needs the
// original slice header, not just an address, to let the arena reclaim it.
func (h *hoard) allocateLarge(size uintptr) unsafe.Pointer {
	mem, err := h.cfg.Arena.Reserve(size + ptrSize)
	if err != nil {
		recordError(err)

		return nil
	}

	base := unsafe.Pointer(&mem[0])
	writeBackpointer(base, nil)

	h.largeMu.Lock()
	h.largeAllocs[base] = mem
	h.largeMu.Unlock()

	return unsafe.Pointer(uintptr(base) + ptrSize)
}

// freeLarge releases p's backing slice. No heap is touched.
func (h *hoard) freeLarge(p unsafe.Pointer) {
	base := unsafe.Pointer(uintptr(p) - ptrSize)

	h.largeMu.Lock()
	mem, ok := h.largeAllocs[base]
	delete(h.largeAllocs, base)
	h.largeMu.Unlock()

	if ok {
		_ = h.cfg.Arena.Release(mem)
	}
}
