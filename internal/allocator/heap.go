package allocator

import (
	"sync"
	"unsafe"
)

// sbList is the doubly-linked list of superblocks occupying one size-class
// bucket of a heap.
type sbList struct {
	head, tail *superblock
}

func (l *sbList) pushFront(s *superblock) {
	s.prev = nil
	s.nextSB = l.head

	if l.head != nil {
		l.head.prev = s
	}

	l.head = s
	if l.tail == nil {
		l.tail = s
	}
}

func (l *sbList) remove(s *superblock) {
	if s.prev != nil {
		s.prev.nextSB = s.nextSB
	} else {
		l.head = s.nextSB
	}

	if s.nextSB != nil {
		s.nextSB.prev = s.prev
	} else {
		l.tail = s.prev
	}

	s.prev = nil
	s.nextSB = nil
}

// firstNonFull returns the first superblock in the list with a free block,
// or nil. Pushing at the head on acquire and scanning from the head keeps
// recently-touched (likely cache-warm) superblocks in front.
func (l *sbList) firstNonFull() *superblock {
	for s := l.head; s != nil; s = s.nextSB {
		if !s.isFull() {
			return s
		}
	}

	return nil
}

// heap owns a collection of superblocks, one bucket per size class. The
// heap with isGlobal set is its allocator's global heap; the rest are local
// heaps. All bucket, counter, and superblock list-pointer state is
// protected by mu; a superblock's owner field is the only state readable
// without holding it.
type heap struct {
	mu        sync.Mutex
	buckets   []sbList
	allocated uintptr
	used      uintptr
	isGlobal  bool
	sb        uintptr // superblock size, for allocated-byte bookkeeping
}

func newHeap(isGlobal bool, numClasses int, sb uintptr) *heap {
	return &heap{
		buckets:  make([]sbList, numClasses),
		isGlobal: isGlobal,
		sb:       sb,
	}
}

// allocate serves one block from the first non-full superblock in
// classLog2's bucket, or returns (nil, nil) if none exists. Caller holds
// h.mu.
func (h *heap) allocate(classLog2 uint8, blockSize uintptr) (unsafe.Pointer, *superblock) {
	s := h.buckets[classLog2].firstNonFull()
	if s == nil {
		return nil, nil
	}

	p := s.getBlock()
	h.used += blockSize

	return p, s
}

// free returns p to s and decrements h.used. Caller holds h.mu and must
// have verified s.owner == h.
func (h *heap) free(p unsafe.Pointer, s *superblock) {
	s.freeBlock(p)
	h.used -= s.blockSize
}

// releaseSuperblock unlinks and returns the first non-full superblock in
// classLog2's bucket, adjusting counters; it does not clear s.owner.
func (h *heap) releaseSuperblock(classLog2 uint8) *superblock {
	s := h.buckets[classLog2].firstNonFull()
	if s == nil {
		return nil
	}

	h.buckets[classLog2].remove(s)
	h.allocated -= h.sb
	h.used -= s.used

	return s
}

// releaseAnySuperblock is the class-agnostic form, scanning every bucket
// for any non-full superblock.
func (h *heap) releaseAnySuperblock() *superblock {
	for class := range h.buckets {
		if s := h.buckets[class].firstNonFull(); s != nil {
			h.buckets[class].remove(s)
			h.allocated -= h.sb
			h.used -= s.used

			return s
		}
	}

	return nil
}

// acquireSuperblock installs s as owned by h: sets s.owner, pushes it at
// the head of its class bucket, and folds its counters into h's.
func (h *heap) acquireSuperblock(s *superblock) {
	s.owner.Store(h)
	h.buckets[s.classLog2].pushFront(s)
	h.allocated += h.sb
	h.used += s.used
}

// stats returns the heap's current used/allocated byte counts.
func (h *heap) stats() (usedBytes, allocatedBytes uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.used, h.allocated
}
