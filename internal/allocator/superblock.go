package allocator

import (
	"sync/atomic"
	"unsafe"
)

// sentinelIndex marks the end of a superblock's free-list; a freeHead equal
// to it means no block is free.
const sentinelIndex uint32 = 1<<32 - 1

// superblock is a fixed-size (SB) memory region subdivided into n blocks of
// one size class, with a free-list of slot indices kept outside the slot
// region and a back-pointer ahead of every block.
//
// All mutable fields except owner are protected by the mutex of whichever
// heap currently owns the superblock; owner itself is a single
// atomic word so free's fast path can read it without taking any lock.
type superblock struct {
	classLog2 uint8
	blockSize uintptr
	n         uint32
	used      uintptr
	freeHead  uint32
	next      []uint32 // free-list links, externalized from the slot region
	owner     atomic.Pointer[heap]
	prev      *superblock // intrusive list pointers inside the owner's bucket
	nextSB    *superblock
	mem       []byte  // backing store: n slots of (ptrSize + blockSize) bytes
	slotBase  uintptr // uintptr(&mem[0]), cached for slot arithmetic
}

func (s *superblock) stride() uintptr {
	return ptrSize + s.blockSize
}

// newSuperblock reserves a region from arena sized to hold sb/blockSize
// blocks of blockSize each, writes the back-pointer into every slot, and
// chains the free-list head to tail.
func newSuperblock(classLog2 uint8, blockSize, sb uintptr, arena Arena) (*superblock, error) {
	n := uint32(sb / blockSize)

	s := &superblock{
		classLog2: classLog2,
		blockSize: blockSize,
		n:         n,
		freeHead:  sentinelIndex,
	}

	mem, err := arena.Reserve(uintptr(n) * s.stride())
	if err != nil {
		return nil, err
	}

	s.mem = mem
	s.slotBase = uintptr(unsafe.Pointer(&mem[0]))
	s.next = make([]uint32, n)

	stride := s.stride()
	for i := uint32(0); i < n; i++ {
		if i == n-1 {
			s.next[i] = sentinelIndex
		} else {
			s.next[i] = i + 1
		}

		slot := unsafe.Pointer(s.slotBase + uintptr(i)*stride)
		*(**superblock)(slot) = s
	}

	s.freeHead = 0

	return s, nil
}

// isFull reports that no block is free; getBlock must not be called.
func (s *superblock) isFull() bool {
	return s.freeHead == sentinelIndex
}

// getBlock hands out the block at free_head and advances the free-list.
// Precondition: !s.isFull(). O(1).
func (s *superblock) getBlock() unsafe.Pointer {
	i := s.freeHead
	addr := s.slotBase + uintptr(i)*s.stride() + ptrSize
	s.freeHead = s.next[i]
	s.used += s.blockSize

	return unsafe.Pointer(addr)
}

// slotIndex recovers the slot index of a user address previously returned
// by getBlock, or ok=false if p does not fall on a slot boundary owned by
// this superblock.
func (s *superblock) slotIndex(p unsafe.Pointer) (idx uint32, ok bool) {
	addr := uintptr(p)
	if addr < s.slotBase+ptrSize {
		return 0, false
	}

	rel := addr - ptrSize - s.slotBase
	stride := s.stride()

	if rel%stride != 0 {
		return 0, false
	}

	i := rel / stride
	if i >= uintptr(s.n) {
		return 0, false
	}

	return uint32(i), true
}

// freeBlock returns the block at p to the free-list. O(1). Does not guard
// against a double-free; the caller must not pass the same p twice.
func (s *superblock) freeBlock(p unsafe.Pointer) {
	i, _ := s.slotIndex(p)
	s.next[i] = s.freeHead
	s.freeHead = i
	s.used -= s.blockSize
}

// backpointer reads the owner superblock stored ahead of a user address, or
// nil for a large allocation — this is what lets free tell the two paths
// apart in a single read.
func backpointer(p unsafe.Pointer) *superblock {
	slot := unsafe.Pointer(uintptr(p) - ptrSize)

	return *(**superblock)(slot)
}

// writeBackpointer stashes s (possibly nil, for a large allocation) ahead
// of the user address at base+ptrSize.
func writeBackpointer(base unsafe.Pointer, s *superblock) {
	*(**superblock)(base) = s
}
