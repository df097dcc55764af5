package allocator

import "testing"

func TestHeapAllocateAndFree(t *testing.T) {
	const sb = DefaultSuperblockSize

	classes := sizeClasses(sb)
	h := newHeap(false, len(classes), sb)

	blockSize, classLog2 := ceilLog2Size(32)

	s, err := newSuperblock(classLog2, blockSize, sb, sliceArena{})
	if err != nil {
		t.Fatalf("newSuperblock: %v", err)
	}

	h.acquireSuperblock(s)

	if got, want := h.allocated, sb; got != want {
		t.Fatalf("allocated = %d, want %d", got, want)
	}

	p, got := h.allocate(classLog2, blockSize)
	if p == nil || got != s {
		t.Fatalf("allocate returned (%v, %v), want a non-nil block from %p", p, got, s)
	}

	if h.used != blockSize {
		t.Fatalf("used = %d, want %d", h.used, blockSize)
	}

	h.free(p, s)

	if h.used != 0 {
		t.Fatalf("used after free = %d, want 0", h.used)
	}
}

func TestHeapReleaseSuperblockUnlinksFromBucket(t *testing.T) {
	const sb = DefaultSuperblockSize

	classes := sizeClasses(sb)
	h := newHeap(true, len(classes), sb)

	blockSize, classLog2 := ceilLog2Size(16)

	s, err := newSuperblock(classLog2, blockSize, sb, sliceArena{})
	if err != nil {
		t.Fatalf("newSuperblock: %v", err)
	}

	h.acquireSuperblock(s)

	released := h.releaseSuperblock(classLog2)
	if released != s {
		t.Fatalf("releaseSuperblock returned %p, want %p", released, s)
	}

	if h.allocated != 0 {
		t.Fatalf("allocated after release = %d, want 0", h.allocated)
	}

	// s must no longer be reachable from the bucket.
	if h.buckets[classLog2].firstNonFull() != nil {
		t.Fatal("bucket should be empty after releasing its only superblock")
	}

	// releaseSuperblock does not clear s.owner; the caller (hoard.alloc) is
	// responsible for calling acquireSuperblock on the new owner, which
	// overwrites it.
	if s.owner.Load() != h {
		t.Fatal("releaseSuperblock must not clear s.owner")
	}
}

func TestHeapReleaseAnySuperblockScansAllBuckets(t *testing.T) {
	const sb = DefaultSuperblockSize

	classes := sizeClasses(sb)
	h := newHeap(false, len(classes), sb)

	if h.releaseAnySuperblock() != nil {
		t.Fatal("releaseAnySuperblock on an empty heap must return nil")
	}

	blockSize, classLog2 := ceilLog2Size(128)

	s, err := newSuperblock(classLog2, blockSize, sb, sliceArena{})
	if err != nil {
		t.Fatalf("newSuperblock: %v", err)
	}

	h.acquireSuperblock(s)

	if got := h.releaseAnySuperblock(); got != s {
		t.Fatalf("releaseAnySuperblock returned %p, want %p", got, s)
	}
}

func TestSbListPushFrontOrdersMostRecentFirst(t *testing.T) {
	const sb = DefaultSuperblockSize

	blockSize, classLog2 := ceilLog2Size(8)

	var l sbList

	first, err := newSuperblock(classLog2, blockSize, sb, sliceArena{})
	if err != nil {
		t.Fatalf("newSuperblock: %v", err)
	}

	second, err := newSuperblock(classLog2, blockSize, sb, sliceArena{})
	if err != nil {
		t.Fatalf("newSuperblock: %v", err)
	}

	l.pushFront(first)
	l.pushFront(second)

	if l.head != second {
		t.Fatalf("head = %p, want most recently pushed %p", l.head, second)
	}

	if l.tail != first {
		t.Fatalf("tail = %p, want %p", l.tail, first)
	}

	l.remove(second)

	if l.head != first || l.tail != first {
		t.Fatal("removing head should leave the remaining element as both head and tail")
	}
}
