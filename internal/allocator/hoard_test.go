package allocator

import (
	"testing"
	"unsafe"
)

func testConfig(sbSize uintptr, localHeaps int) Config {
	return Config{
		SuperblockSize: sbSize,
		LocalHeaps:     localHeaps,
		Arena:          sliceArena{},
	}
}

func TestHoardAllocFreeRoundTrip(t *testing.T) {
	h := newHoard(testConfig(DefaultSuperblockSize, 1))

	p := h.alloc(40)
	if p == nil {
		t.Fatal("alloc(40) returned nil")
	}

	// The returned block must be writable for its full rounded size.
	buf := (*[64]byte)(p)
	for i := range buf {
		buf[i] = 0xAB
	}

	h.free(p)

	stats := h.Stats()
	if stats.LocalUsed != 0 {
		t.Fatalf("LocalUsed after free = %d, want 0", stats.LocalUsed)
	}
}

func TestHoardAllocZeroReturnsFreeablePointer(t *testing.T) {
	h := newHoard(testConfig(DefaultSuperblockSize, 1))

	p := h.alloc(0)
	if p == nil {
		t.Fatal("alloc(0) must return a non-nil, freeable pointer")
	}

	h.free(p)
}

func TestHoardLargeAllocationBypassesHeaps(t *testing.T) {
	const sb = DefaultSuperblockSize

	h := newHoard(testConfig(sb, 1))

	size := sb // > SB/2, so it must take the large path

	p := h.alloc(size)
	if p == nil {
		t.Fatal("large alloc returned nil")
	}

	stats := h.Stats()
	if stats.LargeAllocationsLive != 1 {
		t.Fatalf("LargeAllocationsLive = %d, want 1", stats.LargeAllocationsLive)
	}

	if stats.LocalUsed != 0 || stats.GlobalUsed != 0 {
		t.Fatal("a large allocation must not touch any size-classed heap")
	}

	h.free(p)

	stats = h.Stats()
	if stats.LargeAllocationsLive != 0 {
		t.Fatalf("LargeAllocationsLive after free = %d, want 0", stats.LargeAllocationsLive)
	}
}

func TestHoardFreeDiscriminatesLargeFromSizeClassed(t *testing.T) {
	h := newHoard(testConfig(DefaultSuperblockSize, 1))

	small := h.alloc(16)
	large := h.alloc(DefaultSuperblockSize)

	if backpointer(large) != nil {
		t.Fatal("a large allocation's back-pointer must be nil")
	}

	if backpointer(small) == nil {
		t.Fatal("a size-classed allocation's back-pointer must name its superblock")
	}

	h.free(small)
	h.free(large)
}

func TestHoardEmptySuperblockMigratesToGlobal(t *testing.T) {
	const sb uintptr = 256 // small SB so a handful of allocs span multiple superblocks

	h := newHoard(testConfig(sb, 1))

	blockSize := uintptr(64) // n = 4 blocks per superblock

	var live []unsafe.Pointer

	for i := 0; i < 8; i++ {
		p := h.alloc(blockSize)
		if p == nil {
			t.Fatalf("alloc %d returned nil", i)
		}

		live = append(live, p)
	}

	statsBefore := h.Stats()
	if statsBefore.GlobalAllocated != 0 {
		t.Fatalf("global heap should own nothing yet, got %d bytes", statsBefore.GlobalAllocated)
	}

	for _, p := range live {
		h.free(p)
	}

	statsAfter := h.Stats()
	if statsAfter.GlobalAllocated == 0 {
		t.Fatal("emptying local superblocks should migrate at least one to the global heap")
	}

	if statsAfter.LocalUsed != 0 {
		t.Fatalf("LocalUsed after freeing everything = %d, want 0", statsAfter.LocalUsed)
	}
}

func TestHoardStatsAccountForEverySuperblock(t *testing.T) {
	const sb = DefaultSuperblockSize

	h := newHoard(testConfig(sb, 2))

	h.alloc(16)
	h.alloc(32)

	stats := h.Stats()

	total := stats.GlobalAllocated + stats.LocalAllocated
	if total == 0 {
		t.Fatal("allocating should reserve at least one superblock")
	}

	if stats.SuperblocksLive != int(total/sb) {
		t.Fatalf("SuperblocksLive = %d, want %d", stats.SuperblocksLive, int(total/sb))
	}
}
