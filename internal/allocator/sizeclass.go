package allocator

import (
	"math/bits"
	"unsafe"
)

// ptrSize is sizeof(ptr) on this platform — the size of the back-pointer
// stored immediately ahead of every small-allocation block.
var ptrSize = unsafe.Sizeof(uintptr(0))

// sizeClasses lists, for a given superblock size, the powers of two
// {2^k : 2^k <= SB/2} a request may be rounded up into. Index i
// holds block size 2^i; classLog2 values are indices into this slice.
func sizeClasses(sb uintptr) []uintptr {
	max := sb / 2

	var classes []uintptr

	for size := uintptr(1); size <= max; size <<= 1 {
		classes = append(classes, size)
	}

	return classes
}

// ceilLog2Size rounds size up to the next power of two and returns it
// together with its class index (log2 of the rounded size). Callers must
// have already checked 2*size <= sb; ceilLog2Size does not itself enforce
// the large-allocation cutoff.
func ceilLog2Size(size uintptr) (rounded uintptr, classLog2 uint8) {
	if size <= 1 {
		return 1, 0
	}

	k := bits.Len64(uint64(size - 1))

	return 1 << k, uint8(k)
}

// isLarge reports whether size exceeds SB/2 and must bypass the size-classed
// path entirely.
func isLarge(size, sb uintptr) bool {
	return 2*size > sb
}
