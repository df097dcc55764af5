package allocator

// AllocatorStats is a point-in-time snapshot of the allocator's memory
// accounting across the global/local heap split and the large-allocation
// path.
type AllocatorStats struct {
	GlobalUsed      uintptr
	GlobalAllocated uintptr
	LocalUsed       uintptr
	LocalAllocated  uintptr

	SuperblocksLive int

	LargeAllocationsLive int
	LargeBytesInUse      uintptr
}

// BytesInUse is the total live payload across both the size-classed and
// large-allocation paths.
func (s AllocatorStats) BytesInUse() uintptr {
	return s.GlobalUsed + s.LocalUsed + s.LargeBytesInUse
}

// BytesReserved is the total backing memory the allocator currently holds,
// including the slack inside non-full superblocks.
func (s AllocatorStats) BytesReserved() uintptr {
	return s.GlobalAllocated + s.LocalAllocated + s.LargeBytesInUse
}
