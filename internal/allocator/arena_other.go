//go:build !unix

package allocator

// defaultArena falls back to the portable slice-backed arena on platforms
// without an mmap/munmap pair.
func defaultArena() Arena {
	return sliceArena{}
}
