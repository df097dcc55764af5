//go:build unix

package allocator

import (
	"golang.org/x/sys/unix"

	allocerrors "github.com/gohoard/hoard/internal/errors"
)

// unixArena backs superblocks and large allocations with anonymous,
// page-granularity mmap regions via golang.org/x/sys/unix.
type unixArena struct{}

func defaultArena() Arena {
	return unixArena{}
}

func (unixArena) Reserve(size uintptr) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, allocerrors.OutOfMemory(size, "unixArena.Reserve")
	}

	return mem, nil
}

func (unixArena) Release(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}

	return unix.Munmap(mem)
}
