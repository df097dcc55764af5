package allocator

import (
	"runtime"

	allocerrors "github.com/gohoard/hoard/internal/errors"
)

// DefaultSuperblockSize is the reference superblock size from the source
// design: 32 KiB.
const DefaultSuperblockSize uintptr = 1 << 15

// Config holds the construction-time tunables for a hoard allocator.
//
// Mirrors the functional-options Config/Option pattern used throughout this
// codebase: a zero-value-safe struct built up by Option functions and
// finalized once at construction.
type Config struct {
	SuperblockSize uintptr
	LocalHeaps     int
	Arena          Arena
}

// Option configures a Config.
type Option func(*Config)

// WithSuperblockSize overrides the superblock size (SB). Must be a power of
// two; invalid values are corrected to the default by validateConfig.
func WithSuperblockSize(sb uintptr) Option {
	return func(c *Config) { c.SuperblockSize = sb }
}

// WithLocalHeaps overrides the number of local heaps (M). Must be >= 1.
func WithLocalHeaps(m int) Option {
	return func(c *Config) { c.LocalHeaps = m }
}

// WithArena overrides the backing allocator used for superblocks and large
// allocations.
func WithArena(a Arena) Option {
	return func(c *Config) { c.Arena = a }
}

func defaultConfig() *Config {
	return &Config{
		SuperblockSize: DefaultSuperblockSize,
		LocalHeaps:     defaultLocalHeaps(),
		Arena:          defaultArena(),
	}
}

func defaultLocalHeaps() int {
	m := 2 * runtime.NumCPU()
	if m < 1 {
		m = 1
	}

	return m
}

// validateConfig corrects and validates a Config in place, returning the
// error (if any) for the first tunable it had to repair. The allocator is
// always left in a usable state: an invalid SuperblockSize or LocalHeaps
// falls back to the default rather than propagating a half-initialized
// allocator.
func validateConfig(c *Config) error {
	var firstErr error

	if c.SuperblockSize == 0 || !isPowerOfTwo(c.SuperblockSize) {
		if firstErr == nil {
			firstErr = allocerrors.InvalidConfig("SuperblockSize", c.SuperblockSize)
		}

		c.SuperblockSize = DefaultSuperblockSize
	}

	if c.LocalHeaps < 1 {
		if firstErr == nil {
			firstErr = allocerrors.InvalidConfig("LocalHeaps", uintptr(c.LocalHeaps))
		}

		c.LocalHeaps = defaultLocalHeaps()
	}

	if c.Arena == nil {
		c.Arena = defaultArena()
	}

	return firstErr
}

func isPowerOfTwo(v uintptr) bool {
	return v != 0 && v&(v-1) == 0
}
