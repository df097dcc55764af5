// Package allocator implements a Hoard-style concurrent memory allocator:
// size-classed superblocks served by per-goroutine-affinity local heaps,
// with a global heap absorbing mostly-empty superblocks so memory migrates
// between goroutines without unbounded growth.
package allocator

import (
	"sync"
	"unsafe"
)

var (
	instance     *hoard
	instanceOnce sync.Once

	configMu       sync.Mutex
	pendingOptions []Option

	lastErrMu sync.Mutex
	lastErr   error
)

// Configure appends options to apply the first time the global allocator is
// constructed. Calling it after the first Alloc/Free/Stats has no effect —
// the instance is already built.
func Configure(opts ...Option) {
	configMu.Lock()
	pendingOptions = append(pendingOptions, opts...)
	configMu.Unlock()
}

func ensureInstance() *hoard {
	instanceOnce.Do(func() {
		configMu.Lock()
		opts := pendingOptions
		configMu.Unlock()

		cfg := defaultConfig()
		for _, opt := range opts {
			opt(cfg)
		}

		if err := validateConfig(cfg); err != nil {
			recordError(err)
		}

		instance = newHoard(*cfg)
	})

	return instance
}

func recordError(err error) {
	lastErrMu.Lock()
	lastErr = err
	lastErrMu.Unlock()
}

// LastError returns the most recent out-of-memory or configuration error
// the allocator recorded, or nil. alloc's public contract is a best-effort
// nil return (Alloc(0) still returns a non-nil pointer); LastError lets a
// caller see why the backing arena could not serve a request without
// changing that contract.
func LastError() error {
	lastErrMu.Lock()
	defer lastErrMu.Unlock()

	return lastErr
}

// Alloc serves size bytes from the global allocator instance, lazily
// constructing it on first use.
func Alloc(size uintptr) unsafe.Pointer {
	return ensureInstance().alloc(size)
}

// Free returns ptr to the global allocator instance. free(nil) is a no-op;
// passing a pointer not previously returned by Alloc is undefined behavior.
func Free(ptr unsafe.Pointer) {
	ensureInstance().free(ptr)
}

// Stats snapshots the global allocator instance's memory accounting.
func Stats() AllocatorStats {
	return ensureInstance().Stats()
}
