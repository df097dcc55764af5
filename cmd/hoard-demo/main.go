// Demo driver for the hoard allocator: exercises allocation, freeing, the
// large-allocation path, and concurrent fan-out across goroutines.
package main

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gohoard/hoard/internal/allocator"
)

func main() {
	fmt.Println("=== Hoard Allocator Demo ===")

	fmt.Println("\n1. Configuring the global allocator...")
	allocator.Configure(
		allocator.WithSuperblockSize(1<<16),
		allocator.WithLocalHeaps(4),
	)
	fmt.Println("✓ configuration queued")

	fmt.Println("\n2. Small, size-classed allocations...")
	start := time.Now()

	var ptrs []unsafe.Pointer

	for i := 0; i < 1000; i++ {
		size := uintptr(16 + i%512)

		p := allocator.Alloc(size)
		if p == nil {
			panic(fmt.Sprintf("alloc %d failed: %v", i, allocator.LastError()))
		}

		ptrs = append(ptrs, p)
	}

	allocTime := time.Since(start)
	fmt.Printf("✓ 1000 allocations completed in %v (avg: %v per allocation)\n",
		allocTime, allocTime/1000)

	fmt.Println("\n3. Freeing everything back...")
	for _, p := range ptrs {
		allocator.Free(p)
	}
	fmt.Println("✓ all 1000 blocks freed")

	stats := allocator.Stats()
	fmt.Printf("✓ live bytes after freeing: %d\n", stats.BytesInUse())

	fmt.Println("\n4. Large allocation bypassing the size-classed path...")
	large := allocator.Alloc(1 << 20)
	if large == nil {
		panic("large allocation failed")
	}
	fmt.Println("✓ reserved 1 MiB directly from the backing arena")
	allocator.Free(large)
	fmt.Println("✓ large allocation released")

	fmt.Println("\n5. Concurrent workload across goroutines...")

	const workers = 16
	const perWorker = 2000

	var wg sync.WaitGroup

	start = time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			for i := 0; i < perWorker; i++ {
				size := uintptr(8 + (id+i)%256)

				p := allocator.Alloc(size)
				if p == nil {
					panic(fmt.Sprintf("worker %d: alloc %d failed", id, i))
				}

				allocator.Free(p)
			}
		}(w)
	}

	wg.Wait()

	concurrentTime := time.Since(start)
	total := workers * perWorker
	fmt.Printf("✓ %d concurrent alloc/free pairs completed in %v (avg: %v per pair)\n",
		total, concurrentTime, concurrentTime/time.Duration(total))

	final := allocator.Stats()
	fmt.Printf("\n=== Final accounting: %d bytes in use, %d bytes reserved, %d superblocks live ===\n",
		final.BytesInUse(), final.BytesReserved(), final.SuperblocksLive)
}
