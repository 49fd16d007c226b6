// Command benchmark compares buddy allocation/free throughput against
// the Go runtime's own allocator, in the shape of the teacher's own
// flag-driven benchmark program.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/xgzlucario/buddy"
)

var (
	entries   = flag.Int("entries", 1_000_000, "number of allocate/free cycles")
	blockSize = flag.Int("size", 64, "size in bytes requested per allocation")
	memory    = flag.Uint64("memory", 256<<20, "arena size in bytes")
)

func main() {
	flag.Parse()

	fmt.Printf("benchmark: entries=%d size=%d memory=%d\n", *entries, *blockSize, *memory)

	runBuddy(*entries, *blockSize, *memory)
	runRuntime(*entries, *blockSize)
}

func runBuddy(entries, size int, memory uint64) {
	arena := make([]byte, memory)
	alloc, err := buddy.Embed(arena, buddy.DefaultAlignment)
	if err != nil {
		panic(err)
	}

	var m0, m1 runtime.MemStats
	runtime.ReadMemStats(&m0)
	start := time.Now()

	for i := 0; i < entries; i++ {
		block, err := alloc.Allocate(size)
		if err != nil {
			alloc = mustReset(memory)
			continue
		}
		alloc.Free(block)
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m1)
	fmt.Printf("buddy:   %v (%.0f ops/sec), heap delta %d bytes\n",
		elapsed, float64(entries)/elapsed.Seconds(), int64(m1.HeapAlloc)-int64(m0.HeapAlloc))
}

func mustReset(memory uint64) *buddy.Allocator {
	arena := make([]byte, memory)
	alloc, err := buddy.Embed(arena, buddy.DefaultAlignment)
	if err != nil {
		panic(err)
	}
	return alloc
}

func runRuntime(entries, size int) {
	var m0, m1 runtime.MemStats
	runtime.ReadMemStats(&m0)
	start := time.Now()

	for i := 0; i < entries; i++ {
		_ = make([]byte, size)
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m1)
	fmt.Printf("runtime: %v (%.0f ops/sec), heap delta %d bytes\n",
		elapsed, float64(entries)/elapsed.Seconds(), int64(m1.HeapAlloc)-int64(m0.HeapAlloc))
}
