// Command poolsim launches N goroutines against a single pool.Pool to
// demonstrate that the external-mutex contract (§5: the engine itself
// is non-reentrant, safety is the collaborator's job) holds up under
// real contention, using conc.WaitGroup the way the teacher's own
// concurrency demos fan out workers.
package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/sourcegraph/conc"
	"github.com/xgzlucario/buddy/pool"
)

var (
	workers = flag.Int("workers", 32, "concurrent goroutines hammering the pool")
	rounds  = flag.Int("rounds", 10_000, "allocate/free cycles per goroutine")
)

func main() {
	flag.Parse()

	p, err := pool.New(pool.Options{
		MemorySize: 64 << 20,
		Alignment:  pool.DefaultOptions.Alignment,
		Round: func(size int) int {
			if size < 16 {
				return 16
			}
			return size
		},
	})
	if err != nil {
		panic(err)
	}

	var wg conc.WaitGroup
	for w := 0; w < *workers; w++ {
		w := w
		wg.Go(func() {
			r := rand.New(rand.NewSource(int64(w)))
			var held [][]byte
			for i := 0; i < *rounds; i++ {
				size := r.Intn(4096) + 1
				block, err := p.Allocate(size)
				if err != nil {
					continue
				}
				held = append(held, block)
				if len(held) > 8 {
					p.Free(held[0])
					held = held[1:]
				}
			}
			for _, block := range held {
				p.Free(block)
			}
		})
	}
	wg.Wait()

	st, calls := p.Stat()
	fmt.Printf("workers=%d rounds=%d occupancy=%.2f%% fragmentation=%d\n",
		*workers, *rounds, st.OccupancyRate()*100, p.Fragmentation())
	fmt.Printf("calls: allocations=%d frees=%d reallocations=%d failures=%d\n",
		calls.Allocations, calls.Frees, calls.Reallocations, calls.Failures)
}
