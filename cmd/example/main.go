// Command example is a small soak test exercising Embed, Allocate,
// Free, Stat, Fragmentation, Dump and DebugHeader end to end, in the
// shape of the teacher's own example program (a long-running loop
// printing periodic stats).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/xgzlucario/buddy"
)

func main() {
	arena := make([]byte, 1<<20)
	alloc, err := buddy.Embed(arena, buddy.DefaultAlignment)
	if err != nil {
		panic(err)
	}
	alloc.EnableLedger()
	alloc.EnableSizeSampling()

	var live [][]byte
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()

	start := time.Now()
	for time.Since(start) < 10*time.Second {
		size := 1 + int(time.Now().UnixNano()%4096)
		block, err := alloc.Allocate(size)
		if err == nil {
			live = append(live, block)
		}

		if len(live) > 64 {
			victim := live[0]
			live = live[1:]
			alloc.Free(victim)
		}

		select {
		case <-tick.C:
			st := alloc.Stat()
			fmt.Printf("occupancy=%.2f%% fragmentation=%d live=%d\n",
				st.OccupancyRate()*100, alloc.Fragmentation(), len(live))
		default:
		}
	}

	alloc.Dump(os.Stdout)
	if err := alloc.DebugHeader(os.Stdout); err != nil {
		panic(err)
	}
	fmt.Println()
}
