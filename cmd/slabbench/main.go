package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/fmstephe/slabstore/slab"
	"go.uber.org/zap"
)

var (
	workersFlag = flag.Int("workers", 4, "Number of concurrent workers")
	roundsFlag  = flag.Int("rounds", 10, "Rounds performed by each worker")
	itersFlag   = flag.Int("iters", 100, "Alloc/free pairs per payload type per round")
	verboseFlag = flag.Bool("verbose", false, "Log each block acquisition")
)

// Four payload sizes spread across the small size classes
type p1 struct {
	id [1]int32
}

type p2 struct {
	id [5]int32
}

type p3 struct {
	id [10]int32
}

type p4 struct {
	id [20]int32
}

func main() {
	flag.Parse()

	var log *zap.Logger
	if *verboseFlag {
		log, _ = zap.NewDevelopment()
		defer log.Sync()
	}

	store := slab.NewLogged(slab.DefaultBlockSize, log)
	defer store.Destroy()

	poolElapsed := run(func() {
		a := slab.AllocObject[p1](store)
		slab.FreeObject(store, a)
		b := slab.AllocObject[p2](store)
		slab.FreeObject(store, b)
		c := slab.AllocObject[p3](store)
		slab.FreeObject(store, c)
		d := slab.AllocObject[p4](store)
		slab.FreeObject(store, d)
	})
	fmt.Printf("%d workers x %d rounds, %d alloc/free pairs per payload type per round: slab store took %v\n",
		*workersFlag, *roundsFlag, *itersFlag, poolElapsed)

	goElapsed := run(func() {
		a := new(p1)
		b := new(p2)
		c := new(p3)
		d := new(p4)
		_, _, _, _ = a, b, c, d
	})
	fmt.Printf("%d workers x %d rounds, %d alloc/free pairs per payload type per round: go allocator took %v\n",
		*workersFlag, *roundsFlag, *itersFlag, goElapsed)
}

func run(body func()) time.Duration {
	start := time.Now()

	complete := sync.WaitGroup{}
	for range *workersFlag {
		complete.Add(1)
		go func() {
			defer complete.Done()
			for range *roundsFlag {
				for range *itersFlag {
					body()
				}
			}
		}()
	}
	complete.Wait()

	return time.Since(start)
}
