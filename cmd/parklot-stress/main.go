// Command parklot-stress drives a handful of concurrency scenarios
// against real goroutines, for manual and CI soak runs. It is tooling
// around the library, not part of its public surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/cmarsters/parklot"
)

func main() {
	var (
		scenario = flag.String("scenario", "mutual-exclusion", "scenario to run: mutual-exclusion, rehash-under-load, ping-pong")
		duration = flag.Duration("duration", 10*time.Second, "how long to run the scenario")
		workers  = flag.Int("workers", 64, "number of steady-state goroutines")
		spawners = flag.Int("spawners", 64, "number of spawning/parking/exiting goroutines")
		rateHz   = flag.Float64("rate", 2000, "max lock/unlock cycles per second across all workers, via golang.org/x/time/rate")
	)
	flag.Parse()

	switch *scenario {
	case "mutual-exclusion":
		runMutualExclusion(*workers, *duration, *rateHz)
	case "rehash-under-load":
		runRehashUnderLoad(*workers, *spawners, *duration)
	case "ping-pong":
		runPingPong(*duration)
	default:
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *scenario)
		os.Exit(2)
	}
}

// runMutualExclusion runs N goroutines incrementing a shared counter
// protected by a ByteLock; the final value must equal the sum of
// increments.
func runMutualExclusion(workers int, duration time.Duration, rateHz float64) {
	var lock parklot.ByteLock
	var counter int64
	var increments atomic.Int64

	limiter := rate.NewLimiter(rate.Limit(rateHz), 1)
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer parklot.Release()
			for ctx.Err() == nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				lock.Lock()
				counter++
				lock.Unlock()
				increments.Add(1)
			}
		}()
	}
	wg.Wait()

	if counter != increments.Load() {
		fmt.Fprintf(os.Stderr, "FAIL: counter=%d increments=%d\n", counter, increments.Load())
		os.Exit(1)
	}
	fmt.Printf("OK: %d increments, mutual exclusion held\n", counter)
}

// runRehashUnderLoad runs a fixed pool of steady-state workers plus a
// churn of goroutines that spawn, contend, and exit, sharing a small
// pool of locks so contention (and parking) actually happens, driving
// the parking lot's hashtable to grow. A semaphore bounds how many
// spawners are in flight at once so the driver itself doesn't become
// the bottleneck under -spawners set very high.
func runRehashUnderLoad(workers, spawners int, duration time.Duration) {
	poolSize := workers / 4
	if poolSize < 1 {
		poolSize = 1
	}
	locks := make([]parklot.ByteLock, poolSize)
	var nextLock atomic.Uint64

	sem := semaphore.NewWeighted(int64(spawners))

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		lock := &locks[i%poolSize]
		go func() {
			defer wg.Done()
			defer parklot.Release()
			for ctx.Err() == nil {
				lock.Lock()
				time.Sleep(time.Millisecond)
				lock.Unlock()
			}
		}()
	}

	for ctx.Err() == nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		lock := &locks[nextLock.Add(1)%uint64(poolSize)]
		go func() {
			defer sem.Release(1)
			defer parklot.Release()
			lock.Lock()
			time.Sleep(time.Millisecond)
			lock.Unlock()
		}()
	}

	wg.Wait()
	fmt.Printf("OK: rehashes observed=%d\n", parklot.RehashesTotal())
}

// runPingPong runs two goroutines handing a token back and forth
// through a ByteLock-guarded flag; neither side should ever spin
// forever waiting on the other.
func runPingPong(duration time.Duration) {
	var lock parklot.ByteLock
	var turn atomic.Int32 // 0 = A's turn, 1 = B's turn

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	var rounds atomic.Int64

	play := func(me, other int32) {
		defer wg.Done()
		defer parklot.Release()
		for ctx.Err() == nil {
			lock.Lock()
			if turn.Load() == me {
				turn.Store(other)
				rounds.Add(1)
			}
			lock.Unlock()
		}
	}

	wg.Add(2)
	go play(0, 1)
	go play(1, 0)
	wg.Wait()

	slog.Info("ping-pong complete", "rounds", rounds.Load())
	fmt.Printf("OK: %d rounds exchanged\n", rounds.Load())
}
