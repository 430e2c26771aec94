package parklot

import "sync/atomic"

// Tunables. Defaults match the constants named in the design: a few tens
// of spin iterations for both adaptive mutexes, and a load/growth factor
// of 3/2 for the parking lot's hashtable, matching
// original_source's maxLoadFactor/growthFactor. Exposed the way the
// teacher exposes its own tunables — functional setters over
// package-level atomics (compare mapof.go's WithPresize/WithKeyHasher
// options) — rather than compile-time constants, so a long-running
// process can retune without a rebuild.
var (
	wordLockSpins atomic.Int64
	byteLockSpins atomic.Int64
	maxLoadFactor atomic.Uint32
	growthFactor  atomic.Uint32
)

func init() {
	wordLockSpins.Store(40)
	byteLockSpins.Store(40)
	maxLoadFactor.Store(3)
	growthFactor.Store(2)
}

// SetWordLockSpinLimit sets how many bounded spin iterations the Word
// Lock slow path attempts before trying to acquire the queue bit.
func SetWordLockSpinLimit(n int) {
	wordLockSpins.Store(int64(n))
}

// SetByteLockSpinLimit sets how many bounded spin iterations the Byte
// Lock slow path attempts before setting the has-parked bit.
func SetByteLockSpinLimit(n int) {
	byteLockSpins.Store(int64(n))
}

// SetMaxLoadFactor sets the hashtable.size/threadCount ratio below which
// the parking lot rehashes into a larger spine. Must be >= 1.
func SetMaxLoadFactor(n uint32) {
	if n < 1 {
		n = 1
	}
	maxLoadFactor.Store(n)
}

// SetGrowthFactor sets the multiplier applied to threadCount*maxLoadFactor
// when sizing a new spine.
func SetGrowthFactor(n uint32) {
	if n < 1 {
		n = 1
	}
	growthFactor.Store(n)
}

func wordLockSpinLimit() int { return int(wordLockSpins.Load()) }
func byteLockSpinLimit() int { return int(byteLockSpins.Load()) }
func loadFactor() uint32     { return maxLoadFactor.Load() }
func growthFactorVal() uint32 { return growthFactor.Load() }
