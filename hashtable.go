package parklot

import (
	"sort"
	"sync/atomic"
	"unsafe"
)

// spine is one generation of the parking lot's hashtable: a
// fixed-size array of atomic bucket pointers. Spines only grow — the
// array itself is never freed, so a lock-free reader can load the
// current spine pointer and index into it without any reference
// counting, which is what lets lookups stay lock-free: once installed,
// a bucket's address never changes. Grounded on the teacher's own
// atomic-pointer table/spine pattern in flat_mapof.go and mapof.go,
// specialized from a generic K/V table to a fixed-shape bucket array.
type spine struct {
	size    uint32
	buckets []atomic.Pointer[bucket]
}

func newSpine(size uint32) *spine {
	if size < 1 {
		size = 1
	}
	return &spine{size: size, buckets: make([]atomic.Pointer[bucket], size)}
}

var (
	currentSpine atomic.Pointer[spine]
	// threadCount is the number of goroutines currently registered: one
	// for each ParkConditionally call between acquiring its threadRecord
	// and releasing it (spanning Parked, DidNotPark, and TimedOut
	// alike), not a cumulative count of every threadRecord ever
	// allocated. See registerThread/unregisterThread.
	threadCount     atomic.Uint32
	peakThreadCount atomic.Uint32
	spineInitMu     wordLock
)

// hashAddress mixes the pointer bits the way WTF::PtrHash does in the
// original ParkingLot.cpp — a fast fixed-point multiplicative hash,
// since the address is already a high-entropy pointer and doesn't need
// a cryptographic mix, just enough avalanche to spread across buckets.
func hashAddress(addr unsafe.Pointer) uint32 {
	x := uint64(uintptr(addr))
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return uint32(x) ^ uint32(x>>32)
}

// loadSpine returns the current spine, lazily creating the first one if
// the facility has never parked anything yet. Mirrors lockHashtable()'s
// "try to be the first to create the hashtable" CAS race in the
// original: losers discard their candidate spine and reload.
func loadSpine() *spine {
	s := currentSpine.Load()
	if s != nil {
		return s
	}
	candidate := newSpine(loadFactor())
	if currentSpine.CompareAndSwap(nil, candidate) {
		return candidate
	}
	return currentSpine.Load()
}

// getOrCreateBucket finds or lazily installs the bucket for addr in s,
// racing other callers with a CAS and discarding the loser's candidate —
// exactly the teacher's lazy-bucket-install race in flat_mapof.go's
// resize path and the original's enqueue()/lockHashtable() bucket
// materialization.
func getOrCreateBucket(s *spine, addr unsafe.Pointer) *bucket {
	idx := hashAddress(addr) % s.size
	slot := &s.buckets[idx]
	for {
		b := slot.Load()
		if b != nil {
			return b
		}
		candidate := &bucket{}
		if slot.CompareAndSwap(nil, candidate) {
			log().Debug("parklot: bucket created", "index", idx, "spineSize", s.size)
			return candidate
		}
	}
}

// lookupBucket finds the bucket for addr in s without creating one,
// returning nil if no bucket has ever been installed at that slot.
// unpark_one and unpark_all must never materialize a bucket just to
// find out nobody is waiting on it.
func lookupBucket(s *spine, addr unsafe.Pointer) *bucket {
	idx := hashAddress(addr) % s.size
	return s.buckets[idx].Load()
}

// materializeAllBuckets fills every nil slot in s with a freshly
// allocated bucket, so that locking every bucket in the spine has
// something to lock even in slots nobody has ever hashed into yet.
func materializeAllBuckets(s *spine) []*bucket {
	buckets := make([]*bucket, s.size)
	for i := range s.buckets {
		slot := &s.buckets[i]
		for {
			b := slot.Load()
			if b != nil {
				buckets[i] = b
				break
			}
			candidate := &bucket{}
			if slot.CompareAndSwap(nil, candidate) {
				buckets[i] = candidate
				break
			}
		}
	}
	return buckets
}

// lockAllBuckets locks every bucket of the current spine, in
// address-sorted order to prevent deadlock against any other caller
// doing the same, and reloops if the spine changed out from under it
// while buckets were being locked. Returns the spine that was actually
// locked and its buckets.
func lockAllBuckets() (*spine, []*bucket) {
	for {
		s := loadSpine()
		buckets := materializeAllBuckets(s)

		ordered := append([]*bucket(nil), buckets...)
		sort.Slice(ordered, func(i, j int) bool {
			return uintptr(unsafe.Pointer(ordered[i])) < uintptr(unsafe.Pointer(ordered[j]))
		})
		for _, b := range ordered {
			b.lock.Lock()
		}

		if currentSpine.Load() == s {
			return s, buckets
		}
		for _, b := range ordered {
			b.lock.Unlock()
		}
	}
}

func unlockAllBuckets(buckets []*bucket) {
	for _, b := range buckets {
		b.lock.Unlock()
	}
}

// registerThread accounts for one more concurrently-registered
// goroutine and checks the load factor against the high-water mark of
// threadCount ever observed, rehashing if that peak is getting
// crowded. Called from acquireThreadRecord on every park attempt, not
// just the first time a threadRecord is allocated: a sync.Pool's
// contents are swept roughly every GC cycle, so basing this on
// allocation events (as an earlier version of this package did) let a
// single goroutine parking only occasionally re-trigger registration
// indefinitely as its pooled record got evicted and reallocated,
// inflating threadCount without bound over a long-running process.
// Tracking current occupancy instead of cumulative allocations makes
// this immune to that churn: sync.Pool stays a pure allocation-reuse
// optimization, uninvolved in sizing the hashtable.
func registerThread() {
	n := threadCount.Add(1)
	for {
		peak := peakThreadCount.Load()
		if n <= peak {
			return
		}
		if peakThreadCount.CompareAndSwap(peak, n) {
			ensureHashtableSize(n)
			return
		}
	}
}

// unregisterThread reverses registerThread's bookkeeping once the
// matching park attempt completes. It never rehashes down — the spine
// only grows, per spine's own invariant — it just keeps threadCount
// reflecting current occupancy instead of drifting upward forever.
func unregisterThread() {
	for {
		cur := threadCount.Load()
		if cur == 0 {
			return
		}
		if threadCount.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// ensureHashtableSize rehashes the parking lot's hashtable so that
// size/threadCount stays at or above the configured load factor:
// lock every bucket, recheck under lock, drain every old bucket's FIFO
// preserving order, rehash into a larger spine, reusing old buckets
// where possible, publish, unlock. Mirrors original_source's own
// ensureHashtableSize.
func ensureHashtableSize(n uint32) {
	old := currentSpine.Load()
	if old != nil && old.size >= n*loadFactor() {
		return
	}

	spineInitMu.Lock()
	defer spineInitMu.Unlock()

	old, buckets := lockAllBuckets()
	defer unlockAllBuckets(buckets)

	if old.size >= n*loadFactor() {
		return
	}

	var drained []*threadRecord
	for _, b := range buckets {
		for {
			tr := b.dequeueFront()
			if tr == nil {
				break
			}
			drained = append(drained, tr)
		}
	}

	newSize := n * growthFactorVal() * loadFactor()
	if newSize <= old.size {
		newSize = old.size*2 + 1
	}
	next := newSpine(newSize)

	reusable := append([]*bucket(nil), buckets...)
	for _, tr := range drained {
		idx := hashAddress(tr.parkAddr()) % next.size
		slot := &next.buckets[idx]
		nb := slot.Load()
		if nb == nil {
			if len(reusable) > 0 {
				nb = reusable[len(reusable)-1]
				reusable = reusable[:len(reusable)-1]
				nb.head, nb.tail = nil, nil
			} else {
				nb = &bucket{}
			}
			slot.Store(nb)
		}
		nb.enqueue(tr)
	}

	// Slot leftover reusable buckets into empty positions so they're
	// not leaked.
	for i := uint32(0); i < next.size && len(reusable) > 0; i++ {
		slot := &next.buckets[i]
		if slot.Load() != nil {
			continue
		}
		b := reusable[len(reusable)-1]
		reusable = reusable[:len(reusable)-1]
		b.head, b.tail = nil, nil
		slot.Store(b)
	}

	currentSpine.Store(next)
	rehashesTotal.Add(1)
	log().Debug("parklot: rehashed", "oldSize", old.size, "newSize", next.size, "threadCount", n)
}

