package parklot

import (
	"context"
	"unsafe"
)

// ParkResult reports what ParkConditionally actually did.
type ParkResult int

const (
	// Parked means the validator returned true, the caller was
	// enqueued, and it has since been woken by an unparker.
	Parked ParkResult = iota
	// DidNotPark means the validator returned false; the caller was
	// never enqueued and no unpark is owed to it.
	DidNotPark
	// TimedOut means the caller was enqueued but its context expired
	// before any unparker reached it; it has been removed from the
	// queue.
	TimedOut
)

// UnparkOneResult reports the outcome of a single UnparkOne call.
type UnparkOneResult struct {
	// UnparkedOne is true iff a waiter parked on the address was found
	// and woken.
	UnparkedOne bool
	// HadMoreWaiters is true iff, after removing the woken waiter,
	// at least one other waiter remained parked on the same address.
	HadMoreWaiters bool
}

// ParkConditionally is the parking lot's core primitive. It hashes
// addr to a bucket, locks the bucket, and evaluates validator while
// still holding the bucket lock — the atomicity point
// that closes the race between a parker's decision to sleep and an
// unparker's decision to wake it, since both funnel through the same
// bucket lock for the same address. If validator returns false the
// caller is never enqueued. Otherwise the caller is enqueued and
// blocks until woken by UnparkOne/UnparkAll for the same address, or
// until ctx is done.
func ParkConditionally(ctx context.Context, addr unsafe.Pointer, validator func() bool) ParkResult {
	tr := acquireThreadRecord()

	for {
		s := loadSpine()
		b := getOrCreateBucket(s, addr)
		b.lock.Lock()

		if currentSpine.Load() != s {
			b.lock.Unlock()
			continue
		}

		if !validator() {
			b.lock.Unlock()
			releaseThreadRecord(tr)
			return DidNotPark
		}

		tr.setParkAddr(addr)
		tr.shouldPark.Store(true)
		b.enqueue(tr)
		b.lock.Unlock()
		break
	}

	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-tr.wake:
		tr.setParkAddr(nil)
		parksTotal.Add(1)
		releaseThreadRecord(tr)
		return Parked
	case <-ctx.Done():
		if removeIfQueued(addr, tr) {
			tr.setParkAddr(nil)
			timeoutsTotal.Add(1)
			log().Debug("parklot: park timed out", "threadID", tr.id)
			releaseThreadRecord(tr)
			return TimedOut
		}
		// Lost the race with an unparker: it already dequeued us and
		// is about to (or already did) signal wake. Wait for the
		// signal so we don't leak the pending send, then report the
		// park as having happened: the cancellation arrived too late
		// to matter once an unparker had already claimed the waiter.
		<-tr.wake
		tr.setParkAddr(nil)
		parksTotal.Add(1)
		releaseThreadRecord(tr)
		return Parked
	}
}

// removeIfQueued removes tr from addr's bucket if it is still present,
// reporting whether it found and removed it. Used by ParkConditionally
// on context expiry.
func removeIfQueued(addr unsafe.Pointer, tr *threadRecord) bool {
	for {
		s := loadSpine()
		b := lookupBucket(s, addr)
		if b == nil {
			return false
		}
		b.lock.Lock()
		if currentSpine.Load() != s {
			b.lock.Unlock()
			continue
		}

		removed := false
		b.genericDequeue(func(candidate *threadRecord) dequeueResult {
			if candidate != tr {
				return dequeueIgnore
			}
			removed = true
			return dequeueRemoveAndStop
		})
		b.lock.Unlock()
		return removed
	}
}

// UnparkOne wakes at most one waiter parked on addr, in FIFO arrival
// order for that address.
func UnparkOne(addr unsafe.Pointer) UnparkOneResult {
	for {
		s := currentSpine.Load()
		if s == nil {
			return UnparkOneResult{}
		}
		b := lookupBucket(s, addr)
		if b == nil {
			return UnparkOneResult{}
		}
		b.lock.Lock()
		if currentSpine.Load() != s {
			b.lock.Unlock()
			continue
		}

		var woken *threadRecord
		b.genericDequeue(func(candidate *threadRecord) dequeueResult {
			if woken != nil {
				return dequeueIgnore
			}
			if candidate.parkAddr() != addr {
				return dequeueIgnore
			}
			woken = candidate
			return dequeueRemoveAndStop
		})

		hadMore := false
		if woken != nil {
			for cur := b.head; cur != nil; cur = cur.next {
				if cur.parkAddr() == addr {
					hadMore = true
					break
				}
			}
		}
		b.lock.Unlock()

		if woken == nil {
			return UnparkOneResult{}
		}
		woken.shouldPark.Store(false)
		woken.wake <- struct{}{}
		unparksTotal.Add(1)
		return UnparkOneResult{UnparkedOne: true, HadMoreWaiters: hadMore}
	}
}

// UnparkAll wakes every waiter currently parked on addr, signaling each
// in FIFO arrival order after the bucket lock has been released.
func UnparkAll(addr unsafe.Pointer) {
	for {
		s := currentSpine.Load()
		if s == nil {
			return
		}
		b := lookupBucket(s, addr)
		if b == nil {
			return
		}
		b.lock.Lock()
		if currentSpine.Load() != s {
			b.lock.Unlock()
			continue
		}

		var woken []*threadRecord
		b.genericDequeue(func(candidate *threadRecord) dequeueResult {
			if candidate.parkAddr() != addr {
				return dequeueIgnore
			}
			woken = append(woken, candidate)
			return dequeueRemoveAndContinue
		})
		b.lock.Unlock()

		for _, tr := range woken {
			tr.shouldPark.Store(false)
			tr.wake <- struct{}{}
		}
		unparksTotal.Add(uint64(len(woken)))
		return
	}
}

// ForEach visits every currently parked waiter, passing its thread id
// and park address, for diagnostics. It locks the
// entire hashtable for the duration of the walk, same as a rehash.
func ForEach(cb func(threadID uint64, addr unsafe.Pointer)) {
	_, buckets := lockAllBuckets()
	defer unlockAllBuckets(buckets)

	for _, b := range buckets {
		for cur := b.head; cur != nil; cur = cur.next {
			cb(cur.id, cur.parkAddr())
		}
	}
}
