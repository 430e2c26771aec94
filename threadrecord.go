package parklot

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// threadRecord carries the condvar-equivalent for one park: a
// single-slot channel, the same trick as the park/unpark waiter in the
// retrieved test_and_set_lock.go reference and as runtime.sema.go's own
// "every sleep is paired with a single wakeup" primitive, plus the park
// address and the should-park flag.
//
// Go has no thread-local storage, so a record isn't owned by a
// goroutine's own slot the way the original owns one per OS thread.
// Instead it's borrowed from a sync.Pool for the duration of exactly
// one park call and returned afterward, avoiding a fresh allocation on
// every park without requiring a TLS primitive Go doesn't expose. See
// DESIGN.md.
type threadRecord struct {
	_          noCopy
	id         uint64
	addr       atomic.Pointer[byte]
	shouldPark atomic.Bool
	wake       chan struct{}
	next       *threadRecord
}

var nextThreadID atomic.Uint64

var threadRecordPool = sync.Pool{
	New: func() any {
		id := nextThreadID.Add(1)
		return &threadRecord{id: id, wake: make(chan struct{}, 1)}
	},
}

// acquireThreadRecord borrows a threadRecord for exactly one park
// attempt and registers it with the hashtable's occupancy count.
// Registration happens here, not in the pool's New callback: New only
// fires on an allocation miss, and a sync.Pool's contents are cleared
// roughly every GC cycle regardless of actual concurrent demand, so
// keying registration off allocations would count pool churn as new
// threads. Counting every acquire/release pair instead tracks genuine
// concurrent occupancy.
func acquireThreadRecord() *threadRecord {
	tr := threadRecordPool.Get().(*threadRecord)
	tr.addr.Store(nil)
	tr.shouldPark.Store(false)
	tr.next = nil
	registerThread()
	return tr
}

func releaseThreadRecord(tr *threadRecord) {
	unregisterThread()
	tr.addr.Store(nil)
	tr.next = nil
	threadRecordPool.Put(tr)
}

func (tr *threadRecord) parkAddr() unsafe.Pointer {
	return unsafe.Pointer(tr.addr.Load())
}

func (tr *threadRecord) setParkAddr(addr unsafe.Pointer) {
	tr.addr.Store((*byte)(addr))
}

// Release tells the facility that the calling goroutine is retiring
// and will never park again. Earlier revisions of this package kept a
// registration outstanding across an entire goroutine's lifetime and
// had Release undo it, the way the original decrements its thread
// count when an OS thread's thread-local record is destroyed. That
// model doesn't survive contact with sync.Pool: Go has no thread-exit
// hook and no persistent per-goroutine storage, so "outstanding
// registration" had to be approximated by pool allocation events,
// which a GC-driven pool sweep could trigger long after a goroutine's
// actual first park — see registerThread. Occupancy is now tracked
// per park attempt instead (acquireThreadRecord/releaseThreadRecord
// already register and unregister symmetrically), so there is nothing
// left outstanding for a retiring goroutine to release by the time it
// calls this. Release is kept as a documented no-op so existing
// callers (and any long-lived goroutine pool migrating from the older
// model) don't need to change: calling it is harmless, just no longer
// load-bearing.
func Release() {}
