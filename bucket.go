package parklot

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// cacheLineSize mirrors the teacher's own CacheLineSize constant
// (mapof_opt_cachelinesize.go), computed from golang.org/x/sys/cpu
// instead of a hardcoded guess so padding tracks whatever the build's
// target actually reports.
const cacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

// bucket is a per-hash-slot FIFO queue of parked thread records,
// guarded by its own Word Lock. Buckets are allocated once and never
// freed — their addresses are stable, which is what lets lookups walk
// the spine without taking any lock.
type bucket struct {
	_    noCopy
	lock wordLock

	head, tail *threadRecord

	// Padding keeps the lock and queue pointers of two separately
	// allocated buckets that sit next to each other in memory off the
	// same cache line, the same false-sharing mitigation the teacher
	// applies to its own map buckets.
	pad [cacheLineSize]byte
}

// enqueue appends tr to the tail of the bucket's FIFO. Caller must hold
// b.lock.
func (b *bucket) enqueue(tr *threadRecord) {
	tr.next = nil
	if b.tail != nil {
		b.tail.next = tr
		b.tail = tr
		return
	}
	b.head = tr
	b.tail = tr
}

// dequeueResult mirrors the three-way decision the original's
// genericDequeue functor returns (ParkingLot.cpp) when walking a
// bucket's waiter list.
type dequeueResult int

const (
	dequeueIgnore dequeueResult = iota
	dequeueRemoveAndContinue
	dequeueRemoveAndStop
)

// genericDequeue walks the bucket's FIFO from head to tail, letting fn
// decide for each record whether to skip it, remove it and continue, or
// remove it and stop — the same single-pass removal scheme as
// Bucket::genericDequeue in the original, adapted from its
// pointer-to-pointer rewiring to Go's ordinary "previous node" tracking
// since Go pointers can't be taken to a struct field through an
// interface cheaply. Caller must hold b.lock.
func (b *bucket) genericDequeue(fn func(*threadRecord) dequeueResult) {
	var prev *threadRecord
	cur := b.head
	for cur != nil {
		next := cur.next
		result := fn(cur)
		if result == dequeueIgnore {
			prev = cur
			cur = next
			continue
		}

		if prev == nil {
			b.head = next
		} else {
			prev.next = next
		}
		if cur == b.tail {
			b.tail = prev
		}
		cur.next = nil

		if result == dequeueRemoveAndStop {
			return
		}
		cur = next
	}
}

// dequeueFront removes and returns the head of the bucket's FIFO, or
// nil if empty. Caller must hold b.lock.
func (b *bucket) dequeueFront() *threadRecord {
	tr := b.head
	if tr == nil {
		return nil
	}
	b.head = tr.next
	if b.head == nil {
		b.tail = nil
	}
	tr.next = nil
	return tr
}
