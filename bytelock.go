package parklot

import (
	"context"
	"sync/atomic"
	"unsafe"
)

const (
	blIsHeldBit    uint8 = 1
	blHasParkedBit uint8 = 2
)

// ByteLock is the client-facing adaptive mutex: one byte of state, a
// spin-then-park slow path that parks through the package-level
// Parking Lot rather than carrying its own waiter queue — unlike
// wordLock, it is allowed to depend on the parking lot, since it isn't
// used to protect the parking lot's own buckets.
//
// The zero value is unlocked with no waiters and is ready to use, so a
// ByteLock can be embedded or statically declared without an explicit
// Init call.
type ByteLock struct {
	_     noCopy
	state atomic.Uint8
}

// Lock acquires b, spinning through microcontention and parking
// through the Parking Lot if contention persists.
func (b *ByteLock) Lock() {
	if b.state.CompareAndSwap(0, blIsHeldBit) {
		return
	}
	b.lockSlow()
}

func (b *ByteLock) lockSlow() {
	for {
		spins := 0
		acquired := false
		for attempts := 0; attempts < byteLockSpinLimit(); attempts++ {
			cur := b.state.Load()
			if cur&blIsHeldBit == 0 {
				if b.state.CompareAndSwap(cur, cur|blIsHeldBit) {
					acquired = true
					break
				}
				continue
			}
			delay(&spins)
		}
		if acquired {
			return
		}

		for {
			cur := b.state.Load()
			if cur&blIsHeldBit == 0 {
				if b.state.CompareAndSwap(cur, cur|blIsHeldBit) {
					return
				}
				continue
			}
			if cur&blHasParkedBit != 0 {
				break
			}
			if b.state.CompareAndSwap(cur, cur|blHasParkedBit) {
				break
			}
		}

		addr := unsafe.Pointer(&b.state)
		ParkConditionally(context.Background(), addr, func() bool {
			return b.state.Load() == blIsHeldBit|blHasParkedBit
		})
		// Whether we actually parked or the validator caught a
		// concurrent unlock, loop back to the spin phase — the Byte
		// Lock makes no FIFO promise at this level, so a freshly-woken
		// waiter simply competes again.
	}
}

// Unlock releases b, waking one waiter through the Parking Lot if any
// are parked.
func (b *ByteLock) Unlock() {
	if b.state.CompareAndSwap(blIsHeldBit, 0) {
		return
	}
	b.unlockSlow()
}

func (b *ByteLock) unlockSlow() {
	for {
		cur := b.state.Load()
		if cur&blHasParkedBit == 0 {
			if b.state.CompareAndSwap(cur, cur&^blIsHeldBit) {
				return
			}
			continue
		}
		if !b.state.CompareAndSwap(cur, 0) {
			continue
		}

		result := UnparkOne(unsafe.Pointer(&b.state))
		if result.HadMoreWaiters {
			for {
				c := b.state.Load()
				if c&blHasParkedBit != 0 {
					break
				}
				if b.state.CompareAndSwap(c, c|blHasParkedBit) {
					break
				}
			}
		}
		return
	}
}

// IsHeld reports whether b is currently locked.
func (b *ByteLock) IsHeld() bool {
	return b.state.Load()&blIsHeldBit != 0
}

// Init resets b to the unlocked, no-waiters state. The zero value
// already satisfies this, so Init only matters for reusing a ByteLock
// that has previously been locked.
func (b *ByteLock) Init() {
	b.state.Store(0)
}
