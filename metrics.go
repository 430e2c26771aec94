package parklot

import "sync/atomic"

// Process-wide counters, grounded on the teacher's own atomic counters
// (nwait in the runtime semaphore table reference, numThreads in
// ParkingLot.cpp) and generalized into an exported surface so a host
// process can export them through whatever metrics pipeline it already
// uses — the parking lot itself has no opinion on where metrics go.
var (
	parksTotal    atomic.Uint64
	unparksTotal  atomic.Uint64
	rehashesTotal atomic.Uint64
	timeoutsTotal atomic.Uint64
)

// ParksTotal returns the number of times a caller successfully parked
// (validator returned true and the caller was woken, not the number of
// ParkConditionally calls — validator-false calls don't count).
func ParksTotal() uint64 { return parksTotal.Load() }

// UnparksTotal returns the number of individual waiters woken across all
// UnparkOne and UnparkAll calls.
func UnparksTotal() uint64 { return unparksTotal.Load() }

// RehashesTotal returns the number of times the hashtable spine has
// been grown.
func RehashesTotal() uint64 { return rehashesTotal.Load() }

// TimeoutsTotal returns the number of ParkConditionally calls that
// returned TimedOut.
func TimeoutsTotal() uint64 { return timeoutsTotal.Load() }
