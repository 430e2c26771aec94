package parklot

import "errors"

// ErrNotLocked is returned by the debug-only checked entry points when a
// caller unlocks a lock it does not hold. Release builds never check
// this — the hot path is a single CAS, matching spec's invalid-usage
// policy of "undefined behavior, checked only under debug assertions."
var ErrNotLocked = errors.New("parklot: unlock of lock not held")

// ErrDoubleInit is returned by the debug-only checked entry points when
// Init is called on a lock that is already initialized and held, or is
// already non-zero in a way that indicates reuse without reset.
var ErrDoubleInit = errors.New("parklot: double init of lock")
