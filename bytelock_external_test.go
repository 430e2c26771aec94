package parklot_test

import (
	"testing"

	"github.com/cmarsters/parklot"
	"github.com/cmarsters/parklot/parklottest"
)

// TestByteLockHammerExternal exercises mutual exclusion under
// contention for ByteLock from outside the package, through the
// reusable harness in parklottest, the way a downstream client
// embedding a ByteLock in its own type would exercise it.
func TestByteLockHammerExternal(t *testing.T) {
	const goroutines = 24
	incrementsPerGoroutine := 5000
	if testing.Short() {
		incrementsPerGoroutine = 200
	}

	var l parklot.ByteLock
	result := parklottest.Hammer(&l, goroutines, incrementsPerGoroutine)

	want := int64(goroutines * incrementsPerGoroutine)
	if result.Increments != want {
		t.Fatalf("Increments = %d, want %d", result.Increments, want)
	}
}
