package parklot

import (
	"testing"
	"unsafe"
)

// TestSizes checks that ByteLock is exactly 1 byte and wordLock is
// exactly one machine word.
func TestSizes(t *testing.T) {
	if got := unsafe.Sizeof(ByteLock{}); got != 1 {
		t.Fatalf("ByteLock size = %d, want 1", got)
	}
	if got := unsafe.Sizeof(wordLock{}); got != unsafe.Sizeof(uintptr(0)) {
		t.Fatalf("wordLock size = %d, want %d", got, unsafe.Sizeof(uintptr(0)))
	}
}
