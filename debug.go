//go:build parklot_debug

package parklot

// UnlockChecked and InitChecked are debug-only checked entry points:
// misuse (unlocking a lock you don't hold, double-initializing one
// still in use) is undefined behavior on the normal fast path, and
// only detected here. They are never called from the hot path, and
// nothing in this package calls them; they are available to code built
// with -tags parklot_debug that wants double-unlock and double-init
// detected.

// UnlockChecked releases b, returning ErrNotLocked instead of
// undefined behavior if b was not held.
func (b *ByteLock) UnlockChecked() error {
	if !b.state.CompareAndSwap(blIsHeldBit, 0) {
		cur := b.state.Load()
		if cur&blIsHeldBit == 0 {
			return ErrNotLocked
		}
		b.unlockSlow()
	}
	return nil
}

// UnlockChecked releases w, returning ErrNotLocked instead of
// undefined behavior if w was not held.
func (w *wordLock) UnlockChecked() error {
	if !w.word.CompareAndSwap(wlIsLockedBit, 0) {
		cur := w.word.Load()
		if cur&wlIsLockedBit == 0 {
			return ErrNotLocked
		}
		w.unlockSlow()
	}
	return nil
}

// InitChecked is Init's debug-checked counterpart: it returns
// ErrDoubleInit instead of silently clobbering a lock that is
// currently held or has waiters queued on it.
func (b *ByteLock) InitChecked() error {
	if !b.state.CompareAndSwap(0, 0) {
		return ErrDoubleInit
	}
	return nil
}

// InitChecked is Init's debug-checked counterpart for wordLock.
func (w *wordLock) InitChecked() error {
	if !w.word.CompareAndSwap(0, 0) {
		return ErrDoubleInit
	}
	return nil
}
