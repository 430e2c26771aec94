package parklot

import (
	"log/slog"
	"sync/atomic"
)

// logger is swappable the same way the teacher gates its own diagnostic
// output behind a single toggle (hashtriemap.go's debug instrumentation,
// the original's `verbose` flag in ParkingLot.cpp) — except here any
// caller can redirect it, since this is a library other code embeds.
// Nothing on the fast path logs; only rehash, bucket creation, and
// timeout events do.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.Default())
}

// SetLogger replaces the logger used for the parking lot's diagnostic
// events (rehash, bucket creation, park timeouts). Passing nil restores
// slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger.Store(l)
}

func log() *slog.Logger {
	return logger.Load()
}
