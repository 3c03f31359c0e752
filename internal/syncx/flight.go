// Package syncx provides extended synchronization primitives
package syncx

import "sync/atomic"

// Flight is a single-flight latch: at most one holder at a time. It tracks
// whether a session already has a pipeline call in flight, so a second pause
// event can be dropped instead of queued.
type Flight struct {
	busy atomic.Bool
}

// TryBegin acquires the latch, reporting whether the caller got it. A false
// return means another call is already in flight.
func (f *Flight) TryBegin() bool {
	return f.busy.CompareAndSwap(false, true)
}

// End releases the latch. Releasing an idle latch reports false, which
// callers treat as an invariant violation.
func (f *Flight) End() bool {
	return f.busy.CompareAndSwap(true, false)
}

// InFlight reports whether the latch is currently held.
func (f *Flight) InFlight() bool {
	return f.busy.Load()
}
