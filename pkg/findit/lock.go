package findit

import "sync/atomic"

// Lock is the interaction lock: engaged while a capture cycle is in flight.
// The zero value is released.
type Lock struct {
	held atomic.Bool
}

// Acquire engages the lock and reports whether it was free.
func (l *Lock) Acquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock and reports whether it was engaged.
func (l *Lock) Release() bool {
	return l.held.CompareAndSwap(true, false)
}

// Held reports whether the lock is engaged.
func (l *Lock) Held() bool {
	return l.held.Load()
}
