/*
Package typing tracks the self-expiring "is typing" indicator of remote users.

The protocol has no "stopped typing" event: a user counts as typing until a fixed
quiet period passes without a new typing notification. The Manager keeps at most one
live expiry timer per user, replaces it on every new notification, and reports
expiries through a callback so that the owner can clear the flag on its own goroutine.
*/
package typing

import "time"

// DefaultTimeout is the quiet period after which a typing indicator clears.
const DefaultTimeout = 3000 * time.Millisecond

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop cancels the timer. It returns false if the timer already fired or was stopped.
	Stop() bool
}

// Clock is the time source used for expiries.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock backed by time.AfterFunc.
var RealClock Clock = realClock{}
