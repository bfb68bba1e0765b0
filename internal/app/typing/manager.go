package typing

import "time"

// Expiry identifies one armed timer that has fired.
// A stale Expiry, from a timer that was re-armed or canceled before its
// callback was processed, is rejected by Manager.Expire.
type Expiry struct {
	User string
	gen  uint64
}

type entry struct {
	timer Timer
	gen   uint64
}

// Manager owns the per-user expiry timers.
//
// A Manager is not safe for concurrent use; every method must be called from the
// goroutine that owns the session state. The notify callback runs on the clock's
// goroutine and must only hand the Expiry over to that owner.
type Manager struct {
	clock   Clock
	timeout time.Duration
	notify  func(Expiry)
	live    map[string]entry
	seq     uint64
}

// NewManager creates a Manager that reports fired timers to notify.
// A non-positive timeout falls back to DefaultTimeout; a nil clock to RealClock.
func NewManager(clock Clock, timeout time.Duration, notify func(Expiry)) *Manager {
	if clock == nil {
		clock = RealClock
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		clock:   clock,
		timeout: timeout,
		notify:  notify,
		live:    make(map[string]entry),
	}
}

// Timeout returns the quiet period applied to every armed timer.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Arm starts a fresh expiry for user, canceling the one already pending.
func (m *Manager) Arm(user string) {
	m.Cancel(user)

	m.seq++
	exp := Expiry{User: user, gen: m.seq}
	t := m.clock.AfterFunc(m.timeout, func() {
		if m.notify != nil {
			m.notify(exp)
		}
	})
	m.live[user] = entry{timer: t, gen: exp.gen}
}

// Cancel stops the pending expiry for user. Canceling a user with no pending
// expiry is a no-op. It reports whether a timer was pending.
func (m *Manager) Cancel(user string) bool {
	e, ok := m.live[user]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.live, user)
	return true
}

// CancelAll stops every pending expiry and returns how many there were.
func (m *Manager) CancelAll() int {
	n := len(m.live)
	for user, e := range m.live {
		e.timer.Stop()
		delete(m.live, user)
	}
	return n
}

// Expire consumes a fired timer. It returns true only when exp is still the live
// timer for its user, in which case the caller must clear the typing flag.
func (m *Manager) Expire(exp Expiry) bool {
	e, ok := m.live[exp.User]
	if !ok || e.gen != exp.gen {
		return false
	}
	delete(m.live, exp.User)
	return true
}

// Pending reports whether user has a live expiry.
func (m *Manager) Pending(user string) bool {
	_, ok := m.live[user]
	return ok
}

// Len returns the number of live expiries.
func (m *Manager) Len() int {
	return len(m.live)
}
