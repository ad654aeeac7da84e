package tfc

import (
	"time"
)

// Cond is a managed, Mesa-style condition variable. The mutex is an
// explicit argument of the wait calls to remind the reader that they have a
// side effect on it: Wait releases the mutex and parks in one step under
// the big lock, and re-locks it before returning.
//
// There are no spurious wakeups — every wakeup corresponds to a Signal, a
// Broadcast or a reached deadline — but callers must still re-check their
// predicate in a loop, because the mutex re-acquisition admits other
// threads in between.
type Cond struct {
	_    noCopy
	core *Core

	waiters waitQueue
	// toWake counts waiters that have been signalled (or timed out) but
	// have not yet re-acquired their mutex. Until it drains, the condition
	// variable is not truly empty even when the waiter queue is.
	toWake int
}

// NewCond creates a condition variable owned by this coordinator. It may be
// used with any Mutex of the same coordinator; mixing coordinators is a
// programming error this package does not detect.
func (c *Core) NewCond() *Cond {
	return &Cond{core: c}
}

// Wait atomically releases m and parks until woken by Signal or Broadcast,
// then re-locks m before returning. The calling thread must hold m.
func (cv *Cond) Wait(m *Mutex) {
	cv.wait(m, 0, false)
}

// WaitDeadline is Wait with an absolute deadline on the emulated clock,
// derived from any [Kind] via [Core.Now]. It reports whether the wakeup was
// the deadline (true) rather than a signal (false). A deadline that has
// already passed resolves immediately without releasing m. Timeout is a
// normal result, not an error.
func (cv *Cond) WaitDeadline(m *Mutex, deadline time.Time) (timedOut bool) {
	return cv.wait(m, emulatedNanosOf(deadline), true)
}

func (cv *Cond) wait(m *Mutex, deadline int64, limited bool) (timedOut bool) {
	c := cv.core
	g := goid()
	c.mu.Lock()
	if !m.locked || m.owner != g {
		c.mu.Unlock()
		panic("tfc: Wait on a condition variable without holding the mutex")
	}
	if limited && c.expiredLocked(deadline) {
		c.mu.Unlock()
		return true
	}
	b := c.newBlocker(g)
	b.limited = limited
	b.deadline = deadline
	b.q = &cv.waiters
	b.cv = cv
	cv.waiters.pushBack(&b)
	m.unlockLocked()
	c.block(&b)
	timedOut = b.timedOut
	c.mu.Unlock()

	m.Lock()

	c.mu.Lock()
	cv.toWake--
	c.mu.Unlock()
	return timedOut
}

// Signal wakes the longest-waiting thread, if any. FIFO order is a
// guarantee, not a heuristic.
func (cv *Cond) Signal() {
	c := cv.core
	c.mu.Lock()
	if b := cv.waiters.head; b != nil {
		c.signalLocked(b, false)
	}
	c.mu.Unlock()
}

// Broadcast wakes every current waiter, oldest first.
func (cv *Cond) Broadcast() {
	c := cv.core
	c.mu.Lock()
	for cv.waiters.head != nil {
		c.signalLocked(cv.waiters.head, false)
	}
	c.mu.Unlock()
}

// Waiters returns the number of threads currently parked in Wait or
// WaitDeadline. Signalled threads that have not yet resumed are not
// counted; see Empty for the stronger check.
func (cv *Cond) Waiters() int {
	c := cv.core
	c.mu.Lock()
	n := 0
	for b := cv.waiters.head; b != nil; b = b.qNext {
		n++
	}
	c.mu.Unlock()
	return n
}

// Empty reports whether no thread is waiting and no woken waiter is still
// on its way out (i.e. has yet to re-acquire its mutex). Only when Empty
// returns true is it safe to tear down state the waiters reference.
func (cv *Cond) Empty() bool {
	c := cv.core
	c.mu.Lock()
	empty := cv.waiters.empty() && cv.toWake == 0
	c.mu.Unlock()
	return empty
}
