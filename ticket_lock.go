package tfc

import (
	"sync/atomic"
)

// ticketLock is the "big lock" guarding all coordinator bookkeeping.
//
// It is a fair, FIFO spin-lock using the classic ticket algorithm:
//   - lock(): takes a ticket number, spins/sleeps until `serving` == ticket.
//   - unlock(): increments `serving`, admitting the next ticket holder.
//
// Strict FIFO entry matters here: every scheduling decision in the package
// funnels through this one lock, and admitting bookkeeping requests in
// arrival order keeps wake sequences independent of the host scheduler's
// mutex fairness. Critical sections are a handful of field accesses, which
// is the regime a ticket lock is suited for; the hybrid spin/backoff in
// delay() avoids pure busy-wait when a holder gets preempted.
type ticketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

// Lock acquires the lock. Blocks until the lock is available.
func (m *ticketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for {
		if m.serving.Load() == my {
			return
		}
		delay(&spins)
	}
}

// Unlock releases the lock.
func (m *ticketLock) Unlock() {
	m.serving.Add(1)
}
