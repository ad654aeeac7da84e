package tfc

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrCanceled is returned by Sleep when cancellation was pending at its
// entry checkpoint. The thread body is expected to unwind and return.
var ErrCanceled = errors.New("tfc: thread cancellation pending")

// Thread is a managed thread: a goroutine whose lifecycle and blocking
// behaviour are visible to the coordinator. It registers before its body
// runs and unregisters when the body returns, waking any joiners.
//
// Cancellation is deferred, never preemptive: Cancel only raises a flag
// that Sleep (and the body's own checks via CancelPending) observe at
// well-defined points. A thread that never reaches a checkpoint is not
// interrupted — matching deferred native cancellation semantics — and if
// everything else is parked too, that surfaces as a deadlock.
type Thread struct {
	_    noCopy
	core *Core
	name string
	body func(*Thread)

	cancel atomic.Bool

	// The fields below are guarded by the coordinator's big lock.
	goid     int64 // valid once running
	started  bool
	finished bool
	adopted  bool // registered via RegisterThread, no body
	joiners  waitQueue
}

// NewThread creates a managed thread that will run body when started. The
// name appears in deadlock diagnostics.
func (c *Core) NewThread(name string, body func(*Thread)) *Thread {
	if body == nil {
		panic("tfc: NewThread with nil body")
	}
	return &Thread{core: c, name: name, body: body}
}

// Current returns the managed thread the calling goroutine belongs to, or
// nil for an unregistered goroutine. Lock-free.
func (c *Core) Current() *Thread {
	t, _ := c.byGoid.Load(goid())
	return t
}

// Name returns the thread's diagnostic name.
func (t *Thread) Name() string {
	return t.name
}

// Start launches the thread. It returns only after the thread has
// registered with the coordinator, so the managed-thread count already
// includes it when Start returns; the body may or may not have begun.
// Starting a thread twice is fatal.
func (t *Thread) Start() {
	c := t.core
	c.mu.Lock()
	if t.started {
		c.mu.Unlock()
		panic("tfc: thread " + t.name + " started twice")
	}
	t.started = true
	c.mu.Unlock()

	registered := make(chan struct{})
	go func() {
		g := goid()
		c.byGoid.Store(g, t)
		c.mu.Lock()
		t.goid = g
		c.threads++
		c.mu.Unlock()
		close(registered)
		defer t.exit()
		t.body(t)
	}()
	<-registered
}

// exit unregisters the thread: it leaves the goid map, wakes every joiner,
// and re-runs the advance check, since removing a runnable thread can
// complete the all-blocked picture for the rest.
func (t *Thread) exit() {
	c := t.core
	c.byGoid.Delete(t.goid)
	c.mu.Lock()
	t.finished = true
	for t.joiners.head != nil {
		c.signalLocked(t.joiners.head, false)
	}
	c.threads--
	c.evaluateLocked()
	c.mu.Unlock()
}

// Join parks the caller until the thread has unregistered. No deadline is
// involved: if the target never exits and nothing else can run, the
// coordinator reports the deadlock. Unregistered goroutines may Join; they
// park without entering the all-blocked accounting.
func (t *Thread) Join() {
	c := t.core
	g := goid()
	c.mu.Lock()
	if !t.started {
		c.mu.Unlock()
		panic("tfc: Join of a thread that was never started")
	}
	if t.goid == g {
		c.mu.Unlock()
		panic("tfc: thread " + t.name + " joining itself")
	}
	for !t.finished {
		b := c.newBlocker(g)
		b.q = &t.joiners
		t.joiners.pushBack(&b)
		c.block(&b)
	}
	c.mu.Unlock()
}

// Sleep parks the thread until the emulated clock reaches now+d — exactly
// then, never earlier. Only the clock advance wakes a sleeper; there is no
// way to interrupt one. A non-positive d resolves immediately through the
// expired-deadline path (tripping the expired-timeout trap, when armed).
//
// Entry to Sleep is a cancellation checkpoint: with cancellation pending it
// returns ErrCanceled without sleeping. It must be called from the thread's
// own goroutine.
func (t *Thread) Sleep(d time.Duration) error {
	if t.cancel.Load() {
		return ErrCanceled
	}
	c := t.core
	g := goid()
	c.mu.Lock()
	if t.goid != g {
		c.mu.Unlock()
		panic("tfc: Sleep called from outside thread " + t.name)
	}
	deadline := c.clock.Load() + int64(d)
	if c.expiredLocked(deadline) {
		c.mu.Unlock()
		return nil
	}
	b := c.newBlocker(g)
	b.limited = true
	b.deadline = deadline
	c.block(&b)
	c.mu.Unlock()
	return nil
}

// Cancel raises the thread's cancellation flag. It never interrupts an
// in-progress park; the flag is observed at the next checkpoint.
func (t *Thread) Cancel() {
	t.cancel.Store(true)
}

// CancelPending reports whether Cancel has been called. Thread bodies use
// it as their loop condition to implement cooperative cancellation points.
func (t *Thread) CancelPending() bool {
	return t.cancel.Load()
}
