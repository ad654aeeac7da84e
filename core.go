// Package tfc implements Time Flow Control: a deterministic, virtual-time
// concurrency engine. Mutexes, condition variables and threads created from
// a [Core] route every blocking operation through a single coordinator,
// which maintains an emulated monotonic clock that advances only when every
// managed thread is parked. Timing-dependent multi-threaded code run on top
// of these primitives behaves identically on every run, independent of
// wall-clock time and host scheduling.
//
// The engine panics on deadlock (all managed threads parked with no pending
// deadline) instead of hanging, and on contract violations such as unlocking
// a mutex from a non-owner. Wakeups at the same emulated instant are the one
// remaining source of nondeterminism; the [Trap] observers exist to surface
// them in tests.
package tfc

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/llxisdsh/pb"

	"github.com/llxisdsh/tfc/internal/opt"
)

// Core is the process coordinator: it owns the big lock, the emulated
// clock, the managed-thread accounting and the registry of parked blockers.
// Construct one explicitly with New and create all primitives from it;
// independent Cores have independent clocks and thread sets.
type Core struct {
	_  noCopy
	mu ticketLock // the big lock; guards every field below except clock reads

	// Keep the hot clock word off the lock's cache line: it is read from
	// arbitrary goroutines while the lock words are being hammered.
	_     [opt.CacheLineSize_]byte
	clock atomic.Int64 // emulated monotonic nanoseconds; never decreases

	threads     int // registered managed threads
	blocked     int // managed threads currently parked
	permBlocked int // subset of blocked parked on externally-woken mechanisms

	// Registry: FIFO of every parked blocker, managed or not.
	regHead, regTail *blocker

	// armed traps, per kind
	traps [trapKinds][]*Trap

	// goroutine id -> managed thread; read lock-free on every owner check.
	byGoid pb.MapOf[int64, *Thread]
}

// New creates an idle coordinator with the emulated clock at zero and no
// managed threads.
func New() *Core {
	return &Core{}
}

// NowNanos returns a snapshot of the emulated clock in nanoseconds.
// Safe from any goroutine; never decreases.
func (c *Core) NowNanos() int64 {
	return c.clock.Load()
}

// RegisterThread registers the calling goroutine as a managed thread. The
// goroutine then participates in the all-blocked accounting until it calls
// UnregisterThread: the clock cannot advance while it is runnable. Goroutines
// created through [Core.NewThread] register themselves; this entry point is
// for adopting a goroutine the caller owns, typically the main one.
func (c *Core) RegisterThread() {
	g := goid()
	if _, ok := c.byGoid.Load(g); ok {
		panic("tfc: goroutine is already a managed thread")
	}
	t := &Thread{
		core:    c,
		name:    "goroutine " + fmt.Sprint(g),
		goid:    g,
		adopted: true,
		started: true,
	}
	c.byGoid.Store(g, t)
	c.mu.Lock()
	c.threads++
	c.mu.Unlock()
}

// UnregisterThread releases a goroutine previously adopted with
// RegisterThread. Any threads joining it are woken.
func (c *Core) UnregisterThread() {
	g := goid()
	t, ok := c.byGoid.Load(g)
	if !ok {
		panic("tfc: goroutine is not a managed thread")
	}
	if !t.adopted {
		panic("tfc: UnregisterThread on a thread owned by Start")
	}
	t.exit()
}

// ReportPermanentlyBlocked tells the coordinator that the calling managed
// thread is about to park on a mechanism the emulated clock cannot wake
// (a foreign channel, an fd, another process). While any such thread
// exists, an all-blocked state without deadlines is not a deadlock: the
// external event may still arrive. Pair with ReportUnblocked.
func (c *Core) ReportPermanentlyBlocked() {
	c.mustBeManaged()
	c.mu.Lock()
	c.blocked++
	c.permBlocked++
	c.evaluateLocked()
	c.mu.Unlock()
}

// ReportUnblocked reverses ReportPermanentlyBlocked once the external wait
// is over and the thread is runnable again.
func (c *Core) ReportUnblocked() {
	c.mustBeManaged()
	c.mu.Lock()
	if c.permBlocked == 0 {
		c.mu.Unlock()
		panic("tfc: ReportUnblocked without a matching ReportPermanentlyBlocked")
	}
	c.blocked--
	c.permBlocked--
	c.mu.Unlock()
}

func (c *Core) mustBeManaged() {
	if _, ok := c.byGoid.Load(goid()); !ok {
		panic("tfc: calling goroutine is not a managed thread")
	}
}

// block parks the calling goroutine on b until it is signalled. The big
// lock must be held on entry; it is released while parked and held again
// on return. The caller is responsible for any owner-queue membership; the
// registry membership and the blocked accounting are handled here and by
// signalLocked.
func (c *Core) block(b *blocker) {
	c.enqueueRegLocked(b)
	if b.managed {
		c.blocked++
	}
	c.evaluateLocked()
	c.mu.Unlock()
	b.sema.Acquire()
	c.mu.Lock()
}

// signalLocked marks b runnable and releases its park semaphore, removing
// it from the registry and from its owner queue. Exactly-once: a second
// signal on the same blocker is a fatal contract violation.
func (c *Core) signalLocked(b *blocker, timedOut bool) {
	if b.signaled {
		// Release the big lock first: the panic unwind runs deferred
		// thread-exit bookkeeping that needs it.
		c.mu.Unlock()
		panic("tfc: blocker signalled twice (" + b.who + ")")
	}
	b.signaled = true
	b.timedOut = timedOut
	c.unlinkRegLocked(b)
	if b.q != nil {
		b.q.remove(b)
		b.q = nil
	}
	if b.cv != nil {
		b.cv.toWake++
	}
	if b.managed {
		c.blocked--
	}
	b.sema.Release()
}

// expiredLocked reports whether an absolute deadline is already due on the
// emulated clock, tripping the expired-timeout trap when it is. Callers use
// it to resolve a time-limited block immediately instead of parking.
func (c *Core) expiredLocked(deadline int64) bool {
	if deadline > c.clock.Load() {
		return false
	}
	c.tripLocked(TrapExpiredTimeout)
	return true
}

// evaluateLocked is the advance algorithm. It runs after every event that
// can complete the "all managed threads parked" picture: a thread blocking,
// a thread exiting, a permanent-block report.
//
// While every managed thread is parked, the clock jumps to the earliest
// pending deadline and every blocker due at that instant is woken. More
// than one due blocker at the same instant is the reproducibility hazard
// the traps watch for: the coordinator wakes them all before the clock
// moves again, but their physical resumption order belongs to the host
// scheduler. If no blocker carries a deadline and no externally-woken
// thread exists, nothing can ever run again and the process is terminated.
func (c *Core) evaluateLocked() {
	for c.threads > 0 && c.blocked == c.threads {
		var tNext int64
		due := 0
		for b := c.regHead; b != nil; b = b.regNext {
			if !b.limited {
				continue
			}
			switch {
			case due == 0 || b.deadline < tNext:
				tNext = b.deadline
				due = 1
			case b.deadline == tNext:
				due++
			}
		}
		if due == 0 {
			if c.permBlocked > 0 {
				// An external event may still unblock someone.
				return
			}
			c.deadlockLocked()
		}
		if due > 1 {
			c.tripLocked(TrapPotentialUnreproducible)
		}
		c.clock.Store(tNext)
		woken := 0
		b := c.regHead
		for b != nil {
			next := b.regNext
			if b.limited && b.deadline == tNext {
				c.signalLocked(b, true)
				woken++
			}
			b = next
		}
		if woken > 1 {
			c.tripLocked(TrapActualUnreproducible)
		}
		// If only unregistered goroutines were due, every managed thread is
		// still parked and the next deadline must be considered; hence the
		// loop. Waking a managed blocker drops c.blocked and exits it.
	}
}

// deadlockLocked panics with a description of every parked thread.
// Continuing would hang the process silently; terminating keeps the failure
// observable and attributable. The big lock is released before panicking:
// the unwind runs the panicking thread's deferred exit, which takes the
// lock again to wake joiners and deregister.
func (c *Core) deadlockLocked() {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tfc: deadlock: all %d managed thread(s) blocked and no deadline is pending\n", c.threads)
	for b := c.regHead; b != nil; b = b.regNext {
		fmt.Fprintf(&sb, "\t%s: blocked without deadline\n", b.who)
	}
	c.mu.Unlock()
	panic(sb.String())
}

func (c *Core) enqueueRegLocked(b *blocker) {
	b.regNext = nil
	b.regPrev = c.regTail
	if c.regTail == nil {
		c.regHead = b
	} else {
		c.regTail.regNext = b
	}
	c.regTail = b
}

func (c *Core) unlinkRegLocked(b *blocker) {
	if b.regPrev == nil {
		c.regHead = b.regNext
	} else {
		b.regPrev.regNext = b.regNext
	}
	if b.regNext == nil {
		c.regTail = b.regPrev
	} else {
		b.regNext.regPrev = b.regPrev
	}
	b.regNext = nil
	b.regPrev = nil
}
