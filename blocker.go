package tfc

import (
	"strconv"

	"github.com/llxisdsh/tfc/internal/opt"
)

// blocker represents one parked goroutine for the duration of a single
// blocking call. It is created by the blocking call frame right before
// parking and is dead as soon as that call returns; the coordinator and the
// owner queue only ever hold it through the intrusive links below.
//
// The deadline is a tagged value rather than a subtype: limited=false is a
// plain "wait until signalled" blocker, limited=true carries an absolute
// point on the emulated clock.
type blocker struct {
	goid    int64
	who     string // thread name, for deadlock diagnostics
	managed bool   // counted by the all-blocked check

	limited  bool
	deadline int64 // absolute emulated nanoseconds, valid when limited

	signaled bool
	timedOut bool // set when the wakeup came from the clock reaching deadline

	sema opt.Sema

	// Registry links (coordinator's FIFO of every parked blocker).
	regNext, regPrev *blocker

	// Owner queue links (mutex contenders, condvar waiters, thread joiners).
	// A blocker sits in at most one owner queue at a time.
	qNext, qPrev *blocker
	q            *waitQueue
	cv           *Cond // set for condvar waiters; drives the about-to-wake count
}

// waitQueue is an intrusive FIFO of blockers. FIFO order is part of the
// contract for condition variables and mutex contenders, not an
// implementation detail.
type waitQueue struct {
	head, tail *blocker
}

func (q *waitQueue) pushBack(b *blocker) {
	b.qNext = nil
	b.qPrev = q.tail
	if q.tail == nil {
		q.head = b
	} else {
		q.tail.qNext = b
	}
	q.tail = b
}

func (q *waitQueue) remove(b *blocker) {
	if b.qPrev == nil {
		q.head = b.qNext
	} else {
		b.qPrev.qNext = b.qNext
	}
	if b.qNext == nil {
		q.tail = b.qPrev
	} else {
		b.qNext.qPrev = b.qPrev
	}
	b.qNext = nil
	b.qPrev = nil
}

func (q *waitQueue) empty() bool {
	return q.head == nil
}

// newBlocker prepares a blocker for the calling goroutine. Whether the
// caller is a managed thread decides if it participates in the all-blocked
// accounting; unregistered goroutines park invisibly.
func (c *Core) newBlocker(g int64) blocker {
	b := blocker{goid: g}
	if t, ok := c.byGoid.Load(g); ok {
		b.managed = true
		b.who = t.name
	} else {
		b.who = "goroutine " + strconv.FormatInt(g, 10)
	}
	return b
}
