package tfc

// Mutex is a managed mutual-exclusion lock. Contended Lock calls park
// through the coordinator, so a thread waiting for a Mutex counts as
// blocked for clock-advance purposes. An uncontended Lock and every
// TryLock touch only the big lock and never interact with the clock.
//
// The lock is not recursive, and the thread that locked it must be the one
// to unlock it; violating either is a fatal contract violation, because the
// coordinator's accounting would be corrupt if it continued.
type Mutex struct {
	_    noCopy
	core *Core

	locked  bool
	owner   int64 // goid of the holder, valid while locked
	waiters waitQueue
}

// NewMutex creates an unlocked Mutex owned by this coordinator.
func (c *Core) NewMutex() *Mutex {
	return &Mutex{core: c}
}

// Lock acquires m, parking the calling thread while another holds it.
// Wakeups retry: ownership is not handed off, so a contender woken by
// Unlock can still lose the lock to a barging Lock or TryLock and
// re-enqueue itself. The retry runs entirely under the big lock, so this
// never livelocks; it only changes who wins.
func (m *Mutex) Lock() {
	c := m.core
	g := goid()
	c.mu.Lock()
	for m.locked {
		b := c.newBlocker(g)
		b.q = &m.waiters
		m.waiters.pushBack(&b)
		c.block(&b)
	}
	m.locked = true
	m.owner = g
	c.mu.Unlock()
}

// TryLock acquires m if it is free and reports whether it did. It never
// blocks and never touches the clock.
func (m *Mutex) TryLock() bool {
	c := m.core
	c.mu.Lock()
	ok := !m.locked
	if ok {
		m.locked = true
		m.owner = goid()
	}
	c.mu.Unlock()
	return ok
}

// Unlock releases m and wakes the longest-waiting contender, if any.
// The caller must be the thread that locked it.
func (m *Mutex) Unlock() {
	c := m.core
	g := goid()
	c.mu.Lock()
	if !m.locked || m.owner != g {
		c.mu.Unlock()
		panic("tfc: Unlock of a mutex not held by the calling thread")
	}
	m.unlockLocked()
	c.mu.Unlock()
}

// unlockLocked is the release path shared with Cond.wait, which must drop
// the client mutex under the big lock so that unlocking and parking are one
// atomic step from the caller's point of view.
func (m *Mutex) unlockLocked() {
	m.locked = false
	m.owner = 0
	if b := m.waiters.head; b != nil {
		m.core.signalLocked(b, false)
	}
}
