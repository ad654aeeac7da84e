package tfc

// TrapKind identifies one of the reproducibility hazards the advance
// algorithm can observe.
type TrapKind uint8

const (
	// TrapExpiredTimeout fires when a thread attempts a time-limited block
	// whose deadline is already at or before the current emulated time.
	TrapExpiredTimeout TrapKind = iota
	// TrapPotentialUnreproducible fires when the advance algorithm finds
	// more than one blocker sharing the earliest deadline: a risk of
	// simultaneous wakeup.
	TrapPotentialUnreproducible
	// TrapActualUnreproducible fires when a single advance actually wakes
	// more than one blocker, leaving their physical resumption order to the
	// host scheduler.
	TrapActualUnreproducible

	trapKinds int = iota
)

func (k TrapKind) String() string {
	switch k {
	case TrapExpiredTimeout:
		return "expired-timeout"
	case TrapPotentialUnreproducible:
		return "potential-unreproducible-behaviour"
	case TrapActualUnreproducible:
		return "actual-unreproducible-behaviour"
	}
	return "unknown"
}

// TB is the subset of testing.TB the traps report through, declared locally
// so that non-test builds of this package do not import testing.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// Trap is a passive observer of the coordinator's wake decisions. It never
// alters scheduling: an armed trap only records that its hazard occurred.
//
// Usage mirrors a monitoring bracket around the scenario under test:
//
//	trap := core.NewTrap(tfc.TrapActualUnreproducible)
//	trap.BeginMonitoring()
//	defer trap.EndMonitoring(t)
//	... run scenario ...
//	if trap.QueryAndReset() { ... expected, or not ... }
//
// A triggered state that is still set at EndMonitoring is reported as a
// test failure.
type Trap struct {
	_    noCopy
	core *Core
	kind TrapKind

	// guarded by the coordinator's big lock
	monitoring bool
	triggered  bool
}

// NewTrap creates an unarmed trap for the given hazard on this coordinator.
func (c *Core) NewTrap(k TrapKind) *Trap {
	if int(k) >= trapKinds {
		panic("tfc: unknown trap kind")
	}
	return &Trap{core: c, kind: k}
}

// BeginMonitoring arms the trap. Hazards occurring from now on set its
// triggered state.
func (t *Trap) BeginMonitoring() {
	c := t.core
	c.mu.Lock()
	if t.monitoring {
		c.mu.Unlock()
		panic("tfc: trap is already monitoring")
	}
	t.monitoring = true
	t.triggered = false
	c.traps[t.kind] = append(c.traps[t.kind], t)
	c.mu.Unlock()
}

// QueryAndReset reports whether the hazard occurred since monitoring began
// or since the last query, and clears the state.
func (t *Trap) QueryAndReset() bool {
	c := t.core
	c.mu.Lock()
	v := t.triggered
	t.triggered = false
	c.mu.Unlock()
	return v
}

// EndMonitoring disarms the trap. A triggered state that was never queried
// away is converted into a test failure on tb.
func (t *Trap) EndMonitoring(tb TB) {
	tb.Helper()
	c := t.core
	c.mu.Lock()
	if !t.monitoring {
		c.mu.Unlock()
		panic("tfc: EndMonitoring on a trap that is not monitoring")
	}
	t.monitoring = false
	armed := c.traps[t.kind]
	for i, other := range armed {
		if other == t {
			c.traps[t.kind] = append(armed[:i], armed[i+1:]...)
			break
		}
	}
	v := t.triggered
	t.triggered = false
	c.mu.Unlock()
	if v {
		tb.Errorf("tfc: %s trap triggered", t.kind)
	}
}

// tripLocked sets the triggered state on every armed trap of the kind.
func (c *Core) tripLocked(k TrapKind) {
	for _, t := range c.traps[k] {
		t.triggered = true
	}
}
