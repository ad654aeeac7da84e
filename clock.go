package tfc

import (
	"time"
)

// Kind selects which system clock a Now query stands in for. Under time
// flow control all four are backed by the same emulated value; the precise
// variants exist so OSAL-style callers can forward their full clock surface
// without special-casing.
type Kind uint8

const (
	// Realtime is the emulated wall clock.
	Realtime Kind = iota
	// RealtimePrecise is the emulated wall clock at full resolution.
	RealtimePrecise
	// Monotonic is the emulated monotonic clock.
	Monotonic
	// MonotonicPrecise is the emulated monotonic clock at full resolution.
	MonotonicPrecise
)

// realtimeBase anchors the realtime kinds. It is a fixed instant so that
// runs are reproducible: two executions of the same scenario read the same
// wall-clock values, on any machine, at any actual date.
var realtimeBase = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

// monotonicBase anchors the monotonic kinds at the zero Unix instant.
var monotonicBase = time.Unix(0, 0).UTC()

// Now returns the current emulated time for the given clock kind. Safe from
// any goroutine. Successive readings never decrease; the value only moves
// in discrete jumps when the coordinator advances the clock.
func (c *Core) Now(k Kind) time.Time {
	ns := c.clock.Load()
	switch k {
	case Realtime, RealtimePrecise:
		return realtimeBase.Add(time.Duration(ns))
	case Monotonic, MonotonicPrecise:
		return monotonicBase.Add(time.Duration(ns))
	}
	panic("tfc: unknown clock kind")
}

// emulatedNanosOf maps an absolute time.Time back onto the emulated
// timeline. Values derived from either clock family are accepted: anything
// at or past realtimeBase is read against it, everything else against the
// monotonic base. The two families are kept far enough apart (40 years)
// that the split is unambiguous.
func emulatedNanosOf(tp time.Time) int64 {
	if tp.Before(realtimeBase) {
		return int64(tp.Sub(monotonicBase))
	}
	return int64(tp.Sub(realtimeBase))
}
