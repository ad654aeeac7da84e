package tfc

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClockStartsAtZero(t *testing.T) {
	c := New()
	if ns := c.NowNanos(); ns != 0 {
		t.Fatalf("fresh clock = %d ns, want 0", ns)
	}
	if got := c.Now(Realtime); !got.Equal(realtimeBase) {
		t.Errorf("Now(Realtime) = %v, want %v", got, realtimeBase)
	}
	if got := c.Now(Monotonic); !got.Equal(monotonicBase) {
		t.Errorf("Now(Monotonic) = %v, want %v", got, monotonicBase)
	}
}

func TestClockKindsAgree(t *testing.T) {
	c := New()
	th := c.NewThread("sleeper", func(th *Thread) {
		th.Sleep(100 * time.Millisecond)
	})
	th.Start()
	th.Join()

	const want = 100 * time.Millisecond
	if d := c.Now(Realtime).Sub(realtimeBase); d != want {
		t.Errorf("Realtime advanced %v, want %v", d, want)
	}
	if d := c.Now(Monotonic).Sub(monotonicBase); d != want {
		t.Errorf("Monotonic advanced %v, want %v", d, want)
	}
	if a, b := c.Now(Realtime), c.Now(RealtimePrecise); !a.Equal(b) {
		t.Errorf("Realtime %v != RealtimePrecise %v", a, b)
	}
	if a, b := c.Now(Monotonic), c.Now(MonotonicPrecise); !a.Equal(b) {
		t.Errorf("Monotonic %v != MonotonicPrecise %v", a, b)
	}
}

func TestEmulatedNanosOfBothFamilies(t *testing.T) {
	c := New()
	mono := c.Now(Monotonic).Add(5 * time.Millisecond)
	wall := c.Now(Realtime).Add(5 * time.Millisecond)
	if got := emulatedNanosOf(mono); got != 5_000_000 {
		t.Errorf("monotonic deadline maps to %d ns, want 5000000", got)
	}
	if got := emulatedNanosOf(wall); got != 5_000_000 {
		t.Errorf("realtime deadline maps to %d ns, want 5000000", got)
	}
}

func TestUnknownKindPanics(t *testing.T) {
	defer expectPanic(t, "unknown clock kind")
	New().Now(Kind(42))
}

// The clock must never decrease, observed from an arbitrary goroutine while
// a scenario advances it repeatedly.
func TestMonotonicity(t *testing.T) {
	c := New()
	var violated atomic.Bool
	done := make(chan struct{})
	go func() {
		var prev int64
		for {
			select {
			case <-done:
				return
			default:
			}
			ns := c.NowNanos()
			if ns < prev {
				violated.Store(true)
				return
			}
			prev = ns
		}
	}()

	th := c.NewThread("stepper", func(th *Thread) {
		for range 50 {
			th.Sleep(3 * time.Millisecond)
		}
	})
	th.Start()
	th.Join()
	close(done)

	if violated.Load() {
		t.Fatal("emulated clock decreased")
	}
	if ns := c.NowNanos(); ns != 150_000_000 {
		t.Errorf("final clock = %d ns, want 150000000", ns)
	}
}
