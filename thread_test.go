package tfc

import (
	"errors"
	"testing"
	"time"
)

func TestSleepAdvancesExactly(t *testing.T) {
	c := New()
	var before, after int64
	th := c.NewThread("sleeper", func(th *Thread) {
		before = c.NowNanos()
		th.Sleep(250 * time.Millisecond)
		after = c.NowNanos()
	})
	th.Start()
	th.Join()

	if before != 0 {
		t.Errorf("clock before sleep = %d ns, want 0", before)
	}
	if after != 250_000_000 {
		t.Errorf("clock after sleep = %d ns, want exactly 250000000", after)
	}
}

func TestJoinObservesThreadResult(t *testing.T) {
	c := New()
	result := 0
	th := c.NewThread("worker", func(th *Thread) {
		th.Sleep(time.Millisecond)
		result = 42
	})
	th.Start()
	th.Join()
	if result != 42 {
		t.Fatalf("result = %d after Join, want 42", result)
	}
}

func TestJoinFromManagedThread(t *testing.T) {
	c := New()
	inner := c.NewThread("inner", func(th *Thread) {
		th.Sleep(5 * time.Millisecond)
	})
	var innerDoneFirst bool
	outer := c.NewThread("outer", func(th *Thread) {
		inner.Join()
		innerDoneFirst = c.NowNanos() == 5_000_000
	})
	inner.Start()
	outer.Start()
	outer.Join()
	if !innerDoneFirst {
		t.Fatal("outer resumed before inner finished")
	}
}

func TestJoinUnstartedPanics(t *testing.T) {
	c := New()
	th := c.NewThread("never", func(th *Thread) {})
	defer expectPanic(t, "never started")
	th.Join()
}

func TestDoubleStartPanics(t *testing.T) {
	c := New()
	th := c.NewThread("once", func(th *Thread) {})
	th.Start()
	func() {
		defer expectPanic(t, "started twice")
		th.Start()
	}()
	th.Join()
}

func TestCancelIsDeferred(t *testing.T) {
	c := New()
	var sleeps int
	th := c.NewThread("looper", func(th *Thread) {
		for th.Sleep(5*time.Millisecond) == nil {
			sleeps++
		}
	})
	th.Start()
	time.Sleep(10 * time.Millisecond) // wall time; virtual time spins freely
	th.Cancel()
	th.Join()

	if !th.CancelPending() {
		t.Error("cancellation flag lost")
	}
	if sleeps == 0 {
		t.Error("thread never slept before cancellation")
	}
}

func TestSleepReturnsErrCanceled(t *testing.T) {
	c := New()
	var err error
	th := c.NewThread("canceled", func(th *Thread) {
		th.Cancel()
		err = th.Sleep(time.Hour)
	})
	th.Start()
	th.Join()
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Sleep after Cancel = %v, want ErrCanceled", err)
	}
	if ns := c.NowNanos(); ns != 0 {
		t.Errorf("canceled Sleep advanced the clock to %d ns", ns)
	}
}

func TestSleepFromWrongGoroutinePanics(t *testing.T) {
	c := New()
	ready := make(chan struct{})
	release := make(chan struct{})
	th := c.NewThread("victim", func(th *Thread) {
		close(ready)
		<-release
	})
	th.Start()
	<-ready
	func() {
		defer expectPanic(t, "outside thread")
		th.Sleep(time.Millisecond)
	}()
	close(release)
	th.Join()
}

func TestCurrentAndName(t *testing.T) {
	c := New()
	var inside *Thread
	th := c.NewThread("self", func(th *Thread) {
		inside = c.Current()
	})
	th.Start()
	th.Join()

	if inside != th {
		t.Errorf("Current() inside the body = %v, want the thread itself", inside)
	}
	if c.Current() != nil {
		t.Error("Current() on an unregistered goroutine is non-nil")
	}
	if th.Name() != "self" {
		t.Errorf("Name() = %q, want %q", th.Name(), "self")
	}
}

func TestRegisterAdoptsCallingGoroutine(t *testing.T) {
	c := New()
	c.RegisterThread()
	if c.Current() == nil {
		t.Fatal("Current() nil after RegisterThread")
	}
	func() {
		defer expectPanic(t, "already a managed thread")
		c.RegisterThread()
	}()
	c.UnregisterThread()
	if c.Current() != nil {
		t.Fatal("Current() non-nil after UnregisterThread")
	}
}

func TestUnregisterWithoutRegisterPanics(t *testing.T) {
	c := New()
	defer expectPanic(t, "not a managed thread")
	c.UnregisterThread()
}
