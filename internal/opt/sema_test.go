package opt

import (
	"testing"
	"time"
)

func TestSemaWrapper(t *testing.T) {
	var s Sema

	// 1. Basic block/unblock
	done := make(chan struct{})
	go func() {
		s.Acquire()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Acquire returned before Release")
	case <-time.After(50 * time.Millisecond):
		// OK
	}

	s.Release()
	select {
	case <-done:
		// OK
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after Release")
	}
}

func TestSemaReleaseFirst(t *testing.T) {
	var s Sema
	s.Release()

	done := make(chan struct{})
	go func() {
		s.Acquire()
		close(done)
	}()

	select {
	case <-done:
		// OK
	case <-time.After(time.Second):
		t.Fatal("Acquire blocked despite a pending Release")
	}
}
