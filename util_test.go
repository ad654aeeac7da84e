package tfc

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// expectPanic fails the test unless the surrounding deferred call recovers
// a panic containing substr.
func expectPanic(t *testing.T, substr string) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatalf("expected panic containing %q, got none", substr)
	}
	if msg := fmt.Sprint(r); !strings.Contains(msg, substr) {
		t.Fatalf("panic %q does not contain %q", msg, substr)
	}
}

// waitFor polls pred (wall-clock time) until it holds, failing after 2s.
func waitFor(t *testing.T, what string, pred func() bool) {
	t.Helper()
	start := time.Now()
	for !pred() {
		if time.Since(start) > 2*time.Second {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNoCopyVetHooks(t *testing.T) {
	// Compile-time presence only; Lock/Unlock are no-ops.
	var nc noCopy
	nc.Lock()
	nc.Unlock()
}
