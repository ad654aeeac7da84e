//go:build race

package opt

import (
	"sync"
)

// Sema under the race detector. The linkname-based runtime semaphore hides
// the release/acquire edge from the detector, so this variant goes through
// sync primitives instead. Slower, but only active in -race builds.
type Sema struct {
	mu   sync.Mutex
	cond *sync.Cond
	cnt  int
}

func (s *Sema) Acquire() {
	s.mu.Lock()
	for s.cnt == 0 {
		if s.cond == nil {
			s.cond = sync.NewCond(&s.mu)
		}
		s.cond.Wait()
	}
	s.cnt--
	s.mu.Unlock()
}

func (s *Sema) Release() {
	s.mu.Lock()
	s.cnt++
	if s.cond != nil {
		s.cond.Signal()
	}
	s.mu.Unlock()
}
