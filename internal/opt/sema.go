//go:build !race

package opt

import (
	_ "unsafe" // for linkname
)

// Sema is a zero-allocation binary wakeup channel built directly on the
// runtime semaphore. It is the raw parking mechanism underneath every
// managed blocking operation: the coordinator does its bookkeeping first,
// then the blocked goroutine parks here until it is signalled.
type Sema uint32

func (s *Sema) Acquire() {
	runtime_semacquire((*uint32)(s))
}

func (s *Sema) Release() {
	runtime_semrelease((*uint32)(s), false, 0)
}

//go:linkname runtime_semacquire sync.runtime_Semacquire
func runtime_semacquire(s *uint32)

//go:linkname runtime_semrelease sync.runtime_Semrelease
func runtime_semrelease(s *uint32, handoff bool, skipframes int)
