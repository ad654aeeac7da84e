package tfc

import (
	"runtime"
)

// goid returns the id of the calling goroutine by parsing the first line of
// its stack trace ("goroutine 123 [running]:"). This is the portable slow
// path; it works on every architecture and Go version, at ~1.5µs per call.
// The package only pays it on operations that take the big lock anyway, so
// the cost disappears into the bookkeeping noise.
func goid() int64 {
	// The id is on the first line; 64 bytes is always enough for it.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the numeric id from "goroutine 123 [running]:...".
// Direct byte parsing, no allocation. Returns 0 if the format is invalid,
// which the runtime does not produce in practice.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) {
		return 0
	}
	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
