// Package conv provides checked integer narrowing for automaton ids and
// copy-free string views.
//
// The integer helpers panic on overflow: an arena that outgrows 32-bit ids
// is a programming error, not an input condition.
package conv

import (
	"math"
	"unsafe"
)

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
func IntToUint32(n int) uint32 {
	// Compare as uint so 32-bit platforms do not overflow on MaxUint32.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// StringBytes returns the bytes of s without copying.
// The result shares memory with s and must not be modified.
func StringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
