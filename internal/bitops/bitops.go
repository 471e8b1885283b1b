// Package bitops provides the fixed-width bit primitives used by the slab
// occupancy bitmaps. All functions operate on a single uint64 word.
package bitops

import "math/bits"

// Get returns the bit at index i (0 or 1).
func Get(word uint64, i uint32) uint64 {
	return (word >> i) & 1
}

// SetZero clears the bit at index i.
func SetZero(word *uint64, i uint32) {
	*word &^= 1 << i
}

// SetOne sets the bit at index i.
func SetOne(word *uint64, i uint32) {
	*word |= 1 << i
}

// TrailingZeros returns the index of the lowest set bit.
// The result is undefined for word == 0; callers must check first.
func TrailingZeros(word uint64) uint32 {
	return uint32(bits.TrailingZeros64(word))
}

// OnesCount returns the number of set bits.
func OnesCount(word uint64) uint32 {
	return uint32(bits.OnesCount64(word))
}
