// Package word implements the fixed-width cell the blobmark format is
// built on: an 8-byte little-endian unsigned integer, 8-byte aligned
// from file offset 0.
//
// A marker is a word whose offset field equals its own file offset.
// Offsets are multiples of 8 and bounded, which leaves bits free for the
// record-shape metadata a reader needs to reconstruct the exact payload:
//
//	bits  0..48  absolute file offset of the marker
//	bits 48..61  collision-padding word count of the record
//	bits 61..64  zero-fill byte count of the last payload word
//
// The marker predicate masks the metadata bits, so collision avoidance
// at append time must clear the whole 2^16-value window that maps onto a
// given offset, not just the single exact value.
package word

import "encoding/binary"

const (
	// Size is the width of a word in bytes.
	Size = 8

	// OffsetBits is the width of a marker's offset field.
	OffsetBits = 48

	// OffsetMask extracts a marker's offset field.
	OffsetMask = uint64(1)<<OffsetBits - 1

	// MaxOffset is the largest word-aligned offset a marker can name.
	MaxOffset = OffsetMask &^ (Size - 1)

	padShift = OffsetBits
	padBits  = 13

	// MaxPadWords is the largest collision-padding count a marker can
	// carry. It also bounds payload size: a payload of N words never
	// needs more than N padding words, so any payload of at most
	// MaxPadWords words is always placeable.
	MaxPadWords = 1<<padBits - 1

	fillShift = padShift + padBits
)

// Encode writes v into the first 8 bytes of b in the format's fixed
// byte order (little-endian).
func Encode(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

// Decode reads a word from the first 8 bytes of b.
func Decode(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// Align rounds off down to word alignment.
func Align(off uint64) uint64 {
	return off &^ (Size - 1)
}

// AlignUp rounds n up to the next word boundary.
func AlignUp(n uint64) uint64 {
	return (n + Size - 1) &^ (Size - 1)
}

// Aligned reports whether off is word-aligned.
func Aligned(off uint64) bool {
	return off&(Size-1) == 0
}

// Marker builds a marker word for a record at offset off with padWords
// collision-padding words and fill zero-fill bytes in its last word.
func Marker(off uint64, padWords, fill int) uint64 {
	return off | uint64(padWords)<<padShift | uint64(fill)<<fillShift
}

// MarkerOffset returns the offset field of a marker word.
func MarkerOffset(v uint64) uint64 {
	return v & OffsetMask
}

// MarkerPadWords returns the collision-padding word count of a marker.
func MarkerPadWords(v uint64) int {
	return int(v >> padShift & MaxPadWords)
}

// MarkerFill returns the zero-fill byte count of a marker.
func MarkerFill(v uint64) int {
	return int(v >> fillShift)
}

// Marks reports whether a word with value v, stored at offset off,
// satisfies the marker predicate. This is the single condition the
// append-time resolver guarantees no payload or padding word ever
// meets.
func Marks(v, off uint64) bool {
	return v&OffsetMask == off
}
