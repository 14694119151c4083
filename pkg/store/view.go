package store

import "github.com/blobmark/blobmark/pkg/word"

// View is an immutable read snapshot of a store: the mapped bytes up to
// the durable length at the time it was taken. Views are cheap values;
// take a fresh one per operation. A view taken from a closed store is
// empty.
type View struct {
	data []byte
}

// Len returns the snapshot length in bytes, always a multiple of the
// word size.
func (v View) Len() uint64 {
	return uint64(len(v.data))
}

// Word decodes the word at off. The offset must be word-aligned and
// inside the snapshot; anything else is a caller bug and panics via the
// slice bounds check.
func (v View) Word(off uint64) uint64 {
	return word.Decode(v.data[off:])
}

// Bytes returns the raw byte range [lo, hi). The returned slice aliases
// the mapping; callers must treat it as read-only.
func (v View) Bytes(lo, hi uint64) []byte {
	return v.data[lo:hi:hi]
}

// ViewOf wraps an in-memory store image in a View. The length must be a
// multiple of the word size. Useful for readers that already hold store
// bytes, and for tests.
func ViewOf(data []byte) View {
	return View{data: data}
}
