package store

import "github.com/blobmark/blobmark/pkg/word"

// recoverLength returns the length of the longest valid prefix of the
// store, scanning backward from size, plus the number of dangling
// records dropped along the way.
//
// A crash between writing record bytes and publishing the length can
// leave at most one unconfirmed tail record, so the loop almost always
// settles in one step. Validation is shape-only: the marker's offset
// field must match its position, its padding words must be zero, and
// the record region must be large enough for the padding and fill the
// marker declares. Tampering deeper than that is undefined behavior and
// not repaired here.
func recoverLength(data []byte, size int64) (int64, int) {
	end := int64(word.Align(uint64(size)))
	dropped := 0
	if end < size {
		// Torn final word; everything after the last whole word is
		// unconfirmed by construction.
		dropped++
	}

	for end > 0 {
		m, ok := lastMarker(data, uint64(end))
		if !ok {
			// No marker at all: nothing before end can be a record.
			dropped++
			end = 0
			break
		}
		if tailValid(data, m, uint64(end)) {
			return end, dropped
		}
		dropped++
		end = int64(m)
	}
	return end, dropped
}

// lastMarker scans backward for the last word before end that satisfies
// the marker predicate.
func lastMarker(data []byte, end uint64) (uint64, bool) {
	for off := end - word.Size; ; off -= word.Size {
		if word.Marks(word.Decode(data[off:]), off) {
			return off, true
		}
		if off == 0 {
			return 0, false
		}
	}
}

// tailValid checks the shape of the record whose marker sits at m and
// whose region ends at end.
func tailValid(data []byte, m, end uint64) bool {
	v := word.Decode(data[m:])
	pad := uint64(word.MarkerPadWords(v))
	fill := word.MarkerFill(v)

	regionWords := (end - m - word.Size) / word.Size
	if regionWords < pad {
		return false
	}
	if regionWords == pad && fill != 0 {
		// Fill bytes belong to a final payload word that is absent.
		return false
	}
	for j := uint64(0); j < pad; j++ {
		if word.Decode(data[m+word.Size*(1+j):]) != 0 {
			return false
		}
	}
	return true
}
