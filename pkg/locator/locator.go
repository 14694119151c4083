// Package locator recovers record boundaries from arbitrary offsets.
//
// Markers are discovered by walking word-by-word in either direction
// and testing the marker predicate. The append path guarantees no
// payload or padding word satisfies it, so the first hit is a true
// boundary. Scan cost is proportional to the distance to the adjacent
// marker, which the format assumes is small.
package locator

import (
	"errors"
	"fmt"

	"github.com/blobmark/blobmark/pkg/store"
	"github.com/blobmark/blobmark/pkg/word"
)

var (
	// ErrNotMarker is returned when a queried offset does not hold a
	// marker.
	ErrNotMarker = errors.New("no marker at offset")

	// ErrCorruptRecord is returned when a marker declares a shape its
	// record region cannot hold.
	ErrCorruptRecord = errors.New("corrupt record")
)

// PrevMarker returns the nearest marker at or before off. The query
// offset is rounded down to word alignment and clamped to the view.
func PrevMarker(v store.View, off uint64) (uint64, bool) {
	if v.Len() == 0 {
		return 0, false
	}
	o := word.Align(off)
	if o >= v.Len() {
		o = v.Len() - word.Size
	}
	for {
		if word.Marks(v.Word(o), o) {
			return o, true
		}
		if o == 0 {
			return 0, false
		}
		o -= word.Size
	}
}

// NextMarker returns the first marker strictly after off.
func NextMarker(v store.View, off uint64) (uint64, bool) {
	for o := word.Align(off) + word.Size; o < v.Len(); o += word.Size {
		if word.Marks(v.Word(o), o) {
			return o, true
		}
	}
	return 0, false
}

// RecordAt returns the exact payload of the record whose marker sits at
// m: collision padding is skipped and the declared tail fill stripped.
func RecordAt(v store.View, m uint64) ([]byte, error) {
	if !word.Aligned(m) {
		return nil, fmt.Errorf("%w: offset %d", store.ErrMisaligned, m)
	}
	if m+word.Size > v.Len() {
		return nil, fmt.Errorf("%w: offset %d beyond store", ErrNotMarker, m)
	}
	mv := v.Word(m)
	if !word.Marks(mv, m) {
		return nil, fmt.Errorf("%w: offset %d", ErrNotMarker, m)
	}

	end := v.Len()
	if next, ok := NextMarker(v, m); ok {
		end = next
	}

	start := m + word.Size + uint64(word.MarkerPadWords(mv))*word.Size
	fill := uint64(word.MarkerFill(mv))
	if start > end || end-start < fill {
		return nil, fmt.Errorf("%w: marker at %d declares more than its region holds", ErrCorruptRecord, m)
	}
	return v.Bytes(start, end-fill), nil
}

// Next returns the marker of the record following the one at m.
func Next(v store.View, m uint64) (uint64, bool) {
	return NextMarker(v, m)
}

// Prev returns the marker of the record preceding the one at m.
func Prev(v store.View, m uint64) (uint64, bool) {
	if m < word.Size {
		return 0, false
	}
	return PrevMarker(v, m-word.Size)
}

// First returns the first marker of the view.
func First(v store.View) (uint64, bool) {
	if v.Len() == 0 {
		return 0, false
	}
	if word.Marks(v.Word(0), 0) {
		return 0, true
	}
	return NextMarker(v, 0)
}

// Last returns the last marker of the view.
func Last(v store.View) (uint64, bool) {
	if v.Len() == 0 {
		return 0, false
	}
	return PrevMarker(v, v.Len()-word.Size)
}
