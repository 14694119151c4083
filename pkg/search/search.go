// Package search implements binary search over the records of a store
// written in non-decreasing key order.
//
// The store itself has no index; ordering is a caller invariant. The
// search probes the midpoint of a word-aligned interval, snaps to the
// enclosing record via the locator, and narrows on the comparator's
// verdict. Probe cost tracks record size, which the format assumes is
// small.
package search

import (
	"github.com/blobmark/blobmark/pkg/locator"
	"github.com/blobmark/blobmark/pkg/store"
	"github.com/blobmark/blobmark/pkg/word"
)

// Comparator orders a record against the search target: negative when
// the record sorts before the target, zero on a match, positive when it
// sorts after. It must agree with the order records were appended in.
type Comparator func(record []byte) int

// Find returns the marker offset of a record matching cmp, or ok=false
// when no record matches. An error surfaces only on a corrupt record.
func Find(v store.View, cmp Comparator) (uint64, bool, error) {
	lo, hi := uint64(0), v.Len()

	for lo < hi {
		mid := word.Align(lo + (hi-lo)/2)

		m, ok := locator.PrevMarker(v, mid)
		if !ok || m < lo || m >= hi {
			// Probe escaped the interval; record-size skew has
			// starved the bisection, finish linearly.
			return linear(v, cmp, lo, hi)
		}

		rec, err := locator.RecordAt(v, m)
		if err != nil {
			return 0, false, err
		}

		switch c := cmp(rec); {
		case c == 0:
			return m, true, nil
		case c > 0:
			// Probed record sorts after the target.
			hi = m
		default:
			next, ok := locator.NextMarker(v, m)
			if !ok {
				return 0, false, nil
			}
			lo = next
		}
	}
	return 0, false, nil
}

// linear walks the records inside [lo, hi) in order.
func linear(v store.View, cmp Comparator, lo, hi uint64) (uint64, bool, error) {
	m, ok := markerAtOrAfter(v, lo)
	for ; ok && m < hi; m, ok = locator.NextMarker(v, m) {
		rec, err := locator.RecordAt(v, m)
		if err != nil {
			return 0, false, err
		}
		switch c := cmp(rec); {
		case c == 0:
			return m, true, nil
		case c > 0:
			return 0, false, nil
		}
	}
	return 0, false, nil
}

func markerAtOrAfter(v store.View, off uint64) (uint64, bool) {
	if off < v.Len() && word.Marks(v.Word(off), off) {
		return off, true
	}
	return locator.NextMarker(v, off)
}
