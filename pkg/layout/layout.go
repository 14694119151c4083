// Package layout computes collision-free record placements.
//
// A record is laid out as one marker word, zero or more zero-valued
// padding words, and the payload bytes zero-filled to the next word
// boundary. The resolver picks the minimal padding count such that no
// payload word, read at its final absolute offset, satisfies the marker
// predicate. Boundary discovery then never mistakes payload for a
// marker.
package layout

import (
	"errors"
	"fmt"

	"github.com/blobmark/blobmark/pkg/word"
)

// MaxPayloadSize is the largest payload a single record can hold. The
// limit keeps the worst-case padding count representable in a marker's
// pad-word field; the format assumes individually small records.
const MaxPayloadSize = word.MaxPadWords * word.Size

var ErrPayloadTooLarge = errors.New("payload exceeds maximum record size")

// Words splits payload into its word sequence, zero-filling the last
// word. The sequence is a property of the payload alone, independent of
// where the record lands.
func Words(payload []byte) []uint64 {
	n := wordCount(len(payload))
	words := make([]uint64, n)

	var last [word.Size]byte
	for i := 0; i < n; i++ {
		chunk := payload[i*word.Size:]
		if len(chunk) < word.Size {
			copy(last[:], chunk)
			chunk = last[:]
		}
		words[i] = word.Decode(chunk)
	}
	return words
}

// Fill returns the number of zero bytes appended after a payload of
// length n to reach the next word boundary.
func Fill(n int) int {
	return int(word.AlignUp(uint64(n))) - n
}

// Resolve returns the minimal number of zero padding words to insert
// between a marker at markerOff and the payload so that no payload word
// collides with its own absolute offset.
//
// Each payload word can force at most one increment: its value pins the
// single padding count at which its offset would match, and every
// increment moves all candidate offsets strictly upward. The result is
// therefore bounded by the payload's word count, and the loop always
// terminates.
func Resolve(markerOff uint64, payload []byte) int {
	return resolve(markerOff, Words(payload))
}

func resolve(markerOff uint64, words []uint64) int {
	pad := 0
	for {
		clean := true
		for i, w := range words {
			off := markerOff + uint64(1+pad+i)*word.Size
			if word.Marks(w, off) {
				// Re-check every word at the new placement;
				// cheap, and sidesteps any ordering subtlety.
				pad++
				clean = false
				break
			}
		}
		if clean {
			return pad
		}
	}
}

// EncodeRecord builds the full on-disk image of a record placed at
// markerOff: marker word, padding words, payload, zero fill. It returns
// the image and the resolved padding word count.
func EncodeRecord(markerOff uint64, payload []byte) ([]byte, int, error) {
	if len(payload) > MaxPayloadSize {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	words := Words(payload)
	pad := resolve(markerOff, words)
	fill := Fill(len(payload))

	buf := make([]byte, (1+pad+len(words))*word.Size)
	word.Encode(buf, word.Marker(markerOff, pad, fill))
	copy(buf[(1+pad)*word.Size:], payload)

	return buf, pad, nil
}

func wordCount(n int) int {
	return (n + word.Size - 1) / word.Size
}
