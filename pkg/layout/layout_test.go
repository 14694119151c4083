package layout

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/blobmark/blobmark/pkg/word"
)

// checkNoStrayMarkers scans a record image placed at base and fails if
// any word besides the leading marker satisfies the marker predicate.
func checkNoStrayMarkers(t *testing.T, base uint64, image []byte) {
	t.Helper()
	for j := word.Size; j < len(image); j += word.Size {
		off := base + uint64(j)
		if word.Marks(word.Decode(image[j:]), off) {
			t.Errorf("stray marker at offset %d", off)
		}
	}
}

func TestWords(t *testing.T) {
	words := Words([]byte("abcdefgh_tail"))
	if len(words) != 2 {
		t.Fatalf("word count = %d, want 2", len(words))
	}
	if words[0] != word.Decode([]byte("abcdefgh")) {
		t.Errorf("first word = %#x", words[0])
	}
	// last word zero-filled
	if words[1] != word.Decode([]byte("_tail\x00\x00\x00")) {
		t.Errorf("last word = %#x", words[1])
	}
}

func TestFill(t *testing.T) {
	cases := map[int]int{0: 0, 1: 7, 7: 1, 8: 0, 9: 7, 16: 0}
	for n, want := range cases {
		if got := Fill(n); got != want {
			t.Errorf("Fill(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestResolveCleanPayload(t *testing.T) {
	if pad := Resolve(0, []byte("hello world")); pad != 0 {
		t.Errorf("clean payload resolved to %d padding words", pad)
	}
}

func TestResolveAdversarialWord(t *testing.T) {
	// Second payload word crafted to equal its unpadded target
	// offset: marker at 0, word 1 would land at offset 16.
	payload := make([]byte, 16)
	copy(payload, "aaaaaaaa")
	word.Encode(payload[8:], 16)

	pad := Resolve(0, payload)
	if pad < 1 {
		t.Fatalf("resolver missed the collision, pad = %d", pad)
	}

	image, gotPad, err := EncodeRecord(0, payload)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if gotPad != pad {
		t.Errorf("EncodeRecord pad = %d, Resolve pad = %d", gotPad, pad)
	}
	checkNoStrayMarkers(t, 0, image)
}

func TestResolveMaskedCollision(t *testing.T) {
	// The marker predicate ignores metadata bits, so a payload word
	// whose offset field matches is a collision even with high bits
	// set.
	payload := make([]byte, 8)
	word.Encode(payload, word.Marker(8, 3, 7))

	if pad := Resolve(0, payload); pad < 1 {
		t.Error("masked collision not resolved")
	}
}

func TestResolveLadder(t *testing.T) {
	// Word i collides exactly when the padding count is i, forcing
	// one increment per word: the worst case the bound promises.
	const n = 12
	payload := make([]byte, n*word.Size)
	for i := 0; i < n; i++ {
		word.Encode(payload[i*word.Size:], uint64(8+16*i))
	}

	pad := Resolve(0, payload)
	if pad > n {
		t.Fatalf("pad = %d exceeds word count %d", pad, n)
	}
	if pad != n {
		t.Errorf("ladder payload resolved to %d, want %d", pad, n)
	}

	image, _, err := EncodeRecord(0, payload)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	checkNoStrayMarkers(t, 0, image)
}

func TestResolveBoundRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		payload := make([]byte, rng.Intn(256))
		rng.Read(payload)
		base := word.Align(uint64(rng.Intn(1 << 20)))

		pad := Resolve(base, payload)
		n := (len(payload) + word.Size - 1) / word.Size
		if pad > n {
			t.Fatalf("pad %d exceeds word count %d (len %d, base %d)",
				pad, n, len(payload), base)
		}

		image, _, err := EncodeRecord(base, payload)
		if err != nil {
			t.Fatalf("EncodeRecord: %v", err)
		}
		checkNoStrayMarkers(t, base, image)
	}
}

func TestEncodeRecordImage(t *testing.T) {
	payload := []byte("abc")
	image, pad, err := EncodeRecord(16, payload)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if pad != 0 {
		t.Fatalf("unexpected padding: %d", pad)
	}
	if len(image) != 16 {
		t.Fatalf("image length = %d, want 16", len(image))
	}

	m := word.Decode(image)
	if word.MarkerOffset(m) != 16 {
		t.Errorf("marker offset field = %d", word.MarkerOffset(m))
	}
	if word.MarkerFill(m) != 5 {
		t.Errorf("marker fill = %d, want 5", word.MarkerFill(m))
	}
	if !bytes.Equal(image[8:11], payload) {
		t.Errorf("payload bytes not copied verbatim")
	}
	if !bytes.Equal(image[11:], make([]byte, 5)) {
		t.Errorf("tail fill not zeroed")
	}
}

func TestEncodeRecordEmptyPayload(t *testing.T) {
	image, pad, err := EncodeRecord(24, nil)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if pad != 0 || len(image) != word.Size {
		t.Fatalf("empty record: pad=%d len=%d", pad, len(image))
	}
}

func TestEncodeRecordTooLarge(t *testing.T) {
	_, _, err := EncodeRecord(0, make([]byte, MaxPayloadSize+1))
	if err == nil {
		t.Fatal("oversized payload accepted")
	}
}
