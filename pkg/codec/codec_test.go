package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("the quick brown fox ", 50))

	for _, c := range []*Codec{Snappy(), Zstd()} {
		enc, err := c.Encode(payload)
		if err != nil {
			t.Fatalf("%s encode: %v", c.Name(), err)
		}
		if len(enc) >= len(payload) {
			t.Errorf("%s did not compress repetitive input (%d >= %d)",
				c.Name(), len(enc), len(payload))
		}

		dec, err := c.Decode(enc)
		if err != nil {
			t.Fatalf("%s decode: %v", c.Name(), err)
		}
		if !bytes.Equal(dec, payload) {
			t.Errorf("%s round trip mismatch", c.Name())
		}
	}
}

func TestFor(t *testing.T) {
	if For("snappy") != Snappy() || For("zstd") != Zstd() {
		t.Error("registry lookup broken")
	}
	if For("lz4") != nil {
		t.Error("unknown codec must return nil")
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, c := range []*Codec{Snappy(), Zstd()} {
		if _, err := c.Decode([]byte("definitely not compressed")); err == nil {
			t.Errorf("%s accepted garbage input", c.Name())
		}
	}
}
