// Package codec offers optional payload compression for callers that
// want to store compressed blobs. The store itself never transforms
// bytes; a codec is applied strictly above it, and the caller must use
// the same codec on both sides.
package codec

import (
	"fmt"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses payloads.
type Codec struct {
	name   string
	encode func([]byte) ([]byte, error)
	decode func([]byte) ([]byte, error)
}

// Name returns the codec's registry name.
func (c *Codec) Name() string {
	return c.name
}

// Encode compresses src.
func (c *Codec) Encode(src []byte) ([]byte, error) {
	return c.encode(src)
}

// Decode decompresses src.
func (c *Codec) Decode(src []byte) ([]byte, error) {
	return c.decode(src)
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

var snappyCodec = &Codec{
	name: "snappy",
	encode: func(src []byte) ([]byte, error) {
		return snappy.Encode(nil, src), nil
	},
	decode: func(src []byte) ([]byte, error) {
		dst, err := snappy.Decode(nil, src)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return dst, nil
	},
}

var zstdCodec = &Codec{
	name: "zstd",
	encode: func(src []byte) ([]byte, error) {
		return zstdEncoder.EncodeAll(src, nil), nil
	},
	decode: func(src []byte) ([]byte, error) {
		dst, err := zstdDecoder.DecodeAll(src, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return dst, nil
	},
}

var codecs = map[string]*Codec{
	"snappy": snappyCodec,
	"zstd":   zstdCodec,
}

// For returns the codec registered under name, or nil.
func For(name string) *Codec {
	return codecs[name]
}

// Snappy returns the snappy codec.
func Snappy() *Codec {
	return snappyCodec
}

// Zstd returns the zstd codec.
func Zstd() *Codec {
	return zstdCodec
}
