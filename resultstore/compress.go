package resultstore

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor encodes/decodes the inner record payload.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Name() string
}

// CompressorByName returns a built-in compressor by its stable name, which
// is what records carry in their header.
func CompressorByName(name string) (Compressor, bool) {
	switch name {
	case "none", "":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// None stores payloads uncompressed.
type None struct{}

func (None) Compress(src []byte) ([]byte, error)   { return src, nil }
func (None) Decompress(src []byte) ([]byte, error) { return src, nil }
func (None) Name() string                          { return "none" }

// Shared zstd state; EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Zstd compresses payloads with zstandard. Component matrices are highly
// repetitive JSON, so this is the default for the blob backend.
type Zstd struct{}

func (Zstd) Compress(src []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, nil), nil
}

func (Zstd) Decompress(src []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, nil)
}

func (Zstd) Name() string { return "zstd" }

// LZ4 compresses payloads with the LZ4 frame format. Lighter on CPU than
// zstd; preferred when the durable tier is a fast local disk.
type LZ4 struct{}

func (LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("resultstore: lz4 decompress: %w", err)
	}
	return out, nil
}

func (LZ4) Name() string { return "lz4" }
