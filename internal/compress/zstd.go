package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstd frame magic, little-endian 0xFD2FB528 on the wire.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Zstd is a streaming zstd Compressor. The encoder keeps its window across
// Compress calls until Reset, so records within one chunk share a stream;
// the decode side accumulates segments of the current stream and re-decodes
// from the stream start, returning only the new suffix.
type Zstd struct {
	enc *zstd.Encoder
	out bytes.Buffer

	in      bytes.Buffer // segments of the stream being decoded
	emitted int          // plaintext bytes already returned for in
}

// NewZstd returns a Zstd with a single-goroutine encoder; flushing tiny
// records through a concurrent encoder only adds latency.
func NewZstd() (*Zstd, error) {
	z := &Zstd{}
	enc, err := zstd.NewWriter(&z.out,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	z.enc = enc
	return z, nil
}

func (z *Zstd) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	z.out.Reset()
	z.out.Grow(z.Bound(len(src)))
	if _, err := z.enc.Write(src); err != nil {
		return nil, fmt.Errorf("zstd write: %w", err)
	}
	if err := z.enc.Flush(); err != nil {
		return nil, fmt.Errorf("zstd flush: %w", err)
	}
	return z.out.Bytes(), nil
}

func (z *Zstd) Bound(srcLen int) int {
	return z.enc.MaxEncodedSize(srcLen)
}

func (z *Zstd) Reset() {
	z.out.Reset()
	z.enc.Reset(&z.out)
}

func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	if bytes.HasPrefix(src, zstdMagic) {
		z.in.Reset()
		z.emitted = 0
	} else if z.in.Len() == 0 {
		// Not a stream start and no stream in progress.
		return nil, ErrNotCompressed
	}

	prev := z.in.Len()
	z.in.Write(src)

	plain, err := decodeFlushed(z.in.Bytes())
	if err != nil {
		z.in.Truncate(prev)
		return nil, err
	}
	out := plain[z.emitted:]
	z.emitted = len(plain)
	return out, nil
}

// decodeFlushed decodes a stream that ends at a flush boundary rather than a
// frame end, so an unexpected EOF after the last complete block is the normal
// termination.
func decodeFlushed(stream []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(stream), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	var plain bytes.Buffer
	_, err = io.Copy(&plain, dec.IOReadCloser())
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return plain.Bytes(), nil
}
