// Package compress wraps a streaming compressor for the staging pipeline.
// Each Compress call ends on a flush boundary so the bytes emitted so far
// always form a decodable prefix of the stream; Reset starts a new stream,
// which the sink does whenever a fresh chunk begins.
package compress

import "errors"

// ErrNotCompressed is returned when Decompress is handed data that does not
// belong to a known stream.
var ErrNotCompressed = errors.New("compress: input is not part of a compressed stream")

// Compressor is the capability used by the staging sink.
type Compressor interface {
	// Compress consumes src and returns the bytes flushed for it. The
	// returned slice is reused by the next call. An empty return with nil
	// error means src was empty.
	Compress(src []byte) ([]byte, error)

	// Bound returns the worst-case compressed size for srcLen input bytes.
	Bound(srcLen int) int

	// Decompress feeds one emitted segment into the decode stream and
	// returns the newly decodable plaintext. Input that starts with the
	// stream format signature resets the decoder, so one instance can decode
	// concatenated independent streams.
	Decompress(src []byte) ([]byte, error)

	// Reset discards stream state; the next Compress starts an independent,
	// self-framed stream.
	Reset()
}
