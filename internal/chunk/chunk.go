// Package chunk defines the on-disk framing of rotated log files. A file is
// a concatenation of chunks; each chunk is one drained staging buffer behind
// a header carrying the session's ephemeral public key, so an offline reader
// can rebuild the shared secret. Inside the payload every ciphertext entry
// sits behind an ItemFrame. All fields are little-endian.
package chunk

import (
	"encoding/binary"
	"errors"
)

const (
	// Magic opens every chunk header.
	Magic uint64 = 0xDEADBEEFDADA1100

	// ItemMagic opens every item frame inside a chunk payload.
	ItemMagic uint32 = 0xBE5FBA11

	// PubKeySize is the fixed, zero-padded size of the public-key field.
	PubKeySize = 128

	// HeaderSize is the encoded chunk header length.
	HeaderSize = 8 + 8 + PubKeySize

	// ItemFrameSize is the encoded item frame length.
	ItemFrameSize = 4 + 4
)

// ErrFraming is returned by the parse helpers on bad magics or truncation.
var ErrFraming = errors.New("chunk: bad framing")

// AppendHeader appends a chunk header for a payload of size bytes.
func AppendHeader(dst []byte, size uint64, pubKey []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, Magic)
	dst = binary.LittleEndian.AppendUint64(dst, size)
	var padded [PubKeySize]byte
	copy(padded[:], pubKey)
	return append(dst, padded[:]...)
}

// AppendItemFrame appends the frame header for one ciphertext entry.
func AppendItemFrame(dst []byte, size uint32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, ItemMagic)
	return binary.LittleEndian.AppendUint32(dst, size)
}

// ParseHeader reads a chunk header from the front of src and returns the
// payload size and the padded public-key field.
func ParseHeader(src []byte) (size uint64, pubKey []byte, err error) {
	if len(src) < HeaderSize {
		return 0, nil, ErrFraming
	}
	if binary.LittleEndian.Uint64(src[0:8]) != Magic {
		return 0, nil, ErrFraming
	}
	size = binary.LittleEndian.Uint64(src[8:16])
	return size, src[16:HeaderSize], nil
}

// ParseItemFrame reads an item frame from the front of src and returns the
// ciphertext length.
func ParseItemFrame(src []byte) (size uint32, err error) {
	if len(src) < ItemFrameSize {
		return 0, ErrFraming
	}
	if binary.LittleEndian.Uint32(src[0:4]) != ItemMagic {
		return 0, ErrFraming
	}
	return binary.LittleEndian.Uint32(src[4:8]), nil
}
