// Package decode reads rotated log files back into records. It is the
// offline side of the pipeline: parse the chunk stream, rebuild each chunk's
// shared secret from the framed ephemeral public key and the server private
// key, decrypt the item frames, and feed the plaintexts through a zstd
// decode stream. Tests use it to close the loop; a shipping decoder tool
// would wrap this package.
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/kangzehao/high-performance-logger/internal/chunk"
	"github.com/kangzehao/high-performance-logger/internal/compress"
	"github.com/kangzehao/high-performance-logger/internal/crypt"
	"github.com/kangzehao/high-performance-logger/internal/record"
)

// p256PointSize is the length of an uncompressed P-256 public key; the
// chunk header field is zero-padded beyond it.
const p256PointSize = 65

// Chunk is one drained staging buffer as read from a file.
type Chunk struct {
	PubKey  []byte // ephemeral session public key, padding stripped
	Payload []byte // concatenated {ItemFrame, ciphertext} entries
}

// ReadChunks parses a whole rotated file into its chunks.
func ReadChunks(r io.Reader) ([]Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for len(data) > 0 {
		size, pubKey, err := chunk.ParseHeader(data)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", len(chunks), err)
		}
		data = data[chunk.HeaderSize:]
		if uint64(len(data)) < size {
			return nil, fmt.Errorf("chunk %d: truncated payload: %w", len(chunks), chunk.ErrFraming)
		}
		chunks = append(chunks, Chunk{
			PubKey:  pubKey[:p256PointSize],
			Payload: data[:size],
		})
		data = data[size:]
	}
	return chunks, nil
}

// DecodeChunk decrypts and decompresses one chunk with the server's private
// key and splits the plaintext back into records. Records inside a chunk are
// length-delimited by their item frames, and each frame's plaintext is one
// flushed segment of the chunk's compression stream holding exactly one
// record.
func DecodeChunk(c Chunk, serverPriv []byte) ([]record.Record, error) {
	secret, err := crypt.SharedSecret(serverPriv, c.PubKey)
	if err != nil {
		return nil, err
	}
	cipher, err := crypt.NewAES(secret)
	if err != nil {
		return nil, err
	}
	comp, err := compress.NewZstd()
	if err != nil {
		return nil, err
	}

	var records []record.Record
	payload := c.Payload
	for len(payload) > 0 {
		size, err := chunk.ParseItemFrame(payload)
		if err != nil {
			return records, err
		}
		payload = payload[chunk.ItemFrameSize:]
		if uint32(len(payload)) < size {
			return records, fmt.Errorf("item %d: truncated: %w", len(records), chunk.ErrFraming)
		}
		ciphertext := payload[:size]
		payload = payload[size:]

		compressed, err := cipher.Decrypt(ciphertext)
		if err != nil {
			return records, fmt.Errorf("item %d: %w", len(records), err)
		}
		plain, err := comp.Decompress(compressed)
		if err != nil {
			return records, fmt.Errorf("item %d: %w", len(records), err)
		}
		rec, err := record.Unmarshal(plain)
		if err != nil {
			return records, fmt.Errorf("item %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeFile reads every record of a rotated file in write order.
func DecodeFile(path string, serverPriv []byte) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks, err := ReadChunks(f)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	for i, c := range chunks {
		recs, err := DecodeChunk(c, serverPriv)
		if err != nil {
			return records, fmt.Errorf("chunk %d: %w", i, err)
		}
		records = append(records, recs...)
	}
	return records, nil
}
