package compress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZstd_StreamRoundTrip(t *testing.T) {
	enc, err := NewZstd()
	require.NoError(t, err)
	dec, err := NewZstd()
	require.NoError(t, err)

	var want, got bytes.Buffer
	for i := 0; i < 50; i++ {
		record := []byte(fmt.Sprintf("record %04d: %s", i, bytes.Repeat([]byte("x"), i)))
		want.Write(record)

		seg, err := enc.Compress(record)
		require.NoError(t, err)
		require.NotEmpty(t, seg)
		require.LessOrEqual(t, len(seg), enc.Bound(len(record)))

		// Feed each flushed segment as it would arrive from an ItemFrame.
		plain, err := dec.Decompress(seg)
		require.NoError(t, err)
		got.Write(plain)
	}
	require.Equal(t, want.Bytes(), got.Bytes())
}

func TestZstd_ResetStartsIndependentStream(t *testing.T) {
	enc, err := NewZstd()
	require.NoError(t, err)

	first, err := enc.Compress([]byte("first stream"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(first, zstdMagic))
	firstCopy := append([]byte(nil), first...)

	enc.Reset()
	second, err := enc.Compress([]byte("second stream"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(second, zstdMagic), "post-reset output must be self-framed")

	// One decoder instance decodes both streams back to back; the frame
	// magic on the second stream resets its state.
	dec, err := NewZstd()
	require.NoError(t, err)

	p1, err := dec.Decompress(firstCopy)
	require.NoError(t, err)
	require.Equal(t, []byte("first stream"), p1)

	p2, err := dec.Decompress(second)
	require.NoError(t, err)
	require.Equal(t, []byte("second stream"), p2)
}

func TestZstd_ContinuationSegmentsLackMagic(t *testing.T) {
	enc, err := NewZstd()
	require.NoError(t, err)

	_, err = enc.Compress([]byte("head"))
	require.NoError(t, err)
	seg, err := enc.Compress([]byte("tail"))
	require.NoError(t, err)
	require.False(t, bytes.HasPrefix(seg, zstdMagic))
}

func TestZstd_GarbageInputDoesNotCorruptDecoder(t *testing.T) {
	enc, err := NewZstd()
	require.NoError(t, err)
	dec, err := NewZstd()
	require.NoError(t, err)

	_, err = dec.Decompress([]byte("definitely not zstd"))
	require.ErrorIs(t, err, ErrNotCompressed)

	// The decoder still works afterwards.
	seg, err := enc.Compress([]byte("real data"))
	require.NoError(t, err)
	plain, err := dec.Decompress(seg)
	require.NoError(t, err)
	require.Equal(t, []byte("real data"), plain)
}

func TestZstd_EmptyInput(t *testing.T) {
	z, err := NewZstd()
	require.NoError(t, err)

	out, err := z.Compress(nil)
	require.NoError(t, err)
	require.Empty(t, out)

	plain, err := z.Decompress(nil)
	require.NoError(t, err)
	require.Empty(t, plain)
}
