package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	pub := []byte{0x04, 0xAA, 0xBB}
	buf := AppendHeader(nil, 1234, pub)
	require.Len(t, buf, HeaderSize)

	size, gotPub, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint64(1234), size)
	require.Len(t, gotPub, PubKeySize)
	require.Equal(t, pub, gotPub[:3])
	for _, b := range gotPub[3:] {
		require.Zero(t, b, "key field must be zero-padded")
	}
}

func TestItemFrameRoundTrip(t *testing.T) {
	buf := AppendItemFrame(nil, 48)
	require.Len(t, buf, ItemFrameSize)

	size, err := ParseItemFrame(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(48), size)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, _, err := ParseHeader([]byte("short"))
	require.ErrorIs(t, err, ErrFraming)

	bad := AppendHeader(nil, 1, nil)
	bad[0] ^= 0xFF
	_, _, err = ParseHeader(bad)
	require.ErrorIs(t, err, ErrFraming)

	_, err = ParseItemFrame([]byte{1, 2})
	require.ErrorIs(t, err, ErrFraming)

	badItem := AppendItemFrame(nil, 1)
	badItem[3] ^= 0xFF
	_, err = ParseItemFrame(badItem)
	require.ErrorIs(t, err, ErrFraming)
}
