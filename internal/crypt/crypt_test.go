package crypt

import (
	"bytes"
	"crypto/aes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *AES {
	t.Helper()
	aPriv, aPub, err := GenerateKeyPair()
	require.NoError(t, err)
	bPriv, bPub, err := GenerateKeyPair()
	require.NoError(t, err)

	// derive(a, B) == derive(b, A)
	s1, err := SharedSecret(aPriv, bPub)
	require.NoError(t, err)
	s2, err := SharedSecret(bPriv, aPub)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
	require.Len(t, s1, 32)

	c, err := NewAES(s1)
	require.NoError(t, err)
	return c
}

func TestAES_RoundTrip(t *testing.T) {
	c := testCipher(t)

	for _, plain := range [][]byte{
		[]byte("a"),
		[]byte("exactly 16 byte!"),
		bytes.Repeat([]byte{0x42}, 1000),
	} {
		ct, err := c.Encrypt(plain)
		require.NoError(t, err)

		wantLen := (len(plain) + 1 + aes.BlockSize - 1) / aes.BlockSize * aes.BlockSize
		require.Equal(t, wantLen, len(ct))

		got, err := c.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, plain, got)
	}
}

func TestAES_EmptyPlaintext(t *testing.T) {
	c := testCipher(t)

	ct, err := c.Encrypt(nil)
	require.NoError(t, err)
	require.Equal(t, aes.BlockSize, len(ct))

	got, err := c.Decrypt(ct)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAES_TamperedPaddingFails(t *testing.T) {
	c := testCipher(t)

	ct, err := c.Encrypt([]byte("some payload"))
	require.NoError(t, err)

	ct[len(ct)-1] ^= 0xFF
	_, err = c.Decrypt(ct)
	require.ErrorIs(t, err, ErrPadding)

	_, err = c.Decrypt([]byte("not a block multiple"))
	require.ErrorIs(t, err, ErrPadding)

	_, err = c.Decrypt(nil)
	require.ErrorIs(t, err, ErrPadding)
}

func TestSharedSecret_MalformedPeerKey(t *testing.T) {
	priv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = SharedSecret(priv, []byte{0x04, 0x01, 0x02})
	require.ErrorIs(t, err, ErrKeyAgreement)

	_, err = SharedSecret([]byte("bad private"), nil)
	require.ErrorIs(t, err, ErrKeyAgreement)
}

func TestHexKeyCodec(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)

	enc := EncodeHexKey(pub)
	require.Equal(t, strings.ToUpper(enc), enc, "hex keys are uppercase")

	dec, err := DecodeHexKey(enc)
	require.NoError(t, err)
	require.Equal(t, pub, dec)

	empty, err := DecodeHexKey("")
	require.NoError(t, err)
	require.Empty(t, empty)
	require.Equal(t, "", EncodeHexKey(nil))

	_, err = DecodeHexKey("zz")
	require.Error(t, err)
}
