// Package crypt implements the session crypto of the log pipeline: an
// ECDH handshake that yields a per-sink shared secret, and AES-CBC over each
// compressed record. The IV is fixed for the session; confidentiality of a
// chunk is bound to the ephemeral public key framed next to it, and offline
// readers rebuild the secret from that key plus the server private key.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// ErrPadding is returned by Decrypt when the ciphertext does not end in
// valid PKCS#7 padding.
var ErrPadding = errors.New("crypt: invalid padding")

// sessionIV is the fixed CBC IV, published with the file format.
const sessionIV = "dad0c0012340080a"

// aesKeySize selects AES-128; longer shared secrets are truncated.
const aesKeySize = 16

// Cipher is the symmetric capability used by the staging sink.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// AES is an AES-128-CBC Cipher keyed by a shared secret.
type AES struct {
	block cipher.Block
	iv    []byte
}

// NewAES builds a Cipher from a shared secret of at least 16 bytes; only the
// first 16 bytes key the cipher.
func NewAES(secret []byte) (*AES, error) {
	if len(secret) < aesKeySize {
		return nil, fmt.Errorf("crypt: secret too short: %d bytes", len(secret))
	}
	block, err := aes.NewCipher(secret[:aesKeySize])
	if err != nil {
		return nil, fmt.Errorf("crypt: %w", err)
	}
	return &AES{block: block, iv: []byte(sessionIV)}, nil
}

// Encrypt encrypts plaintext as one CBC message. The output length is
// len(plaintext)+1 rounded up to the block size.
func (a *AES) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(a.block, a.iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt inverts Encrypt. Ciphertext that is empty, misaligned, or ends in
// bad padding yields ErrPadding.
func (a *AES) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrPadding
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(a.block, a.iv).CryptBlocks(out, ciphertext)
	return unpad(out)
}

func pad(src []byte, blockSize int) []byte {
	n := blockSize - len(src)%blockSize
	return append(append(make([]byte, 0, len(src)+n), src...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(src []byte) ([]byte, error) {
	n := int(src[len(src)-1])
	if n == 0 || n > aes.BlockSize || n > len(src) {
		return nil, ErrPadding
	}
	for _, b := range src[len(src)-n:] {
		if int(b) != n {
			return nil, ErrPadding
		}
	}
	return src[:len(src)-n], nil
}
