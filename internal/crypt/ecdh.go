package crypt

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrKeyAgreement is returned when a peer key cannot be used to derive a
// shared secret.
var ErrKeyAgreement = errors.New("crypt: key agreement failed")

// curve is the handshake curve; public keys are the uncompressed 65-byte
// point encoding and shared secrets are the 32-byte x coordinate.
var curve = ecdh.P256()

// GenerateKeyPair returns an ephemeral (private, public) pair on P-256.
func GenerateKeyPair() (priv, pub []byte, err error) {
	key, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypt: generate keypair: %w", err)
	}
	return key.Bytes(), key.PublicKey().Bytes(), nil
}

// SharedSecret runs Diffie-Hellman between a local private key and a peer
// public key.
func SharedSecret(priv, peerPub []byte) ([]byte, error) {
	key, err := curve.NewPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrKeyAgreement, err)
	}
	peer, err := curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: peer key: %v", ErrKeyAgreement, err)
	}
	secret, err := key.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyAgreement, err)
	}
	return secret, nil
}

// EncodeHexKey renders key material as uppercase hex, the encoding used for
// keys in configuration.
func EncodeHexKey(key []byte) string {
	return strings.ToUpper(hex.EncodeToString(key))
}

// DecodeHexKey is the inverse of EncodeHexKey; it accepts either case.
func DecodeHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("crypt: decode hex key: %w", err)
	}
	return key, nil
}
