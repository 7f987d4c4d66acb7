package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidKeypair = errors.New("invalid keypair")

// ParseKeypair decodes a keypair in the format written by solana-keygen: a JSON
// array of 64 bytes, the ed25519 seed followed by the public key.
func ParseKeypair(data []byte) (ed25519.PrivateKey, error) {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(ErrInvalidKeypair, err.Error())
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	b := make([]byte, ed25519.PrivateKeySize)
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypair, "value out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}

	key := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(key.Public().(ed25519.PublicKey), b[ed25519.SeedSize:]) {
		return nil, errors.Wrap(ErrInvalidKeypair, "public key does not match seed")
	}

	return key, nil
}

// LoadKeypairFile reads and parses a solana-keygen keypair file.
func LoadKeypairFile(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	key, err := ParseKeypair(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse keypair file %s", path)
	}

	return key, nil
}

// MarshalKeypair encodes key in the solana-keygen file format.
func MarshalKeypair(key ed25519.PrivateKey) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}

	// []byte would marshal as base64.
	raw := make([]int, len(key))
	for i, v := range key {
		raw[i] = int(v)
	}

	return json.Marshal(raw)
}

// PublicKeyString returns the base58 address of key.
func PublicKeyString(key ed25519.PublicKey) string {
	return base58.Encode(key)
}
