package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strings"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrIllegalOwner          = errors.New("illegal owner")

	ErrInvalidPublicKey = errors.New("invalid public key")
)

// CreateWithSeed mirrors the Solana SDK's Pubkey::create_with_seed. The derived
// address is sha256(base || seed || owner) and is a pure function of its inputs.
//
// Unlike program addresses, seeded addresses are not required to lie off the
// ed25519 curve. They are only ever used as the target of a system program
// *WithSeed instruction, which authorizes with the base key.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L146
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(seed) > maxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}
	if len(base) != ed25519.PublicKeySize || len(owner) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}

	// Owners ending in the PDA marker would let a seeded address be confused
	// with a program derived address.
	if strings.HasSuffix(string(owner), pdaMarker) {
		return nil, ErrIllegalOwner
	}

	h := sha256.New()
	for _, v := range [][]byte{base, []byte(seed), owner} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	return h.Sum(nil), nil
}

// IsOnCurve reports whether the key is a valid compressed ed25519 point, that
// is, whether a private key could exist for it.
//
// The edwards25519.ExtendedGroupElement is internal to golang.org/x/crypto, so
// this relies on a deprecated open source alternative.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var pub [32]byte
	copy(pub[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&pub)
}
