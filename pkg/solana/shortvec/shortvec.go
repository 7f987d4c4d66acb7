// Package shortvec implements the compact length prefix used throughout the
// Solana wire format: 7 bits per byte, little endian, high bit set on every
// byte but the last, at most 3 bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var ErrInvalidLength = errors.New("invalid shortvec length")

// EncodeLen writes the encoding of length to w, returning the number of bytes
// written.
func EncodeLen(w io.Writer, length int) (int, error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Wrapf(ErrInvalidLength, "%d outside [0, %d]", length, math.MaxUint16)
	}

	var encoded [maxEncodedLen]byte
	size := 0
	for {
		encoded[size] = byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			size++
			break
		}

		encoded[size] |= 0x80
		size++
	}

	return w.Write(encoded[:size])
}

// DecodeLen reads one encoded length from r.
func DecodeLen(r io.Reader) (int, error) {
	var b [1]byte
	var val int

	for i := 0; i < maxEncodedLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		val |= int(b[0]&0x7f) << (i * 7)
		if b[0]&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, errors.Wrapf(ErrInvalidLength, "decoded %d", val)
			}
			return val, nil
		}
	}

	return 0, errors.Wrapf(ErrInvalidLength, "more than %d bytes", maxEncodedLen)
}
