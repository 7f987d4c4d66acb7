package ping

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const counterSize = 4

var ErrCounterTooSmall = errors.New("account data too small for a counter")

// DecodeCounter reads the greeting counter the reference program keeps at the
// start of the client account's data, a little endian u32.
func DecodeCounter(data []byte) (uint32, error) {
	if len(data) < counterSize {
		return 0, errors.Wrapf(ErrCounterTooSmall, "%d bytes", len(data))
	}
	return binary.LittleEndian.Uint32(data[:counterSize]), nil
}
