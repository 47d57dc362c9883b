package half

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR major type 7 holds simple values (0xe0-0xf8) followed by floats;
// additional information 25 is IEEE 754 half precision.
const (
	cborSimpleHead  = 0xe0
	cborFloat16Head = 0xf9
)

var (
	_ cbor.Marshaler   = Half(0)
	_ cbor.Unmarshaler = (*Half)(nil)
)

// MarshalCBOR encodes h as a CBOR half-precision float, carrying the
// binary16 bits unchanged.
func (h Half) MarshalCBOR() ([]byte, error) {
	b := make([]byte, 3)
	b[0] = cborFloat16Head
	binary.BigEndian.PutUint16(b[1:], uint16(h))
	return b, nil
}

// UnmarshalCBOR accepts a CBOR half-precision float verbatim. Any other CBOR
// float or integer is decoded as float64 and narrowed with FromFloat64.
// Simple values such as null, undefined and booleans are rejected.
func (h *Half) UnmarshalCBOR(data []byte) error {
	if len(data) == 3 && data[0] == cborFloat16Head {
		*h = Half(binary.BigEndian.Uint16(data[1:]))
		return nil
	}
	if len(data) > 0 && data[0] >= cborSimpleHead && data[0] < cborFloat16Head {
		return fmt.Errorf("half: cbor simple value %#02x is not a number", data[0])
	}
	var f float64
	if err := cbor.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("half: decode cbor value: %w", err)
	}
	*h = FromFloat64(f)
	return nil
}
