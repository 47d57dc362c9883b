// Package half implements the IEEE 754 binary16 ("half precision") floating
// point type and its conversions to and from float32 and float64.
//
// A Half is stored as its raw 16-bit encoding. Arithmetic is never performed
// in 16-bit precision: operands are widened and the float32 result is
// returned as is. Narrowing back to Half is always an explicit call to
// FromFloat32 or FromFloat64.
package half

import (
	"strconv"
)

// Half is an IEEE 754 binary16 value: 1 sign bit, 5 exponent bits (bias 15)
// and 10 mantissa bits.
type Half uint16

const (
	signMask = 0x8000
	expMask  = 0x7c00
	fracMask = 0x03ff
	quietBit = 0x0200

	expShift = 10
	expBias  = 15
	expMax   = 0x1f
)

const (
	PositiveZero      Half = 0x0000
	NegativeZero      Half = 0x8000
	One               Half = 0x3c00
	NegativeOne       Half = 0xbc00
	PositiveInfinity  Half = 0x7c00
	NegativeInfinity  Half = 0xfc00
	MaxValue          Half = 0x7bff // 65504
	MinValue          Half = 0xfbff // -65504
	SmallestNormal    Half = 0x0400 // 2^-14
	SmallestSubnormal Half = 0x0001 // 2^-24
	Epsilon           Half = 0x1400 // 2^-10, the gap between 1 and the next Half

	canonicalNaN Half = 0x7e00
)

// FromBits returns the Half whose binary16 encoding is b.
func FromBits(b uint16) Half {
	return Half(b)
}

// Bits returns the binary16 encoding of h. FromBits(h.Bits()) == h.
func (h Half) Bits() uint16 {
	return uint16(h)
}

// NaN returns the canonical quiet NaN (0x7e00).
func NaN() Half {
	return canonicalNaN
}

// Inf returns positive infinity if sign >= 0, negative infinity if sign < 0.
func Inf(sign int) Half {
	if sign >= 0 {
		return PositiveInfinity
	}
	return NegativeInfinity
}

func (h Half) IsNaN() bool {
	return h&expMask == expMask && h&fracMask != 0
}

// IsInf reports whether h is an infinity, according to sign.
// If sign > 0, IsInf reports whether h is positive infinity.
// If sign < 0, IsInf reports whether h is negative infinity.
// If sign == 0, IsInf reports whether h is either infinity.
func (h Half) IsInf(sign int) bool {
	switch {
	case sign > 0:
		return h == PositiveInfinity
	case sign < 0:
		return h == NegativeInfinity
	}
	return h&^signMask == PositiveInfinity
}

func (h Half) IsFinite() bool {
	return h&expMask != expMask
}

// IsZero reports whether h is +0 or -0.
func (h Half) IsZero() bool {
	return h&^signMask == 0
}

func (h Half) IsSubnormal() bool {
	return h&expMask == 0 && h&fracMask != 0
}

func (h Half) IsNormal() bool {
	e := h & expMask
	return e != 0 && e != expMask
}

// Signbit reports whether the sign bit of h is set, including for -0 and
// NaNs carrying a sign.
func (h Half) Signbit() bool {
	return h&signMask != 0
}

// Abs clears the sign bit.
func (h Half) Abs() Half {
	return h &^ signMask
}

// Neg flips the sign bit. Neg of a NaN is still a NaN.
func (h Half) Neg() Half {
	return h ^ signMask
}

// String formats the widened value in its shortest float32 form.
func (h Half) String() string {
	return strconv.FormatFloat(float64(h.Float32()), 'g', -1, 32)
}
