package half

import (
	"math"
	"math/bits"
)

// binary32 layout
const (
	f32SignMask = 0x80000000
	f32ExpMask  = 0x7f800000
	f32FracMask = 0x007fffff
	f32FracBits = 23
	f32ExpBias  = 127
)

// binary64 layout
const (
	f64SignMask = 0x8000000000000000
	f64ExpMask  = 0x7ff0000000000000
	f64FracMask = 0x000fffffffffffff
	f64FracBits = 52
	f64ExpBias  = 1023
)

// Float32 widens h to float32. The conversion is exact for every encoding.
func (h Half) Float32() float32 {
	return math.Float32frombits(f16bitsToF32bits(uint16(h)))
}

// Float64 widens h to float64. The conversion is exact for every encoding.
func (h Half) Float64() float64 {
	return float64(h.Float32())
}

// ToFloat32 is the free-function form of Half.Float32.
func ToFloat32(h Half) float32 {
	return h.Float32()
}

// FromFloat32 narrows f to the nearest Half, ties to even. Magnitudes beyond
// the finite range become a signed infinity and magnitudes that round below
// the smallest subnormal become a signed zero. NaN input yields a quiet NaN.
func FromFloat32(f float32) Half {
	return Half(f32bitsToF16bits(math.Float32bits(f)))
}

// FromFloat64 narrows f to the nearest Half with a single rounding step, so
// the result can differ from FromFloat32(float32(f)) where the intermediate
// float32 rounding would land exactly on a Half tie.
func FromFloat64(f float64) Half {
	return Half(f64bitsToF16bits(math.Float64bits(f)))
}

func f16bitsToF32bits(in uint16) uint32 {
	sign := uint32(in&signMask) << 16
	exp := uint32(in&expMask) >> expShift
	frac := uint32(in & fracMask)

	switch exp {
	case expMax:
		if frac == 0 {
			return sign | f32ExpMask
		}
		// NaN: keep the payload in the high bits and force the quiet bit.
		return sign | f32ExpMask | 0x00400000 | frac<<(f32FracBits-expShift)
	case 0:
		if frac == 0 {
			return sign
		}
		// Subnormal. Move the leading one up to the implicit bit position;
		// every binary16 subnormal is a normal binary32 value.
		shift := bits.LeadingZeros32(frac) - (31 - expShift)
		frac = (frac << uint(shift)) & fracMask
		e := f32ExpBias - expBias + 1 - shift
		return sign | uint32(e)<<f32FracBits | frac<<(f32FracBits-expShift)
	}
	return sign | (exp+f32ExpBias-expBias)<<f32FracBits | frac<<(f32FracBits-expShift)
}

func f32bitsToF16bits(u uint32) uint16 {
	sign := uint16((u & f32SignMask) >> 16)
	exp := (u & f32ExpMask) >> f32FracBits
	frac := u & f32FracMask

	switch exp {
	case 0xff:
		if frac == 0 {
			return sign | uint16(PositiveInfinity)
		}
		return sign | uint16(canonicalNaN) | uint16(frac>>(f32FracBits-expShift))
	case 0:
		// Zero or a binary32 subnormal, both far below 2^-25.
		return sign
	}
	return narrow(sign, int(exp)-f32ExpBias, uint64(frac)|1<<f32FracBits, f32FracBits)
}

func f64bitsToF16bits(u uint64) uint16 {
	sign := uint16((u & f64SignMask) >> 48)
	exp := (u & f64ExpMask) >> f64FracBits
	frac := u & f64FracMask

	switch exp {
	case 0x7ff:
		if frac == 0 {
			return sign | uint16(PositiveInfinity)
		}
		return sign | uint16(canonicalNaN) | uint16(frac>>(f64FracBits-expShift))
	case 0:
		return sign
	}
	return narrow(sign, int(exp)-f64ExpBias, frac|1<<f64FracBits, f64FracBits)
}

// narrow rounds the finite value sig * 2^(e-p) to binary16, where sig carries
// its implicit leading bit at position p and e is the unbiased exponent.
func narrow(sign uint16, e int, sig uint64, p uint) uint16 {
	switch {
	case e > expBias:
		return sign | uint16(PositiveInfinity)
	case e < -expBias-10:
		// Below 2^-25, half the smallest subnormal.
		return sign
	case e < 1-expBias:
		// Subnormal result in units of 2^-24. A carry out of the ten
		// mantissa bits lands on 0x0400, the smallest normal.
		q := roundShift(sig, p+uint(-e)-24)
		return sign | uint16(q)
	}
	// Normal result. q holds the implicit bit, so adding it to the exponent
	// field minus one yields the encoding; a rounding carry to 2^11 moves the
	// exponent up by one and turns exponent 31 into infinity.
	q := roundShift(sig, p-expShift)
	return sign + uint16(e+expBias-1)<<expShift + uint16(q)
}

// roundShift returns v >> n rounded to nearest, ties to even. n must be
// between 1 and 63.
func roundShift(v uint64, n uint) uint64 {
	q := v >> n
	rem := v & (1<<n - 1)
	halfway := uint64(1) << (n - 1)
	if rem > halfway || (rem == halfway && q&1 == 1) {
		q++
	}
	return q
}
