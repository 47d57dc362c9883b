package half

import "math"

// Precision classifies what narrowing a wider value to Half does to it.
type Precision int

const (
	// PrecisionExact means the value round-trips unchanged. Zeros,
	// infinities and NaNs always report exact.
	PrecisionExact Precision = iota

	// PrecisionSubnormal means the value round-trips but lands in the
	// subnormal range, where fewer than 11 significant bits are available.
	PrecisionSubnormal

	// PrecisionInexact means significand bits were rounded away.
	PrecisionInexact

	// PrecisionUnderflow means a non-zero value rounded to a signed zero.
	PrecisionUnderflow

	// PrecisionOverflow means a finite value rounded to a signed infinity.
	PrecisionOverflow
)

func (p Precision) String() string {
	switch p {
	case PrecisionExact:
		return "exact"
	case PrecisionSubnormal:
		return "subnormal"
	case PrecisionInexact:
		return "inexact"
	case PrecisionUnderflow:
		return "underflow"
	case PrecisionOverflow:
		return "overflow"
	}
	return "unknown"
}

// PrecisionFromFloat32 reports how FromFloat32(f) treats f.
func PrecisionFromFloat32(f float32) Precision {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return PrecisionExact
	}
	h := FromFloat32(f)
	return classify(h, h.Float32() == f, f == 0)
}

// PrecisionFromFloat64 reports how FromFloat64(f) treats f.
func PrecisionFromFloat64(f float64) Precision {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return PrecisionExact
	}
	h := FromFloat64(f)
	return classify(h, h.Float64() == f, f == 0)
}

func classify(h Half, exact, zero bool) Precision {
	switch {
	case h.IsInf(0):
		return PrecisionOverflow
	case h.IsZero() && !zero:
		return PrecisionUnderflow
	case !exact:
		return PrecisionInexact
	case h.IsSubnormal():
		return PrecisionSubnormal
	}
	return PrecisionExact
}

// FromFloat32Precision narrows f and reports the precision class in one call.
func FromFloat32Precision(f float32) (Half, Precision) {
	h := FromFloat32(f)
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return h, PrecisionExact
	}
	return h, classify(h, h.Float32() == f, f == 0)
}
