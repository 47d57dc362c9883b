package half

import "cmp"

// Ordering is the result of an IEEE 754 comparison.
type Ordering int8

const (
	OrderLess      Ordering = -1
	OrderEqual     Ordering = 0
	OrderGreater   Ordering = 1
	OrderUnordered Ordering = 2 // at least one operand is NaN
)

func (o Ordering) String() string {
	switch o {
	case OrderLess:
		return "less"
	case OrderEqual:
		return "equal"
	case OrderGreater:
		return "greater"
	case OrderUnordered:
		return "unordered"
	}
	return "invalid"
}

// Compare orders a and b by their widened values. NaN operands yield
// OrderUnordered; +0 and -0 are OrderEqual.
func Compare(a, b Half) Ordering {
	x, y := a.Float32(), b.Float32()
	switch {
	case x < y:
		return OrderLess
	case x > y:
		return OrderGreater
	case x == y:
		return OrderEqual
	}
	return OrderUnordered
}

// Equal reports whether a and b denote the same number: +0 equals -0 and a
// NaN equals nothing, itself included.
func Equal(a, b Half) bool { return a.Float32() == b.Float32() }

// NotEqual is the negation of Equal, so it is true whenever a NaN is involved.
func NotEqual(a, b Half) bool { return !Equal(a, b) }

func Less(a, b Half) bool         { return a.Float32() < b.Float32() }
func Greater(a, b Half) bool      { return a.Float32() > b.Float32() }
func LessEqual(a, b Half) bool    { return a.Float32() <= b.Float32() }
func GreaterEqual(a, b Half) bool { return a.Float32() >= b.Float32() }

func (h Half) Compare(o Half) Ordering  { return Compare(h, o) }
func (h Half) Equal(o Half) bool        { return Equal(h, o) }
func (h Half) NotEqual(o Half) bool     { return NotEqual(h, o) }
func (h Half) Less(o Half) bool         { return Less(h, o) }
func (h Half) Greater(o Half) bool      { return Greater(h, o) }
func (h Half) LessEqual(o Half) bool    { return LessEqual(h, o) }
func (h Half) GreaterEqual(o Half) bool { return GreaterEqual(h, o) }

// TotalCmp is a total order suitable for slices.SortFunc: -Inf < ... < -0 <
// +0 < ... < +Inf < NaN. All NaNs compare equal to each other.
func TotalCmp(a, b Half) int {
	an, bn := a.IsNaN(), b.IsNaN()
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(a.sortKey(), b.sortKey())
}

// sortKey maps the sign-magnitude encoding onto an unsigned key that
// increases with the value.
func (h Half) sortKey() uint16 {
	if h&signMask != 0 {
		return ^uint16(h)
	}
	return uint16(h) | signMask
}
