package half

import "math"

// Operand is any value the arithmetic functions accept on either side.
// Half operands are widened to float32 before the operation.
type Operand interface {
	Half | float32
}

func widen[T Operand](v T) float32 {
	switch x := any(v).(type) {
	case Half:
		return x.Float32()
	case float32:
		return x
	}
	panic("half: unsupported operand type")
}

// Add returns l + r computed in float32.
func Add[L, R Operand](l L, r R) float32 { return widen(l) + widen(r) }

// Sub returns l - r computed in float32.
func Sub[L, R Operand](l L, r R) float32 { return widen(l) - widen(r) }

// Mul returns l * r computed in float32.
func Mul[L, R Operand](l L, r R) float32 { return widen(l) * widen(r) }

// Div returns l / r computed in float32. Division by zero follows IEEE 754:
// ±Inf for a non-zero dividend, NaN for 0/0.
func Div[L, R Operand](l L, r R) float32 { return widen(l) / widen(r) }

// Rem returns the floating point remainder of l / r with the sign of l, the
// same result as math.Mod. The remainder is exact, so computing it in
// float64 and converting back loses nothing.
func Rem[L, R Operand](l L, r R) float32 {
	return float32(math.Mod(float64(widen(l)), float64(widen(r))))
}

// Pow returns l raised to the power r in float32 precision.
func Pow[L, R Operand](l L, r R) float32 {
	return float32(math.Pow(float64(widen(l)), float64(widen(r))))
}

func (h Half) Add(o Half) float32 { return Add(h, o) }
func (h Half) Sub(o Half) float32 { return Sub(h, o) }
func (h Half) Mul(o Half) float32 { return Mul(h, o) }
func (h Half) Div(o Half) float32 { return Div(h, o) }
func (h Half) Rem(o Half) float32 { return Rem(h, o) }
func (h Half) Pow(o Half) float32 { return Pow(h, o) }
