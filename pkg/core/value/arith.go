package value

import (
	"errors"
	"math"
	"math/big"
)

// ErrDivByZero is returned by the floor/true division and modulo helpers.
// The VM maps it onto a ZeroDivisionError exception object.
var ErrDivByZero = errors.New("division by zero")

// widen returns both operands as float64 when either is a float, alongside
// whether widening occurred. Non-number kinds are the caller's problem;
// this helper is only ever reached after IsNumber() has been checked by
// the object model's __add__-family slots (spec.md section 4.2).
func widen(a, b Value) (af, bf float64, isFloat bool) {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return a.Float64(), b.Float64(), true
	}
	return 0, 0, false
}

// Float64 returns the numeric value as a float64 regardless of Kind.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return f
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Add implements Number + Number per spec.md section 4.1: int widens to
// float if either operand is float, integer arithmetic is arbitrary
// precision.
func Add(a, b Value) Value {
	if _, _, isFloat := widen(a, b); isFloat {
		return FromFloat64(a.Float64() + b.Float64())
	}
	return FromBigInt(new(big.Int).Add(a.Int, b.Int))
}

func Sub(a, b Value) Value {
	if _, _, isFloat := widen(a, b); isFloat {
		return FromFloat64(a.Float64() - b.Float64())
	}
	return FromBigInt(new(big.Int).Sub(a.Int, b.Int))
}

func Mul(a, b Value) Value {
	if _, _, isFloat := widen(a, b); isFloat {
		return FromFloat64(a.Float64() * b.Float64())
	}
	return FromBigInt(new(big.Int).Mul(a.Int, b.Int))
}

// TrueDiv is Python's `/`: always a float result.
func TrueDiv(a, b Value) (Value, error) {
	bf := b.Float64()
	if bf == 0 {
		return Value{}, ErrDivByZero
	}
	return FromFloat64(a.Float64() / bf), nil
}

// FloorDiv is Python's `//`: floor division, integer-preserving when both
// operands are ints.
func FloorDiv(a, b Value) (Value, error) {
	if _, _, isFloat := widen(a, b); isFloat {
		bf := b.Float64()
		if bf == 0 {
			return Value{}, ErrDivByZero
		}
		return FromFloat64(math.Floor(a.Float64() / bf)), nil
	}
	if b.Int.Sign() == 0 {
		return Value{}, ErrDivByZero
	}
	q, m := new(big.Int), new(big.Int)
	q.DivMod(a.Int, b.Int, m) // big.Int.DivMod is Euclidean; adjust to floor below.
	// big.Int.DivMod produces the Euclidean remainder (always >= 0); floor
	// division additionally requires the quotient to round toward -inf,
	// which is what Python's `%`/`//` sign convention wants.
	if m.Sign() != 0 && (m.Sign() < 0) != (b.Int.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return FromBigInt(q), nil
}

// Mod implements Python's `%`: floor-modulo convention for integers (the
// result carries the sign of the divisor).
func Mod(a, b Value) (Value, error) {
	if _, _, isFloat := widen(a, b); isFloat {
		bf := b.Float64()
		if bf == 0 {
			return Value{}, ErrDivByZero
		}
		r := math.Mod(a.Float64(), bf)
		if r != 0 && (r < 0) != (bf < 0) {
			r += bf
		}
		return FromFloat64(r), nil
	}
	if b.Int.Sign() == 0 {
		return Value{}, ErrDivByZero
	}
	m := new(big.Int).Mod(a.Int, b.Int) // Euclidean remainder, always >= 0.
	if m.Sign() != 0 && b.Int.Sign() < 0 {
		m.Add(m, b.Int)
	}
	return FromBigInt(m), nil
}

// Pow implements `**`. Negative integer exponents produce a float result
// (matching Python: 2 ** -1 == 0.5).
func Pow(a, b Value) Value {
	if a.Kind == KindInt && b.Kind == KindInt && b.Int.Sign() >= 0 {
		return FromBigInt(new(big.Int).Exp(a.Int, b.Int, nil))
	}
	return FromFloat64(math.Pow(a.Float64(), b.Float64()))
}

// NumEqual implements numeric equality across mixed int/float operands,
// used by both `==` and dict/set hashing consistency (spec.md section 3
// invariant: hash(int) == hash(equal float)).
func NumEqual(a, b Value) bool {
	if a.Kind == KindInt && b.Kind == KindInt {
		return a.Int.Cmp(b.Int) == 0
	}
	return a.Float64() == b.Float64()
}

// NumCompare returns -1, 0, or 1 for a<b, a==b, a>b.
func NumCompare(a, b Value) int {
	if a.Kind == KindInt && b.Kind == KindInt {
		return a.Int.Cmp(b.Int)
	}
	af, bf := a.Float64(), b.Float64()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func bitOperands(a, b Value) (*big.Int, *big.Int, bool) {
	if a.Kind != KindInt || b.Kind != KindInt {
		return nil, nil, false
	}
	return a.Int, b.Int, true
}

func BitAnd(a, b Value) (Value, bool) {
	x, y, ok := bitOperands(a, b)
	if !ok {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).And(x, y)), true
}

func BitOr(a, b Value) (Value, bool) {
	x, y, ok := bitOperands(a, b)
	if !ok {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).Or(x, y)), true
}

func BitXor(a, b Value) (Value, bool) {
	x, y, ok := bitOperands(a, b)
	if !ok {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).Xor(x, y)), true
}

func LShift(a, b Value) (Value, bool) {
	x, y, ok := bitOperands(a, b)
	if !ok {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).Lsh(x, uint(y.Uint64()))), true
}

func RShift(a, b Value) (Value, bool) {
	x, y, ok := bitOperands(a, b)
	if !ok {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).Rsh(x, uint(y.Uint64()))), true
}

func Invert(a Value) (Value, bool) {
	if a.Kind != KindInt {
		return Value{}, false
	}
	return FromBigInt(new(big.Int).Not(a.Int)), true
}

func Neg(a Value) Value {
	if a.Kind == KindFloat {
		return FromFloat64(-a.Float)
	}
	return FromBigInt(new(big.Int).Neg(a.Int))
}

func Pos(a Value) Value { return a }
