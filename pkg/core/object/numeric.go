package object

import "github.com/agenthands/pyvm/pkg/core/value"

// IntType, FloatType, BoolType, NoneType, and EllipsisType are the
// TypePrototypes for the tag-resident Value kinds (spec.md's Built-in
// Types component). Their arithmetic slots forward to pkg/core/value's
// promotion/precision rules (section 4.1) rather than re-implementing
// them, and cross-type operands correctly fall through to
// NotImplemented so the reflected operation can be attempted, per
// section 4.1: "Cross-type arithmetic returns NotImplemented".
var (
	IntType      = mustContainerType("int")
	FloatType    = mustContainerType("float")
	BoolType     = mustContainerType("bool")
	NoneType     = mustContainerType("NoneType")
	EllipsisType = mustContainerType("ellipsis")
	NotImplType  = mustContainerType("NotImplementedType")
)

func init() {
	// bool is a subtype of int for arithmetic (spec.md section 4.3:
	// "Bool: singleton true/false, subtype of Integer for arithmetic").
	BoolType.Bases = []*TypePrototype{IntType}
	if mro, err := c3Linearize(BoolType); err == nil {
		BoolType.mro = mro
	}

	registerKindType(value.KindInt, IntType)
	registerKindType(value.KindFloat, FloatType)
	registerKindType(value.KindBool, BoolType)
	registerKindType(value.KindNone, NoneType)
	registerKindType(value.KindEllipsis, EllipsisType)
	registerKindType(value.KindNotImplemented, NotImplType)

	numBinary := func(fn func(a, b value.Value) value.Value) BinarySlot {
		return func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
			if !other.IsNumber() {
				return value.Value{}, nil, false
			}
			return fn(self, other), nil, true
		}
	}
	numBinaryErr := func(fn func(a, b value.Value) (value.Value, error)) BinarySlot {
		return func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
			if !other.IsNumber() {
				return value.Value{}, nil, false
			}
			v, err := fn(self, other)
			if err != nil {
				return value.Value{}, NewZeroDivision(err.Error()), true
			}
			return v, nil, true
		}
	}
	numBitwise := func(fn func(a, b value.Value) (value.Value, bool)) BinarySlot {
		return func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
			v, ok := fn(self, other)
			if !ok {
				return value.Value{}, nil, false
			}
			return v, nil, true
		}
	}
	numEq := func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if !other.IsNumber() {
			return value.Value{}, nil, false
		}
		return value.FromBool(value.NumEqual(self, other)), nil, true
	}

	for _, t := range []*TypePrototype{IntType, FloatType, BoolType} {
		t.Slots.Add = numBinary(value.Add)
		t.Slots.Sub = numBinary(value.Sub)
		t.Slots.Mul = numBinary(value.Mul)
		t.Slots.TrueDiv = numBinaryErr(value.TrueDiv)
		t.Slots.FloorDiv = numBinaryErr(value.FloorDiv)
		t.Slots.Mod = numBinaryErr(value.Mod)
		t.Slots.Pow = numBinary(value.Pow)
		t.Slots.Eq = numEq
		t.Slots.BitAnd = numBitwise(value.BitAnd)
		t.Slots.BitOr = numBitwise(value.BitOr)
		t.Slots.BitXor = numBitwise(value.BitXor)
		t.Slots.LShift = numBitwise(value.LShift)
		t.Slots.RShift = numBitwise(value.RShift)
		t.Slots.Neg = func(c Caller, self value.Value) (value.Value, *Object) { return value.Neg(self), nil }
		t.Slots.Pos = func(c Caller, self value.Value) (value.Value, *Object) { return value.Pos(self), nil }
		t.Slots.Bool = func(self value.Value) (bool, *Object) { return self.Truthy(), nil }
		t.Slots.Hash = func(self value.Value) (string, *Object) { return HashKey(self) }
		t.Slots.ReprString = func(o *Object) string { return "" } // unreachable: tag-resident, see value.Value.Repr
	}
	IntType.Slots.Invert = func(c Caller, self value.Value) (value.Value, *Object) {
		v, _ := value.Invert(self)
		return v, nil
	}

	NoneType.Slots.Bool = func(value.Value) (bool, *Object) { return false, nil }
	NoneType.Slots.Eq = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		return value.FromBool(other.Kind == value.KindNone), nil, true
	}
}
