package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// binaryOp implements the left-slot / reflected-right-slot dispatch
// protocol for arithmetic and bitwise operators (spec.md section 4.1:
// "Cross-type arithmetic returns NotImplemented" so the reflected
// operation can be attempted), mirroring RichCompare's structure in
// pkg/core/object/compare.go but for the arithmetic slot table instead of
// comparisons.
func (m *Machine) binaryOp(op Opcode, a, b value.Value) (value.Value, *object.Object) {
	slot := func(t *object.TypePrototype) object.BinarySlot {
		if t == nil {
			return nil
		}
		switch op {
		case OpBinaryAdd:
			return t.Slots.Add
		case OpBinarySub:
			return t.Slots.Sub
		case OpBinaryMul:
			return t.Slots.Mul
		case OpBinaryTrueDiv:
			return t.Slots.TrueDiv
		case OpBinaryFloorDiv:
			return t.Slots.FloorDiv
		case OpBinaryMod:
			return t.Slots.Mod
		case OpBinaryPow:
			return t.Slots.Pow
		case OpBinaryLShift:
			return t.Slots.LShift
		case OpBinaryRShift:
			return t.Slots.RShift
		case OpBinaryAnd:
			return t.Slots.BitAnd
		case OpBinaryOr:
			return t.Slots.BitOr
		case OpBinaryXor:
			return t.Slots.BitXor
		default:
			return nil
		}
	}

	ta, tb := object.TypeOf(a), object.TypeOf(b)
	if s := slot(ta); s != nil {
		if v, exc, ok := s(m, a, b); ok {
			return v, exc
		}
	}
	if tb != nil && tb != ta {
		if s := slot(tb); s != nil {
			if v, exc, ok := s(m, b, a); ok {
				return v, exc
			}
		}
	}
	return value.Value{}, object.NewTypeError("unsupported operand type(s) for " + opSymbol(op) + ": '" + a.TypeName() + "' and '" + b.TypeName() + "'")
}

func (m *Machine) unaryOp(op Opcode, a value.Value) (value.Value, *object.Object) {
	if op == OpUnaryNot {
		return value.FromBool(!a.Truthy()), nil
	}
	t := object.TypeOf(a)
	if t == nil {
		return value.Value{}, object.NewTypeError("bad operand type for unary operator: '" + a.TypeName() + "'")
	}
	var slot object.UnarySlot
	switch op {
	case OpUnaryNeg:
		slot = t.Slots.Neg
	case OpUnaryPos:
		slot = t.Slots.Pos
	case OpUnaryInvert:
		slot = t.Slots.Invert
	}
	if slot == nil {
		return value.Value{}, object.NewTypeError("bad operand type for unary operator: '" + a.TypeName() + "'")
	}
	return slot(m, a)
}

func (m *Machine) getItem(container, key value.Value) (value.Value, *object.Object) {
	t := object.TypeOf(container)
	if t == nil || t.Slots.Index == nil {
		return value.Value{}, object.NewTypeError("'" + container.TypeName() + "' object is not subscriptable")
	}
	return t.Slots.Index(m, container, key)
}

func opSymbol(op Opcode) string {
	switch op {
	case OpBinaryAdd:
		return "+"
	case OpBinarySub:
		return "-"
	case OpBinaryMul:
		return "*"
	case OpBinaryTrueDiv:
		return "/"
	case OpBinaryFloorDiv:
		return "//"
	case OpBinaryMod:
		return "%"
	case OpBinaryPow:
		return "**"
	case OpBinaryLShift:
		return "<<"
	case OpBinaryRShift:
		return ">>"
	case OpBinaryAnd:
		return "&"
	case OpBinaryOr:
		return "|"
	case OpBinaryXor:
		return "^"
	default:
		return "?"
	}
}
