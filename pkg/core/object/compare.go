package object

import "github.com/agenthands/pyvm/pkg/core/value"

// CompareOp identifies which rich-comparison slot to dispatch.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) reflect() CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpGt:
		return OpLt
	case OpLe:
		return OpGe
	case OpGe:
		return OpLe
	default:
		return op // Eq/Ne are their own reflection
	}
}

func slotFor(t *TypePrototype, op CompareOp) BinarySlot {
	switch op {
	case OpEq:
		return t.Slots.Eq
	case OpNe:
		return t.Slots.Ne
	case OpLt:
		return t.Slots.Lt
	case OpLe:
		return t.Slots.Le
	case OpGt:
		return t.Slots.Gt
	case OpGe:
		return t.Slots.Ge
	default:
		return nil
	}
}

// RichCompare implements spec.md section 4.2's dispatch: try the
// left-hand slot; if it yields NotImplemented, try the reflected
// comparison on the right; if both yield NotImplemented, fall back to
// identity for ==/!= and raise TypeError otherwise.
func RichCompare(c Caller, op CompareOp, a, b value.Value) (value.Value, *Object) {
	if a.IsNumber() && b.IsNumber() {
		return numericCompare(op, a, b), nil
	}

	if lt := TypeOf(a); lt != nil {
		if slot := slotFor(lt, op); slot != nil {
			res, exc, ok := slot(c, a, b)
			if exc != nil {
				return value.Value{}, exc
			}
			if ok {
				return res, nil
			}
		}
	}
	if rt := TypeOf(b); rt != nil {
		if slot := slotFor(rt, op.reflect()); slot != nil {
			res, exc, ok := slot(c, b, a)
			if exc != nil {
				return value.Value{}, exc
			}
			if ok {
				return res, nil
			}
		}
	}

	switch op {
	case OpEq:
		return value.FromBool(a.IdentityEqual(b)), nil
	case OpNe:
		return value.FromBool(!a.IdentityEqual(b)), nil
	default:
		return value.Value{}, NewTypeError("'" + compareOpSymbol(op) + "' not supported between instances of '" + a.TypeName() + "' and '" + b.TypeName() + "'")
	}
}

func numericCompare(op CompareOp, a, b value.Value) value.Value {
	cmp := value.NumCompare(a, b)
	switch op {
	case OpEq:
		return value.FromBool(cmp == 0)
	case OpNe:
		return value.FromBool(cmp != 0)
	case OpLt:
		return value.FromBool(cmp < 0)
	case OpLe:
		return value.FromBool(cmp <= 0)
	case OpGt:
		return value.FromBool(cmp > 0)
	case OpGe:
		return value.FromBool(cmp >= 0)
	}
	return value.False
}

func compareOpSymbol(op CompareOp) string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// ValueEqual implements the dict/set key-equality contract of spec.md
// section 4.3 ("ValueEqual respects object-level __eq__"), used by the
// container implementations where a *Object caller isn't available (e.g.
// during hashing/bucket lookup fast paths). It falls back to identity
// when no __eq__ is defined, same as RichCompare with a nil Caller.
func ValueEqual(c Caller, a, b value.Value) bool {
	res, exc := RichCompare(c, OpEq, a, b)
	if exc != nil {
		return false
	}
	return res.Truthy()
}
