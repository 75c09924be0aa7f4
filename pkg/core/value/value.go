// Package value defines the tagged Value union that flows through
// registers, the VM stack, tuple/list elements and dict entries.
//
// Values are copyable and fit in a small fixed footprint; heap objects are
// referenced through a bare, non-owning pointer whose lifetime is managed
// solely by the collector in pkg/core/heap.
package value

import (
	"fmt"
	"math"
	"math/big"
)

// Kind is the tag of the Value union.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindEllipsis
	KindNotImplemented
	KindInt
	KindFloat
	KindString
	KindBytes
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoneType"
	case KindBool:
		return "bool"
	case KindEllipsis:
		return "ellipsis"
	case KindNotImplemented:
		return "NotImplementedType"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindBytes:
		return "bytes"
	case KindObject:
		return "object"
	default:
		return "?"
	}
}

// Objecter is satisfied by *object.Object. Value cannot import package
// object directly (object imports value for attribute storage), so the
// heap pointer is carried behind this narrow interface.
type Objecter interface {
	TypeName() string
	VisitGraph(visit func(Objecter))
}

// Value is the tagged union described in spec.md section 3.
//
// None/True/False/Ellipsis/NotImplemented never allocate: their identity
// for `is`/`is not` purposes is the Kind (plus Bool for True/False) alone,
// which Go already treats as a comparable value. This satisfies "equal by
// identity" without a heap object, a GC root, or a once-guard.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   *big.Int
	Float float64
	Str   string
	Bytes []byte
	Obj   Objecter
}

var (
	None           = Value{Kind: KindNone}
	True           = Value{Kind: KindBool, Bool: true}
	False          = Value{Kind: KindBool, Bool: false}
	Ellipsis       = Value{Kind: KindEllipsis}
	NotImplemented = Value{Kind: KindNotImplemented}
)

// FromBool converts to the canonical KindBool value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromInt64 builds an arbitrary-precision integer value from an int64.
func FromInt64(i int64) Value {
	return Value{Kind: KindInt, Int: big.NewInt(i)}
}

// FromBigInt wraps an existing big.Int without copying.
func FromBigInt(i *big.Int) Value {
	return Value{Kind: KindInt, Int: i}
}

// FromFloat64 builds a float value.
func FromFloat64(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// FromString builds an immutable UTF-8 string value.
func FromString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// FromBytes builds an immutable byte-sequence value. The caller must not
// mutate b after this call; Value never copies it.
func FromBytes(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

// FromObject wraps a heap object pointer.
func FromObject(o Objecter) Value {
	return Value{Kind: KindObject, Obj: o}
}

// IsNumber reports whether v is an int or float per spec.md section 4.1.
func (v Value) IsNumber() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// Truthy implements Python truthiness for values the core understands
// directly; the object model overrides this for objects exposing
// __bool__/__len__ (spec.md section 4.2's slot table).
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	case KindEllipsis, KindNotImplemented:
		return true
	case KindInt:
		return v.Int.Sign() != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return len(v.Str) > 0
	case KindBytes:
		return len(v.Bytes) > 0
	default:
		return true
	}
}

// IdentityEqual implements the `is` operator for tag-based singletons and
// falls back to pointer identity for heap objects. Numbers/strings/bytes
// are never identity-equal across distinct Value instances except when
// they happen to be the exact same representation, matching CPython's
// observable (if not literally implementation-identical) behavior for the
// purposes this core cares about.
func (v Value) IdentityEqual(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNone, KindEllipsis, KindNotImplemented:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindObject:
		return v.Obj == other.Obj
	default:
		return false
	}
}

// TypeName returns the runtime type name used in error messages and by
// the type() builtin for non-object kinds. Object kinds delegate to their
// TypePrototype name via the object model.
func (v Value) TypeName() string {
	if v.Kind == KindObject && v.Obj != nil {
		return v.Obj.TypeName()
	}
	return v.Kind.String()
}

// Repr renders a debug representation, used by repr()/the disassembler
// and error messages. It never panics on cyclic object graphs: depth is
// capped exactly as the teacher's value.Format guarded against runaway
// recursion on self-containing lists.
func (v Value) Repr() string {
	return v.reprDepth(0)
}

func (v Value) reprDepth(depth int) string {
	if depth > 32 {
		return "..."
	}
	switch v.Kind {
	case KindNone:
		return "None"
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindEllipsis:
		return "Ellipsis"
	case KindNotImplemented:
		return "NotImplemented"
	case KindInt:
		return v.Int.String()
	case KindFloat:
		return formatFloat(v.Float)
	case KindString:
		return "'" + v.Str + "'"
	case KindBytes:
		return fmt.Sprintf("b%q", v.Bytes)
	case KindObject:
		if r, ok := v.Obj.(interface{ Repr() string }); ok {
			return r.Repr()
		}
		return fmt.Sprintf("<%s object>", v.Obj.TypeName())
	default:
		return "?"
	}
}

// Str_ renders the str()-style representation: identical to Repr() for
// every kind except String, whose str() has no surrounding quotes.
func (v Value) Str_() string {
	if v.Kind == KindString {
		return v.Str
	}
	if v.Kind == KindObject {
		if s, ok := v.Obj.(interface{ Str() string }); ok {
			return s.Str()
		}
	}
	return v.Repr()
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := fmt.Sprintf("%g", f)
	hasDotOrExp := false
	for _, c := range s {
		if c == '.' || c == 'e' {
			hasDotOrExp = true
			break
		}
	}
	if !hasDotOrExp {
		s += ".0"
	}
	return s
}
