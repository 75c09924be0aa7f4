package object

import (
	"strings"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// Tuple is the payload of an immutable, fixed-length sequence (spec.md
// section 4.3).
type Tuple struct {
	Items []value.Value
}

func (t *Tuple) VisitGraph(visit func(value.Objecter)) {
	for _, v := range t.Items {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

var TupleType = mustContainerType("tuple")

func NewTuple(items []value.Value) value.Value {
	return value.FromObject(New(TupleType, &Tuple{Items: items}))
}

// TupleValues exposes a tuple's items to callers outside this package;
// ok is false when v is not a tuple.
func TupleValues(v value.Value) ([]value.Value, bool) {
	t, ok := tupleOf(v)
	if !ok {
		return nil, false
	}
	return t.Items, true
}

func tupleOf(v value.Value) (*Tuple, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	t, ok := o.Payload.(*Tuple)
	return t, ok
}

func init() {
	TupleType.Slots.Len = func(self value.Value) (int, *Object) {
		t, _ := tupleOf(self)
		return len(t.Items), nil
	}
	TupleType.Slots.Bool = func(self value.Value) (bool, *Object) {
		t, _ := tupleOf(self)
		return len(t.Items) > 0, nil
	}
	TupleType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		return NewSeqIterator(self), nil
	}
	TupleType.Slots.Index = func(c Caller, self, key value.Value) (value.Value, *Object) {
		t, _ := tupleOf(self)
		if key.Kind != value.KindInt {
			return value.Value{}, NewTypeError("tuple indices must be integers")
		}
		idx, exc := normalizeIndex(int(key.Int.Int64()), len(t.Items))
		if exc != nil {
			return value.Value{}, exc
		}
		return t.Items[idx], nil
	}
	TupleType.Slots.Eq = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		ot, ok := tupleOf(other)
		if !ok {
			return value.Value{}, nil, false
		}
		st, _ := tupleOf(self)
		if len(st.Items) != len(ot.Items) {
			return value.False, nil, true
		}
		for i := range st.Items {
			eq, exc := RichCompare(c, OpEq, st.Items[i], ot.Items[i])
			if exc != nil {
				return value.Value{}, exc, true
			}
			if !eq.Truthy() {
				return value.False, nil, true
			}
		}
		return value.True, nil, true
	}
	TupleType.Slots.Hash = func(self value.Value) (string, *Object) {
		t, _ := tupleOf(self)
		return hashTuple(t.Items)
	}
	TupleType.Slots.ReprString = func(o *Object) string {
		t := o.Payload.(*Tuple)
		parts := make([]string, len(t.Items))
		for i, v := range t.Items {
			parts[i] = v.Repr()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}
