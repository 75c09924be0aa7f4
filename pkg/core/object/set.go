package object

import (
	"strings"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// Set is an unordered collection of hashable values, implemented as a
// Dict whose values are ignored, matching spec.md section 4.3's
// hash-contract note ("ValueHash and ValueEqual").
type Set struct {
	d *Dict
}

func (s *Set) VisitGraph(visit func(value.Objecter)) { s.d.VisitGraph(visit) }

var SetType = mustContainerType("set")

func NewSet(items []value.Value) (value.Value, *Object) {
	d := newDict()
	for _, it := range items {
		if exc := d.Set(it, value.None); exc != nil {
			return value.Value{}, exc
		}
	}
	return value.FromObject(New(SetType, &Set{d: d})), nil
}

func setOf(v value.Value) (*Set, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	s, ok := o.Payload.(*Set)
	return s, ok
}

func init() {
	SetType.Slots.Len = func(self value.Value) (int, *Object) {
		s, _ := setOf(self)
		return len(s.d.Keys), nil
	}
	SetType.Slots.Bool = func(self value.Value) (bool, *Object) {
		s, _ := setOf(self)
		return len(s.d.Keys) > 0, nil
	}
	SetType.Slots.Contains = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		s, _ := setOf(self)
		_, ok, exc := s.d.Get(other)
		if exc != nil {
			return value.Value{}, exc, true
		}
		return value.FromBool(ok), nil, true
	}
	SetType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		s, _ := setOf(self)
		return NewSeqIterator(NewList(append([]value.Value{}, s.d.Keys...))), nil
	}
	SetType.Slots.ReprString = func(o *Object) string {
		s := o.Payload.(*Set)
		parts := make([]string, len(s.d.Keys))
		for i, v := range s.d.Keys {
			parts[i] = v.Repr()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	SetType.Methods["add"] = MethodDef{"add", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		s, _ := setOf(self)
		return value.None, s.d.Set(args[0], value.None)
	}}
	SetType.Methods["discard"] = MethodDef{"discard", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		s, _ := setOf(self)
		_ = s.d.Delete(args[0]) // discard() is a no-op if the element is absent.
		return value.None, nil
	}}
}
