package object

import (
	"sort"
	"strings"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// List is the payload of a mutable, ordered sequence (spec.md section
// 4.3). It is held by pointer inside *Object so aliasing (`b = a;
// b.append(x)` mutating a too) matches Python semantics.
type List struct {
	Items []value.Value
}

func (l *List) VisitGraph(visit func(value.Objecter)) {
	for _, v := range l.Items {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

var ListType = mustContainerType("list")

func NewList(items []value.Value) value.Value {
	return value.FromObject(New(ListType, &List{Items: items}))
}

func listOf(v value.Value) (*List, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	l, ok := o.Payload.(*List)
	return l, ok
}

// normalizeIndex resolves a possibly-negative Python index against
// length n, returning an IndexError when out of range (spec.md section
// 4.3: "Negative indices wrap from the end; out-of-range raises
// IndexError").
func normalizeIndex(idx int, n int) (int, *Object) {
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, NewIndexError("index out of range")
	}
	return idx, nil
}

func init() {
	ListType.Slots.Len = func(self value.Value) (int, *Object) {
		l, _ := listOf(self)
		return len(l.Items), nil
	}
	ListType.Slots.Bool = func(self value.Value) (bool, *Object) {
		l, _ := listOf(self)
		return len(l.Items) > 0, nil
	}
	ListType.Slots.Eq = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		ol, ok := listOf(other)
		if !ok {
			return value.Value{}, nil, false
		}
		sl, _ := listOf(self)
		if len(sl.Items) != len(ol.Items) {
			return value.False, nil, true
		}
		for i := range sl.Items {
			eq, exc := RichCompare(c, OpEq, sl.Items[i], ol.Items[i])
			if exc != nil {
				return value.Value{}, exc, true
			}
			if !eq.Truthy() {
				return value.False, nil, true
			}
		}
		return value.True, nil, true
	}
	ListType.Slots.Index = func(c Caller, self, key value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		if slc, ok := asSlice(key); ok {
			items, exc := slc.apply(l.Items)
			if exc != nil {
				return value.Value{}, exc
			}
			return NewList(items), nil
		}
		if key.Kind != value.KindInt {
			return value.Value{}, NewTypeError("list indices must be integers")
		}
		idx, exc := normalizeIndex(int(key.Int.Int64()), len(l.Items))
		if exc != nil {
			return value.Value{}, exc
		}
		return l.Items[idx], nil
	}
	ListType.Slots.SetIndex = func(c Caller, self, key, newValue value.Value) *Object {
		l, _ := listOf(self)
		if key.Kind != value.KindInt {
			return NewTypeError("list indices must be integers")
		}
		idx, exc := normalizeIndex(int(key.Int.Int64()), len(l.Items))
		if exc != nil {
			return exc
		}
		l.Items[idx] = newValue
		return nil
	}
	ListType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		return NewSeqIterator(self), nil
	}
	ListType.Slots.ReprString = func(o *Object) string {
		l := o.Payload.(*List)
		parts := make([]string, len(l.Items))
		for i, v := range l.Items {
			parts[i] = v.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	ListType.Methods["append"] = MethodDef{"append", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		l.Items = append(l.Items, args[0])
		return value.None, nil
	}}
	ListType.Methods["extend"] = MethodDef{"extend", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		items, exc := Iterate(c, args[0])
		if exc != nil {
			return value.Value{}, exc
		}
		l.Items = append(l.Items, items...)
		return value.None, nil
	}}
	ListType.Methods["pop"] = MethodDef{"pop", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		if len(l.Items) == 0 {
			return value.Value{}, NewIndexError("pop from empty list")
		}
		idx := len(l.Items) - 1
		if len(args) > 0 {
			var exc *Object
			idx, exc = normalizeIndex(int(args[0].Int.Int64()), len(l.Items))
			if exc != nil {
				return value.Value{}, exc
			}
		}
		v := l.Items[idx]
		l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
		return v, nil
	}}
	ListType.Methods["reverse"] = MethodDef{"reverse", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
			l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
		}
		return value.None, nil
	}}
	ListType.Methods["sort"] = MethodDef{"sort", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		l, _ := listOf(self)
		var sortErr *Object
		sort.SliceStable(l.Items, func(i, j int) bool {
			res, exc := RichCompare(c, OpLt, l.Items[i], l.Items[j])
			if exc != nil {
				sortErr = exc
				return false
			}
			return res.Truthy()
		})
		return value.None, sortErr
	}}
}

// mustContainerType is a small helper shared by list/tuple/dict/set to
// build a base type (no bases) and register it against nothing extra;
// callers still need to wire kind-specific slots afterwards.
func mustContainerType(name string) *TypePrototype {
	t, err := NewType(name, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTypeMust is mustContainerType exported for callers outside this
// package (pkg/vm's Generator type) that need a base built-in type
// without a fallible constructor at package-init time.
func NewTypeMust(name string) *TypePrototype { return mustContainerType(name) }
