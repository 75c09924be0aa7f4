package object

import (
	"strings"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// Dict is a hash map from Value to Value keyed by HashKey, preserving
// insertion order for iteration (spec.md section 4.3). Because Go maps
// have no order, the ordering is tracked explicitly via Keys/Vals
// parallel slices plus an index for O(1) lookup.
type Dict struct {
	Keys  []value.Value
	Vals  []value.Value
	index map[string]int
}

func newDict() *Dict { return &Dict{index: make(map[string]int)} }

func (d *Dict) VisitGraph(visit func(value.Objecter)) {
	for _, v := range d.Keys {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
	for _, v := range d.Vals {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

func (d *Dict) Get(key value.Value) (value.Value, bool, *Object) {
	k, exc := HashKey(key)
	if exc != nil {
		return value.Value{}, false, exc
	}
	i, ok := d.index[k]
	if !ok {
		return value.Value{}, false, nil
	}
	return d.Vals[i], true, nil
}

func (d *Dict) Set(key, val value.Value) *Object {
	k, exc := HashKey(key)
	if exc != nil {
		return exc
	}
	if i, ok := d.index[k]; ok {
		d.Vals[i] = val
		return nil
	}
	d.index[k] = len(d.Keys)
	d.Keys = append(d.Keys, key)
	d.Vals = append(d.Vals, val)
	return nil
}

func (d *Dict) Delete(key value.Value) *Object {
	k, exc := HashKey(key)
	if exc != nil {
		return exc
	}
	i, ok := d.index[k]
	if !ok {
		return NewKeyError(key.Repr())
	}
	d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
	d.Vals = append(d.Vals[:i], d.Vals[i+1:]...)
	delete(d.index, k)
	for kk, idx := range d.index {
		if idx > i {
			d.index[kk] = idx - 1
		}
	}
	return nil
}

var DictType = mustContainerType("dict")

func NewDict() value.Value {
	return value.FromObject(New(DictType, newDict()))
}

// DictSetItem sets key -> val on a Value produced by NewDict, for callers
// outside this package (the VM's **kwargs collection, BUILD_DICT) that
// need to populate a dict without going through the __setitem__ slot.
func DictSetItem(dict value.Value, key, val value.Value) *Object {
	d, ok := dictOf(dict)
	if !ok {
		return NewTypeError("expected dict")
	}
	return d.Set(key, val)
}

// DictPairs exposes a dict's key/value slices to callers outside this
// package that need them directly rather than through __iter__ (which
// yields keys only) — e.g. the VM's **kwargs unpacking for CALL_FUNCTION_EX.
func DictPairs(v value.Value) (keys, vals []value.Value, ok bool) {
	d, ok := dictOf(v)
	if !ok {
		return nil, nil, false
	}
	return d.Keys, d.Vals, true
}

func dictOf(v value.Value) (*Dict, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	d, ok := o.Payload.(*Dict)
	return d, ok
}

func init() {
	DictType.Slots.Len = func(self value.Value) (int, *Object) {
		d, _ := dictOf(self)
		return len(d.Keys), nil
	}
	DictType.Slots.Bool = func(self value.Value) (bool, *Object) {
		d, _ := dictOf(self)
		return len(d.Keys) > 0, nil
	}
	DictType.Slots.Index = func(c Caller, self, key value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		v, ok, exc := d.Get(key)
		if exc != nil {
			return value.Value{}, exc
		}
		if !ok {
			return value.Value{}, NewKeyError(key.Repr())
		}
		return v, nil
	}
	DictType.Slots.SetIndex = func(c Caller, self, key, newValue value.Value) *Object {
		d, _ := dictOf(self)
		return d.Set(key, newValue)
	}
	DictType.Slots.DelIndex = func(c Caller, self, key value.Value) *Object {
		d, _ := dictOf(self)
		return d.Delete(key)
	}
	DictType.Slots.Contains = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		d, _ := dictOf(self)
		_, ok, exc := d.Get(other)
		if exc != nil {
			return value.Value{}, exc, true
		}
		return value.FromBool(ok), nil, true
	}
	DictType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		return NewSeqIterator(NewList(append([]value.Value{}, d.Keys...))), nil
	}
	DictType.Slots.ReprString = func(o *Object) string {
		d := o.Payload.(*Dict)
		parts := make([]string, len(d.Keys))
		for i := range d.Keys {
			parts[i] = d.Keys[i].Repr() + ": " + d.Vals[i].Repr()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	DictType.Methods["items"] = MethodDef{"items", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		items := make([]value.Value, len(d.Keys))
		for i := range d.Keys {
			items[i] = NewTuple([]value.Value{d.Keys[i], d.Vals[i]})
		}
		return NewDictItemsView(items), nil
	}}
	DictType.Methods["keys"] = MethodDef{"keys", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		return NewList(append([]value.Value{}, d.Keys...)), nil
	}}
	DictType.Methods["values"] = MethodDef{"values", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		return NewList(append([]value.Value{}, d.Vals...)), nil
	}}
	DictType.Methods["get"] = MethodDef{"get", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		d, _ := dictOf(self)
		v, ok, exc := d.Get(args[0])
		if exc != nil {
			return value.Value{}, exc
		}
		if ok {
			return v, nil
		}
		if len(args) > 1 {
			return args[1], nil
		}
		return value.None, nil
	}}
}

// DictItemsView is the dict-items view of spec.md section 4.3, backed by
// its own iterator over (key, value) tuples.
var DictItemsType = mustContainerType("dict_items")

func NewDictItemsView(items []value.Value) value.Value {
	return value.FromObject(New(DictItemsType, &List{Items: items}))
}

func init() {
	DictItemsType.Slots.Len = ListType.Slots.Len
	DictItemsType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		return NewSeqIterator(self), nil
	}
	DictItemsType.Slots.ReprString = func(o *Object) string {
		l := o.Payload.(*List)
		parts := make([]string, len(l.Items))
		for i, v := range l.Items {
			parts[i] = v.Repr()
		}
		return "dict_items([" + strings.Join(parts, ", ") + "])"
	}
}
