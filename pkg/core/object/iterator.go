package object

import "github.com/agenthands/pyvm/pkg/core/value"

// seqIterator is the stateful iterator described in spec.md section 4.3:
// "Iteration uses a stateful iterator holding a strong reference to the
// list (must survive GC of temporary lists)". Holding the source Value
// (not just its payload pointer) keeps the backing object reachable from
// the iterator for as long as the iterator itself is reachable.
type seqIterator struct {
	source value.Value
	index  int
}

func (it *seqIterator) VisitGraph(visit func(value.Objecter)) {
	if it.source.Kind == value.KindObject && it.source.Obj != nil {
		visit(it.source.Obj)
	}
}

var IteratorType = mustContainerType("list_iterator")

func init() {
	IteratorType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) { return self, nil }
	IteratorType.Slots.Next = func(c Caller, self value.Value) (value.Value, *Object) {
		o := self.Obj.(*Object)
		it := o.Payload.(*seqIterator)
		items, exc := sequenceItems(it.source)
		if exc != nil {
			return value.Value{}, exc
		}
		if it.index >= len(items) {
			return value.Value{}, NewStopIteration(value.None)
		}
		v := items[it.index]
		it.index++
		return v, nil
	}
}

// NewSeqIterator builds an index-based iterator over any list/tuple-like
// source (spec.md's "for-loop: get iterator; loop target emits
// __next__").
func NewSeqIterator(source value.Value) value.Value {
	return value.FromObject(New(IteratorType, &seqIterator{source: source}))
}

func sequenceItems(v value.Value) ([]value.Value, *Object) {
	if l, ok := listOf(v); ok {
		return l.Items, nil
	}
	if t, ok := tupleOf(v); ok {
		return t.Items, nil
	}
	if v.Kind == value.KindString {
		runes := []rune(v.Str)
		items := make([]value.Value, len(runes))
		for i, r := range runes {
			items[i] = value.FromString(string(r))
		}
		return items, nil
	}
	if d, ok := dictOf(v); ok {
		return d.Keys, nil
	}
	return nil, NewTypeError("'" + v.TypeName() + "' object is not iterable")
}

// Iterate fully drains an iterable into a slice, used by builtins like
// list()/extend()/sum() that need eager materialization. It respects a
// custom __iter__/__next__ pair when present, matching spec.md section
// 4.6's "StopIteration is... caught implicitly by ForIter".
func Iterate(c Caller, v value.Value) ([]value.Value, *Object) {
	t := TypeOf(v)
	if t == nil || t.Slots.Iter == nil {
		return sequenceItems(v)
	}
	iter, exc := t.Slots.Iter(c, v)
	if exc != nil {
		return nil, exc
	}
	it := TypeOf(iter)
	if it == nil || it.Slots.Next == nil {
		return nil, NewTypeError("iter() returned non-iterator")
	}
	var out []value.Value
	for {
		v, exc := it.Slots.Next(c, iter)
		if exc != nil {
			if Matches(exc, StopIterationType) {
				return out, nil
			}
			return nil, exc
		}
		out = append(out, v)
	}
}
