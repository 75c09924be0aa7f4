package object

import "github.com/agenthands/pyvm/pkg/core/value"

// rangePayload is the payload of the lazy integer sequence produced by
// the range() builtin. It never materializes its elements up front;
// rangeIterator walks start/stop/step directly, matching the stateful,
// non-allocating iterator the for-loop lowering in spec.md section 4.4
// expects from GetIter/ForIter.
type rangePayload struct {
	start, stop, step int64
}

func (r *rangePayload) VisitGraph(visit func(value.Objecter)) {}

func (r *rangePayload) len() int {
	if r.step > 0 {
		if r.stop <= r.start {
			return 0
		}
		return int((r.stop - r.start + r.step - 1) / r.step)
	}
	if r.stop >= r.start {
		return 0
	}
	return int((r.start - r.stop - r.step - 1) / -r.step)
}

var RangeType = mustContainerType("range")

type rangeIterator struct {
	r     *rangePayload
	index int64
}

func (it *rangeIterator) VisitGraph(visit func(value.Objecter)) {}

var RangeIteratorType = mustContainerType("range_iterator")

func init() {
	RangeType.Slots.Len = func(self value.Value) (int, *Object) {
		r := self.Obj.(*Object).Payload.(*rangePayload)
		return r.len(), nil
	}
	RangeType.Slots.ReprString = func(o *Object) string {
		r := o.Payload.(*rangePayload)
		return "range(" + value.FromInt64(r.start).Repr() + ", " + value.FromInt64(r.stop).Repr() + ", " + value.FromInt64(r.step).Repr() + ")"
	}
	RangeType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) {
		r := self.Obj.(*Object).Payload.(*rangePayload)
		return value.FromObject(New(RangeIteratorType, &rangeIterator{r: r})), nil
	}
	RangeType.Slots.Contains = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		r := self.Obj.(*Object).Payload.(*rangePayload)
		if other.Kind != value.KindInt {
			return value.False, nil, true
		}
		n := other.Int.Int64()
		if r.step > 0 {
			return value.FromBool(n >= r.start && n < r.stop && (n-r.start)%r.step == 0), nil, true
		}
		return value.FromBool(n <= r.start && n > r.stop && (r.start-n)%(-r.step) == 0), nil, true
	}
	RangeType.Slots.Index = func(c Caller, self, key value.Value) (value.Value, *Object) {
		r := self.Obj.(*Object).Payload.(*rangePayload)
		n := r.len()
		idx, exc := normalizeIndex(int(key.Int.Int64()), n)
		if exc != nil {
			return value.Value{}, exc
		}
		return value.FromInt64(r.start + int64(idx)*r.step), nil
	}

	RangeIteratorType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) { return self, nil }
	RangeIteratorType.Slots.Next = func(c Caller, self value.Value) (value.Value, *Object) {
		it := self.Obj.(*Object).Payload.(*rangeIterator)
		cur := it.r.start + it.index*it.r.step
		if it.r.step > 0 {
			if cur >= it.r.stop {
				return value.Value{}, NewStopIteration(value.None)
			}
		} else if cur <= it.r.stop {
			return value.Value{}, NewStopIteration(value.None)
		}
		it.index++
		return value.FromInt64(cur), nil
	}
}

// NewRange builds a range(start, stop, step) value. step must be nonzero;
// callers (the range() builtin) are responsible for rejecting step == 0
// with a ValueError before calling this.
func NewRange(start, stop, step int64) value.Value {
	return value.FromObject(New(RangeType, &rangePayload{start: start, stop: stop, step: step}))
}
