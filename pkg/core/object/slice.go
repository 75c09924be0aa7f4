package object

import "github.com/agenthands/pyvm/pkg/core/value"

// pySlice models Python's slice(start, stop, step), used by the
// BinarySubscript opcode when the subscript key is a slice object rather
// than a plain index (spec.md section 4.3: "__getitem__ with integer or
// slice (slice returns a new list)").
type pySlice struct {
	Start, Stop, Step value.Value
}

var SliceType = mustContainerType("slice")

func NewSlice(start, stop, step value.Value) value.Value {
	return value.FromObject(New(SliceType, &pySlice{Start: start, Stop: stop, Step: step}))
}

func asSlice(v value.Value) (*pySlice, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	s, ok := o.Payload.(*pySlice)
	return s, ok
}

// apply resolves the slice against a concrete sequence length and
// returns the selected elements in order, supporting negative/omitted
// bounds and non-unit steps (including negative steps for reversal).
func (s *pySlice) apply(items []value.Value) ([]value.Value, *Object) {
	n := len(items)
	step := 1
	if s.Step.Kind == value.KindInt {
		step = int(s.Step.Int.Int64())
		if step == 0 {
			return nil, NewValueError("slice step cannot be zero")
		}
	}

	var start, stop int
	if step > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}
	if s.Start.Kind == value.KindInt {
		start = clampIndex(int(s.Start.Int.Int64()), n, step > 0)
	}
	if s.Stop.Kind == value.KindInt {
		stop = clampIndex(int(s.Stop.Int.Int64()), n, step > 0)
	}

	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, items[i])
		}
	}
	return out, nil
}

func clampIndex(idx, n int, forward bool) int {
	if idx < 0 {
		idx += n
	}
	if forward {
		if idx < 0 {
			return 0
		}
		if idx > n {
			return n
		}
	} else {
		if idx < -1 {
			return -1
		}
		if idx >= n {
			return n - 1
		}
	}
	return idx
}
