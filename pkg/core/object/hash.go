package object

import (
	"fmt"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// HashKey computes the canonical string encoding backing Dict/Set's Go
// map, per spec.md section 3's invariant that "equal values must hash
// equal" and section 4.3's ValueHash contract. Container kinds that are
// mutable (list, dict, set) are unhashable, matching Python.
func HashKey(v value.Value) (string, *Object) {
	switch v.Kind {
	case value.KindNone:
		return "N", nil
	case value.KindEllipsis:
		return "E", nil
	case value.KindNotImplemented:
		return "I", nil
	case value.KindBool:
		if v.Bool {
			return "b:1", nil
		}
		return "b:0", nil
	case value.KindInt:
		return "n:" + v.Int.String(), nil
	case value.KindFloat:
		// Equal floats and ints must hash equal (spec.md section 3): a
		// float with no fractional part hashes as the equivalent int.
		if v.Float == float64(int64(v.Float)) {
			return "n:" + fmt.Sprintf("%d", int64(v.Float)), nil
		}
		return "f:" + fmt.Sprintf("%g", v.Float), nil
	case value.KindString:
		return "s:" + v.Str, nil
	case value.KindBytes:
		return "y:" + string(v.Bytes), nil
	case value.KindObject:
		if o, ok := v.Obj.(*Object); ok {
			if o.Type != nil && o.Type.Slots.Hash != nil {
				return o.Type.Slots.Hash(v)
			}
			if list, ok := o.Payload.(*List); ok {
				_ = list
				return "", NewTypeError("unhashable type: 'list'")
			}
			if _, ok := o.Payload.(*Dict); ok {
				return "", NewTypeError("unhashable type: 'dict'")
			}
			if _, ok := o.Payload.(*Set); ok {
				return "", NewTypeError("unhashable type: 'set'")
			}
			if tup, ok := o.Payload.(*Tuple); ok {
				return hashTuple(tup.Items)
			}
			return fmt.Sprintf("o:%p", o), nil
		}
	}
	return "", NewTypeError("unhashable type: '" + v.TypeName() + "'")
}

func hashTuple(items []value.Value) (string, *Object) {
	s := "t("
	for _, it := range items {
		k, exc := HashKey(it)
		if exc != nil {
			return "", exc
		}
		s += k + ","
	}
	return s + ")", nil
}
