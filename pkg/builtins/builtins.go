// Package builtins supplies the minimal builtin-function and
// exception-type surface spec.md section 1 carves in scope ("the
// standard library of built-in types beyond what the interpreter
// requires" is out of scope, but the interpreter itself requires print,
// len, range, and the exception taxonomy of section 7 to run any
// nontrivial script). It is the seam between the object model's
// mechanism (pkg/core/object's native-function/type-prototype plumbing)
// and the names a compiled module's LoadGlobal opcode actually resolves
// against a Frame's Builtins map.
package builtins

import (
	"fmt"
	"math/big"

	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// Globals returns a fresh builtins dict: fresh per Machine so that
// embedding callers running multiple independent programs never share
// mutable builtin state (matching the teacher's per-run stdlib wiring in
// cmd/npython).
func Globals() map[string]value.Value {
	g := map[string]value.Value{
		"None":     value.None,
		"True":     value.True,
		"False":    value.False,
		"Ellipsis": value.Ellipsis,

		"print":      object.NewNativeFunction("print", builtinPrint),
		"len":        object.NewNativeFunction("len", builtinLen),
		"range":      object.NewNativeFunction("range", builtinRange),
		"repr":       object.NewNativeFunction("repr", builtinRepr),
		"str":        object.NewNativeFunction("str", builtinStr),
		"int":        object.NewNativeFunction("int", builtinInt),
		"float":      object.NewNativeFunction("float", builtinFloat),
		"bool":       object.NewNativeFunction("bool", builtinBool),
		"list":       object.NewNativeFunction("list", builtinList),
		"tuple":      object.NewNativeFunction("tuple", builtinTuple),
		"dict":       object.NewNativeFunction("dict", builtinDict),
		"abs":        object.NewNativeFunction("abs", builtinAbs),
		"isinstance": object.NewNativeFunction("isinstance", builtinIsinstance),
		"iter":       object.NewNativeFunction("iter", builtinIter),
		"next":       object.NewNativeFunction("next", builtinNext),
		"slice":      object.NewNativeFunction("slice", builtinSlice),
	}
	for name, t := range object.ExceptionTypes() {
		g[name] = object.TypeValue(t)
	}
	return g
}

func arity(name string, args []value.Value, n int) *object.Object {
	if len(args) != n {
		return object.NewTypeError(fmt.Sprintf("%s() takes exactly %d argument(s) (%d given)", name, n, len(args)))
	}
	return nil
}

func builtinPrint(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Str_()
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(p)
	}
	fmt.Println()
	return value.None, nil
}

func builtinLen(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("len", args, 1); exc != nil {
		return value.Value{}, exc
	}
	t := object.TypeOf(args[0])
	if t == nil || t.Slots.Len == nil {
		return value.Value{}, object.NewTypeError("object of type '" + args[0].TypeName() + "' has no len()")
	}
	n, exc := t.Slots.Len(args[0])
	if exc != nil {
		return value.Value{}, exc
	}
	return value.FromInt64(int64(n)), nil
}

func asInt64(v value.Value) (int64, bool) {
	if v.Kind != value.KindInt {
		return 0, false
	}
	return v.Int.Int64(), true
}

func builtinRange(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := asInt64(args[0])
		if !ok {
			return value.Value{}, object.NewTypeError("'" + args[0].TypeName() + "' object cannot be interpreted as an integer")
		}
		stop = n
	case 2:
		a, ok1 := asInt64(args[0])
		b, ok2 := asInt64(args[1])
		if !ok1 || !ok2 {
			return value.Value{}, object.NewTypeError("range() arguments must be integers")
		}
		start, stop = a, b
	case 3:
		a, ok1 := asInt64(args[0])
		b, ok2 := asInt64(args[1])
		s, ok3 := asInt64(args[2])
		if !ok1 || !ok2 || !ok3 {
			return value.Value{}, object.NewTypeError("range() arguments must be integers")
		}
		start, stop, step = a, b, s
	default:
		return value.Value{}, object.NewTypeError("range expected 1 to 3 arguments, got " + fmt.Sprint(len(args)))
	}
	if step == 0 {
		return value.Value{}, object.NewValueError("range() arg 3 must not be zero")
	}
	return object.NewRange(start, stop, step), nil
}

func builtinRepr(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("repr", args, 1); exc != nil {
		return value.Value{}, exc
	}
	return value.FromString(args[0].Repr()), nil
}

func builtinStr(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return value.FromString(""), nil
	}
	return value.FromString(args[0].Str_()), nil
}

func builtinInt(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return value.FromInt64(0), nil
	}
	switch v := args[0]; v.Kind {
	case value.KindInt:
		return v, nil
	case value.KindFloat:
		bi, _ := big.NewFloat(v.Float).Int(nil)
		return value.FromBigInt(bi), nil
	case value.KindBool:
		if v.Bool {
			return value.FromInt64(1), nil
		}
		return value.FromInt64(0), nil
	case value.KindString:
		bi, ok := new(big.Int).SetString(v.Str, 10)
		if !ok {
			return value.Value{}, object.NewValueError("invalid literal for int() with base 10: " + v.Repr())
		}
		return value.FromBigInt(bi), nil
	default:
		return value.Value{}, object.NewTypeError("int() argument must be a string or a number, not '" + v.TypeName() + "'")
	}
}

func builtinFloat(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return value.FromFloat64(0), nil
	}
	switch v := args[0]; v.Kind {
	case value.KindFloat:
		return v, nil
	case value.KindInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return value.FromFloat64(f), nil
	case value.KindBool:
		if v.Bool {
			return value.FromFloat64(1), nil
		}
		return value.FromFloat64(0), nil
	case value.KindString:
		var f float64
		if _, err := fmt.Sscanf(v.Str, "%g", &f); err != nil {
			return value.Value{}, object.NewValueError("could not convert string to float: " + v.Repr())
		}
		return value.FromFloat64(f), nil
	default:
		return value.Value{}, object.NewTypeError("float() argument must be a string or a number, not '" + v.TypeName() + "'")
	}
}

func builtinBool(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return value.False, nil
	}
	return value.FromBool(args[0].Truthy()), nil
}

func builtinList(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return object.NewList(nil), nil
	}
	items, exc := object.Iterate(c, args[0])
	if exc != nil {
		return value.Value{}, exc
	}
	return object.NewList(items), nil
}

func builtinTuple(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if len(args) == 0 {
		return object.NewTuple(nil), nil
	}
	items, exc := object.Iterate(c, args[0])
	if exc != nil {
		return value.Value{}, exc
	}
	return object.NewTuple(items), nil
}

func builtinDict(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	d := object.NewDict()
	for k, v := range kwargs {
		if exc := object.DictSetItem(d, value.FromString(k), v); exc != nil {
			return value.Value{}, exc
		}
	}
	return d, nil
}

func builtinAbs(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("abs", args, 1); exc != nil {
		return value.Value{}, exc
	}
	switch v := args[0]; v.Kind {
	case value.KindInt:
		return value.FromBigInt(new(big.Int).Abs(v.Int)), nil
	case value.KindFloat:
		if v.Float < 0 {
			return value.FromFloat64(-v.Float), nil
		}
		return v, nil
	default:
		return value.Value{}, object.NewTypeError("bad operand type for abs(): '" + v.TypeName() + "'")
	}
}

func builtinIsinstance(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("isinstance", args, 2); exc != nil {
		return value.Value{}, exc
	}
	want, ok := object.TypeObjectOf(args[1])
	if !ok {
		return value.Value{}, object.NewTypeError("isinstance() arg 2 must be a type")
	}
	got := object.TypeOf(args[0])
	return value.FromBool(got != nil && got.IsSubclass(want)), nil
}

func builtinIter(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("iter", args, 1); exc != nil {
		return value.Value{}, exc
	}
	t := object.TypeOf(args[0])
	if t != nil && t.Slots.Iter != nil {
		return t.Slots.Iter(c, args[0])
	}
	return object.NewSeqIterator(args[0]), nil
}

// builtinSlice backs the slice(start, stop, step) call codegen's
// buildSlice emits for every subscript with a colon in it; start/stop/
// step are always passed explicitly (None standing in for an omitted
// bound), matching Python's three-argument slice() form.
func builtinSlice(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("slice", args, 3); exc != nil {
		return value.Value{}, exc
	}
	return object.NewSlice(args[0], args[1], args[2]), nil
}

func builtinNext(c object.Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if exc := arity("next", args, 1); exc != nil {
		return value.Value{}, exc
	}
	t := object.TypeOf(args[0])
	if t == nil || t.Slots.Next == nil {
		return value.Value{}, object.NewTypeError("'" + args[0].TypeName() + "' object is not an iterator")
	}
	return t.Slots.Next(c, args[0])
}
