package object

import "github.com/agenthands/pyvm/pkg/core/value"

// NativeFunc is a builtin implemented directly in Go instead of compiled
// bytecode, for the minimal stdlib surface spec.md section 1 carves out
// as in-scope ("built-ins the object model itself requires: len, iter,
// print, and the handful of others the execution core's opcodes assume
// exist"). It shares the ordinary Caller-based calling convention so a
// native builtin is indistinguishable from a Python function at a call
// site.
type NativeFunc func(c Caller, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object)

type nativeFunction struct {
	name string
	fn   NativeFunc
}

func (n *nativeFunction) VisitGraph(visit func(value.Objecter)) {}

var NativeFunctionType = mustContainerType("builtin_function_or_method")

func init() {
	NativeFunctionType.Slots.ReprString = func(o *Object) string {
		return "<built-in function " + o.Payload.(*nativeFunction).name + ">"
	}
	NativeFunctionType.Slots.Call = func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		n := self.Obj.(*Object).Payload.(*nativeFunction)
		return n.fn(c, args, kwargs)
	}
}

// NewNativeFunction wraps fn as a first-class callable Value under name
// (used in tracebacks and repr()).
func NewNativeFunction(name string, fn NativeFunc) value.Value {
	return value.FromObject(New(NativeFunctionType, &nativeFunction{name: name, fn: fn}))
}
