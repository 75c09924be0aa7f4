package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// execCall implements FunctionCall (spec.md section 4.5's "positional
// only" call form): operand A names the destination register, B the
// callee register, Arg the argument count. The positional args are the
// top Arg slots of the value stack (pushed in order by PUSH), matching
// the reference calling convention's stack-offset addressing; C is unused.
func (m *Machine) execCall(f *Frame, in Instruction) (value.Value, *object.Object, control) {
	callee := f.Registers[in.B]
	argc := int(in.Arg)
	args := make([]value.Value, argc)
	copy(args, f.Stack[len(f.Stack)-argc:])
	f.Stack = f.Stack[:len(f.Stack)-argc]

	result, exc := m.CallValue(callee, args, nil)
	if exc != nil {
		return value.Value{}, exc, ctlNext
	}
	f.Registers[in.A] = result
	return value.Value{}, nil, ctlNext
}

// execCallKw implements FunctionCallWithKeywords: like execCall, but the
// top 2*in.Arg stack slots hold in.Arg (name string, value) pairs after a
// run of in.C positional args, mirroring how BUILD_DICT packs its pairs.
func (m *Machine) execCallKw(f *Frame, in Instruction) (value.Value, *object.Object, control) {
	callee := f.Registers[in.B]
	nkw := int(in.Arg)
	kwargs := make(map[string]value.Value, nkw)
	pairs := f.Stack[len(f.Stack)-2*nkw:]
	for i := 0; i < nkw; i++ {
		kwargs[pairs[2*i].Str] = pairs[2*i+1]
	}
	f.Stack = f.Stack[:len(f.Stack)-2*nkw]

	npos := int(in.C)
	args := make([]value.Value, npos)
	copy(args, f.Stack[len(f.Stack)-npos:])
	f.Stack = f.Stack[:len(f.Stack)-npos]

	result, exc := m.CallValue(callee, args, kwargs)
	if exc != nil {
		return value.Value{}, exc, ctlNext
	}
	f.Registers[in.A] = result
	return value.Value{}, nil, ctlNext
}

// execCallEx implements FunctionCallEx: B names the callee, C names a
// register holding an iterable of positional args to unpack, and Arg
// (when nonzero) names a register holding a mapping to unpack as kwargs.
func (m *Machine) execCallEx(f *Frame, in Instruction) (value.Value, *object.Object, control) {
	callee := f.Registers[in.B]
	args, exc := object.Iterate(m, f.Registers[in.C])
	if exc != nil {
		return value.Value{}, exc, ctlNext
	}
	var kwargs map[string]value.Value
	if in.Arg != 0 {
		keys, vals, ok := object.DictPairs(f.Registers[in.Arg])
		if !ok {
			return value.Value{}, object.NewTypeError("argument after ** must be a dict"), ctlNext
		}
		kwargs = make(map[string]value.Value, len(keys))
		for i, k := range keys {
			kwargs[k.Str] = vals[i]
		}
	}
	result, exc := m.CallValue(callee, args, kwargs)
	if exc != nil {
		return value.Value{}, exc, ctlNext
	}
	f.Registers[in.A] = result
	return value.Value{}, nil, ctlNext
}

// makeFunction implements MAKE_FUNCTION: build a Function object from a
// Code constant, defaults popped from the stack, and a tuple of cells
// captured from the enclosing frame (spec.md section 4.4: "emit code that
// builds a Function object from a Code constant, defaults... and a tuple
// of cells captured from the enclosing frame").
func (m *Machine) makeFunction(f *Frame, in Instruction) (value.Value, *object.Object, control) {
	code, ok := object.CodeOf(f.Code.Consts[in.B])
	if !ok {
		return value.Value{}, object.NewException(object.RuntimeErrorType, "MAKE_FUNCTION target is not a code object"), ctlNext
	}
	ndefaults := int(in.Arg)
	defaults := make([]value.Value, ndefaults)
	if ndefaults > 0 {
		copy(defaults, f.Stack[len(f.Stack)-ndefaults:])
		f.Stack = f.Stack[:len(f.Stack)-ndefaults]
	}

	freevars := make([]*object.Object, len(code.FreeVars))
	for i, name := range code.FreeVars {
		freevars[i] = f.resolveFreevarCell(name)
	}

	fn := &object.Function{
		Code:     code,
		Name:     code.Name,
		Freevars: freevars,
		Defaults: defaults,
		Globals:  f.Globals,
	}
	f.Registers[in.A] = object.NewFunction(fn)
	return value.Value{}, nil, ctlNext
}

// resolveFreevarCell finds the *Object cell for name in the defining
// frame's own cell/free-var vector, walking cellvars first (a variable
// this frame itself owns as a cell) then its own freevars (a variable
// captured from an enclosing scope further out), per the resolver's
// promotion rule in spec.md section 4.4.
func (f *Frame) resolveFreevarCell(name string) *object.Object {
	for i, n := range f.Code.CellVars {
		if n == name {
			return f.Freevars[i]
		}
	}
	off := len(f.Code.CellVars)
	for i, n := range f.Code.FreeVars {
		if n == name {
			return f.Freevars[off+i]
		}
	}
	return object.NewCell(value.None)
}

// buildClassBuiltin returns the callable LOAD_BUILD_CLASS pushes: invoked
// as build_class(body_func, name, *bases), it runs body_func in a fresh
// namespace and constructs a new TypePrototype from the resulting
// dict, per spec.md section 4.4's "Class definition: emit LoadBuildClass;
// call it with the class body function, class name, and bases".
func (m *Machine) buildClassBuiltin() value.Value {
	t, _ := object.NewType("build_class_helper", nil)
	t.Slots.Call = func(c object.Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
		if len(args) < 2 {
			return value.Value{}, object.NewTypeError("build_class() takes at least 2 arguments")
		}
		bodyFn, ok := object.FunctionOf(args[0])
		if !ok {
			return value.Value{}, object.NewTypeError("build_class() first argument must be a function")
		}
		className := args[1].Str
		var bases []*object.TypePrototype
		for _, b := range args[2:] {
			if bt, ok := object.TypeObjectOf(b); ok {
				bases = append(bases, bt)
			}
		}
		namespace := object.NewDict()
		_, exc := m.callFunction(bodyFn, []value.Value{namespace}, nil)
		if exc != nil {
			return value.Value{}, exc
		}
		cls, err := object.NewType(className, bases)
		if err != nil {
			return value.Value{}, object.NewTypeError(err.Error())
		}
		object.CopyDictIntoClass(namespace, cls)
		return object.TypeValue(cls), nil
	}
	return value.FromObject(object.New(t, nil))
}
