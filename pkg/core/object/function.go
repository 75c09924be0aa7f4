package object

import (
	"fmt"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// Code is the payload of a compiled code object: everything the VM needs
// to run a function body without referring back to the compiler (spec.md
// section 4.5/6). Field names mirror the operand tables a compiled
// Program stores per function block.
type Code struct {
	Name         string
	Filename     string
	Params       []string
	NumRegisters int
	NumLocals    int
	CellVars     []string // names captured by nested closures
	FreeVars     []string // names this code captures from an enclosing scope
	Consts       []value.Value
	Names        []string
	Defaults     []value.Value
	Instructions any // *vm.Instruction slice; typed any to avoid an object->vm import cycle
	IsGenerator  bool
	Varargs      bool
	Varkwargs    bool

	// Cell2Arg maps a CellVars index to the register of the parameter it
	// also names (parameter i lives in register 1+i),
	// for the case where a positional parameter is closed over by a
	// nested function (spec.md section 4.4: "binds arg cells per
	// cell2arg"). Entries absent from the map are ordinary local cells.
	Cell2Arg map[int]int
}

func (c *Code) VisitGraph(visit func(value.Objecter)) {
	for _, v := range c.Consts {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
	for _, v := range c.Defaults {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

var CodeType = mustContainerType("code")

func NewCode(c *Code) value.Value { return value.FromObject(New(CodeType, c)) }

func CodeOf(v value.Value) (*Code, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	c, ok := o.Payload.(*Code)
	return c, ok
}

func init() {
	CodeType.Slots.ReprString = func(o *Object) string {
		c := o.Payload.(*Code)
		return "<code object " + c.Name + ">"
	}
}

// Cell is a heap-allocated box for a variable shared between a closure and
// the function that defines it (spec.md section 4.4: "closures capture by
// cell, not by value"). Both LOAD_DEREF/STORE_DEREF and the creating
// frame's local-variable slot point at the same *Cell.
type Cell struct {
	Value value.Value
}

func (c *Cell) VisitGraph(visit func(value.Objecter)) {
	if c.Value.Kind == value.KindObject && c.Value.Obj != nil {
		visit(c.Value.Obj)
	}
}

var CellType = mustContainerType("cell")

func NewCell(v value.Value) *Object { return New(CellType, &Cell{Value: v}) }

func init() {
	CellType.Slots.ReprString = func(o *Object) string {
		return "<cell at " + objPtrString(o) + ">"
	}
}

// Function is the payload of a user-defined callable: a Code object plus
// the closure environment and default arguments captured at definition
// time (spec.md section 4.4).
type Function struct {
	Code     *Code
	Name     string
	Freevars []*Object // parallel to Code.FreeVars; each a *Cell payload Object, captured at MAKE_FUNCTION
	Defaults []value.Value
	Globals  map[string]value.Value
	Doc      string
}

func (f *Function) VisitGraph(visit func(value.Objecter)) {
	for _, c := range f.Freevars {
		visit(c)
	}
	for _, v := range f.Defaults {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
	for _, v := range f.Globals {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

var FunctionType = mustContainerType("function")

func NewFunction(f *Function) value.Value { return value.FromObject(New(FunctionType, f)) }

func FunctionOf(v value.Value) (*Function, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	fn, ok := o.Payload.(*Function)
	return fn, ok
}

func init() {
	FunctionType.Slots.ReprString = func(o *Object) string {
		f := o.Payload.(*Function)
		return "<function " + f.Name + ">"
	}
	// Call is not wired here: invoking a Function requires building a new
	// ExecutionFrame, which only pkg/vm knows how to do. The VM registers
	// FunctionType.Slots.Call during its own init so object.GetAttribute's
	// generic "call whatever __call__ resolves to" path keeps working for
	// both built-in and user-defined callables uniformly.

	// Functions are non-data descriptors: a function stored in a class
	// Dict binds to a BoundUserMethod when fetched off an instance,
	// matching spec.md section 4.2's "plain function attribute becomes a
	// bound method via the descriptor protocol".
	FunctionType.Slots.Get = func(c Caller, self, instance value.Value, owner *TypePrototype) (value.Value, *Object) {
		f := self.Obj.(*Object).Payload.(*Function)
		if instance.Kind == value.KindNone {
			return self, nil
		}
		return NewBoundUserMethod(instance, f), nil
	}
}

// BoundUserMethod is the payload of a user-defined bound method (an
// instance method looked up off an object instance) as opposed to a bound
// built-in method, distinguishing the two payload shapes GetAttribute's
// descriptor path can produce.
type BoundUserMethod struct {
	Receiver value.Value
	Func     *Function
}

func (b *BoundUserMethod) VisitGraph(visit func(value.Objecter)) {
	if b.Receiver.Kind == value.KindObject && b.Receiver.Obj != nil {
		visit(b.Receiver.Obj)
	}
	visit(New(FunctionType, b.Func))
}

var BoundMethodType = mustContainerType("method")

func NewBoundUserMethod(recv value.Value, fn *Function) value.Value {
	return value.FromObject(New(BoundMethodType, &BoundUserMethod{Receiver: recv, Func: fn}))
}

func init() {
	BoundMethodType.Slots.ReprString = func(o *Object) string {
		b := o.Payload.(*BoundUserMethod)
		return "<bound method " + b.Func.Name + " of " + b.Receiver.Repr() + ">"
	}
	// Call prepends the receiver and forwards to Caller.CallValue on the
	// unbound function, so the VM's single calling-convention entry point
	// handles both bound and unbound user functions identically.
	BoundMethodType.Slots.Call = func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		b := self.Obj.(*Object).Payload.(*BoundUserMethod)
		full := append([]value.Value{b.Receiver}, args...)
		return c.CallValue(NewFunction(b.Func), full, kwargs)
	}
}

// TypeObject is the payload wrapping a *TypePrototype so that types are
// themselves first-class Values, letting type()/isinstance()/class bodies
// (LOAD_BUILD_CLASS) manipulate a class the same way they manipulate any
// other object (spec.md section 4.2: "the type of a type is `type`").
type TypeObject struct {
	Proto *TypePrototype
}

func (t *TypeObject) VisitGraph(visit func(value.Objecter)) {}

var MetaType = mustContainerType("type")

// wrappedTypes lets TypeOf() answer *TypePrototype -> its wrapping
// *Object consistently instead of allocating a fresh wrapper per lookup.
var wrappedTypes = map[*TypePrototype]*Object{}

// TypeObjectOf reports whether v wraps a *TypePrototype (as produced by
// TypeValue), returning that prototype — used by exception-matching
// opcodes that hold the expected exception type as an ordinary Value in
// the constants pool.
func TypeObjectOf(v value.Value) (*TypePrototype, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, false
	}
	to, ok := o.Payload.(*TypeObject)
	if !ok {
		return nil, false
	}
	return to.Proto, true
}

func TypeValue(t *TypePrototype) value.Value {
	o, ok := wrappedTypes[t]
	if !ok {
		o = New(MetaType, &TypeObject{Proto: t})
		wrappedTypes[t] = o
	}
	return value.FromObject(o)
}

func init() {
	MetaType.Slots.ReprString = func(o *Object) string {
		t := o.Payload.(*TypeObject)
		return "<class '" + t.Proto.Name + "'>"
	}
	MetaType.Slots.Call = func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		to := self.Obj.(*Object).Payload.(*TypeObject)
		return Instantiate(c, to.Proto, args, kwargs)
	}
}

// Instantiate implements the default `cls(...)` calling convention: run
// __new__ if present (else allocate a bare instance), then __init__
// (spec.md section 4.2 "instance creation").
func Instantiate(c Caller, t *TypePrototype, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
	var inst value.Value
	if t.Slots.New != nil {
		v, exc := t.Slots.New(c, t, args, kwargs)
		if exc != nil {
			return value.Value{}, exc
		}
		inst = v
	} else {
		inst = value.FromObject(New(t, nil))
	}
	if t.Slots.Init != nil {
		if exc := t.Slots.Init(c, inst, args, kwargs); exc != nil {
			return value.Value{}, exc
		}
	} else if o, ok := inst.Obj.(*Object); ok && o.Type != nil {
		if init, found := lookupInitMethod(o.Type); found {
			if _, exc := init.Fn(c, inst, args, kwargs); exc != nil {
				return value.Value{}, exc
			}
		}
	}
	return inst, nil
}

func lookupInitMethod(t *TypePrototype) (MethodDef, bool) {
	for _, anc := range t.MRO() {
		if md, ok := anc.Methods["__init__"]; ok {
			return md, true
		}
	}
	return MethodDef{}, false
}

func objPtrString(o *Object) string {
	return fmt.Sprintf("%p", o)
}

// FrameType wraps an ExecutionFrame (owned by pkg/vm) as a heap Object so
// generators can hold their suspended frame as an ordinary Value and the
// GC can trace it uniformly with everything else (spec.md section 4.4:
// "Identity is preserved across yields"). pkg/vm supplies a payload
// satisfying GraphVisitor; object.go's VisitGraph already delegates to it.
var FrameType = mustContainerType("frame")

func NewFrameValue(payload GraphVisitor) value.Value {
	return value.FromObject(New(FrameType, payload))
}

func init() {
	FrameType.Slots.ReprString = func(o *Object) string { return "<frame>" }
}
