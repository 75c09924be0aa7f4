package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// tryHandler is one entry of the per-function table of (try-block-range,
// handler-block-index) built up by SETUP_EXCEPT/POP_BLOCK emission
// (spec.md section 4.6).
type tryHandler struct {
	tryEndPC int // instruction index one past the protected range
	handlerPC int
}

// Frame is the ExecutionFrame of spec.md section 3/4.4: the per-invocation
// activation record. Its lifecycle is owned by the VM's call/return
// machinery in call.go; generators keep one alive past a normal return by
// holding a reference from their Generator payload (identity survives
// yield/resume, per spec.md section 4.6).
type Frame struct {
	Parent   *Frame
	Code     *object.Code
	Block    *FunctionBlock
	Globals  map[string]value.Value
	Builtins map[string]value.Value
	Freevars []*object.Object // *Cell-payload objects; combined cellvars + closure-captured freevars, indexed as Code.CellVars ++ Code.FreeVars

	Registers []value.Value
	Stack     []value.Value

	IP int // absolute index into Block.Instructions

	// ActiveException holds an exception this frame did not handle (set by
	// raise when no handler is open, and by Generator.close before it
	// injects GeneratorExit); the handler-matching opcodes read
	// StashedException, which raise sets when it jumps to a handler.
	// StashedException preserves an outer handler's exception
	// while a nested try/except runs (spec.md section 3: "an optional
	// stashed exception (for try/except nesting)").
	ActiveException  *object.Object
	StashedException *object.Object
	CatchType        *object.TypePrototype

	handlers []tryHandler

	// suspended is set by YIELD_VALUE/YIELD_FROM when the frame suspends
	// and cleared by Generator.resume once it has returned the yielded
	// value; it stays false for an ordinary call frame. Nothing checks it
	// before a yield executes.
	suspended bool
}

// NewFrame allocates a fresh activation record sized from code, per
// spec.md section 4.4: "creates a new ExecutionFrame sized from the code
// object". Register/stack slices are pre-sized and zero-valued (None);
// callers fill parameter registers afterward.
func NewFrame(parent *Frame, code *object.Code, block *FunctionBlock, globals, builtins map[string]value.Value) *Frame {
	return &Frame{
		Parent:    parent,
		Code:      code,
		Block:     block,
		Globals:   globals,
		Builtins:  builtins,
		Freevars:  make([]*object.Object, len(code.CellVars)+len(code.FreeVars)),
		Registers: make([]value.Value, code.NumRegisters),
	}
}

// PushHandler records a try-block's protected range and where control
// transfers on a matching exception, emitted by SETUP_EXCEPT.
func (f *Frame) PushHandler(tryEndPC, handlerPC int) {
	f.handlers = append(f.handlers, tryHandler{tryEndPC: tryEndPC, handlerPC: handlerPC})
}

// PopHandler discards the innermost try-block entry, emitted by POP_BLOCK
// once its protected range completes without raising.
func (f *Frame) PopHandler() {
	if len(f.handlers) > 0 {
		f.handlers = f.handlers[:len(f.handlers)-1]
	}
}

// findHandler returns the innermost still-open handler entry, or ok=false
// if this frame has none — meaning the exception propagates to Parent
// (spec.md section 4.6 step 4).
func (f *Frame) findHandler() (tryHandler, bool) {
	if len(f.handlers) == 0 {
		return tryHandler{}, false
	}
	h := f.handlers[len(f.handlers)-1]
	f.handlers = f.handlers[:len(f.handlers)-1]
	return h, true
}

// VisitGraph makes a Frame a GC root/participant: it is reachable both as
// part of the VM's current frame chain (a root) and, for a suspended
// generator, as an owned payload of a Generator object (spec.md section
// 4.1: "cyclic graphs are permitted (e.g., frames refer to their parent)").
func (f *Frame) VisitGraph(visit func(value.Objecter)) {
	for _, r := range f.Registers {
		if r.Kind == value.KindObject && r.Obj != nil {
			visit(r.Obj)
		}
	}
	for _, s := range f.Stack {
		if s.Kind == value.KindObject && s.Obj != nil {
			visit(s.Obj)
		}
	}
	for _, c := range f.Freevars {
		if c != nil {
			visit(c)
		}
	}
	for _, v := range f.Globals {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
	if f.ActiveException != nil {
		visit(f.ActiveException)
	}
	if f.StashedException != nil {
		visit(f.StashedException)
	}
	if f.Parent != nil {
		f.Parent.VisitGraph(visit)
	}
}

// push/pop implement the value stack used for call-argument marshalling
// and the handful of ad-hoc opcodes that need scratch space beyond the
// register file (spec.md section 4.5: "a value stack (used for
// call-argument marshalling and a few ad-hoc opcodes)").
func (f *Frame) push(v value.Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) pop() value.Value {
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}
