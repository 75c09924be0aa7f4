package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// Generator is the payload of a suspended coroutine: a captured Frame
// (registers, stack, IP, active/stashed exceptions all preserved) plus a
// finished flag, per spec.md section 4.6: "capturing the frame (registers,
// stack, IP) as a first-class heap object and switching instruction-pointer
// state, rather than by a separate coroutine runtime".
type Generator struct {
	m        *Machine
	frame    *Frame
	started  bool
	finished bool
}

func (g *Generator) VisitGraph(visit func(value.Objecter)) {
	g.frame.VisitGraph(visit)
}

var GeneratorType = object.NewTypeMust("generator")

// NewGenerator wraps frame as a suspended generator object without
// running any of its instructions yet; the first __next__ call starts
// execution from IP 0.
func NewGenerator(m *Machine, frame *Frame) value.Value {
	return value.FromObject(object.New(GeneratorType, &Generator{m: m, frame: frame}))
}

func init() {
	GeneratorType.Slots.Iter = func(c object.Caller, self value.Value) (value.Value, *object.Object) { return self, nil }
	GeneratorType.Slots.Next = func(c object.Caller, self value.Value) (value.Value, *object.Object) {
		g := self.Obj.(*object.Object).Payload.(*Generator)
		return g.resume(nil)
	}
	GeneratorType.Slots.ReprString = func(o *object.Object) string { return "<generator object>" }
	GeneratorType.Methods["send"] = object.MethodDef{Name: "send", Fn: func(c object.Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
		g := self.Obj.(*object.Object).Payload.(*Generator)
		var sent value.Value
		if len(args) > 0 {
			sent = args[0]
		}
		return g.resume(&sent)
	}}
	GeneratorType.Methods["close"] = object.MethodDef{Name: "close", Fn: func(c object.Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
		g := self.Obj.(*object.Object).Payload.(*Generator)
		return g.close()
	}}
}

// resume restores VM state from the saved frame and continues execution
// at the instruction after the yield (spec.md section 5: "resumption
// restores the VM state from the saved frame and continues at the
// instruction after the yield"). sent, if non-nil, becomes the value the
// suspended YIELD_VALUE expression evaluates to (generator.send()); a
// plain __next__() call passes nil, which resumes with None.
func (g *Generator) resume(sent *value.Value) (value.Value, *object.Object) {
	if g.finished {
		return value.Value{}, object.NewStopIteration(value.None)
	}
	if g.started {
		v := value.None
		if sent != nil {
			v = *sent
		}
		g.frame.Registers[0] = v
		// YIELD_FROM re-executes itself on resume (it pulls the delegate
		// iterator's next value each time); every other suspension point
		// advances past the instruction that suspended us.
		if g.frame.Block.Instructions[g.frame.IP].Op != OpYieldFrom {
			g.frame.IP++
		}
	}
	g.started = true

	result, exc := g.m.run(g.frame)
	if exc != nil {
		g.finished = true
		return value.Value{}, exc
	}
	if g.frame.suspended {
		g.frame.suspended = false
		return result, nil
	}
	g.finished = true
	return value.Value{}, object.NewStopIteration(result)
}

// close implements spec.md section 5's cancellation protocol: inject
// GeneratorExit at the current suspension point. If the generator
// catches and swallows it (resumes normally instead of propagating or
// re-raising), the caller sees a RuntimeError.
func (g *Generator) close() (value.Value, *object.Object) {
	if g.finished || !g.started {
		g.finished = true
		return value.None, nil
	}
	g.frame.ActiveException = object.NewException(object.GeneratorExitType, "")
	_, exc := g.m.raiseIntoSuspended(g.frame)
	g.finished = true
	if exc != nil && object.Matches(exc, object.GeneratorExitType) {
		return value.None, nil
	}
	if exc != nil {
		return value.Value{}, exc
	}
	return value.Value{}, object.NewException(object.RuntimeErrorType, "generator ignored GeneratorExit")
}
