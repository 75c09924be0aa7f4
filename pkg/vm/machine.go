package vm

import (
	"github.com/agenthands/pyvm/pkg/core/heap"
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/rs/zerolog"
)

// Machine is the register-and-stack hybrid VM of spec.md section 4.5: an
// instruction pointer, a per-frame register file, a value stack, and a
// frame pointer, implemented here as an explicit frame slice rather than
// recursive Go calls so a generator can suspend and later resume a frame
// that is not on the current Go call stack.
type Machine struct {
	Program  *Program
	Builtins map[string]value.Value
	Heap     *heap.Heap
	Log      zerolog.Logger

	// MaxFrames overrides the call-depth ceiling (spec.md section 7's
	// RecursionError) when positive; zero keeps the built-in default.
	// Set from internal/config's VM.MaxFrames by embedding callers that
	// load pyvm.toml.
	MaxFrames int

	frames       []*Frame
	blocks       map[*object.Code]*FunctionBlock
	gcCyclesSeen int
}

// New constructs a Machine ready to run program, wiring every function
// block's Code so callFunction can find its instructions by identity.
func New(program *Program, builtins map[string]value.Value, gcThreshold int, log zerolog.Logger) *Machine {
	m := &Machine{
		Program:  program,
		Builtins: builtins,
		Heap:     heap.New(gcThreshold),
		Log:      log,
		blocks:   make(map[*object.Code]*FunctionBlock, len(program.Functions)),
	}
	for _, fb := range program.Functions {
		m.blocks[fb.Code] = fb
	}
	return m
}

func init() {
	// Delegates back through Caller.CallValue, which special-cases
	// *Function before ever consulting this slot, so this never recurses.
	// Wiring it keeps object.Instantiate and any other code that resolves
	// a callable purely through Slots.Call working uniformly for
	// user-defined functions too.
	object.FunctionType.Slots.Call = func(c object.Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
		return c.CallValue(self, args, kwargs)
	}
}

func (m *Machine) blockFor(code *object.Code) *FunctionBlock { return m.blocks[code] }

func (m *Machine) current() *Frame {
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

// bindCells allocates this call's cell variables and wires closure-captured
// free variables from fn's captured environment, per spec.md section 4.4.
func (m *Machine) bindCells(frame *Frame, fn *object.Function) {
	code := fn.Code
	for i := range code.CellVars {
		var initial value.Value
		if argIdx, ok := code.Cell2Arg[i]; ok {
			initial = frame.Registers[argIdx]
		}
		frame.Freevars[i] = object.NewCell(initial)
	}
	offset := len(code.CellVars)
	for i := range code.FreeVars {
		if i < len(fn.Freevars) {
			frame.Freevars[offset+i] = fn.Freevars[i]
		}
	}
}

// Run executes program starting at its Entry function with the given
// globals, returning the final register-0 value or an uncaught exception
// (spec.md section 2: "creates a root ExecutionFrame, and executes
// instructions... GC occasionally traces from VM roots").
func (m *Machine) Run(globals map[string]value.Value) (value.Value, *object.Object) {
	entry := m.Program.Functions[m.Program.Entry]
	frame := NewFrame(nil, entry.Code, entry, globals, m.Builtins)
	return m.run(frame)
}

// VisitGraph makes the Machine's live frame chain a GC root (spec.md
// section 2: "current frame chain, register file, stack").
func (m *Machine) VisitGraph(visit func(value.Objecter)) {
	for _, f := range m.frames {
		f.VisitGraph(visit)
	}
}

// run pushes frame onto the call stack and drives the fetch-decode-execute
// loop until it returns, raises past the top, or suspends via yield.
func (m *Machine) run(frame *Frame) (value.Value, *object.Object) {
	m.frames = append(m.frames, frame)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()

	for {
		if frame.IP >= len(frame.Block.Instructions) {
			return value.None, nil
		}
		in := frame.Block.Instructions[frame.IP]
		m.Log.Trace().Str("op", in.Op.String()).Int("ip", frame.IP).Msg("exec")

		result, exc, ctl := m.exec(frame, in)
		if exc != nil {
			nextIP, handled := m.raise(frame, exc)
			if !handled {
				return value.Value{}, exc
			}
			frame.IP = nextIP
			continue
		}
		switch ctl {
		case ctlReturn:
			return result, nil
		case ctlYield:
			return result, nil
		default:
			frame.IP++
		}

		stats := m.Heap.MaybeCollect(m)
		if stats.Cycles > m.gcCyclesSeen {
			m.gcCyclesSeen = stats.Cycles
			m.Log.Debug().Int("live", stats.Live).Int("reclaimed", stats.Reclaimed).Int("cycle", stats.Cycles).Msg("gc")
		}
	}
}

type control int

const (
	ctlNext control = iota
	ctlReturn
	ctlYield
	ctlJumped
)
