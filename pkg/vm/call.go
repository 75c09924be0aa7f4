package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// CallValue implements object.Caller: the single calling-convention entry
// point shared by built-in slot wrappers, bound methods, and Python
// functions alike (spec.md section 4.5 "calling convention"). Dispatch on
// callee's type's __call__ slot; if callee is itself a *Function, run the
// Python-specific binding path instead of round-tripping through a slot.
func (m *Machine) CallValue(callee value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	if fn, ok := object.FunctionOf(callee); ok {
		return m.callFunction(fn, args, kwargs)
	}
	t := object.TypeOf(callee)
	if t == nil || t.Slots.Call == nil {
		return value.Value{}, object.NewTypeError("'" + callee.TypeName() + "' object is not callable")
	}
	return t.Slots.Call(m, callee, args, kwargs)
}

// callFunction implements spec.md section 4.4 step 4: build a frame sized
// from the code object, bind positional args to register slots, fill
// defaults, collect *args/**kwargs overflow, wire up cells, and run.
func (m *Machine) callFunction(fn *object.Function, args []value.Value, kwargs map[string]value.Value) (value.Value, *object.Object) {
	code := fn.Code
	block := m.blockFor(code)
	if block == nil {
		internalErrorf("no compiled block registered for function %q", fn.Name)
	}
	if len(m.frames) >= m.maxFrames() {
		return value.Value{}, object.NewRecursionError("maximum recursion depth exceeded")
	}

	frame := NewFrame(m.current(), code, block, fn.Globals, m.Builtins)

	nparams := len(code.Params)
	positional := args
	if len(positional) > nparams && !code.Varargs {
		return value.Value{}, object.NewTypeError(fn.Name + "() takes " + itoa(nparams) + " positional arguments but " + itoa(len(positional)) + " were given")
	}

	// Register 0 is the reserved return-value slot, so parameter i lives in
	// register 1+i, followed by the *args and then the **kwargs register.
	bound := 0
	for i := 0; i < nparams && i < len(positional); i++ {
		frame.Registers[1+i] = positional[i]
		bound++
	}
	// Fill missing trailing positional parameters from defaults, aligned
	// to the end of the parameter list (spec.md section 3: "default
	// values for positional args").
	missing := nparams - bound
	if missing > 0 {
		defaultStart := len(fn.Defaults) - missing
		for i := 0; i < missing; i++ {
			regIdx := bound + i
			if defaultStart+i >= 0 && defaultStart+i < len(fn.Defaults) {
				frame.Registers[1+regIdx] = fn.Defaults[defaultStart+i]
			} else if kw, ok := kwargs[code.Params[regIdx]]; ok {
				frame.Registers[1+regIdx] = kw
			} else {
				return value.Value{}, object.NewTypeError(fn.Name + "() missing required argument: '" + code.Params[regIdx] + "'")
			}
		}
	}
	// Keyword args matching a named parameter override its register even
	// when a positional value or default already filled it.
	usedKw := make(map[string]bool, len(kwargs))
	for name, v := range kwargs {
		for i, p := range code.Params {
			if p == name {
				frame.Registers[1+i] = v
				usedKw[name] = true
				break
			}
		}
	}

	if code.Varargs {
		var extra []value.Value
		if len(positional) > nparams {
			extra = append(extra, positional[nparams:]...)
		}
		frame.Registers[1+nparams] = object.NewTuple(extra)
	}
	if code.Varkwargs {
		extra := object.NewDict()
		for name, v := range kwargs {
			if !usedKw[name] {
				object.DictSetItem(extra, value.FromString(name), v)
			}
		}
		idx := 1 + nparams
		if code.Varargs {
			idx++
		}
		frame.Registers[idx] = extra
	}

	m.bindCells(frame, fn)

	if code.IsGenerator {
		return NewGenerator(m, frame), nil
	}
	return m.run(frame)
}

const maxCallDepth = 1000

// maxFrames reports the configured call-depth ceiling, defaulting to
// maxCallDepth when the Machine was built without an explicit limit
// (e.g. via vm.New with MaxFrames left at zero).
func (m *Machine) maxFrames() int {
	if m.MaxFrames > 0 {
		return m.MaxFrames
	}
	return maxCallDepth
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
