package vm

import (
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// raise implements spec.md section 4.6's propagation policy for one
// frame: if frame has an open try-block, jump to its handler and stash
// the exception for JUMP_IF_NOT_EXCEPTION_MATCH to test; otherwise report
// unhandled so run() can pop the frame and let the caller's run() loop
// (one call stack level up) repeat the same check against its own frame.
func (m *Machine) raise(f *Frame, exc *object.Object) (nextIP int, handled bool) {
	h, ok := f.findHandler()
	if !ok {
		f.ActiveException = exc
		return 0, false
	}
	f.StashedException = exc
	f.ActiveException = nil
	return h.handlerPC, true
}

// FormatUncaught renders an exception that escaped the top frame as the
// program's final result (spec.md section 4.6 step 5), in the
// "TypeName: message" shape the teacher's own error reporting used.
func FormatUncaught(exc *object.Object) string {
	name := "Exception"
	if exc.Type != nil {
		name = exc.Type.Name
	}
	if msg := object.ExceptionMessage(exc); msg != "" {
		return name + ": " + msg
	}
	return name
}

// raiseIntoSuspended injects f.ActiveException (already set by the
// caller) at f's current suspension point and resumes execution, used by
// Generator.close() to deliver GeneratorExit (spec.md section 5).
func (m *Machine) raiseIntoSuspended(f *Frame) (value.Value, *object.Object) {
	exc := f.ActiveException
	f.ActiveException = nil
	nextIP, handled := m.raise(f, exc)
	if !handled {
		return value.Value{}, exc
	}
	f.IP = nextIP
	return m.run(f)
}
