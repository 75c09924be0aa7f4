package vm

import "fmt"

// InternalError models a violated interpreter invariant — a jump target
// outside the instruction stream, a register index past NumRegisters, a
// missing compiled block for a Function's Code — as distinct from a
// catchable language-level exception (*object.Object). It is never
// returned from exec(); the VM panics with it, since these represent
// compiler/VM bugs, not something a try/except in the running script
// could ever legitimately handle (spec.md section 7: "Internal bugs...
// terminate the process immediately").
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return "vm: internal error: " + e.Reason }

func internalErrorf(format string, args ...any) {
	panic(&InternalError{Reason: fmt.Sprintf(format, args...)})
}
