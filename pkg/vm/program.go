package vm

import "github.com/agenthands/pyvm/pkg/core/object"

// NewProgram assembles a Program from a code object's function blocks
// built by pkg/compiler/codegen, marking entryCode's block as the module
// entry point. functions must include entryCode's own block.
func NewProgram(functions []*FunctionBlock, entryCode *object.Code) *Program {
	p := &Program{Functions: functions}
	for i, fb := range functions {
		if fb.Code == entryCode {
			p.Entry = i
			break
		}
	}
	return p
}
