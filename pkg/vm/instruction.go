package vm

import (
	"fmt"

	"github.com/agenthands/pyvm/pkg/core/object"
)

// Instruction is one bytecode instruction. Every operand is a small
// integer: a register index, a constant-pool index, a names-pool index,
// or a relative jump offset in instructions. Which fields are meaningful
// depends on Op; this flat shape (rather than one struct type per opcode,
// as original_source used) keeps the instruction stream a single
// contiguous slice, which is what the interpreter loop and Disassemble
// walk.
type Instruction struct {
	Op   Opcode
	A, B, C int32 // operand meaning is opcode-specific; see opcode.go's per-op comment
	Arg  int32     // a fourth operand slot used by variadic-arity ops (CALL_FUNCTION's argc, BUILD_LIST's count)
}

// String renders one instruction as an operand-annotated disassembly line,
// grounded in original_source's Instruction::to_string() convention of
// naming the opcode followed by its operands positionally.
func (in Instruction) String() string {
	switch in.Op {
	case OpLoadConst:
		return fmt.Sprintf("%-24s r%d, const[%d]", in.Op, in.A, in.B)
	case OpLoadName, OpStoreName, OpDeleteName, OpLoadGlobal, OpStoreGlobal:
		return fmt.Sprintf("%-24s r%d, name[%d]", in.Op, in.A, in.B)
	case OpLoadDeref, OpStoreDeref:
		return fmt.Sprintf("%-24s r%d, free[%d]", in.Op, in.A, in.B)
	case OpLoadAttr, OpStoreAttr, OpDeleteAttr, OpLoadMethod:
		return fmt.Sprintf("%-24s r%d, r%d, name[%d]", in.Op, in.A, in.B, in.C)
	case OpJump, OpJumpForward:
		return fmt.Sprintf("%-24s +%d", in.Op, in.A)
	case OpJumpIfTrue, OpJumpIfFalse, OpJumpIfTrueOrPop, OpJumpIfFalseOrPop:
		return fmt.Sprintf("%-24s r%d, +%d", in.Op, in.A, in.B)
	case OpJumpIfNotExceptionMatch:
		return fmt.Sprintf("%-24s r%d, const[%d], +%d", in.Op, in.A, in.B, in.C)
	case OpCall:
		return fmt.Sprintf("%-24s r%d, r%d, argc=%d", in.Op, in.A, in.B, in.Arg)
	case OpReturnValue, OpUnaryNeg, OpUnaryPos, OpUnaryInvert, OpUnaryNot, OpGetIter, OpYield, OpYieldFrom, OpRaise, OpReraise, OpPush:
		return fmt.Sprintf("%-24s r%d", in.Op, in.A)
	case OpForIter:
		return fmt.Sprintf("%-24s r%d, r%d, +%d", in.Op, in.A, in.B, in.C)
	case OpBuildList, OpBuildTuple, OpBuildSet:
		return fmt.Sprintf("%-24s r%d, count=%d", in.Op, in.A, in.Arg)
	case OpBuildDict:
		return fmt.Sprintf("%-24s r%d, pairs=%d", in.Op, in.A, in.Arg)
	case OpNop, OpHalt, OpPopBlock, OpEndFinally, OpLoadBuildClass:
		return in.Op.String()
	default:
		return fmt.Sprintf("%-24s r%d, r%d, r%d", in.Op, in.A, in.B, in.C)
	}
}

// FunctionBlock is one compiled function's instruction stream plus the
// per-function static data the VM needs at call time. spec.md section
// 2: "BytecodeGenerator emits FunctionBlocks (each: basic blocks of
// instructions + labels)"; basic-block boundaries themselves are only a
// compile-time bookkeeping device and collapse into one flat
// Instructions slice by the time a FunctionBlock is assembled, since the
// VM addresses instructions by absolute index within the block.
type FunctionBlock struct {
	Code         *object.Code
	Instructions []Instruction
}

// Program is the assembled output of the compiler: one FunctionBlock per
// function (including the implicit top-level module function). Each
// FunctionBlock's Code carries its own consts/names pools (spec.md
// section 2: "assembled Program with constants and names pools") —
// per-function rather than program-global, since that is what a Code
// object's constant-folding and serialization already need to be
// self-contained.
type Program struct {
	Functions []*FunctionBlock
	Entry     int // index into Functions of the top-level module code
}

// Disassemble renders every function block in the program as readable
// text, grounded in original_source's whole-program disassembly tooling
// (Program::to_string()-style listings used by the reference interpreter's
// debug CLI, which is out of scope here beyond this text-producing helper).
func (p *Program) Disassemble() string {
	out := ""
	for i, fb := range p.Functions {
		out += fmt.Sprintf("function[%d] %s:\n", i, fb.Code.Name)
		for pc, in := range fb.Instructions {
			out += fmt.Sprintf("  %4d  %s\n", pc, in.String())
		}
	}
	return out
}
