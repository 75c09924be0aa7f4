package vm

import (
	"fmt"

	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

// exec executes one instruction against frame. It returns either a
// register-0-bound result and no exception, or an exception object; ctl
// tells run() whether to advance the IP linearly, or whether IP has
// already been rewritten by a jump/return/yield (spec.md section 4.5:
// "Execution returns a Result<Value, Object*>... A successful result is
// placed into the instruction's destination register").
func (m *Machine) exec(f *Frame, in Instruction) (value.Value, *object.Object, control) {
	switch in.Op {
	case OpNop:
		return value.Value{}, nil, ctlNext

	case OpLoadConst:
		f.Registers[in.A] = f.Code.Consts[in.B]
		return value.Value{}, nil, ctlNext

	case OpLoadFast:
		f.Registers[in.A] = f.Registers[in.B]
		return value.Value{}, nil, ctlNext
	case OpStoreFast:
		f.Registers[in.B] = f.Registers[in.A]
		return value.Value{}, nil, ctlNext

	case OpLoadName, OpLoadGlobal:
		name := f.Code.Names[in.B]
		if v, ok := f.Globals[name]; ok {
			f.Registers[in.A] = v
			return value.Value{}, nil, ctlNext
		}
		if v, ok := f.Builtins[name]; ok {
			f.Registers[in.A] = v
			return value.Value{}, nil, ctlNext
		}
		return value.Value{}, object.NewNameError("name '" + name + "' is not defined"), ctlNext
	case OpStoreName, OpStoreGlobal:
		f.Globals[f.Code.Names[in.B]] = f.Registers[in.A]
		return value.Value{}, nil, ctlNext
	case OpDeleteName:
		delete(f.Globals, f.Code.Names[in.A])
		return value.Value{}, nil, ctlNext

	case OpLoadDeref:
		cell := f.Freevars[in.B].Payload.(*object.Cell)
		f.Registers[in.A] = cell.Value
		return value.Value{}, nil, ctlNext
	case OpStoreDeref:
		f.Freevars[in.B].Payload.(*object.Cell).Value = f.Registers[in.A]
		return value.Value{}, nil, ctlNext

	case OpLoadAttr:
		v, exc := object.GetAttribute(m, f.Registers[in.B], f.Code.Names[in.C])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext
	case OpLoadMethod:
		v, exc := object.GetAttribute(m, f.Registers[in.B], f.Code.Names[in.C])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext
	case OpStoreAttr:
		exc := object.SetAttribute(m, f.Registers[in.A], f.Code.Names[in.B], f.Registers[in.C])
		return value.Value{}, exc, ctlNext
	case OpDeleteAttr:
		exc := object.DeleteAttribute(f.Registers[in.A], f.Code.Names[in.B])
		return value.Value{}, exc, ctlNext

	case OpBinarySubscr:
		v, exc := m.getItem(f.Registers[in.B], f.Registers[in.C])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext
	case OpStoreSubscr:
		t := object.TypeOf(f.Registers[in.A])
		if t == nil || t.Slots.SetIndex == nil {
			return value.Value{}, object.NewTypeError("'" + f.Registers[in.A].TypeName() + "' object does not support item assignment"), ctlNext
		}
		return value.Value{}, t.Slots.SetIndex(m, f.Registers[in.A], f.Registers[in.B], f.Registers[in.C]), ctlNext
	case OpDeleteSubscr:
		t := object.TypeOf(f.Registers[in.A])
		if t == nil || t.Slots.DelIndex == nil {
			return value.Value{}, object.NewTypeError("'" + f.Registers[in.A].TypeName() + "' object does not support item deletion"), ctlNext
		}
		return value.Value{}, t.Slots.DelIndex(m, f.Registers[in.A], f.Registers[in.B]), ctlNext

	case OpBinaryAdd, OpBinarySub, OpBinaryMul, OpBinaryTrueDiv, OpBinaryFloorDiv, OpBinaryMod, OpBinaryPow,
		OpBinaryLShift, OpBinaryRShift, OpBinaryAnd, OpBinaryOr, OpBinaryXor:
		v, exc := m.binaryOp(in.Op, f.Registers[in.B], f.Registers[in.C])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext

	case OpUnaryNeg, OpUnaryPos, OpUnaryInvert, OpUnaryNot:
		v, exc := m.unaryOp(in.Op, f.Registers[in.A])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext

	case OpCompareEq, OpCompareNe, OpCompareLt, OpCompareLe, OpCompareGt, OpCompareGe:
		v, exc := object.RichCompare(m, compareOpFor(in.Op), f.Registers[in.B], f.Registers[in.C])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext
	case OpContains:
		t := object.TypeOf(f.Registers[in.C])
		if t == nil || t.Slots.Contains == nil {
			return value.Value{}, object.NewTypeError("argument of type '" + f.Registers[in.C].TypeName() + "' is not iterable"), ctlNext
		}
		v, exc, _ := t.Slots.Contains(m, f.Registers[in.C], f.Registers[in.B])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext

	case OpJump:
		f.IP = int(in.A)
		return value.Value{}, nil, ctlJumped
	case OpJumpForward:
		f.IP += int(in.A)
		return value.Value{}, nil, ctlJumped
	case OpJumpIfTrue:
		if f.Registers[in.A].Truthy() {
			f.IP = int(in.B)
			return value.Value{}, nil, ctlJumped
		}
		return value.Value{}, nil, ctlNext
	case OpJumpIfFalse:
		if !f.Registers[in.A].Truthy() {
			f.IP = int(in.B)
			return value.Value{}, nil, ctlJumped
		}
		return value.Value{}, nil, ctlNext
	case OpJumpIfTrueOrPop:
		if f.Registers[in.A].Truthy() {
			f.IP = int(in.B)
			return value.Value{}, nil, ctlJumped
		}
		return value.Value{}, nil, ctlNext
	case OpJumpIfFalseOrPop:
		if !f.Registers[in.A].Truthy() {
			f.IP = int(in.B)
			return value.Value{}, nil, ctlJumped
		}
		return value.Value{}, nil, ctlNext

	case OpPush:
		f.push(f.Registers[in.A])
		return value.Value{}, nil, ctlNext

	case OpBuildList:
		items := make([]value.Value, in.Arg)
		copy(items, f.Stack[len(f.Stack)-int(in.Arg):])
		f.Stack = f.Stack[:len(f.Stack)-int(in.Arg)]
		f.Registers[in.A] = object.NewList(items)
		return value.Value{}, nil, ctlNext
	case OpBuildTuple:
		items := make([]value.Value, in.Arg)
		copy(items, f.Stack[len(f.Stack)-int(in.Arg):])
		f.Stack = f.Stack[:len(f.Stack)-int(in.Arg)]
		f.Registers[in.A] = object.NewTuple(items)
		return value.Value{}, nil, ctlNext
	case OpBuildSet:
		items := make([]value.Value, in.Arg)
		copy(items, f.Stack[len(f.Stack)-int(in.Arg):])
		f.Stack = f.Stack[:len(f.Stack)-int(in.Arg)]
		v, exc := object.NewSet(items)
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext
	case OpBuildDict:
		n := int(in.Arg)
		d := object.NewDict()
		pairs := f.Stack[len(f.Stack)-2*n:]
		for i := 0; i < n; i++ {
			if exc := object.DictSetItem(d, pairs[2*i], pairs[2*i+1]); exc != nil {
				return value.Value{}, exc, ctlNext
			}
		}
		f.Stack = f.Stack[:len(f.Stack)-2*n]
		f.Registers[in.A] = d
		return value.Value{}, nil, ctlNext
	case OpListAppend:
		return value.Value{}, m.appendList(f.Registers[in.A], f.Registers[in.B]), ctlNext
	case OpDictSetItem:
		return value.Value{}, object.DictSetItem(f.Registers[in.A], f.Registers[in.B], f.Registers[in.C]), ctlNext

	case OpMakeFunction:
		return m.makeFunction(f, in)
	case OpMakeCell:
		f.Freevars[in.A] = object.NewCell(f.Registers[in.B])
		return value.Value{}, nil, ctlNext

	case OpCall:
		return m.execCall(f, in)
	case OpCallWithKeywords:
		return m.execCallKw(f, in)
	case OpCallEx:
		return m.execCallEx(f, in)

	case OpReturnValue:
		return f.Registers[0], nil, ctlReturn

	case OpLoadBuildClass:
		f.Registers[in.A] = m.buildClassBuiltin()
		return value.Value{}, nil, ctlNext

	case OpGetIter:
		t := object.TypeOf(f.Registers[in.A])
		if t != nil && t.Slots.Iter != nil {
			it, exc := t.Slots.Iter(m, f.Registers[in.A])
			if exc != nil {
				return value.Value{}, exc, ctlNext
			}
			f.Registers[in.A] = it
			return value.Value{}, nil, ctlNext
		}
		f.Registers[in.A] = object.NewSeqIterator(f.Registers[in.A])
		return value.Value{}, nil, ctlNext
	case OpForIter:
		it := f.Registers[in.B]
		t := object.TypeOf(it)
		if t == nil || t.Slots.Next == nil {
			return value.Value{}, object.NewTypeError("'" + it.TypeName() + "' object is not an iterator"), ctlNext
		}
		v, exc := t.Slots.Next(m, it)
		if exc != nil {
			if object.Matches(exc, object.StopIterationType) {
				f.IP = int(in.C)
				return value.Value{}, nil, ctlJumped
			}
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext

	case OpYield:
		f.Registers[0] = f.Registers[in.A]
		f.suspended = true
		return f.Registers[0], nil, ctlYield

	case OpYieldFrom:
		// Register B holds the delegate iterator (populated once by a
		// GET_ITER the generator emits ahead of this instruction); this
		// instruction re-executes on every resume until the delegate is
		// exhausted, one suspension per delegated value (spec.md section
		// 5's generator suspend/resume protocol applied transitively).
		it := f.Registers[in.B]
		t := object.TypeOf(it)
		if t == nil || t.Slots.Next == nil {
			return value.Value{}, object.NewTypeError("cannot 'yield from' a non-iterator"), ctlNext
		}
		v, exc := t.Slots.Next(m, it)
		if exc != nil {
			if object.Matches(exc, object.StopIterationType) {
				f.Registers[0] = object.StopIterationValue(exc)
				return value.Value{}, nil, ctlNext
			}
			return value.Value{}, exc, ctlNext
		}
		f.Registers[in.A] = v
		f.suspended = true
		return v, nil, ctlYield

	case OpSetupExcept:
		f.PushHandler(int(in.A), int(in.B))
		return value.Value{}, nil, ctlNext
	case OpPopBlock:
		f.PopHandler()
		return value.Value{}, nil, ctlNext
	case OpRaise:
		exc := excFromRegister(f.Registers[in.A])
		return value.Value{}, exc, ctlNext
	case OpReraise:
		if f.StashedException != nil {
			return value.Value{}, f.StashedException, ctlNext
		}
		return value.Value{}, object.NewException(object.RuntimeErrorType, "No active exception to re-raise"), ctlNext
	case OpJumpIfNotExceptionMatch:
		expected := f.Code.Consts[in.B]
		to, ok := object.TypeObjectOf(expected)
		matches := ok && f.StashedException != nil && object.Matches(f.StashedException, to)
		if !matches {
			f.IP = int(in.C)
			return value.Value{}, nil, ctlJumped
		}
		return value.Value{}, nil, ctlNext
	case OpEndFinally:
		f.StashedException = nil
		return value.Value{}, nil, ctlNext
	case OpLoadException:
		if f.StashedException != nil {
			f.Registers[in.A] = value.FromObject(f.StashedException)
		} else {
			f.Registers[in.A] = value.None
		}
		return value.Value{}, nil, ctlNext

	case OpUnpackSequence:
		items, exc := object.Iterate(m, f.Registers[in.B])
		if exc != nil {
			return value.Value{}, exc, ctlNext
		}
		n := int(in.Arg)
		if len(items) != n {
			return value.Value{}, object.NewValueError("too many values to unpack"), ctlNext
		}
		for i := 0; i < n; i++ {
			f.Registers[int(in.A)+i] = items[i]
		}
		return value.Value{}, nil, ctlNext

	case OpImportName:
		name := f.Code.Names[in.B]
		mod, ok := f.Builtins[name]
		if !ok {
			return value.Value{}, object.NewException(object.ModuleNotFoundErrType, "no module named '"+name+"'"), ctlNext
		}
		f.Registers[in.A] = mod
		return value.Value{}, nil, ctlNext
	case OpImportFrom:
		name := f.Code.Names[in.C]
		v, exc := object.GetAttribute(m, f.Registers[in.B], name)
		if exc != nil {
			return value.Value{}, object.NewException(object.ImportErrorType, "cannot import name '"+name+"'"), ctlNext
		}
		f.Registers[in.A] = v
		return value.Value{}, nil, ctlNext

	case OpImportStar:
		mod, ok := f.Builtins[f.Code.Names[in.B]]
		if !ok {
			return value.Value{}, object.NewException(object.ModuleNotFoundErrType, "no module named '"+f.Code.Names[in.B]+"'"), ctlNext
		}
		for name, v := range object.ModuleAttrs(mod) {
			f.Globals[name] = v
		}
		return value.Value{}, nil, ctlNext

	case OpPrint:
		println_(f.Registers[in.A])
		return value.Value{}, nil, ctlNext

	case OpHalt:
		return f.Registers[0], nil, ctlReturn

	default:
		return value.Value{}, object.NewException(object.RuntimeErrorType, "unimplemented opcode "+in.Op.String()), ctlNext
	}
}

func compareOpFor(op Opcode) object.CompareOp {
	switch op {
	case OpCompareEq:
		return object.OpEq
	case OpCompareNe:
		return object.OpNe
	case OpCompareLt:
		return object.OpLt
	case OpCompareLe:
		return object.OpLe
	case OpCompareGt:
		return object.OpGt
	default:
		return object.OpGe
	}
}

func excFromRegister(v value.Value) *object.Object {
	if o, ok := v.Obj.(*object.Object); ok {
		return o
	}
	return object.NewException(object.RuntimeErrorType, "exceptions must derive from BaseException")
}

// println_ backs the PRINT opcode, a debugging aid retained from the
// teacher's REPL-oriented builtins; the print() builtin itself is a
// stdlib function reached through the ordinary calling convention, not
// this opcode.
func println_(v value.Value) {
	fmt.Println(v.Str_())
}

func (m *Machine) appendList(listVal, item value.Value) *object.Object {
	bound, ok := object.BindMethod(object.ListType, "append", listVal)
	if !ok {
		return object.NewTypeError("expected list")
	}
	t := object.TypeOf(bound)
	_, exc := t.Slots.Call(m, bound, []value.Value{item}, nil)
	return exc
}
