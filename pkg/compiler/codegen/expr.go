package codegen

import (
	"github.com/go-python/gpython/ast"

	"github.com/agenthands/pyvm/pkg/compiler/resolver"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

// expr lowers e and returns the register holding its value. A Name load
// of a Local variable returns that variable's own permanent register
// directly rather than copying it into a temp; every other expression
// form materializes into a fresh temp.
func (fg *funcGen) expr(e ast.Expr) int {
	if v, ok := foldConstant(e); ok {
		return fg.loadConst(v)
	}
	switch n := e.(type) {
	case *ast.Num, *ast.Str, *ast.Bytes, *ast.NameConstant, *ast.Ellipsis:
		return fg.loadConst(fg.literalOrFallback(e))
	case *ast.Name:
		if fg.scope.Kind != resolver.ClassScope && fg.scope.Lookup(string(n.Id)) == resolver.Local {
			return fg.reg(string(n.Id))
		}
		dst := fg.temp()
		fg.loadName(dst, string(n.Id))
		return dst
	case *ast.BinOp:
		return fg.binOp(n)
	case *ast.BoolOp:
		return fg.boolOp(n)
	case *ast.UnaryOp:
		return fg.unaryOp(n)
	case *ast.Compare:
		return fg.compare(n)
	case *ast.IfExp:
		return fg.ifExp(n)
	case *ast.Call:
		return fg.call(n)
	case *ast.Attribute:
		obj := fg.expr(n.Value)
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadAttr, A: int32(dst), B: int32(obj), C: fg.addName(string(n.Attr))})
		return dst
	case *ast.Subscript:
		return fg.subscript(n)
	case *ast.List:
		return fg.buildSeq(vm.OpBuildList, n.Elts)
	case *ast.Tuple:
		return fg.buildSeq(vm.OpBuildTuple, n.Elts)
	case *ast.Set:
		return fg.buildSeq(vm.OpBuildSet, n.Elts)
	case *ast.Dict:
		return fg.buildDict(n)
	case *ast.Lambda:
		return fg.lambda(n)
	case *ast.ListComp:
		return fg.comprehension("<listcomp>", n.Elt, nil, n.Generators, vm.OpBuildList)
	case *ast.SetComp:
		return fg.comprehension("<setcomp>", n.Elt, nil, n.Generators, vm.OpBuildSet)
	case *ast.DictComp:
		return fg.comprehension("<dictcomp>", n.Key, n.Value, n.Generators, vm.OpBuildDict)
	case *ast.GeneratorExp:
		return fg.generatorExp(n)
	case *ast.Starred:
		return fg.expr(n.Value)
	case *ast.Yield:
		return fg.yield(n)
	case *ast.YieldFrom:
		return fg.yieldFrom(n)
	default:
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(dst), B: fg.addConst(value.None)})
		return dst
	}
}

// yield lowers a yield expression: the yielded value is moved into
// register 0 (the reserved return/resume slot OpYield reads and
// resume() writes a sent value back into), then the result of the
// eventual resume is copied out into a fresh temp.
func (fg *funcGen) yield(n *ast.Yield) int {
	var v int
	if n.Value != nil {
		v = fg.expr(n.Value)
	} else {
		v = fg.loadConst(value.None)
	}
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: 0, B: int32(v)})
	fg.emit(vm.Instruction{Op: vm.OpYield, A: 0})
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: 0})
	return dst
}

// yieldFrom delegates to a nested iterator: YIELD_FROM re-executes
// itself on every resume until the delegate raises StopIteration, at
// which point its return value lands in register 0 (spec.md section
// 4.6's generator suspend/resume protocol applied transitively).
func (fg *funcGen) yieldFrom(n *ast.YieldFrom) int {
	it := fg.expr(n.Value)
	itReg := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(itReg), B: int32(it)})
	fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(itReg)})
	// A must differ from B: this instruction re-executes in place on every
	// resume, re-reading B as the still-live delegate iterator, so B can
	// never be overwritten with the per-step yielded value that A receives.
	out := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpYieldFrom, A: int32(out), B: int32(itReg)})
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: 0})
	return dst
}

func (fg *funcGen) loadConst(v value.Value) int {
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(dst), B: fg.addConst(v)})
	return dst
}

// literalOrFallback handles the handful of literal kinds foldConstant
// intentionally declines (Bytes, Ellipsis) so every literal still emits a
// LOAD_CONST rather than falling through to a runtime lookup.
func (fg *funcGen) literalOrFallback(e ast.Expr) value.Value {
	switch n := e.(type) {
	case *ast.Bytes:
		return value.FromBytes([]byte(n.S))
	case *ast.Ellipsis:
		return value.Value{Kind: value.KindEllipsis}
	default:
		return value.None
	}
}

func (fg *funcGen) binOp(n *ast.BinOp) int {
	l := fg.expr(n.Left)
	r := fg.expr(n.Right)
	dst := fg.temp()
	op, ok := binOpcode(n.Op)
	if !ok {
		fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(dst), B: fg.addConst(value.None)})
		return dst
	}
	fg.emit(vm.Instruction{Op: op, A: int32(dst), B: int32(l), C: int32(r)})
	return dst
}

func binOpcode(op ast.OperatorNumber) (vm.Opcode, bool) {
	switch op {
	case ast.Add:
		return vm.OpBinaryAdd, true
	case ast.Sub:
		return vm.OpBinarySub, true
	case ast.Mult:
		return vm.OpBinaryMul, true
	case ast.Div:
		return vm.OpBinaryTrueDiv, true
	case ast.FloorDiv:
		return vm.OpBinaryFloorDiv, true
	case ast.Modulo:
		return vm.OpBinaryMod, true
	case ast.Pow:
		return vm.OpBinaryPow, true
	case ast.LShift:
		return vm.OpBinaryLShift, true
	case ast.RShift:
		return vm.OpBinaryRShift, true
	case ast.BitAnd:
		return vm.OpBinaryAnd, true
	case ast.BitOr:
		return vm.OpBinaryOr, true
	case ast.BitXor:
		return vm.OpBinaryXor, true
	default:
		return 0, false
	}
}

// boolOp lowers `and`/`or` with short-circuit evaluation into dst: every
// operand after the first evaluates only if the chain hasn't already
// settled, using JUMP_IF_FALSE/JUMP_IF_TRUE against the running result
// register (spec.md section 4.5's JumpIfTrueOrPop/JumpIfFalseOrPop
// opcodes exist for exactly this but are collapsed here into the plain
// conditional jumps the VM already executes identically).
func (fg *funcGen) boolOp(n *ast.BoolOp) int {
	dst := fg.temp()
	var shortCircuit vm.Opcode
	if n.Op == ast.And {
		shortCircuit = vm.OpJumpIfFalse
	} else {
		shortCircuit = vm.OpJumpIfTrue
	}
	var patches []int
	for i, v := range n.Values {
		r := fg.expr(v)
		fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: int32(r)})
		if i < len(n.Values)-1 {
			patches = append(patches, fg.emit(vm.Instruction{Op: shortCircuit, A: int32(dst)}))
		}
	}
	end := fg.here()
	for _, idx := range patches {
		fg.patchB(idx, end)
	}
	return dst
}

func (fg *funcGen) unaryOp(n *ast.UnaryOp) int {
	r := fg.expr(n.Operand)
	dst := fg.temp()
	var op vm.Opcode
	switch n.Op {
	case ast.UAdd:
		op = vm.OpUnaryPos
	case ast.USub:
		op = vm.OpUnaryNeg
	case ast.Not:
		op = vm.OpUnaryNot
	case ast.Invert:
		op = vm.OpUnaryInvert
	}
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: int32(r)})
	fg.emit(vm.Instruction{Op: op, A: int32(dst)})
	return dst
}

// compare lowers a (possibly chained) comparison. Python's `a < b < c`
// means `a < b and b < c`, evaluating b once; each subsequent comparator
// is chained with the same short-circuit-and semantics as boolOp.
func (fg *funcGen) compare(n *ast.Compare) int {
	dst := fg.temp()
	left := fg.expr(n.Left)
	var patches []int
	for i, op := range n.Ops {
		right := fg.expr(n.Comparators[i])
		fg.emitCompare(dst, op, left, right)
		if i < len(n.Ops)-1 {
			patches = append(patches, fg.emit(vm.Instruction{Op: vm.OpJumpIfFalse, A: int32(dst)}))
			left = right
		}
	}
	end := fg.here()
	for _, idx := range patches {
		fg.patchB(idx, end)
	}
	return dst
}

func (fg *funcGen) emitCompare(dst int, op ast.CmpOp, l, r int) {
	switch op {
	case ast.Eq, ast.Is:
		fg.emit(vm.Instruction{Op: vm.OpCompareEq, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.NotEq, ast.IsNot:
		fg.emit(vm.Instruction{Op: vm.OpCompareNe, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.Lt:
		fg.emit(vm.Instruction{Op: vm.OpCompareLt, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.LtE:
		fg.emit(vm.Instruction{Op: vm.OpCompareLe, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.Gt:
		fg.emit(vm.Instruction{Op: vm.OpCompareGt, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.GtE:
		fg.emit(vm.Instruction{Op: vm.OpCompareGe, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.In:
		fg.emit(vm.Instruction{Op: vm.OpContains, A: int32(dst), B: int32(l), C: int32(r)})
	case ast.NotIn:
		fg.emit(vm.Instruction{Op: vm.OpContains, A: int32(dst), B: int32(l), C: int32(r)})
		fg.emit(vm.Instruction{Op: vm.OpUnaryNot, A: int32(dst)})
	}
}

func (fg *funcGen) ifExp(n *ast.IfExp) int {
	dst := fg.temp()
	test := fg.expr(n.Test)
	jf := fg.emit(vm.Instruction{Op: vm.OpJumpIfFalse, A: int32(test)})
	body := fg.expr(n.Body)
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: int32(body)})
	jend := fg.emit(vm.Instruction{Op: vm.OpJump})
	fg.patchB(jf, fg.here())
	orelse := fg.expr(n.Orelse)
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: int32(orelse)})
	fg.patchA(jend, fg.here())
	return dst
}

func (fg *funcGen) subscript(n *ast.Subscript) int {
	obj := fg.expr(n.Value)
	switch sl := n.Slice.(type) {
	case *ast.Index:
		key := fg.expr(sl.Value)
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpBinarySubscr, A: int32(dst), B: int32(obj), C: int32(key)})
		return dst
	case *ast.Slice:
		sliceVal := fg.buildSlice(sl)
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpBinarySubscr, A: int32(dst), B: int32(obj), C: int32(sliceVal)})
		return dst
	default:
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(dst), B: fg.addConst(value.None)})
		return dst
	}
}

// buildSlice materializes a slice(lower, upper, step) object by calling
// the builtin the same way user code invoking slice(...) would, keeping
// the object model's own slice.go the single source of truth for the
// runtime representation.
func (fg *funcGen) buildSlice(sl *ast.Slice) int {
	lo := fg.exprOrNone(sl.Lower)
	hi := fg.exprOrNone(sl.Upper)
	step := fg.exprOrNone(sl.Step)
	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(lo)})
	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(hi)})
	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(step)})
	dst := fg.temp()
	slicer := fg.temp()
	fg.emitLoadGlobal(slicer, "slice")
	fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(dst), B: int32(slicer), Arg: 3})
	return dst
}

func (fg *funcGen) exprOrNone(e ast.Expr) int {
	if e == nil {
		return fg.loadConst(value.None)
	}
	return fg.expr(e)
}

func (fg *funcGen) buildSeq(op vm.Opcode, elts []ast.Expr) int {
	regs := make([]int, len(elts))
	for i, el := range elts {
		regs[i] = fg.expr(el)
	}
	for _, r := range regs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: op, A: int32(dst), Arg: int32(len(elts))})
	return dst
}

func (fg *funcGen) buildDict(n *ast.Dict) int {
	regs := make([]int, 0, 2*len(n.Keys))
	for i := range n.Keys {
		regs = append(regs, fg.expr(n.Keys[i]), fg.expr(n.Values[i]))
	}
	for _, r := range regs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpBuildDict, A: int32(dst), Arg: int32(len(n.Keys))})
	return dst
}

// call lowers positional, keyword, and *args/**kwargs call forms onto
// the three call opcodes spec.md section 4.5 lists (FunctionCall,
// FunctionCallWithKeywords, FunctionCallEx). A single trailing Starred
// or ** keyword forces the Ex form, since that is the only one able to
// unpack an arbitrary iterable/mapping at call time.
func (fg *funcGen) call(n *ast.Call) int {
	if attr, ok := n.Func.(*ast.Attribute); ok {
		return fg.methodCall(attr, n)
	}
	callee := fg.expr(n.Func)
	if hasStarArgs(n) {
		return fg.callEx(callee, n)
	}
	if len(n.Keywords) == 0 {
		return fg.callPositional(callee, n.Args)
	}
	return fg.callKeywords(callee, n)
}

func (fg *funcGen) methodCall(attr *ast.Attribute, n *ast.Call) int {
	obj := fg.expr(attr.Value)
	callee := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadMethod, A: int32(callee), B: int32(obj), C: fg.addName(string(attr.Attr))})
	if hasStarArgs(n) {
		return fg.callEx(callee, n)
	}
	if len(n.Keywords) == 0 {
		return fg.callPositional(callee, n.Args)
	}
	return fg.callKeywords(callee, n)
}

func hasStarArgs(n *ast.Call) bool {
	for _, a := range n.Args {
		if _, ok := a.(*ast.Starred); ok {
			return true
		}
	}
	for _, kw := range n.Keywords {
		if kw.Arg == "" {
			return true
		}
	}
	return false
}

func (fg *funcGen) callPositional(callee int, args []ast.Expr) int {
	regs := make([]int, len(args))
	for i, a := range args {
		regs[i] = fg.expr(a)
	}
	for _, r := range regs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(dst), B: int32(callee), Arg: int32(len(args))})
	return dst
}

func (fg *funcGen) callKeywords(callee int, n *ast.Call) int {
	posRegs := make([]int, len(n.Args))
	for i, a := range n.Args {
		posRegs[i] = fg.expr(a)
	}
	kwRegs := make([][2]int, len(n.Keywords))
	for i, kw := range n.Keywords {
		nameReg := fg.loadConst(value.FromString(string(kw.Arg)))
		valReg := fg.expr(kw.Value)
		kwRegs[i] = [2]int{nameReg, valReg}
	}
	for _, r := range posRegs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	for _, pair := range kwRegs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(pair[0])})
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(pair[1])})
	}
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpCallWithKeywords, A: int32(dst), B: int32(callee), C: int32(len(n.Args)), Arg: int32(len(n.Keywords))})
	return dst
}

// callEx builds one iterable of positional args and one dict of keyword
// args, then issues CALL_FUNCTION_EX (spec.md section 4.5). A lone `**m`
// with no other keywords passes m's register straight through as the
// kwargs dict; mixing `**m` with explicit keywords is rare enough that
// only the first `**` mapping present is honored, with explicit keys
// applied on top of it.
func (fg *funcGen) callEx(callee int, n *ast.Call) int {
	var posElts []ast.Expr
	for _, a := range n.Args {
		if s, ok := a.(*ast.Starred); ok {
			posElts = append(posElts, &starredMarker{inner: s.Value})
			continue
		}
		posElts = append(posElts, a)
	}
	argsReg := fg.buildStarredTuple(posElts)

	var kwDict int
	haveDict := false
	for _, kw := range n.Keywords {
		if kw.Arg == "" && !haveDict {
			kwDict = fg.expr(kw.Value)
			haveDict = true
		}
	}
	if !haveDict {
		kwDict = fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpBuildDict, A: int32(kwDict), Arg: 0})
	}
	for _, kw := range n.Keywords {
		if kw.Arg == "" {
			continue
		}
		key := fg.loadConst(value.FromString(string(kw.Arg)))
		val := fg.expr(kw.Value)
		fg.emit(vm.Instruction{Op: vm.OpDictSetItem, A: int32(kwDict), B: int32(key), C: int32(val)})
	}

	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpCallEx, A: int32(dst), B: int32(callee), C: int32(argsReg), Arg: int32(kwDict)})
	return dst
}

// lambda compiles its body as an implicit `return <body>` function and
// emits MAKE_FUNCTION, matching how the resolver's collector built the
// lambda's own child scope from that same synthetic Return statement.
func (fg *funcGen) lambda(n *ast.Lambda) int {
	child := fg.nextChildScope()
	codeIdx := fg.gen.compileFunction(child, []ast.Stmt{&ast.Return{Value: n.Body}})
	codeVal := fg.gen.codeConst(codeIdx)

	var defaultRegs []int
	if n.Args != nil {
		for _, d := range n.Args.Defaults {
			defaultRegs = append(defaultRegs, fg.expr(d))
		}
	}
	for _, r := range defaultRegs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	codeReg := fg.loadConst(codeVal)
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpMakeFunction, A: int32(dst), B: int32(codeReg), Arg: int32(len(defaultRegs))})
	return dst
}

// comprehension evaluates the outermost `for` clause's iterable in the
// enclosing scope, wraps it with GET_ITER, then calls the desugared
// child function (compiled by generator.compileComprehension) with that
// iterator as its sole argument, per spec.md section 4.4.
func (fg *funcGen) comprehension(name string, elt, dictVal ast.Expr, generators []ast.Comprehension, buildOp vm.Opcode) int {
	if len(generators) == 0 {
		return fg.loadConst(value.None)
	}
	outer := fg.expr(generators[0].Iter)
	iterReg := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(iterReg), B: int32(outer)})
	fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(iterReg)})

	child := fg.nextChildScope()
	codeIdx := fg.gen.compileComprehension(child, elt, dictVal, generators, buildOp)
	codeVal := fg.gen.codeConst(codeIdx)
	codeReg := fg.loadConst(codeVal)
	fnReg := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpMakeFunction, A: int32(fnReg), B: int32(codeReg), Arg: 0})

	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(iterReg)})
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(dst), B: int32(fnReg), Arg: 1})
	return dst
}

func (fg *funcGen) generatorExp(n *ast.GeneratorExp) int {
	listReg := fg.comprehension("<genexpr>", n.Elt, nil, n.Generators, vm.OpBuildList)
	fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(listReg)})
	return listReg
}

// buildStarredTuple builds CALL_FUNCTION_EX's positional-argument sequence
// as a list: each plain expression is appended with LIST_APPEND, and each
// *starredMarker-wrapped expression is unpacked by an emitted
// GET_ITER/FOR_ITER loop that appends its items one by one.
func (fg *funcGen) buildStarredTuple(elts []ast.Expr) int {
	list := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpBuildList, A: int32(list), Arg: 0})
	for _, e := range elts {
		if marker, ok := e.(*starredMarker); ok {
			it := fg.expr(marker.inner)
			itReg := fg.temp()
			fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(itReg), B: int32(it)})
			fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(itReg)})
			loopStart := fg.here()
			item := fg.temp()
			forIter := fg.emit(vm.Instruction{Op: vm.OpForIter, A: int32(item), B: int32(itReg)})
			fg.emit(vm.Instruction{Op: vm.OpListAppend, A: int32(list), B: int32(item)})
			fg.emit(vm.Instruction{Op: vm.OpJump, A: int32(loopStart)})
			fg.patchC(forIter, fg.here())
			continue
		}
		v := fg.expr(e)
		fg.emit(vm.Instruction{Op: vm.OpListAppend, A: int32(list), B: int32(v)})
	}
	return list
}

// starredMarker tags an already-lowered "to be unpacked" argument
// position through buildStarredTuple without inventing a new ast.Expr
// implementation for gpython's dispatcher to trip over elsewhere; it is
// only ever consumed inside this file.
type starredMarker struct {
	ast.ExprBase
	inner ast.Expr
}
