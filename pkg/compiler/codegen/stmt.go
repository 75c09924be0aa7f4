package codegen

import (
	"github.com/go-python/gpython/ast"

	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

// exceptTypeConst resolves an except-clause's type expression to a
// constant-pool index, since JUMP_IF_NOT_EXCEPTION_MATCH reads its
// comparison type directly out of Code.Consts rather than a register.
// Only a bare Name naming a built-in exception type resolves; anything
// else (a qualified attribute, a variable, a tuple of types) is not
// staticaly resolvable under this VM's fixed-constant opcode design.
func (fg *funcGen) exceptTypeConst(e ast.Expr) (int32, bool) {
	name, ok := e.(*ast.Name)
	if !ok {
		return 0, false
	}
	t, ok := object.LookupExceptionType(string(name.Id))
	if !ok {
		return 0, false
	}
	return fg.addConst(object.TypeValue(t)), true
}

// block lowers a statement list, resetting the temp-register watermark
// after each statement so unrelated statements never accumulate temps
// across each other (the register allocator has no general-purpose reuse
// scheme beyond this per-statement reset). The watermark drops back to
// where it stood when the block began, or to just past the highest
// register a local owns if that is higher, so neither a local that reg()
// allocated lazily nor a temp of the enclosing statement (a for loop's
// iterator, a with statement's manager) is handed out again.
func (fg *funcGen) block(stmts []ast.Stmt) {
	top := fg.nextReg
	for _, s := range stmts {
		fg.stmt(s)
		floor := top
		for _, r := range fg.localReg {
			if r >= floor {
				floor = r + 1
			}
		}
		fg.resetTemps(floor)
	}
}

// ensureReturn appends an implicit `return None` if body may fall off
// the end without one, matching real Python's default return value.
func (fg *funcGen) ensureReturn() {
	if len(fg.instrs) > 0 && fg.instrs[len(fg.instrs)-1].Op == vm.OpReturnValue {
		return
	}
	none := fg.loadConst(value.None)
	fg.ret(none)
}

func (fg *funcGen) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Assign:
		v := fg.expr(s.Value)
		for _, t := range s.Targets {
			fg.assign(t, v)
		}
	case *ast.AugAssign:
		fg.augAssign(s)
	case *ast.ExprStmt:
		fg.expr(s.Value)
	case *ast.Return:
		if s.Value != nil {
			fg.ret(fg.expr(s.Value))
		} else {
			fg.ret(fg.loadConst(value.None))
		}
	case *ast.Delete:
		for _, t := range s.Targets {
			fg.deleteTarget(t)
		}
	case *ast.Pass:
	case *ast.Break:
		fg.emitBreak()
	case *ast.Continue:
		fg.emitContinue()
	case *ast.If:
		fg.ifStmt(s)
	case *ast.While:
		fg.whileStmt(s)
	case *ast.For:
		fg.forStmt(s)
	case *ast.Try:
		fg.tryStmt(s)
	case *ast.Raise:
		fg.raiseStmt(s)
	case *ast.With:
		fg.withStmt(s)
	case *ast.Assert:
		fg.assertStmt(s)
	case *ast.Global, *ast.Nonlocal:
		// Purely a resolver-time declaration; storage kind is already baked
		// into Scope.kinds by the time codegen runs.
	case *ast.Import:
		fg.importStmt(s)
	case *ast.ImportFrom:
		fg.importFromStmt(s)
	case *ast.FunctionDef:
		fg.funcDef(s)
	case *ast.ClassDef:
		fg.classDef(s)
	default:
	}
}

// assign lowers one assignment target. Tuple/List targets desugar to
// UNPACK_SEQUENCE against a contiguous run of temp registers (the opcode
// requires its destinations to be contiguous), then a per-element assign;
// a Starred element inside a tuple/list target is not supported, matching
// the reduced feature set for CALL_FUNCTION_EX's own starred handling.
func (fg *funcGen) assign(target ast.Expr, src int) {
	switch t := target.(type) {
	case *ast.Name:
		fg.storeName(src, string(t.Id))
	case *ast.Attribute:
		obj := fg.expr(t.Value)
		fg.emit(vm.Instruction{Op: vm.OpStoreAttr, A: int32(obj), B: fg.addName(string(t.Attr)), C: int32(src)})
	case *ast.Subscript:
		obj := fg.expr(t.Value)
		key := fg.subscriptKey(t)
		fg.emit(vm.Instruction{Op: vm.OpStoreSubscr, A: int32(obj), B: int32(key), C: int32(src)})
	case *ast.Tuple:
		fg.unpackAssign(t.Elts, src)
	case *ast.List:
		fg.unpackAssign(t.Elts, src)
	default:
	}
}

func (fg *funcGen) subscriptKey(t *ast.Subscript) int {
	switch sl := t.Slice.(type) {
	case *ast.Index:
		return fg.expr(sl.Value)
	case *ast.Slice:
		return fg.buildSlice(sl)
	default:
		return fg.loadConst(value.None)
	}
}

func (fg *funcGen) unpackAssign(elts []ast.Expr, src int) {
	n := len(elts)
	base := fg.temp()
	for i := 1; i < n; i++ {
		fg.temp()
	}
	fg.emit(vm.Instruction{Op: vm.OpUnpackSequence, A: int32(base), B: int32(src), Arg: int32(n)})
	for i, el := range elts {
		fg.assign(el, base+i)
	}
}

func (fg *funcGen) deleteTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		fg.emit(vm.Instruction{Op: vm.OpDeleteName, A: fg.addName(string(t.Id))})
	case *ast.Attribute:
		obj := fg.expr(t.Value)
		fg.emit(vm.Instruction{Op: vm.OpDeleteAttr, A: int32(obj), B: fg.addName(string(t.Attr))})
	case *ast.Subscript:
		obj := fg.expr(t.Value)
		key := fg.subscriptKey(t)
		fg.emit(vm.Instruction{Op: vm.OpDeleteSubscr, A: int32(obj), B: int32(key)})
	}
}

// augAssign lowers `target OP= value` as target = target OP value; a
// re-evaluation of any Attribute/Subscript owner expression is accepted
// here (matching the resolver's own bindTarget+expr double-visit of the
// same node) rather than caching it, since spec.md's constant-folding
// pass already collapses the common literal-owner cases.
func (fg *funcGen) augAssign(s *ast.AugAssign) {
	cur := fg.expr(s.Target)
	rhs := fg.expr(s.Value)
	dst := fg.temp()
	op, ok := binOpcode(s.Op)
	if !ok {
		dst = cur
	} else {
		fg.emit(vm.Instruction{Op: op, A: int32(dst), B: int32(cur), C: int32(rhs)})
	}
	fg.assign(s.Target, dst)
}

func (fg *funcGen) emitBreak() {
	if len(fg.loops) == 0 {
		return
	}
	idx := fg.emit(vm.Instruction{Op: vm.OpJump})
	top := &fg.loops[len(fg.loops)-1]
	top.breakPatches = append(top.breakPatches, idx)
}

func (fg *funcGen) emitContinue() {
	if len(fg.loops) == 0 {
		return
	}
	top := fg.loops[len(fg.loops)-1]
	fg.emit(vm.Instruction{Op: vm.OpJump, A: int32(top.continueTarget)})
}

func (fg *funcGen) ifStmt(s *ast.If) {
	test := fg.expr(s.Test)
	jf := fg.emit(vm.Instruction{Op: vm.OpJumpIfFalse, A: int32(test)})
	fg.block(s.Body)
	if len(s.Orelse) == 0 {
		fg.patchB(jf, fg.here())
		return
	}
	jend := fg.emit(vm.Instruction{Op: vm.OpJump})
	fg.patchB(jf, fg.here())
	fg.block(s.Orelse)
	fg.patchA(jend, fg.here())
}

func (fg *funcGen) whileStmt(s *ast.While) {
	start := fg.here()
	test := fg.expr(s.Test)
	jf := fg.emit(vm.Instruction{Op: vm.OpJumpIfFalse, A: int32(test)})
	fg.loops = append(fg.loops, loopCtx{continueTarget: start})
	fg.block(s.Body)
	fg.emit(vm.Instruction{Op: vm.OpJump, A: int32(start)})
	end := fg.here()
	fg.patchB(jf, end)
	top := fg.loops[len(fg.loops)-1]
	fg.loops = fg.loops[:len(fg.loops)-1]
	for _, idx := range top.breakPatches {
		fg.patchA(idx, end)
	}
	fg.block(s.Orelse)
}

// forStmt lowers `for target in iter: body` via GET_ITER/FOR_ITER, per
// spec.md section 4.5's "Iteration and generators" opcode group.
func (fg *funcGen) forStmt(s *ast.For) {
	iter := fg.expr(s.Iter)
	itReg := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(itReg), B: int32(iter)})
	fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(itReg)})
	start := fg.here()
	item := fg.temp()
	forIter := fg.emit(vm.Instruction{Op: vm.OpForIter, A: int32(item), B: int32(itReg)})
	fg.assign(s.Target, item)
	fg.loops = append(fg.loops, loopCtx{continueTarget: start})
	fg.block(s.Body)
	fg.emit(vm.Instruction{Op: vm.OpJump, A: int32(start)})
	end := fg.here()
	fg.patchC(forIter, end)
	top := fg.loops[len(fg.loops)-1]
	fg.loops = fg.loops[:len(fg.loops)-1]
	for _, idx := range top.breakPatches {
		fg.patchA(idx, end)
	}
	fg.block(s.Orelse)
}

// tryStmt lowers try/except/else/finally using the frame's handler stack
// (spec.md section 4.6): SETUP_EXCEPT pushes a (protected-range-end,
// handler) entry; a raise inside the range transfers control to the
// handler with the exception loaded via LOAD_EXCEPTION; JUMP_IF_NOT_
// EXCEPTION_MATCH threads through each handler's type test in order.
func (fg *funcGen) tryStmt(s *ast.Try) {
	setup := fg.emit(vm.Instruction{Op: vm.OpSetupExcept})
	fg.block(s.Body)
	fg.emit(vm.Instruction{Op: vm.OpPopBlock})
	fg.block(s.Orelse)
	jend := fg.emit(vm.Instruction{Op: vm.OpJump})

	handlerStart := fg.here()
	fg.patchB(setup, handlerStart)
	var doneJumps []int
	for _, h := range s.Handlers {
		exc := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadException, A: int32(exc)})
		var nextTest int
		hasTest := h.ExprType != nil
		if hasTest {
			constIdx, ok := fg.exceptTypeConst(h.ExprType)
			if !ok {
				// Not a statically resolvable exception type name (e.g. a
				// variable holding a type): JUMP_IF_NOT_EXCEPTION_MATCH can
				// only compare against a constant, so fall back to matching
				// any Exception subclass rather than silently never matching.
				constIdx = fg.addConst(object.TypeValue(object.ExceptionType))
			}
			nextTest = fg.emit(vm.Instruction{Op: vm.OpJumpIfNotExceptionMatch, A: int32(exc), B: constIdx})
		}
		if h.Name != "" {
			fg.storeName(exc, string(h.Name))
		}
		fg.block(h.Body)
		doneJumps = append(doneJumps, fg.emit(vm.Instruction{Op: vm.OpJump}))
		if hasTest {
			fg.patchC(nextTest, fg.here())
		}
	}
	fg.emit(vm.Instruction{Op: vm.OpReraise})

	end := fg.here()
	fg.patchA(jend, end)
	for _, idx := range doneJumps {
		fg.patchA(idx, end)
	}
	fg.block(s.Finalbody)
}

// raiseStmt lowers `raise`, `raise expr`, and `raise expr from cause`; in
// the last form the cause expression is neither evaluated nor attached to
// the raised exception. A bare exception class name (`raise ValueError`, no call parens) names a
// class rather than an instance, so it is instantiated with zero
// arguments first; RAISE itself always expects an instance in its
// register, never a class (spec.md section 4.6).
func (fg *funcGen) raiseStmt(s *ast.Raise) {
	if s.Exc == nil {
		fg.emit(vm.Instruction{Op: vm.OpReraise})
		return
	}
	if name, isName := s.Exc.(*ast.Name); isName {
		if constIdx, ok := fg.exceptTypeConst(name); ok {
			typeReg := fg.temp()
			fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(typeReg), B: constIdx})
			dst := fg.temp()
			fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(dst), B: int32(typeReg), Arg: 0})
			fg.emit(vm.Instruction{Op: vm.OpRaise, A: int32(dst)})
			return
		}
	}
	exc := fg.expr(s.Exc)
	fg.emit(vm.Instruction{Op: vm.OpRaise, A: int32(exc)})
}

// withStmt lowers a with-statement as a plain sequence around the body:
// __enter__ is called, the body runs, and __exit__(None, None, None) is
// called when control falls off the end of the body. A return, break or
// continue inside the body, or an exception raised in it, leaves without
// calling __exit__; such an exception propagates to whatever outer handler
// exists, so __exit__ never sees or swallows it.
func (fg *funcGen) withStmt(s *ast.With) {
	for _, item := range s.Items {
		mgr := fg.expr(item.ContextExpr)
		enter := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadMethod, A: int32(enter), B: int32(mgr), C: fg.addName("__enter__")})
		fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(enter), B: int32(enter), Arg: 0})
		if item.OptionalVars != nil {
			fg.assign(item.OptionalVars, enter)
		}
		fg.withExits = append(fg.withExits, mgr)
	}
	fg.block(s.Body)
	for i := len(s.Items) - 1; i >= 0; i-- {
		mgr := fg.withExits[len(fg.withExits)-1]
		fg.withExits = fg.withExits[:len(fg.withExits)-1]
		exit := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadMethod, A: int32(exit), B: int32(mgr), C: fg.addName("__exit__")})
		none := fg.loadConst(value.None)
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(none)})
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(none)})
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(none)})
		fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(exit), B: int32(exit), Arg: 3})
	}
}

func (fg *funcGen) assertStmt(s *ast.Assert) {
	test := fg.expr(s.Test)
	jt := fg.emit(vm.Instruction{Op: vm.OpJumpIfTrue, A: int32(test)})
	var msg int
	if s.Msg != nil {
		msg = fg.expr(s.Msg)
	} else {
		msg = fg.loadConst(value.FromString("assertion failed"))
	}
	fg.emit(vm.Instruction{Op: vm.OpRaise, A: int32(msg)})
	fg.patchB(jt, fg.here())
}

func (fg *funcGen) importStmt(s *ast.Import) {
	for _, alias := range s.Names {
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpImportName, A: int32(dst), B: fg.addName(string(alias.Name))})
		fg.storeName(dst, importedTargetName(alias))
	}
}

func (fg *funcGen) importFromStmt(s *ast.ImportFrom) {
	if len(s.Names) == 1 && string(s.Names[0].Name) == "*" {
		fg.emit(vm.Instruction{Op: vm.OpImportStar, B: fg.addName(string(s.Module))})
		return
	}
	mod := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpImportName, A: int32(mod), B: fg.addName(string(s.Module))})
	for _, alias := range s.Names {
		dst := fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpImportFrom, A: int32(dst), B: int32(mod), C: fg.addName(string(alias.Name))})
		fg.storeName(dst, importedTargetName(alias))
	}
}

func importedTargetName(alias *ast.Alias) string {
	if alias.AsName != "" {
		return string(alias.AsName)
	}
	return string(alias.Name)
}

// funcDef compiles the nested function body into its own FunctionBlock,
// evaluates default values in the enclosing scope, and emits
// MAKE_FUNCTION per spec.md section 4.4's "emit code that builds a
// Function object from a Code constant, defaults evaluated once at
// def-time, and a tuple of cells captured from the enclosing frame."
func (fg *funcGen) funcDef(s *ast.FunctionDef) {
	child := fg.nextChildScope()
	codeIdx := fg.gen.compileFunction(child, s.Body)
	codeVal := fg.gen.codeConst(codeIdx)

	var defaultRegs []int
	if s.Args != nil {
		for _, d := range s.Args.Defaults {
			defaultRegs = append(defaultRegs, fg.expr(d))
		}
	}
	for _, r := range defaultRegs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	codeReg := fg.loadConst(codeVal)
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpMakeFunction, A: int32(dst), B: int32(codeReg), Arg: int32(len(defaultRegs))})
	fg.storeName(dst, string(s.Name))
}

// classDef compiles the class body as an ordinary function taking the
// implicit namespace dict, then calls LOAD_BUILD_CLASS's helper with
// that function, the class name, and its evaluated base expressions
// (spec.md section 4.4: "Class definition: emit LoadBuildClass; call it
// with the class body function, class name, and bases").
func (fg *funcGen) classDef(s *ast.ClassDef) {
	child := fg.nextChildScope()
	codeIdx := fg.gen.compileFunction(child, s.Body)
	codeVal := fg.gen.codeConst(codeIdx)
	codeReg := fg.loadConst(codeVal)
	bodyFn := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpMakeFunction, A: int32(bodyFn), B: int32(codeReg), Arg: 0})

	builder := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadBuildClass, A: int32(builder)})

	nameReg := fg.loadConst(value.FromString(string(s.Name)))
	baseRegs := make([]int, len(s.Bases))
	for i, b := range s.Bases {
		baseRegs[i] = fg.expr(b)
	}
	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(bodyFn)})
	fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(nameReg)})
	for _, r := range baseRegs {
		fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(r)})
	}
	dst := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(dst), B: int32(builder), Arg: int32(2 + len(baseRegs))})
	fg.storeName(dst, string(s.Name))
}
