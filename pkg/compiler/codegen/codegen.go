package codegen

import (
	"github.com/go-python/gpython/ast"

	"github.com/agenthands/pyvm/pkg/compiler/resolver"
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

// generator is the whole-program assembler: it owns the flat list of
// compiled FunctionBlocks a vm.Program needs (spec.md section 2's
// "assembled Program"), one per module/function/lambda/class-body/
// comprehension, addressed by index but referenced from bytecode
// exclusively through the object.Code constant a MAKE_FUNCTION loads —
// the index itself only matters for building vm.Program.Functions and
// resolving Program.Entry.
type generator struct {
	filename string
	funcs    []*vm.FunctionBlock
}

func newGenerator(filename string) *generator {
	return &generator{filename: filename}
}

func (g *generator) addFunction(fb *vm.FunctionBlock) int {
	g.funcs = append(g.funcs, fb)
	return len(g.funcs) - 1
}

func (g *generator) codeConst(idx int) value.Value {
	return object.NewCode(g.funcs[idx].Code)
}

// Compile assembles a resolved scope tree and its AST into a vm.Program.
// moduleScope must be the *resolver.Scope resolver.Resolve returned for
// moduleBody (spec.md section 4.4's compiler pipeline: resolve, then
// generate).
func Compile(moduleScope *resolver.Scope, moduleBody []ast.Stmt, filename string) *vm.Program {
	g := newGenerator(filename)
	entry := g.compileFunction(moduleScope, moduleBody)
	return &vm.Program{Functions: g.funcs, Entry: entry}
}

// compileFunction lowers body under scope into its own FunctionBlock,
// recursing into nested defs/classes/lambdas/comprehensions as stmt/expr
// lowering encounters them via funcGen.nextChildScope, and returns this
// function's index in the generator's flat function list.
func (g *generator) compileFunction(scope *resolver.Scope, body []ast.Stmt) int {
	fg := newFuncGen(g, scope.Name, scope)
	fg.block(body)
	fg.ensureReturn()
	code := fg.code(g.filename)
	fb := &vm.FunctionBlock{Code: code, Instructions: fg.instrs}
	return g.addFunction(fb)
}

// compileComprehension lowers a desugared comprehension body (spec.md
// section 4.4: "Comprehensions and generator expressions: desugar into a
// nested function whose body yields") into its own FunctionBlock. Its
// sole parameter ".0" is the already-GET_ITER'd source iterator; the
// function loops over every generator clause, applies each `if` filter,
// and accumulates elt (or key/value) into a freshly built list/set/dict
// it returns at the end. GeneratorExp reduces to the same eager-list
// shape and wraps the result behind GET_ITER at its call site, rather
// than compiling to a true lazy generator function.
func (g *generator) compileComprehension(scope *resolver.Scope, elt, dictVal ast.Expr, generators []ast.Comprehension, buildOp vm.Opcode) int {
	fg := newFuncGen(g, scope.Name, scope)

	result := fg.temp()
	switch buildOp {
	case vm.OpBuildDict:
		fg.emit(vm.Instruction{Op: vm.OpBuildDict, A: int32(result), Arg: 0})
	default:
		fg.emit(vm.Instruction{Op: buildOp, A: int32(result), Arg: 0})
	}

	iterParam := fg.reg(".0")
	fg.emitComprehensionLoop(generators, 0, iterParam, func() {
		if dictVal != nil {
			k := fg.expr(elt)
			v := fg.expr(dictVal)
			fg.emit(vm.Instruction{Op: vm.OpDictSetItem, A: int32(result), B: int32(k), C: int32(v)})
			return
		}
		v := fg.expr(elt)
		if buildOp == vm.OpBuildSet {
			add := fg.temp()
			fg.emit(vm.Instruction{Op: vm.OpLoadMethod, A: int32(add), B: int32(result), C: fg.addName("add")})
			fg.emit(vm.Instruction{Op: vm.OpPush, A: int32(v)})
			fg.emit(vm.Instruction{Op: vm.OpCall, A: int32(add), B: int32(add), Arg: 1})
			return
		}
		fg.emit(vm.Instruction{Op: vm.OpListAppend, A: int32(result), B: int32(v)})
	})

	fg.ret(result)
	code := fg.code(g.filename)
	fb := &vm.FunctionBlock{Code: code, Instructions: fg.instrs}
	return g.addFunction(fb)
}

// emitComprehensionLoop recurses one nested `for` clause at a time; the
// outermost loop's iterator is the already-prepared iterParamReg
// (idx==0), every inner clause evaluates and GET_ITERs its own Iter
// expression fresh each time the enclosing loop advances.
func (fg *funcGen) emitComprehensionLoop(gens []ast.Comprehension, idx int, iterParamReg int, body func()) {
	if idx >= len(gens) {
		body()
		return
	}
	gen := gens[idx]
	var itReg int
	if idx == 0 {
		itReg = iterParamReg
	} else {
		src := fg.expr(gen.Iter)
		itReg = fg.temp()
		fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(itReg), B: int32(src)})
		fg.emit(vm.Instruction{Op: vm.OpGetIter, A: int32(itReg)})
	}
	start := fg.here()
	item := fg.temp()
	forIter := fg.emit(vm.Instruction{Op: vm.OpForIter, A: int32(item), B: int32(itReg)})
	fg.assign(gen.Target, item)
	var skips []int
	for _, cond := range gen.Ifs {
		c := fg.expr(cond)
		skips = append(skips, fg.emit(vm.Instruction{Op: vm.OpJumpIfFalse, A: int32(c)}))
	}
	fg.emitComprehensionLoop(gens, idx+1, 0, body)
	for _, s := range skips {
		fg.patchB(s, fg.here())
	}
	fg.emit(vm.Instruction{Op: vm.OpJump, A: int32(start)})
	fg.patchC(forIter, fg.here())
}
