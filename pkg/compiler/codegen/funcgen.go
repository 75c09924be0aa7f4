// Package codegen implements the bytecode generator of spec.md section
// 4.4: it walks an AST (already annotated by pkg/compiler/resolver) and
// emits vm.Instruction streams into per-function vm.FunctionBlocks,
// assembling them into a vm.Program with each function's own constant
// and name pools (spec.md section 2).
package codegen

import (
	"github.com/agenthands/pyvm/pkg/compiler/resolver"
	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

// funcGen is the per-frame state spec.md section 4.4 describes: "next
// register, next stack slot, next free-var slot" counters, plus a label
// table realized here as instruction-index patch points (the same
// pattern the teacher's own compiler.go uses: record the index of an
// unresolved jump, then overwrite its target field once the destination
// is known).
type funcGen struct {
	gen   *generator
	scope *resolver.Scope

	name   string
	instrs []vm.Instruction

	consts    []value.Value
	names     []string
	nameIndex map[string]int

	localReg map[string]int // resolver.Local names -> permanent register slot
	cellIdx  map[string]int // resolver.Cell names -> Code.CellVars index
	freeIdx  map[string]int // resolver.Free names -> Code.FreeVars index

	nextReg int
	maxReg  int

	cell2arg map[int]int

	loops []loopCtx

	// withExits holds context-manager registers for withStmt's
	// currently-open `with` items, innermost last, so __exit__ calls run
	// in reverse-entry order once the body completes.
	withExits []int

	// childCursor indexes scope.Children as stmt/expr lowering encounters
	// FunctionDef/ClassDef/Lambda/comprehension nodes in the same
	// left-to-right order collect.go built them in, so each nested
	// construct picks up the *resolver.Scope buildScope already produced
	// for it without needing a separate AST-node-to-scope map.
	childCursor int
}

func (fg *funcGen) nextChildScope() *resolver.Scope {
	s := fg.scope.Children[fg.childCursor]
	fg.childCursor++
	return s
}

type loopCtx struct {
	continueTarget int
	breakPatches   []int // instruction indices whose jump target field needs patching to the loop's end
}

func newFuncGen(gen *generator, name string, scope *resolver.Scope) *funcGen {
	fg := &funcGen{
		gen: gen, scope: scope, name: name,
		nameIndex: map[string]int{},
		localReg:  map[string]int{},
		cellIdx:   map[string]int{},
		freeIdx:   map[string]int{},
		cell2arg:  map[int]int{},
	}
	// Register 0 is reserved as the return-value slot: OpReturnValue
	// always reads f.Registers[0] regardless of its own operand, so it is
	// never handed out as an ordinary local or temp register.
	fg.nextReg = 1
	fg.maxReg = 1
	for i, name := range scope.CellVars() {
		fg.cellIdx[name] = i
	}
	for i, name := range scope.FreeVars() {
		fg.freeIdx[name] = i
	}
	if scope.Kind == resolver.ClassScope {
		fg.reg(namespaceParam)
	}
	// Every parameter gets a permanent register up front, in declaration
	// order, matching how callFunction binds positional arguments
	// (spec.md section 4.4 step 4: "bind positional args to registers").
	for _, p := range scope.Params {
		fg.reg(p)
	}
	if scope.Vararg != "" {
		fg.reg(scope.Vararg)
	}
	if scope.Kwarg != "" {
		fg.reg(scope.Kwarg)
	}
	// A parameter that is also a cell variable (closed over by a nested
	// function) still occupies its argument register; Cell2Arg records
	// that binding so callFunction knows to seed the cell from it
	// (spec.md section 4.4: "binds arg cells per cell2arg").
	for i, name := range scope.CellVars() {
		if reg, ok := fg.localReg[name]; ok {
			fg.cell2arg[i] = reg
		}
	}
	return fg
}

// reg returns name's permanent register, allocating one the first time a
// Local name is seen (parameters are pre-registered by newFuncGen; plain
// local assignments get one lazily, in first-use order).
func (fg *funcGen) reg(name string) int {
	if r, ok := fg.localReg[name]; ok {
		return r
	}
	r := fg.nextReg
	fg.nextReg++
	if fg.nextReg > fg.maxReg {
		fg.maxReg = fg.nextReg
	}
	fg.localReg[name] = r
	return r
}

// temp allocates a scratch register for one expression's intermediate
// result; temps are never reused within a statement (simplicity over
// minimal register pressure, matching the teacher's own single-pass,
// no-backtracking style) but block resets the watermark after every
// statement it lowers so unrelated statements don't grow the frame
// without bound.
func (fg *funcGen) temp() int {
	r := fg.nextReg
	fg.nextReg++
	if fg.nextReg > fg.maxReg {
		fg.maxReg = fg.nextReg
	}
	return r
}

func (fg *funcGen) resetTemps(watermark int) { fg.nextReg = watermark }

// permanentTop is the first register not permanently owned by a
// parameter, cellvar-backed argument, vararg, kwarg, or the class
// namespace slot (all of which are registered via reg() in newFuncGen,
// so localReg already accounts for every one of them); +1 skips past
// the reserved return-value register. Once reg() has allocated a local
// after temps, that local's register can lie at or above this value.
func (fg *funcGen) permanentTop() int {
	return 1 + len(fg.localReg)
}

func (fg *funcGen) emit(in vm.Instruction) int {
	fg.instrs = append(fg.instrs, in)
	return len(fg.instrs) - 1
}

func (fg *funcGen) here() int { return len(fg.instrs) }

// ret moves src into the reserved return slot and emits RETURN_VALUE.
func (fg *funcGen) ret(src int) {
	if src != 0 {
		fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: 0, B: int32(src)})
	}
	fg.emit(vm.Instruction{Op: vm.OpReturnValue, A: 0})
}

func (fg *funcGen) patchA(idx, target int)   { fg.instrs[idx].A = int32(target) }
func (fg *funcGen) patchB(idx, target int)   { fg.instrs[idx].B = int32(target) }
func (fg *funcGen) patchC(idx, target int)   { fg.instrs[idx].C = int32(target) }

// addConst deduplicates by linear scan, mirroring the teacher's own
// addConstant — the constant pool per function is small enough that this
// never shows up in profiles, and it avoids needing a hashable key for
// value.Value (which embeds a *big.Int).
func (fg *funcGen) addConst(v value.Value) int32 {
	for i, existing := range fg.consts {
		if sameConstant(existing, v) {
			return int32(i)
		}
	}
	fg.consts = append(fg.consts, v)
	return int32(len(fg.consts) - 1)
}

func sameConstant(a, b value.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case value.KindInt:
		return a.Int != nil && b.Int != nil && a.Int.Cmp(b.Int) == 0
	case value.KindFloat:
		return a.Float == b.Float
	case value.KindString:
		return a.Str == b.Str
	case value.KindBool:
		return a.Bool == b.Bool
	case value.KindNone, value.KindEllipsis, value.KindNotImplemented:
		return true
	default:
		return false
	}
}

func (fg *funcGen) addName(name string) int32 {
	if i, ok := fg.nameIndex[name]; ok {
		return int32(i)
	}
	i := len(fg.names)
	fg.names = append(fg.names, name)
	fg.nameIndex[name] = i
	return int32(i)
}

// code assembles this funcGen's accumulated state into an *object.Code,
// per spec.md section 4.5's Code fields (params, register count,
// cellvars/freevars, consts/names pools, cell2arg).
func (fg *funcGen) code(filename string) *object.Code {
	params := append([]string{}, fg.scope.Params...)
	if fg.scope.Kind == resolver.ClassScope {
		params = []string{namespaceParam}
	}
	c := &object.Code{
		Name:         fg.name,
		Filename:     filename,
		Params:       params,
		NumRegisters: fg.maxReg,
		CellVars:     fg.scope.CellVars(),
		FreeVars:     fg.scope.FreeVars(),
		Consts:       fg.consts,
		Names:        fg.names,
		IsGenerator:  fg.scope.IsGenerator,
		Varargs:      fg.scope.Vararg != "",
		Varkwargs:    fg.scope.Kwarg != "",
		Cell2Arg:     fg.cell2arg,
	}
	return c
}
