package codegen

import (
	"github.com/agenthands/pyvm/pkg/compiler/resolver"
	"github.com/agenthands/pyvm/pkg/core/value"
	"github.com/agenthands/pyvm/pkg/vm"
)

// namespaceParam is the parameter name whose register holds a class body's
// implicit namespace dict argument (buildClassBuiltin in pkg/vm/calls.go invokes the
// body function with that dict as its sole positional argument). A class
// body's own bindings write into this dict rather than into ordinary
// registers, so CopyDictIntoClass can later read them back out (spec.md
// section 4.4: "Class definition: emit LoadBuildClass; call it with the
// class body function, class name, and bases").
const namespaceParam = "__namespace__"

func (fg *funcGen) derefIndex(name string) int32 {
	if i, ok := fg.cellIdx[name]; ok {
		return int32(i)
	}
	return int32(len(fg.scope.CellVars()) + fg.freeIdx[name])
}

// loadName emits the load form appropriate to name's resolved kind into
// dst, per spec.md section 4.4's "Name load: depending on the resolved
// kind, emit LoadLocal/LoadGlobal/LoadDeref/LoadFast."
func (fg *funcGen) loadName(dst int, name string) {
	if fg.scope.Kind == resolver.ClassScope {
		if fg.scope.Lookup(name) == resolver.Local {
			fg.loadFromNamespace(dst, name)
			return
		}
	}
	switch fg.scope.Lookup(name) {
	case resolver.Local:
		fg.emit(vm.Instruction{Op: vm.OpLoadFast, A: int32(dst), B: int32(fg.reg(name))})
	case resolver.Cell, resolver.Free:
		fg.emit(vm.Instruction{Op: vm.OpLoadDeref, A: int32(dst), B: fg.derefIndex(name)})
	default:
		fg.emitLoadGlobal(dst, name)
	}
}

func (fg *funcGen) emitLoadGlobal(dst int, name string) {
	if fg.scope.Kind == resolver.ModuleScope {
		fg.emit(vm.Instruction{Op: vm.OpLoadName, A: int32(dst), B: fg.addName(name)})
		return
	}
	fg.emit(vm.Instruction{Op: vm.OpLoadGlobal, A: int32(dst), B: fg.addName(name)})
}

// storeName emits the store form appropriate to name's resolved kind
// from src.
func (fg *funcGen) storeName(src int, name string) {
	if fg.scope.Kind == resolver.ClassScope {
		if fg.scope.Lookup(name) == resolver.Local {
			fg.storeIntoNamespace(src, name)
			return
		}
	}
	switch fg.scope.Lookup(name) {
	case resolver.Local:
		fg.emit(vm.Instruction{Op: vm.OpStoreFast, A: int32(src), B: int32(fg.reg(name))})
	case resolver.Cell, resolver.Free:
		fg.emit(vm.Instruction{Op: vm.OpStoreDeref, A: int32(src), B: fg.derefIndex(name)})
	default:
		if fg.scope.Kind == resolver.ModuleScope {
			fg.emit(vm.Instruction{Op: vm.OpStoreName, A: int32(src), B: fg.addName(name)})
			return
		}
		fg.emit(vm.Instruction{Op: vm.OpStoreGlobal, A: int32(src), B: fg.addName(name)})
	}
}

func (fg *funcGen) loadFromNamespace(dst int, name string) {
	nsReg := fg.reg(namespaceParam)
	key := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(key), B: fg.addConst(value.FromString(name))})
	fg.emit(vm.Instruction{Op: vm.OpBinarySubscr, A: int32(dst), B: int32(nsReg), C: int32(key)})
}

func (fg *funcGen) storeIntoNamespace(src int, name string) {
	nsReg := fg.reg(namespaceParam)
	key := fg.temp()
	fg.emit(vm.Instruction{Op: vm.OpLoadConst, A: int32(key), B: fg.addConst(value.FromString(name))})
	fg.emit(vm.Instruction{Op: vm.OpStoreSubscr, A: int32(nsReg), B: int32(key), C: int32(src)})
}
