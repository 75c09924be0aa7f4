// Package python wires gpython's parser to pkg/compiler/resolver and
// pkg/compiler/codegen, producing a vm.Program from Python source text.
// AST construction itself is out of scope (spec.md section 1: "parsing
// Python source text into an AST... is treated as an external, already
// solved problem supplied by gpython"); this package is the seam between
// that external parser and the compiler core.
package python

import (
	"fmt"
	"strings"

	"github.com/go-python/gpython/ast"
	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"

	"github.com/agenthands/pyvm/pkg/compiler/codegen"
	"github.com/agenthands/pyvm/pkg/compiler/resolver"
	"github.com/agenthands/pyvm/pkg/vm"
)

// Compile parses src as a Python module, resolves every name's storage
// kind, and generates a vm.Program ready for vm.Machine.Run. filename is
// used only for diagnostics and Code.Filename, matching the teacher's
// own single-string-in, bytecode-out compiler entry point.
func Compile(src, filename string) (*vm.Program, error) {
	mod, err := parser.Parse(strings.NewReader(src), filename, py.ExecMode)
	if err != nil {
		return nil, fmt.Errorf("python parse error: %w", err)
	}
	module, ok := mod.(*ast.Module)
	if !ok {
		return nil, fmt.Errorf("expected *ast.Module, got %T", mod)
	}
	scope := resolver.Resolve(module.Body)
	program := codegen.Compile(scope, module.Body, filename)
	return program, nil
}
