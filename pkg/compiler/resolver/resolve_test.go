package resolver

import (
	"strings"
	"testing"

	"github.com/go-python/gpython/ast"
	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"
)

func parseModule(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	mod, err := parser.Parse(strings.NewReader(src), "<test>", py.ExecMode)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, ok := mod.(*ast.Module)
	if !ok {
		t.Fatalf("expected *ast.Module, got %T", mod)
	}
	return m.Body
}

func findChild(s *Scope, name string) *Scope {
	for _, kid := range s.Children {
		if kid.Name == name {
			return kid
		}
	}
	return nil
}

func TestModuleLevelNamesAreGlobal(t *testing.T) {
	root := Resolve(parseModule(t, "x = 1\nprint(x)\n"))
	if got := root.Lookup("x"); got != Global {
		t.Errorf("x = %v, want Global", got)
	}
}

func TestSimpleLocal(t *testing.T) {
	root := Resolve(parseModule(t, "def f():\n    y = 1\n    return y\n"))
	f := findChild(root, "f")
	if f == nil {
		t.Fatal("expected child scope f")
	}
	if got := f.Lookup("y"); got != Local {
		t.Errorf("y = %v, want Local", got)
	}
}

func TestClosureCapture(t *testing.T) {
	src := "def outer():\n    x = 1\n    def inner():\n        return x\n    return inner\n"
	root := Resolve(parseModule(t, src))
	outer := findChild(root, "outer")
	if outer == nil {
		t.Fatal("expected outer scope")
	}
	if got := outer.Lookup("x"); got != Cell {
		t.Errorf("outer.x = %v, want Cell", got)
	}
	inner := findChild(outer, "inner")
	if inner == nil {
		t.Fatal("expected inner scope")
	}
	if got := inner.Lookup("x"); got != Free {
		t.Errorf("inner.x = %v, want Free", got)
	}
}

func TestGlobalDeclaration(t *testing.T) {
	src := "count = 0\ndef bump():\n    global count\n    count = count + 1\n"
	root := Resolve(parseModule(t, src))
	bump := findChild(root, "bump")
	if got := bump.Lookup("count"); got != Global {
		t.Errorf("count = %v, want Global", got)
	}
}

func TestClassScopeNotVisibleToNestedFunction(t *testing.T) {
	src := "class C:\n    attr = 1\n    def method(self):\n        return attr\n"
	root := Resolve(parseModule(t, src))
	class := findChild(root, "C")
	if class == nil {
		t.Fatal("expected class scope C")
	}
	method := findChild(class, "method")
	if method == nil {
		t.Fatal("expected method scope")
	}
	// `attr` lives in the class namespace, which is invisible to a nested
	// function's free-variable search; it must resolve as a (missing)
	// Global, never as Free against the class body.
	if got := method.Lookup("attr"); got != Global {
		t.Errorf("method.attr = %v, want Global", got)
	}
}

func TestGeneratorDetection(t *testing.T) {
	src := "def gen():\n    yield 1\n    yield 2\n"
	root := Resolve(parseModule(t, src))
	gen := findChild(root, "gen")
	if !gen.IsGenerator {
		t.Errorf("expected gen to be detected as a generator")
	}
}

func TestNestedCellChainsThroughIntermediateScope(t *testing.T) {
	src := "def a():\n    x = 1\n    def b():\n        def c():\n            return x\n        return c\n    return b\n"
	root := Resolve(parseModule(t, src))
	a := findChild(root, "a")
	b := findChild(a, "b")
	c := findChild(b, "c")
	if got := a.Lookup("x"); got != Cell {
		t.Errorf("a.x = %v, want Cell", got)
	}
	if got := b.Lookup("x"); got != Free {
		t.Errorf("b.x = %v, want Free (chained through)", got)
	}
	if got := c.Lookup("x"); got != Free {
		t.Errorf("c.x = %v, want Free", got)
	}
}
