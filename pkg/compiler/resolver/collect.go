package resolver

import "github.com/go-python/gpython/ast"

// buildScope collects every name this scope binds, references, and
// declares global/nonlocal, then recurses into nested function/class
// definitions and comprehensions to build their child scopes. It does
// NOT resolve Free/Cell/Global yet — that is Resolve's second pass, once
// the whole tree (and therefore every scope's `bound` set) exists.
func buildScope(name string, kind ScopeKind, parent *Scope, body []ast.Stmt) *Scope {
	s := newScope(name, kind, parent)
	c := &collector{scope: s}
	for _, stmt := range body {
		c.stmt(stmt)
	}
	return s
}

type collector struct{ scope *Scope }

func (c *collector) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *collector) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Assign:
		c.expr(s.Value)
		for _, t := range s.Targets {
			c.bindTarget(t)
		}
	case *ast.AugAssign:
		c.bindTarget(s.Target)
		c.expr(s.Target)
		c.expr(s.Value)
	case *ast.ExprStmt:
		c.expr(s.Value)
	case *ast.Return:
		if s.Value != nil {
			c.expr(s.Value)
		}
	case *ast.Delete:
		for _, t := range s.Targets {
			c.expr(t)
		}
	case *ast.Pass, *ast.Break, *ast.Continue:
	case *ast.If:
		c.expr(s.Test)
		c.stmts(s.Body)
		c.stmts(s.Orelse)
	case *ast.While:
		c.expr(s.Test)
		c.stmts(s.Body)
		c.stmts(s.Orelse)
	case *ast.For:
		c.expr(s.Iter)
		c.bindTarget(s.Target)
		c.stmts(s.Body)
		c.stmts(s.Orelse)
	case *ast.Try:
		c.stmts(s.Body)
		for _, h := range s.Handlers {
			if h.ExprType != nil {
				c.expr(h.ExprType)
			}
			if h.Name != "" {
				c.scope.bind(string(h.Name))
			}
			c.stmts(h.Body)
		}
		c.stmts(s.Orelse)
		c.stmts(s.Finalbody)
	case *ast.Raise:
		if s.Exc != nil {
			c.expr(s.Exc)
		}
		if s.Cause != nil {
			c.expr(s.Cause)
		}
	case *ast.With:
		for _, item := range s.Items {
			c.expr(item.ContextExpr)
			if item.OptionalVars != nil {
				c.bindTarget(item.OptionalVars)
			}
		}
		c.stmts(s.Body)
	case *ast.Assert:
		c.expr(s.Test)
		if s.Msg != nil {
			c.expr(s.Msg)
		}
	case *ast.Global:
		for _, n := range s.Names {
			c.scope.globals[string(n)] = true
		}
	case *ast.Nonlocal:
		for _, n := range s.Names {
			c.scope.nonlocals[string(n)] = true
		}
	case *ast.Import:
		for _, alias := range s.Names {
			c.scope.bind(importedName(alias))
		}
	case *ast.ImportFrom:
		for _, alias := range s.Names {
			c.scope.bind(importedName(alias))
		}
	case *ast.FunctionDef:
		c.defaultsAndDecorators(s.Args, s.DecoratorList)
		c.scope.bind(string(s.Name))
		child := buildFunctionScope(string(s.Name), s.Args, s.Body, c.scope)
		_ = child
	case *ast.ClassDef:
		for _, b := range s.Bases {
			c.expr(b)
		}
		c.defaultsAndDecorators(nil, s.DecoratorList)
		c.scope.bind(string(s.Name))
		buildScope(string(s.Name), ClassScope, c.scope, s.Body)
	default:
		// Statement kinds with no binding/reference effect resolver cares
		// about (e.g. bare docstring expressions already covered above).
	}
}

func (c *collector) defaultsAndDecorators(args *ast.Arguments, decorators []ast.Expr) {
	if args != nil {
		for _, d := range args.Defaults {
			c.expr(d)
		}
		for _, d := range args.KwDefaults {
			if d != nil {
				c.expr(d)
			}
		}
	}
	for _, d := range decorators {
		c.expr(d)
	}
}

func importedName(alias *ast.Alias) string {
	if alias.AsName != "" {
		return string(alias.AsName)
	}
	return string(alias.Name)
}

func (c *collector) bindTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		c.scope.bind(string(t.Id))
	case *ast.Tuple:
		for _, e := range t.Elts {
			c.bindTarget(e)
		}
	case *ast.List:
		for _, e := range t.Elts {
			c.bindTarget(e)
		}
	case *ast.Starred:
		c.bindTarget(t.Value)
	case *ast.Attribute:
		c.expr(t.Value)
	case *ast.Subscript:
		c.expr(t.Value)
		c.slicer(t.Slice)
	}
}

func (c *collector) slicer(s ast.Slicer) {
	if s == nil {
		return
	}
	switch sl := s.(type) {
	case *ast.Index:
		c.expr(sl.Value)
	case *ast.Slice:
		c.expr(sl.Lower)
		c.expr(sl.Upper)
		c.expr(sl.Step)
	case *ast.ExtSlice:
		for _, d := range sl.Dims {
			c.slicer(d)
		}
	}
}

func (c *collector) expr(expr ast.Expr) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.Name:
		c.scope.reference(string(e.Id))
	case *ast.Num, *ast.Str, *ast.Bytes, *ast.NameConstant, *ast.Ellipsis:
	case *ast.BinOp:
		c.expr(e.Left)
		c.expr(e.Right)
	case *ast.BoolOp:
		for _, v := range e.Values {
			c.expr(v)
		}
	case *ast.UnaryOp:
		c.expr(e.Operand)
	case *ast.Compare:
		c.expr(e.Left)
		for _, cmp := range e.Comparators {
			c.expr(cmp)
		}
	case *ast.Call:
		c.expr(e.Func)
		for _, a := range e.Args {
			c.expr(a)
		}
		for _, kw := range e.Keywords {
			c.expr(kw.Value)
		}
	case *ast.IfExp:
		c.expr(e.Test)
		c.expr(e.Body)
		c.expr(e.Orelse)
	case *ast.Attribute:
		c.expr(e.Value)
	case *ast.Subscript:
		c.expr(e.Value)
		c.slicer(e.Slice)
	case *ast.List:
		for _, el := range e.Elts {
			c.expr(el)
		}
	case *ast.Tuple:
		for _, el := range e.Elts {
			c.expr(el)
		}
	case *ast.Set:
		for _, el := range e.Elts {
			c.expr(el)
		}
	case *ast.Dict:
		for i := range e.Keys {
			if e.Keys[i] != nil {
				c.expr(e.Keys[i])
			}
			c.expr(e.Values[i])
		}
	case *ast.Starred:
		c.expr(e.Value)
	case *ast.Yield:
		c.scope.IsGenerator = true
		if e.Value != nil {
			c.expr(e.Value)
		}
	case *ast.YieldFrom:
		c.scope.IsGenerator = true
		c.expr(e.Value)
	case *ast.Lambda:
		c.defaultsAndDecorators(e.Args, nil)
		buildFunctionScope("<lambda>", e.Args, []ast.Stmt{&ast.Return{Value: e.Body}}, c.scope)
	case *ast.ListComp:
		c.comprehension("<listcomp>", e.Elt, nil, e.Generators)
	case *ast.SetComp:
		c.comprehension("<setcomp>", e.Elt, nil, e.Generators)
	case *ast.GeneratorExp:
		c.comprehension("<genexpr>", e.Elt, nil, e.Generators)
	case *ast.DictComp:
		c.comprehension("<dictcomp>", e.Key, e.Value, e.Generators)
	default:
	}
}

// comprehension desugars a comprehension into its own function scope with
// the single parameter ".0"; codegen compiles that scope as a function
// that accumulates into a list, set or dict and returns it, not as a
// function that yields. The first
// generator's iterable is evaluated in the enclosing scope (matching real
// Python: only the outermost `for ... in X` reads X from outside), the
// rest of the machinery lives inside the child scope.
func (c *collector) comprehension(name string, elt, dictVal ast.Expr, generators []ast.Comprehension) {
	if len(generators) == 0 {
		return
	}
	c.expr(generators[0].Iter)
	child := newScope(name, FunctionScope, c.scope)
	child.Params = []string{".0"}
	cc := &collector{scope: child}
	for i, gen := range generators {
		if i > 0 {
			cc.expr(gen.Iter)
		}
		cc.bindTarget(gen.Target)
		for _, cond := range gen.Ifs {
			cc.expr(cond)
		}
	}
	cc.expr(elt)
	if dictVal != nil {
		cc.expr(dictVal)
	}
}

func buildFunctionScope(name string, args *ast.Arguments, body []ast.Stmt, parent *Scope) *Scope {
	s := newScope(name, FunctionScope, parent)
	if args != nil {
		for _, a := range args.Args {
			s.Params = append(s.Params, string(a.Arg))
			s.bind(string(a.Arg))
		}
		for _, a := range args.Kwonlyargs {
			s.Params = append(s.Params, string(a.Arg))
			s.bind(string(a.Arg))
		}
		if args.Vararg != nil {
			s.Vararg = string(args.Vararg.Arg)
			s.bind(s.Vararg)
		}
		if args.Kwarg != nil {
			s.Kwarg = string(args.Kwarg.Arg)
			s.bind(s.Kwarg)
		}
	}
	c := &collector{scope: s}
	c.stmts(body)
	return s
}
