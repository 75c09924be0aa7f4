package resolver

import "github.com/go-python/gpython/ast"

// Resolve builds and fully resolves the scope tree for a module's
// top-level statements (spec.md section 4.4: "walks the AST and produces
// a scope tree"). The returned root Scope and every descendant reachable
// through Children have a final Kind for each name they bind or read.
func Resolve(moduleBody []ast.Stmt) *Scope {
	root := buildScope("<module>", ModuleScope, nil, moduleBody)
	resolveTree(root)
	return root
}

// resolveTree processes children first (post-order) so that a promotion
// a deeply nested scope triggers in some outer ancestor (Local -> Cell)
// is already recorded by the time anything else inspects that ancestor;
// climbForBinding writes directly into the ancestor's kinds map, so the
// actual traversal order does not otherwise matter for correctness.
func resolveTree(s *Scope) {
	for _, kid := range s.Children {
		resolveTree(kid)
	}
	resolveOne(s)
}

func resolveOne(s *Scope) {
	if s.Kind == ModuleScope {
		for _, name := range s.order {
			s.kinds[name] = Global
		}
		for name := range s.referenced {
			if _, ok := s.kinds[name]; !ok {
				s.kinds[name] = Global
			}
		}
		return
	}

	for _, name := range s.order {
		switch {
		case s.globals[name]:
			s.kinds[name] = Global
		case s.nonlocals[name]:
			resolveFree(s, name, true)
		default:
			if _, already := s.kinds[name]; !already {
				s.kinds[name] = Local
			}
		}
	}

	for name := range s.referenced {
		if _, already := s.kinds[name]; already {
			continue
		}
		if s.globals[name] {
			s.kinds[name] = Global
			continue
		}
		resolveFree(s, name, false)
	}
}

// resolveFree searches s's enclosing function scopes (skipping class
// scopes, per spec.md section 4.4's "enclosing function scope" wording)
// for a binding site of name. When found, it promotes that ancestor's
// binding to Cell and threads Free through every intermediate function
// scope on the path down to s, matching the closure-chaining behavior
// spec.md section 4.4 describes ("promoted... if any inner scope
// references it; such references become FreeVariable in the inner scope
// and CellVariable in the defining scope"). requireFree is set for an
// explicit `nonlocal` declaration, where falling through to Global would
// silently misresolve a malformed program instead of surfacing it.
func resolveFree(s *Scope, name string, requireFree bool) {
	var path []*Scope
	anc := s.Parent
	for anc != nil {
		if anc.Kind == ClassScope {
			anc = anc.Parent
			continue
		}
		if anc.Kind == ModuleScope {
			break
		}
		if anc.bound[name] && !anc.globals[name] {
			anc.kinds[name] = Cell
			for _, mid := range path {
				mid.kinds[name] = Free
				mid.freeOrder = append(mid.freeOrder, name)
			}
			s.kinds[name] = Free
			s.freeOrder = append(s.freeOrder, name)
			return
		}
		path = append(path, anc)
		anc = anc.Parent
	}
	if requireFree {
		// `nonlocal name` with no enclosing binding: not a resolvable
		// program, but gpython's parser does not itself validate this.
		// Fall back to treating it as this scope's own local rather than
		// panicking the compiler over a malformed script.
		s.kinds[name] = Local
		return
	}
	s.kinds[name] = Global
}
