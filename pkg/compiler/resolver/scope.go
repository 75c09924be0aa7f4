// Package resolver implements the variable resolver of spec.md section
// 4.4: it walks an AST and produces a scope tree annotating every name
// with the kind of storage the bytecode generator must emit for it.
package resolver

// Kind is the resolved storage kind of a name, per spec.md section 4.4's
// name→kind map ({LocalRegister, LocalStack, FreeVariable}, generalized
// here with the promoted Cell kind and the module-level Global kind the
// same section separately calls out).
type Kind int

const (
	// Local is an ordinary function-local register, unread by any nested
	// scope.
	Local Kind = iota
	// Global is a module-level name: unresolved in this scope and every
	// enclosing function scope (spec.md section 4.4: "Names not found
	// locally nor in any enclosing function scope are GlobalVariable").
	Global
	// Cell is a local variable promoted because an inner scope closes
	// over it (the defining scope's counterpart of a Free variable).
	Cell
	// Free is a name this scope reads from an enclosing function scope's
	// Cell variable.
	Free
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Global:
		return "global"
	case Cell:
		return "cell"
	case Free:
		return "free"
	default:
		return "?"
	}
}

// ScopeKind distinguishes the handful of AST constructs that open a new
// scope. Class bodies execute like a function once, but (per real Python
// semantics, which spec.md section 4.4's "enclosing function scope"
// wording assumes) never participate as an enclosing scope for a nested
// function's free-variable search — only Module/Function/Lambda do.
type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	FunctionScope
	LambdaScope
	ClassScope
)

// Scope is one node of the resolver's scope tree (spec.md section 4.4).
// Name is the function/class/module name; MangledName exists for
// parity with the field spec.md names explicitly ("name, mangled_name")
// even though this dialect has no private-name mangling to apply, so it
// always equals Name.
type Scope struct {
	Name        string
	MangledName string
	Kind        ScopeKind
	Parent      *Scope
	Children    []*Scope

	Params    []string // positional-or-keyword parameter names, declared order
	Vararg    string   // "" if the function has no *args
	Kwarg     string   // "" if the function has no **kwargs
	IsGenerator bool

	bound      map[string]bool // names assigned/def'd/imported directly in this scope
	globals    map[string]bool // named in a `global` statement
	nonlocals  map[string]bool // named in a `nonlocal` statement
	referenced map[string]bool // names loaded anywhere in this scope's own code (not nested scopes)
	usedByKid  map[string]bool // names a nested function/lambda scope resolved as Free against this one

	kinds     map[string]Kind // final resolved kind per name, filled by resolve()
	order     []string        // insertion order of `bound`, for deterministic CellVars/local ordering
	freeOrder []string        // first-referenced order of names resolved as Free
}

func newScope(name string, kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{
		Name: name, MangledName: name, Kind: kind, Parent: parent,
		bound: map[string]bool{}, globals: map[string]bool{}, nonlocals: map[string]bool{},
		referenced: map[string]bool{}, usedByKid: map[string]bool{}, kinds: map[string]Kind{},
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

func (s *Scope) bind(name string) {
	if !s.bound[name] {
		s.order = append(s.order, name)
	}
	s.bound[name] = true
}

func (s *Scope) reference(name string) { s.referenced[name] = true }

// Lookup returns the resolved kind of name in this scope; callers use it
// only after Resolve has finished the whole tree.
func (s *Scope) Lookup(name string) Kind {
	if k, ok := s.kinds[name]; ok {
		return k
	}
	return Global
}

// CellVars returns the names of this scope's own locals that some nested
// scope captures as a Free variable, in declaration order — the set the
// bytecode generator sizes MakeCell/Cell2Arg from.
func (s *Scope) CellVars() []string {
	var out []string
	for _, name := range s.order {
		if s.kinds[name] == Cell {
			out = append(out, name)
		}
	}
	return out
}

// FreeVars returns the names this scope reads from an enclosing
// function's Cell variable, in first-referenced order.
func (s *Scope) FreeVars() []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range s.freeOrder {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

