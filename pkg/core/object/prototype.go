package object

import "github.com/agenthands/pyvm/pkg/core/value"

// Caller lets a slot implementation invoke back into the VM's calling
// convention (spec.md section 4.5) without pkg/core/object importing
// pkg/vm — the dependency would otherwise be cyclic, since the VM already
// imports object for the value/attribute model. vm.Machine implements
// this interface.
type Caller interface {
	// CallValue invokes callee(args...) using the standard calling
	// convention and returns either a success value or an exception
	// object (never both), matching every VM instruction's Result
	// contract (spec.md section 4.5/7).
	CallValue(callee value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object)
}

// BinarySlot implements a two-operand operator slot (__add__, __eq__,
// ...). A nil return with ok=false means "return NotImplemented", per
// spec.md section 4.1/4.2's reflected-operation protocol.
type BinarySlot func(c Caller, self, other value.Value) (result value.Value, exc *Object, ok bool)

// UnarySlot implements a one-operand slot (__neg__, __invert__, __not__, ...).
type UnarySlot func(c Caller, self value.Value) (result value.Value, exc *Object)

// CallSlot implements __call__.
type CallSlot func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object)

// GetSlot implements the descriptor protocol's __get__(self, instance, owner).
type GetSlot func(c Caller, self, instance value.Value, owner *TypePrototype) (value.Value, *Object)

// SetSlot implements __set__(self, instance, value).
type SetSlot func(c Caller, self, instance, newValue value.Value) *Object

// IndexSlot implements __getitem__.
type IndexSlot func(c Caller, self, key value.Value) (value.Value, *Object)

// SetIndexSlot implements __setitem__.
type SetIndexSlot func(c Caller, self, key, newValue value.Value) *Object

// DelIndexSlot implements __delitem__.
type DelIndexSlot func(c Caller, self, key value.Value) *Object

// IterSlot implements __iter__: returns an iterator value.
type IterSlot func(c Caller, self value.Value) (value.Value, *Object)

// NextSlot implements __next__: returns (value, exc). A StopIteration
// exception in exc signals normal termination (spec.md section 4.6).
type NextSlot func(c Caller, self value.Value) (value.Value, *Object)

// LenSlot implements __len__.
type LenSlot func(self value.Value) (int, *Object)

// BoolSlot implements __bool__.
type BoolSlot func(self value.Value) (bool, *Object)

// HashSlot implements __hash__: returns a canonical string encoding used
// as the Go map key backing Dict/Set (spec.md section 4.3: "ValueHash and
// ValueEqual... respects object-level __eq__").
type HashSlot func(self value.Value) (string, *Object)

// ReprSlot/StrSlot back __repr__/__str__ for the fast, no-Caller-needed
// path used by value.Value.Repr()/Str_(); a type with genuinely dynamic
// (user-code) __repr__ should instead be invoked through GetAttribute+Caller.
type ReprSlot func(self *Object) string

// InitSlot implements __init__(self, args, kwargs) -> exc.
type InitSlot func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) *Object

// NewSlot implements the static __new__(cls, args, kwargs) -> instance.
type NewSlot func(c Caller, cls *TypePrototype, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object)

// Slots is the per-type dispatch table described in spec.md section 3:
// "a TypePrototype... containing optional operation slots". A nil field
// means the operation is absent for this type; dispatch code checks the
// pointer directly rather than going through a generic vtable call to
// avoid virtual-call overhead on hot paths (spec.md section 9).
type Slots struct {
	Add, Sub, Mul, TrueDiv, FloorDiv, Mod, Pow                 BinarySlot
	LShift, RShift, BitAnd, BitOr, BitXor                      BinarySlot
	RAdd, RSub, RMul                                           BinarySlot
	Eq, Ne, Lt, Le, Gt, Ge                                     BinarySlot
	Contains                                                   BinarySlot
	Neg, Pos, Invert, Not                                      UnarySlot
	Call                                                       CallSlot
	Iter                                                       IterSlot
	Next                                                       NextSlot
	Get                                                        GetSlot
	Set                                                        SetSlot
	Index                                                      IndexSlot
	SetIndex                                                   SetIndexSlot
	DelIndex                                                   DelIndexSlot
	Len                                                        LenSlot
	Bool                                                       BoolSlot
	Hash                                                       HashSlot
	Init                                                       InitSlot
	New                                                        NewSlot
	ReprString                                                 ReprSlot
	StrString                                                  ReprSlot
}

// MethodDef is one entry of a type's method-definition list (spec.md
// section 4.2): a built-in callable bound to instances of the type via
// GetAttribute's descriptor path.
type MethodDef struct {
	Name string
	Fn   CallSlot
}

// TypePrototype is the one-per-type (never per-instance) descriptor
// described in spec.md section 3: operation slots, a bases tuple for
// single/multiple inheritance, and a method table.
type TypePrototype struct {
	Name    string
	Bases   []*TypePrototype
	Slots   Slots
	Methods map[string]MethodDef
	// Dict holds class-level attributes (for a class statement, the names
	// its body bound) searched by GetAttribute's MRO walk; built-in
	// Methods are kept in Methods, not copied into Dict.
	Dict map[string]value.Value

	mro []*TypePrototype // memoized C3 linearization (spec.md section 9)
}

// NewType constructs a type prototype and eagerly computes its MRO cache,
// per spec.md section 9 ("compute C3 linearization eagerly when a type is
// created; cache on the type. Do not attempt to synthesize MRO during
// each lookup").
func NewType(name string, bases []*TypePrototype) (*TypePrototype, error) {
	t := &TypePrototype{
		Name:    name,
		Bases:   bases,
		Methods: make(map[string]MethodDef),
		Dict:    make(map[string]value.Value),
	}
	mro, err := c3Linearize(t)
	if err != nil {
		return nil, err
	}
	t.mro = mro
	return t, nil
}

// MRO returns the cached method resolution order, most-derived first.
func (t *TypePrototype) MRO() []*TypePrototype {
	return t.mro
}

// IsSubclass reports whether t is other or a descendant of other in the
// MRO sense, used by exception-handler matching (spec.md section 4.6) and
// isinstance()/issubclass().
func (t *TypePrototype) IsSubclass(other *TypePrototype) bool {
	for _, anc := range t.mro {
		if anc == other {
			return true
		}
	}
	return false
}

// BindMethod wraps a MethodDef as a bound built-in method Value: calling
// it invokes fn with self prepended to the argument list, matching
// spec.md section 4.2's "Method call on a bound result uses the standard
// calling convention".
func BindMethod(t *TypePrototype, name string, self value.Value) (value.Value, bool) {
	md, ok := t.Methods[name]
	if !ok {
		return value.Value{}, false
	}
	bound := New(builtinMethodType, &boundMethod{recv: self, fn: md.Fn, name: name})
	return value.FromObject(bound), true
}

type boundMethod struct {
	recv value.Value
	fn   CallSlot
	name string
}

var builtinMethodType = &TypePrototype{Name: "builtin_function_or_method", Methods: map[string]MethodDef{}, Dict: map[string]value.Value{}}

func init() {
	builtinMethodType.Slots.Call = func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		bm := self.Obj.(*Object).Payload.(*boundMethod)
		return bm.fn(c, bm.recv, args, kwargs)
	}
	mro, _ := c3Linearize(builtinMethodType)
	builtinMethodType.mro = mro
}
