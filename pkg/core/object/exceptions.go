package object

import "github.com/agenthands/pyvm/pkg/core/value"

// exceptionPayload is the payload of every exception instance: a message
// plus, once raised, the value that was originally being iterated/raised
// (used by StopIteration to carry a return value, spec.md section 4.6).
type exceptionPayload struct {
	Message string
	Args    []value.Value
}

func (e *exceptionPayload) VisitGraph(visit func(value.Objecter)) {
	for _, a := range e.Args {
		if a.Kind == value.KindObject && a.Obj != nil {
			visit(a.Obj)
		}
	}
}

// exceptionTypes is the taxonomy from spec.md section 7, built once as a
// BaseException-rooted hierarchy so that except-clause matching can use
// ordinary MRO subclass checks (spec.md section 4.6, step 2).
var exceptionTypes = map[string]*TypePrototype{}

func mustType(name string, bases ...*TypePrototype) *TypePrototype {
	t, err := NewType(name, bases)
	if err != nil {
		panic(err)
	}
	t.Slots.ReprString = func(o *Object) string {
		p := o.Payload.(*exceptionPayload)
		return t.Name + "(" + reprString(p.Message) + ")"
	}
	t.Slots.StrString = func(o *Object) string {
		return o.Payload.(*exceptionPayload).Message
	}
	exceptionTypes[name] = t
	return t
}

func reprString(s string) string { return "'" + s + "'" }

var (
	BaseExceptionType     = mustType("BaseException")
	ExceptionType         = mustType("Exception", BaseExceptionType)
	StopIterationType     = mustType("StopIteration", ExceptionType)
	GeneratorExitType     = mustType("GeneratorExit", BaseExceptionType)
	LookupErrorType       = mustType("LookupError", ExceptionType)
	AttributeErrorType    = mustType("AttributeError", ExceptionType)
	NameErrorType         = mustType("NameError", ExceptionType)
	KeyErrorType          = mustType("KeyError", LookupErrorType)
	IndexErrorType        = mustType("IndexError", LookupErrorType)
	TypeErrorType         = mustType("TypeError", ExceptionType)
	ValueErrorType        = mustType("ValueError", ExceptionType)
	ArithmeticErrorType   = mustType("ArithmeticError", ExceptionType)
	ZeroDivisionErrorType = mustType("ZeroDivisionError", ArithmeticErrorType)
	OverflowErrorType     = mustType("OverflowError", ArithmeticErrorType)
	MemoryErrorType       = mustType("MemoryError", ExceptionType)
	RecursionErrorType    = mustType("RecursionError", ExceptionType)
	ImportErrorType       = mustType("ImportError", ExceptionType)
	ModuleNotFoundErrType = mustType("ModuleNotFoundError", ImportErrorType)
	RuntimeErrorType      = mustType("RuntimeError", ExceptionType)
	StopAsyncIterType     = mustType("StopAsyncIteration", ExceptionType)
)

// NewException allocates an exception instance of the given type with a
// formatted message; used both by the VM's `raise` handling and directly
// by built-ins that need to signal a language-level error.
func NewException(t *TypePrototype, message string, args ...value.Value) *Object {
	return New(t, &exceptionPayload{Message: message, Args: args})
}

func NewAttributeError(typeName, attr string) *Object {
	return NewException(AttributeErrorType, "'"+typeName+"' object has no attribute '"+attr+"'")
}

func NewTypeError(msg string) *Object     { return NewException(TypeErrorType, msg) }
func NewValueError(msg string) *Object    { return NewException(ValueErrorType, msg) }
func NewKeyError(msg string) *Object      { return NewException(KeyErrorType, msg) }
func NewIndexError(msg string) *Object    { return NewException(IndexErrorType, msg) }
func NewNameError(msg string) *Object     { return NewException(NameErrorType, msg) }
func NewZeroDivision(msg string) *Object  { return NewException(ZeroDivisionErrorType, msg) }
func NewStopIteration(value value.Value) *Object {
	return NewException(StopIterationType, "", value)
}
func NewRecursionError(msg string) *Object { return NewException(RecursionErrorType, msg) }

// StopIterationValue extracts the return value a generator's `return expr`
// carries out via StopIteration, per spec.md section 4.6's role for
// StopIteration in the yield-from delegation protocol. Returns None if the
// exception carries no value.
func StopIterationValue(o *Object) value.Value {
	if p, ok := o.Payload.(*exceptionPayload); ok && len(p.Args) > 0 {
		return p.Args[0]
	}
	return value.None
}

// ExceptionMessage extracts the human-readable message from an exception
// object, used by print(e) and the interpreter's uncaught-exception report.
func ExceptionMessage(o *Object) string {
	if p, ok := o.Payload.(*exceptionPayload); ok {
		return p.Message
	}
	return o.Repr()
}

// LookupExceptionType returns the built-in exception type registered
// under name (e.g. "ValueError"), for compile-time resolution of
// except-clause type expressions naming a builtin exception directly
// (spec.md section 4.6 step 2's JumpIfNotExceptionMatch reads its
// comparison type from the constant pool, so the compiler must resolve
// well-known exception names to a TypePrototype before emitting it).
func LookupExceptionType(name string) (*TypePrototype, bool) {
	t, ok := exceptionTypes[name]
	return t, ok
}

// ExceptionTypes returns every built-in exception type keyed by its
// Python name, for the stdlib to bind into the builtins namespace: a
// bare `raise ValueError` or an `except ValueError:` clause resolves
// through the compiler's own constant-folding of well-known names (see
// pkg/compiler/codegen), but `raise ValueError("bad")` is an ordinary
// call expression that still needs ValueError bound as a callable name.
func ExceptionTypes() map[string]*TypePrototype {
	out := make(map[string]*TypePrototype, len(exceptionTypes))
	for k, v := range exceptionTypes {
		out[k] = v
	}
	return out
}

// Matches implements the MRO-subclass check spec.md section 4.6 step 2
// requires for JumpIfNotExceptionMatch: does the raised exception's type
// transitively subclass expected?
func Matches(raised *Object, expected *TypePrototype) bool {
	if raised == nil || raised.Type == nil {
		return false
	}
	return raised.Type.IsSubclass(expected)
}
