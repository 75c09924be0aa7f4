package object

import "github.com/agenthands/pyvm/pkg/core/value"

// SlotWrapper presents a built-in C-level slot to user code as a
// descriptor-style callable (spec.md section 4.2: "Slot wrappers present
// built-in C-level slots to user code as descriptor-style callables,
// checking on access that instance is a subtype of the slot's owning
// type").
type SlotWrapper struct {
	Name  string
	Owner *TypePrototype
	Fn    CallSlot
}

func (w *SlotWrapper) TypeName() string                        { return "slot wrapper" }
func (w *SlotWrapper) VisitGraph(visit func(value.Objecter))    {}
func (w *SlotWrapper) IsData() bool                             { return false }
func (w *SlotWrapper) HasSet() bool { return false }

func (w *SlotWrapper) Get(c Caller, instance value.Value, owner *TypePrototype) (value.Value, *Object) {
	it := TypeOf(instance)
	if it == nil || !it.IsSubclass(w.Owner) {
		return value.Value{}, NewTypeError("descriptor '" + w.Name + "' for '" + w.Owner.Name + "' objects doesn't apply to a '" + instance.TypeName() + "' object")
	}
	obj := New(slotWrapperBoundType, &boundMethod{recv: instance, fn: w.Fn, name: w.Name})
	return value.FromObject(obj), nil
}

func (w *SlotWrapper) Set(c Caller, instance value.Value, newValue value.Value) *Object {
	return NewTypeError("cannot set slot wrapper attribute")
}

var slotWrapperBoundType = &TypePrototype{Name: "method-wrapper", Methods: map[string]MethodDef{}, Dict: map[string]value.Value{}}

func init() {
	slotWrapperBoundType.Slots.Call = func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		bm := self.Obj.(*Object).Payload.(*boundMethod)
		return bm.fn(c, bm.recv, args, kwargs)
	}
	mro, _ := c3Linearize(slotWrapperBoundType)
	slotWrapperBoundType.mro = mro
}

// NewSlotWrapperValue registers a SlotWrapper as a class-dict entry named
// name on owner, exposing operation slot fn as descriptor-callable
// user-code-visible attribute (e.g. int.__add__).
func NewSlotWrapperValue(owner *TypePrototype, name string, fn CallSlot) value.Value {
	return value.FromObject(&SlotWrapper{Name: name, Owner: owner, Fn: fn})
}
