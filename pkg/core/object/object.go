// Package object implements the runtime object model: type prototypes,
// attribute/method dispatch (spec.md section 4.2), and the built-in
// container/code/function/cell/frame/type payloads (spec.md section 4.3).
//
// Every heap-resident type here participates in tracing GC via VisitGraph
// (spec.md section 4.1/6): the collector in pkg/core/heap calls it to walk
// the live object graph without relying on reference counting, so cyclic
// structures (a frame referencing its own parent, a list containing
// itself) are handled correctly.
package object

import "github.com/agenthands/pyvm/pkg/core/value"

// Object is the heap entity backing every value.Value with Kind ==
// value.KindObject: a type pointer, an attribute map, and a type-specific
// payload (spec.md section 3).
type Object struct {
	Type    *TypePrototype
	Attrs   map[string]value.Value
	Payload any

	// Mark is the collector's visited bit (spec.md section 4.1: "Visits
	// guard against re-entry by marking on first visit"). It is owned
	// exclusively by pkg/core/heap between GC cycles.
	Mark bool
}

// New allocates an Object with the given type and an empty attribute map.
// Callers that need heap tracking must register the result with a
// heap.Heap; New itself performs no allocation bookkeeping (mirrors the
// teacher's separation between constructing a Go value and registering it
// with the VM's arena).
func New(t *TypePrototype, payload any) *Object {
	return &Object{Type: t, Attrs: make(map[string]value.Value), Payload: payload}
}

// TypeName satisfies value.Objecter.
func (o *Object) TypeName() string {
	if o.Type == nil {
		return "object"
	}
	return o.Type.Name
}

// VisitGraph satisfies value.Objecter and the collector's traversal
// protocol: it visits every attribute Value's object pointer plus
// whatever the payload additionally owns.
func (o *Object) VisitGraph(visit func(value.Objecter)) {
	if o.Mark {
		return
	}
	o.Mark = true
	for _, v := range o.Attrs {
		if v.Kind == value.KindObject && v.Obj != nil {
			visit(v.Obj)
		}
	}
	if gv, ok := o.Payload.(GraphVisitor); ok {
		gv.VisitGraph(visit)
	}
}

// Marked, SetMarked, and ClearMark expose the collector's mark bit as the
// narrow heap.Marker interface, letting pkg/core/heap sweep tracked
// objects without importing pkg/core/object (avoiding a heap<->object
// import cycle; pkg/vm wires the two together).
func (o *Object) Marked() bool     { return o.Mark }
func (o *Object) SetMarked(v bool) { o.Mark = v }
func (o *Object) ClearMark()       { o.Mark = false }

// GraphVisitor lets a payload type (List, Dict, Function, Frame, ...)
// enumerate the extra Values/Objects it owns for tracing, per spec.md
// section 3's "every object type declares a visit_graph".
type GraphVisitor interface {
	VisitGraph(visit func(value.Objecter))
}

// Repr and Str dispatch through the type's __repr__/__str__ slots when
// present, falling back to a default "<Type object>" rendering. Caller is
// nil-safe: these are used by value.Value.Repr()/Str_() without a VM in
// scope for the fallback path; slot-backed reprs that need to call a
// user-defined method require GetAttribute+Caller instead (see attribute.go).
func (o *Object) Repr() string {
	if o.Type != nil && o.Type.Slots.ReprString != nil {
		return o.Type.Slots.ReprString(o)
	}
	return "<" + o.TypeName() + " object>"
}

func (o *Object) Str() string {
	if o.Type != nil && o.Type.Slots.StrString != nil {
		return o.Type.Slots.StrString(o)
	}
	return o.Repr()
}
