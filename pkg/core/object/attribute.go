package object

import "github.com/agenthands/pyvm/pkg/core/value"

// kindTypes maps the tag-resident Value kinds (int/float/str/bytes/bool/
// None/Ellipsis) onto their TypePrototype, populated once during package
// init by numeric.go and strtype.go. Container/code/function/frame/type values carry
// their TypePrototype directly on the *Object instead.
var kindTypes = map[value.Kind]*TypePrototype{}

func registerKindType(k value.Kind, t *TypePrototype) { kindTypes[k] = t }

// TypeOf returns the runtime TypePrototype for v: the object's own type
// for KindObject values, or the registered built-in type for tag-resident
// kinds (int/float/str/bytes/bool/None/Ellipsis).
func TypeOf(v value.Value) *TypePrototype {
	if v.Kind == value.KindObject {
		if o, ok := v.Obj.(*Object); ok {
			return o.Type
		}
		return nil
	}
	return kindTypes[v.Kind]
}

// GetAttribute implements the attribute lookup algorithm of spec.md
// section 4.2:
//
//  1. Compute MRO of obj's type.
//  2. Walk the MRO searching each class Dict for name. If found and it is
//     a data descriptor (has __set__), return descr.__get__(obj, type).
//  3. Otherwise search the instance attribute map.
//  4. Otherwise, if a non-data descriptor was found in (2), return
//     descr.__get__(obj, type).
//  5. Otherwise, if a plain class attribute was found, return it.
//  6. Otherwise fail with AttributeError.
func GetAttribute(c Caller, obj value.Value, name string) (value.Value, *Object) {
	t := TypeOf(obj)
	if t == nil {
		return value.Value{}, NewAttributeError(obj.TypeName(), name)
	}

	var classAttr value.Value
	var classAttrType *TypePrototype
	found := false
	for _, anc := range t.MRO() {
		if v, ok := anc.Dict[name]; ok {
			classAttr, classAttrType, found = v, anc, true
			break
		}
		if _, ok := anc.Methods[name]; ok {
			bound, _ := BindMethod(anc, name, obj)
			classAttr, classAttrType, found = bound, anc, true
			break
		}
	}

	if found {
		if desc, isDesc := AsDescriptor(classAttr); isDesc && desc.IsData() {
			return desc.Get(c, obj, t)
		}
	}

	if o, ok := obj.Obj.(*Object); ok {
		if v, ok := o.Attrs[name]; ok {
			return v, nil
		}
	}

	if found {
		if desc, isDesc := AsDescriptor(classAttr); isDesc {
			return desc.Get(c, obj, t)
		}
		_ = classAttrType
		return classAttr, nil
	}

	return value.Value{}, NewAttributeError(obj.TypeName(), name)
}

// SetAttribute writes an attribute, honoring data descriptors (__set__)
// found on the class before falling back to the instance dict.
func SetAttribute(c Caller, obj value.Value, name string, newValue value.Value) *Object {
	t := TypeOf(obj)
	if t != nil {
		for _, anc := range t.MRO() {
			if v, ok := anc.Dict[name]; ok {
				if desc, isDesc := AsDescriptor(v); isDesc && desc.HasSet() {
					return desc.Set(c, obj, newValue)
				}
				break
			}
		}
	}
	o, ok := obj.Obj.(*Object)
	if !ok {
		return NewAttributeError(obj.TypeName(), name)
	}
	o.Attrs[name] = newValue
	return nil
}

// ModuleAttrs enumerates a module value's own attribute dict, used by
// IMPORT_STAR (spec.md section 4.5's ImportStar opcode) to bind every
// name a module exposes into the importing frame's globals. Non-object
// values (nothing a module resolves to in this core) have no attrs.
func ModuleAttrs(v value.Value) map[string]value.Value {
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil
	}
	return o.Attrs
}

// DeleteAttribute removes an instance attribute.
func DeleteAttribute(obj value.Value, name string) *Object {
	o, ok := obj.Obj.(*Object)
	if !ok {
		return NewAttributeError(obj.TypeName(), name)
	}
	if _, ok := o.Attrs[name]; !ok {
		return NewAttributeError(obj.TypeName(), name)
	}
	delete(o.Attrs, name)
	return nil
}

// Descriptor is the interface a class-dict Value implements to interpose
// on attribute access (spec.md GLOSSARY: "Descriptor"). SlotWrapper (see
// descriptor.go) and user-defined classes exposing __get__/__set__ both
// satisfy it.
type Descriptor interface {
	IsData() bool
	HasSet() bool
	Get(c Caller, instance value.Value, owner *TypePrototype) (value.Value, *Object)
	Set(c Caller, instance value.Value, newValue value.Value) *Object
}

// AsDescriptor reports whether v behaves as a descriptor: either a
// SlotWrapper, or a heap object whose type defines __get__.
func AsDescriptor(v value.Value) (Descriptor, bool) {
	if v.Kind != value.KindObject {
		return nil, false
	}
	if d, ok := v.Obj.(Descriptor); ok {
		return d, true
	}
	if o, ok := v.Obj.(*Object); ok && o.Type != nil && o.Type.Slots.Get != nil {
		return &objectDescriptor{obj: v, t: o.Type}, true
	}
	return nil, false
}

type objectDescriptor struct {
	obj value.Value
	t   *TypePrototype
}

func (d *objectDescriptor) IsData() bool { return d.t.Slots.Set != nil }
func (d *objectDescriptor) HasSet() bool { return d.t.Slots.Set != nil }
func (d *objectDescriptor) Get(c Caller, instance value.Value, owner *TypePrototype) (value.Value, *Object) {
	return d.t.Slots.Get(c, d.obj, instance, owner)
}
func (d *objectDescriptor) Set(c Caller, instance value.Value, newValue value.Value) *Object {
	if d.t.Slots.Set == nil {
		return NewTypeError("attribute is read-only")
	}
	return d.t.Slots.Set(c, d.obj, instance, newValue)
}
