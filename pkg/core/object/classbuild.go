package object

import "github.com/agenthands/pyvm/pkg/core/value"

// CopyDictIntoClass copies every entry of a class body's executed
// namespace dict into cls's Dict, wrapping any Function value as a
// MethodDef so ordinary instance-method dispatch (GetAttribute's
// Methods-table branch) and the plain descriptor-based Get path both see
// consistent entries (spec.md section 4.4: class body execution populates
// the class's attribute namespace, which BuildClass consumes).
func CopyDictIntoClass(namespace value.Value, cls *TypePrototype) {
	d, ok := dictOf(namespace)
	if !ok {
		return
	}
	for i, k := range d.Keys {
		if k.Kind != value.KindString {
			continue
		}
		v := d.Vals[i]
		if fn, ok := FunctionOf(v); ok {
			name := k.Str
			cls.Methods[name] = MethodDef{Name: name, Fn: func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
				full := append([]value.Value{self}, args...)
				return c.CallValue(NewFunction(fn), full, kwargs)
			}}
			continue
		}
		cls.Dict[k.Str] = v
	}
}
