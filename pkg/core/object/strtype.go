package object

import (
	"strings"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// StringType and BytesType back the two immutable text/binary Value
// kinds (spec.md section 4.3). Their methods mirror the small surface of
// CPython's str/bytes that scripts actually rely on; the object model
// (rather than the VM) owns them so user-defined subclassing/attribute
// lookup treats them uniformly with heap types.
var (
	StringType = mustContainerType("str")
	BytesType  = mustContainerType("bytes")
)

func init() {
	registerKindType(value.KindString, StringType)
	registerKindType(value.KindBytes, BytesType)

	StringType.Slots.Add = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindString {
			return value.Value{}, nil, false
		}
		return value.FromString(self.Str + other.Str), nil, true
	}
	StringType.Slots.Mul = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindInt {
			return value.Value{}, nil, false
		}
		return value.FromString(strings.Repeat(self.Str, int(other.Int.Int64()))), nil, true
	}
	StringType.Slots.Eq = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindString {
			return value.Value{}, nil, false
		}
		return value.FromBool(self.Str == other.Str), nil, true
	}
	StringType.Slots.Lt = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindString {
			return value.Value{}, nil, false
		}
		return value.FromBool(self.Str < other.Str), nil, true
	}
	StringType.Slots.Contains = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindString {
			return value.Value{}, nil, false
		}
		return value.FromBool(strings.Contains(self.Str, other.Str)), nil, true
	}
	StringType.Slots.Len = func(self value.Value) (int, *Object) { return len([]rune(self.Str)), nil }
	StringType.Slots.Bool = func(self value.Value) (bool, *Object) { return len(self.Str) > 0, nil }
	StringType.Slots.Hash = func(self value.Value) (string, *Object) { return HashKey(self) }
	StringType.Slots.Iter = func(c Caller, self value.Value) (value.Value, *Object) { return NewSeqIterator(self), nil }
	StringType.Slots.Index = func(c Caller, self, key value.Value) (value.Value, *Object) {
		runes := []rune(self.Str)
		if slc, ok := asSlice(key); ok {
			items, exc := slc.apply(sliceableRunes(runes))
			if exc != nil {
				return value.Value{}, exc
			}
			return value.FromString(runesFromValues(items)), nil
		}
		if key.Kind != value.KindInt {
			return value.Value{}, NewTypeError("string indices must be integers")
		}
		idx, exc := normalizeIndex(int(key.Int.Int64()), len(runes))
		if exc != nil {
			return value.Value{}, exc
		}
		return value.FromString(string(runes[idx])), nil
	}

	strMethod := func(fn func(self string, args []value.Value) (value.Value, *Object)) CallSlot {
		return func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
			return fn(self.Str, args)
		}
	}
	StringType.Methods["upper"] = MethodDef{"upper", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromString(strings.ToUpper(s)), nil
	})}
	StringType.Methods["lower"] = MethodDef{"lower", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromString(strings.ToLower(s)), nil
	})}
	StringType.Methods["strip"] = MethodDef{"strip", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromString(strings.TrimSpace(s)), nil
	})}
	StringType.Methods["find"] = MethodDef{"find", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromInt64(int64(strings.Index(s, args[0].Str))), nil
	})}
	StringType.Methods["startswith"] = MethodDef{"startswith", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromBool(strings.HasPrefix(s, args[0].Str)), nil
	})}
	StringType.Methods["endswith"] = MethodDef{"endswith", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromBool(strings.HasSuffix(s, args[0].Str)), nil
	})}
	StringType.Methods["replace"] = MethodDef{"replace", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		return value.FromString(strings.ReplaceAll(s, args[0].Str, args[1].Str)), nil
	})}
	StringType.Methods["split"] = MethodDef{"split", strMethod(func(s string, args []value.Value) (value.Value, *Object) {
		var parts []string
		if len(args) == 0 {
			parts = strings.Fields(s)
		} else {
			parts = strings.Split(s, args[0].Str)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.FromString(p)
		}
		return NewList(items), nil
	})}
	StringType.Methods["join"] = MethodDef{"join", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		items, exc := Iterate(c, args[0])
		if exc != nil {
			return value.Value{}, exc
		}
		parts := make([]string, len(items))
		for i, v := range items {
			if v.Kind != value.KindString {
				return value.Value{}, NewTypeError("sequence item " + v.TypeName() + ": expected str instance")
			}
			parts[i] = v.Str
		}
		return value.FromString(strings.Join(parts, self.Str)), nil
	}}
	StringType.Methods["format"] = MethodDef{"format", func(c Caller, self value.Value, args []value.Value, kwargs map[string]value.Value) (value.Value, *Object) {
		out := self.Str
		for _, a := range args {
			out = strings.Replace(out, "{}", a.Str_(), 1)
		}
		return value.FromString(out), nil
	}}

	BytesType.Slots.Add = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindBytes {
			return value.Value{}, nil, false
		}
		return value.FromBytes(append(append([]byte{}, self.Bytes...), other.Bytes...)), nil, true
	}
	BytesType.Slots.Eq = func(c Caller, self, other value.Value) (value.Value, *Object, bool) {
		if other.Kind != value.KindBytes {
			return value.Value{}, nil, false
		}
		return value.FromBool(string(self.Bytes) == string(other.Bytes)), nil, true
	}
	BytesType.Slots.Len = func(self value.Value) (int, *Object) { return len(self.Bytes), nil }
	BytesType.Slots.Bool = func(self value.Value) (bool, *Object) { return len(self.Bytes) > 0, nil }
	BytesType.Slots.Hash = func(self value.Value) (string, *Object) { return HashKey(self) }
}

func sliceableRunes(r []rune) []value.Value {
	out := make([]value.Value, len(r))
	for i, c := range r {
		out[i] = value.FromString(string(c))
	}
	return out
}

func runesFromValues(vs []value.Value) string {
	var sb strings.Builder
	for _, v := range vs {
		sb.WriteString(v.Str)
	}
	return sb.String()
}
