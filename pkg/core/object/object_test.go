package object

import (
	"testing"

	"github.com/agenthands/pyvm/pkg/core/value"
)

func TestContainers(t *testing.T) {
	t.Run("ListAppendAndIndex", func(t *testing.T) {
		l := NewList([]value.Value{value.FromInt64(1), value.FromInt64(2)})
		bound, ok := BindMethod(ListType, "append", l)
		if !ok {
			t.Fatal("expected append to bind")
		}
		if _, exc := TypeOf(bound).Slots.Call(nil, bound, []value.Value{value.FromInt64(3)}, nil); exc != nil {
			t.Fatalf("append: %v", exc)
		}
		got, exc := ListType.Slots.Index(nil, l, value.FromInt64(2))
		if exc != nil {
			t.Fatalf("index: %v", exc)
		}
		if got.Int.Int64() != 3 {
			t.Fatalf("l[2] = %v, want 3", got)
		}
	})

	t.Run("DictSetGetRoundtrip", func(t *testing.T) {
		d := NewDict()
		if exc := DictSetItem(d, value.FromString("k"), value.FromInt64(7)); exc != nil {
			t.Fatalf("set: %v", exc)
		}
		t2 := TypeOf(d)
		got, exc := t2.Slots.Index(nil, d, value.FromString("k"))
		if exc != nil {
			t.Fatalf("get: %v", exc)
		}
		if got.Int.Int64() != 7 {
			t.Fatalf("d[\"k\"] = %v, want 7", got)
		}
	})

	t.Run("RangeIteration", func(t *testing.T) {
		r := NewRange(0, 5, 2)
		items, exc := Iterate(nil, r)
		if exc != nil {
			t.Fatalf("iterate: %v", exc)
		}
		want := []int64{0, 2, 4}
		if len(items) != len(want) {
			t.Fatalf("len(items) = %d, want %d", len(items), len(want))
		}
		for i, w := range want {
			if items[i].Int.Int64() != w {
				t.Fatalf("items[%d] = %v, want %d", i, items[i], w)
			}
		}
	})
}

func TestAttributeLookup(t *testing.T) {
	t.Run("InstanceAttributeShadowsClassAttributeWithoutDescriptor", func(t *testing.T) {
		base, err := NewType("Base", nil)
		if err != nil {
			t.Fatalf("NewType: %v", err)
		}
		base.Dict["greeting"] = value.FromString("hi")

		inst := New(base, nil)
		v := value.FromObject(inst)

		got, exc := GetAttribute(nil, v, "greeting")
		if exc != nil {
			t.Fatalf("get class attr: %v", exc)
		}
		if got.Str != "hi" {
			t.Fatalf("greeting = %v, want hi", got)
		}

		if exc := SetAttribute(nil, v, "greeting", value.FromString("bye")); exc != nil {
			t.Fatalf("set: %v", exc)
		}
		got, exc = GetAttribute(nil, v, "greeting")
		if exc != nil {
			t.Fatalf("get instance attr: %v", exc)
		}
		if got.Str != "bye" {
			t.Fatalf("greeting = %v, want bye (instance dict should shadow class dict)", got)
		}
	})

	t.Run("MissingAttributeRaisesAttributeError", func(t *testing.T) {
		base, _ := NewType("Empty", nil)
		v := value.FromObject(New(base, nil))
		if _, exc := GetAttribute(nil, v, "nope"); exc == nil {
			t.Fatal("expected AttributeError")
		}
	})
}

func TestMRO(t *testing.T) {
	a, _ := NewType("A", nil)
	b, err := NewType("B", []*TypePrototype{a})
	if err != nil {
		t.Fatalf("NewType B: %v", err)
	}
	c, err := NewType("C", []*TypePrototype{a})
	if err != nil {
		t.Fatalf("NewType C: %v", err)
	}
	d, err := NewType("D", []*TypePrototype{b, c})
	if err != nil {
		t.Fatalf("NewType D: %v", err)
	}

	mro := d.MRO()
	names := make([]string, len(mro))
	for i, t := range mro {
		names[i] = t.Name
	}
	want := []string{"D", "B", "C", "A"}
	if len(names) != len(want) {
		t.Fatalf("MRO = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("MRO = %v, want %v", names, want)
		}
	}

	if !d.IsSubclass(a) {
		t.Fatal("D should be a subclass of A through diamond inheritance")
	}
}
