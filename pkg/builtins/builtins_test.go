package builtins

import (
	"testing"

	"github.com/agenthands/pyvm/pkg/core/object"
	"github.com/agenthands/pyvm/pkg/core/value"
)

func TestGlobalsExposesExceptionTypes(t *testing.T) {
	g := Globals()
	for _, name := range []string{"ValueError", "TypeError", "StopIteration", "BaseException"} {
		if _, ok := g[name]; !ok {
			t.Errorf("Globals() missing exception type %q", name)
		}
	}
}

func TestBuiltinRange(t *testing.T) {
	t.Run("OneArg", func(t *testing.T) {
		r, exc := builtinRange(nil, []value.Value{value.FromInt64(3)}, nil)
		if exc != nil {
			t.Fatalf("range(3): %v", exc)
		}
		items, exc := object.Iterate(nil, r)
		if exc != nil {
			t.Fatalf("iterate: %v", exc)
		}
		if len(items) != 3 || items[2].Int.Int64() != 2 {
			t.Fatalf("range(3) = %v, want [0,1,2]", items)
		}
	})

	t.Run("ZeroStepRejected", func(t *testing.T) {
		_, exc := builtinRange(nil, []value.Value{value.FromInt64(0), value.FromInt64(5), value.FromInt64(0)}, nil)
		if exc == nil {
			t.Fatal("expected a ValueError for step == 0")
		}
	})
}

func TestBuiltinSlice(t *testing.T) {
	s, exc := builtinSlice(nil, []value.Value{value.FromInt64(1), value.FromInt64(3), value.None}, nil)
	if exc != nil {
		t.Fatalf("slice(1, 3, None): %v", exc)
	}
	if s.Kind != value.KindObject {
		t.Fatalf("slice() did not return an object value: %v", s)
	}
}

func TestBuiltinIsinstance(t *testing.T) {
	got, exc := builtinIsinstance(nil, []value.Value{value.FromInt64(1), object.TypeValue(object.IntType)}, nil)
	if exc != nil {
		t.Fatalf("isinstance: %v", exc)
	}
	if !got.Truthy() {
		t.Fatal("isinstance(1, int) should be True")
	}
}

func TestBuiltinListFromRange(t *testing.T) {
	r := object.NewRange(0, 3, 1)
	got, exc := builtinList(nil, []value.Value{r}, nil)
	if exc != nil {
		t.Fatalf("list(range(3)): %v", exc)
	}
	items, _ := object.Iterate(nil, got)
	if len(items) != 3 {
		t.Fatalf("list(range(3)) has %d items, want 3", len(items))
	}
}
