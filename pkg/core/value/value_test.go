package value_test

import (
	"testing"

	"github.com/agenthands/pyvm/pkg/core/value"
)

func TestSingletonsAreIdentical(t *testing.T) {
	if !value.None.IdentityEqual(value.Value{Kind: value.KindNone}) {
		t.Errorf("expected all None values to be identity-equal")
	}
	if value.True.IdentityEqual(value.False) {
		t.Errorf("True and False must not be identity-equal")
	}
	if !value.Ellipsis.IdentityEqual(value.Ellipsis) {
		t.Errorf("Ellipsis must be identity-equal to itself")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    value.Value
		want bool
	}{
		{value.None, false},
		{value.True, true},
		{value.False, false},
		{value.FromInt64(0), false},
		{value.FromInt64(1), true},
		{value.FromString(""), false},
		{value.FromString("x"), true},
		{value.FromFloat64(0), false},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v.Repr(), got, c.want)
		}
	}
}

func TestArithmeticIdentity(t *testing.T) {
	// (a // b) * b + (a % b) == a for b != 0 (spec.md section 8, property 8).
	pairs := [][2]int64{{7, 2}, {-7, 2}, {7, -2}, {-7, -2}, {0, 5}}
	for _, p := range pairs {
		a, b := value.FromInt64(p[0]), value.FromInt64(p[1])
		q, err := value.FloorDiv(a, b)
		if err != nil {
			t.Fatalf("FloorDiv(%d,%d): %v", p[0], p[1], err)
		}
		r, err := value.Mod(a, b)
		if err != nil {
			t.Fatalf("Mod(%d,%d): %v", p[0], p[1], err)
		}
		got := value.Add(value.Mul(q, b), r)
		if !value.NumEqual(got, a) {
			t.Errorf("(%d // %d) * %d + (%d %% %d) = %s, want %d", p[0], p[1], p[1], p[0], p[1], got.Repr(), p[0])
		}
	}
}

func TestFloatIntEquality(t *testing.T) {
	if !value.NumEqual(value.FromInt64(3), value.FromFloat64(3.0)) {
		t.Errorf("3 == 3.0 should hold across int/float")
	}
}

func TestDivByZero(t *testing.T) {
	if _, err := value.FloorDiv(value.FromInt64(1), value.FromInt64(0)); err != value.ErrDivByZero {
		t.Errorf("expected ErrDivByZero, got %v", err)
	}
	if _, err := value.Mod(value.FromInt64(1), value.FromInt64(0)); err != value.ErrDivByZero {
		t.Errorf("expected ErrDivByZero, got %v", err)
	}
}

func TestReprFormatting(t *testing.T) {
	if got := value.FromFloat64(2).Repr(); got != "2.0" {
		t.Errorf("expected float repr to keep a trailing .0, got %q", got)
	}
	if got := value.FromString("hi").Str_(); got != "hi" {
		t.Errorf("str() of a string should have no quotes, got %q", got)
	}
	if got := value.FromString("hi").Repr(); got != "'hi'" {
		t.Errorf("repr() of a string should be quoted, got %q", got)
	}
}
