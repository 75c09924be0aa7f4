package codegen

import (
	"math/big"

	"github.com/go-python/gpython/ast"
	"github.com/go-python/gpython/py"

	"github.com/agenthands/pyvm/pkg/core/value"
)

// foldConstant is the constant-folding pass. Rather than rewriting the
// AST in place, it evaluates a literal-only subtree directly to a
// value.Value at compile time; fg.expr calls it on every expression before
// lowering and, on success, emits a single LOAD_CONST instead. It folds
// number, string and True/False/None literals, unary +, -, not and ~, the
// binary operators +, -, *, % and ** on numeric operands, and and/or
// chains. Comparisons and the /, //, shift and bitwise binary operators
// are not folded; they are always lowered to runtime instructions.
func foldConstant(e ast.Expr) (value.Value, bool) {
	switch n := e.(type) {
	case *ast.Num:
		return numberLiteral(n)
	case *ast.Str:
		return value.FromString(string(n.S)), true
	case *ast.NameConstant:
		switch n.Value {
		case py.True:
			return value.True, true
		case py.False:
			return value.False, true
		case py.None:
			return value.None, true
		}
		return value.Value{}, false
	case *ast.UnaryOp:
		v, ok := foldConstant(n.Operand)
		if !ok {
			return value.Value{}, false
		}
		switch n.Op {
		case ast.UAdd:
			return value.Pos(v), true
		case ast.USub:
			if v.Kind != value.KindInt && v.Kind != value.KindFloat {
				return value.Value{}, false
			}
			return value.Neg(v), true
		case ast.Not:
			return value.FromBool(!v.Truthy()), true
		case ast.Invert:
			r, ok := value.Invert(v)
			return r, ok
		}
		return value.Value{}, false
	case *ast.BinOp:
		l, ok := foldConstant(n.Left)
		if !ok {
			return value.Value{}, false
		}
		r, ok := foldConstant(n.Right)
		if !ok {
			return value.Value{}, false
		}
		if !isNumber(l) || !isNumber(r) {
			return value.Value{}, false
		}
		switch n.Op {
		case ast.Add:
			return value.Add(l, r), true
		case ast.Sub:
			return value.Sub(l, r), true
		case ast.Mult:
			return value.Mul(l, r), true
		case ast.Modulo:
			v, err := value.Mod(l, r)
			return v, err == nil
		case ast.Pow:
			return value.Pow(l, r), true
		}
		return value.Value{}, false
	case *ast.BoolOp:
		var result value.Value
		for i, sub := range n.Values {
			v, ok := foldConstant(sub)
			if !ok {
				return value.Value{}, false
			}
			if i == 0 {
				result = v
				continue
			}
			if n.Op == ast.And {
				if !result.Truthy() {
					return result, true
				}
				result = v
			} else {
				if result.Truthy() {
					return result, true
				}
				result = v
			}
		}
		return result, true
	default:
		return value.Value{}, false
	}
}

func isNumber(v value.Value) bool {
	return v.Kind == value.KindInt || v.Kind == value.KindFloat || v.Kind == value.KindBool
}

func numberLiteral(n *ast.Num) (value.Value, bool) {
	switch num := n.N.(type) {
	case py.Int:
		return value.FromBigInt(big.NewInt(int64(num))), true
	case py.Float:
		return value.FromFloat64(float64(num)), true
	case *py.BigInt:
		return value.FromBigInt((*big.Int)(num)), true
	default:
		return value.Value{}, false
	}
}
