package querytree

import "reflect"

// Equal reports whether two trees are structurally equivalent. Parameters
// are matched positionally where lambdas bind them, so two independently
// built trees compare equal regardless of parameter identity or name; free
// parameters must be the very same node on both sides.
func Equal(a, b Expr) bool {
	return equalExpr(a, b, map[*Parameter]*Parameter{})
}

func equalExpr(a, b Expr, env map[*Parameter]*Parameter) bool {
	switch x := a.(type) {
	case *Parameter:
		y, ok := b.(*Parameter)
		if !ok {
			return false
		}
		if mapped, bound := env[x]; bound {
			return mapped == y
		}
		return x == y
	case *Constant:
		y, ok := b.(*Constant)
		return ok && x.typ == y.typ && reflect.DeepEqual(x.Value, y.Value)
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Name == y.Name && equalExpr(x.Target, y.Target, env)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.API != y.API || x.Method != y.Method || len(x.Args) != len(y.Args) {
			return false
		}
		if !equalExpr(x.Source, y.Source, env) {
			return false
		}
		for i := range x.Args {
			if !equalExpr(x.Args[i], y.Args[i], env) {
				return false
			}
		}
		return true
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && equalExpr(x.Left, y.Left, env) && equalExpr(x.Right, y.Right, env)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && equalExpr(x.Operand, y.Operand, env)
	case *Lambda:
		y, ok := b.(*Lambda)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		inner := make(map[*Parameter]*Parameter, len(env)+len(x.Params))
		for k, v := range env {
			inner[k] = v
		}
		for i, p := range x.Params {
			if p.Type() != y.Params[i].Type() {
				return false
			}
			inner[p] = y.Params[i]
		}
		return equalExpr(x.Body, y.Body, inner)
	default:
		return false
	}
}
