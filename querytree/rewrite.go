package querytree

import (
	"fmt"
	"reflect"
)

// Walk traverses the tree rooted at e in pre-order. If visit returns false
// for a node its children are skipped. Lambda parameters are visited before
// the lambda body.
func Walk(e Expr, visit func(Expr) bool) {
	if !visit(e) {
		return
	}
	switch n := e.(type) {
	case *Parameter, *Constant:
	case *Member:
		Walk(n.Target, visit)
	case *Call:
		Walk(n.Source, visit)
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Binary:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Unary:
		Walk(n.Operand, visit)
	case *Lambda:
		for _, p := range n.Params {
			Walk(p, visit)
		}
		Walk(n.Body, visit)
	default:
		panic(fmt.Sprintf("querytree: unknown node %T", e))
	}
}

// FreeParameters reports the parameters referenced in e that no enclosing
// lambda binds, in order of first use.
func FreeParameters(e Expr) []*Parameter {
	var free []*Parameter
	seen := map[*Parameter]bool{}
	collectFree(e, map[*Parameter]bool{}, seen, &free)
	return free
}

func collectFree(e Expr, bound map[*Parameter]bool, seen map[*Parameter]bool, free *[]*Parameter) {
	switch n := e.(type) {
	case *Parameter:
		if !bound[n] && !seen[n] {
			seen[n] = true
			*free = append(*free, n)
		}
	case *Constant:
	case *Member:
		collectFree(n.Target, bound, seen, free)
	case *Call:
		collectFree(n.Source, bound, seen, free)
		for _, a := range n.Args {
			collectFree(a, bound, seen, free)
		}
	case *Binary:
		collectFree(n.Left, bound, seen, free)
		collectFree(n.Right, bound, seen, free)
	case *Unary:
		collectFree(n.Operand, bound, seen, free)
	case *Lambda:
		inner := make(map[*Parameter]bool, len(bound)+len(n.Params))
		for p := range bound {
			inner[p] = true
		}
		for _, p := range n.Params {
			inner[p] = true
		}
		collectFree(n.Body, inner, seen, free)
	default:
		panic(fmt.Sprintf("querytree: unknown node %T", e))
	}
}

// rewrite applies f over the tree bottom-up-on-demand: f is offered each node
// pre-order and, when it declines, the node's children are rewritten and the
// node is rebuilt only if a child changed. Unchanged subtrees are shared
// with the input.
func rewrite(e Expr, f func(Expr) (Expr, bool)) Expr {
	if r, ok := f(e); ok {
		return r
	}
	switch n := e.(type) {
	case *Parameter, *Constant:
		return e
	case *Member:
		target := rewrite(n.Target, f)
		if target == n.Target {
			return n
		}
		return NewMember(target, n.Name)
	case *Call:
		source := rewrite(n.Source, f)
		var args []Expr
		for i, a := range n.Args {
			r := rewrite(a, f)
			if r != a && args == nil {
				args = make([]Expr, len(n.Args))
				copy(args, n.Args)
			}
			if args != nil {
				args[i] = r
			}
		}
		if source == n.Source && args == nil {
			return n
		}
		if args == nil {
			args = n.Args
		}
		return NewCall(n.API, n.Method, source, args...)
	case *Binary:
		left := rewrite(n.Left, f)
		right := rewrite(n.Right, f)
		if left == n.Left && right == n.Right {
			return n
		}
		return NewBinary(n.Op, left, right)
	case *Unary:
		operand := rewrite(n.Operand, f)
		if operand == n.Operand {
			return n
		}
		switch n.Op {
		case OpNot:
			return Not(operand)
		case OpNeg:
			return Neg(operand)
		default:
			panic(fmt.Sprintf("querytree: unknown unary operator %q", n.Op))
		}
	case *Lambda:
		body := rewrite(n.Body, f)
		if body == n.Body {
			return n
		}
		return NewLambda(body, n.Params...)
	default:
		panic(fmt.Sprintf("querytree: unknown node %T", e))
	}
}

// ReplaceParameter substitutes every reference to old with new, matching by
// parameter identity. The replacement type must be assignable to the old
// parameter's type so the tree stays well typed. Subtrees that do not
// reference old are returned unchanged, not copied.
func ReplaceParameter(e Expr, old, new *Parameter) Expr {
	if !new.Type().AssignableTo(old.Type()) {
		panic(fmt.Sprintf("querytree: cannot replace %s parameter with %s", old.Type(), new.Type()))
	}
	return rewrite(e, func(n Expr) (Expr, bool) {
		if n == Expr(old) {
			return new, true
		}
		return nil, false
	})
}

// Bind substitutes references to param with constants taken from value: a
// member access on param becomes a constant holding that field, and a bare
// reference becomes a constant holding the whole value. A nil value binds as
// the zero value of the parameter's type. The result shares all subtrees
// that never touched param.
func Bind(e Expr, param *Parameter, value any) Expr {
	rv := reflect.ValueOf(value)
	if value == nil {
		rv = reflect.Zero(param.Type())
		value = rv.Interface()
	}
	return rewrite(e, func(n Expr) (Expr, bool) {
		switch node := n.(type) {
		case *Member:
			target, ok := node.Target.(*Parameter)
			if !ok || target != param {
				return nil, false
			}
			fv := rv
			if fv.Kind() == reflect.Pointer {
				fv = fv.Elem()
			}
			return NewTypedConstant(fv.FieldByName(node.Name).Interface(), node.Type()), true
		case *Parameter:
			if node != param {
				return nil, false
			}
			return NewTypedConstant(value, param.Type()), true
		}
		return nil, false
	})
}
