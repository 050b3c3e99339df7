package memprov

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/benhysell/graphql-net/querytree"
)

// scope binds parameters to runtime values during one evaluation.
type scope map[*querytree.Parameter]any

func (s scope) with(p *querytree.Parameter, v any) scope {
	child := make(scope, len(s)+1)
	for k, val := range s {
		child[k] = val
	}
	child[p] = v
	return child
}

func eval(e querytree.Expr, env scope) (any, error) {
	switch n := e.(type) {
	case *querytree.Parameter:
		v, ok := env[n]
		if !ok {
			return nil, fmt.Errorf("unbound parameter %q", n.Name)
		}
		return v, nil

	case *querytree.Constant:
		return n.Value, nil

	case *querytree.Member:
		target, err := eval(n.Target, env)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(target)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, fmt.Errorf("nil dereference accessing %s", querytree.Format(n))
			}
			rv = rv.Elem()
		}
		return rv.FieldByName(n.Name).Interface(), nil

	case *querytree.Binary:
		return evalBinary(n, env)

	case *querytree.Unary:
		return evalUnary(n, env)

	case *querytree.Call:
		return evalCall(n, env)

	case *querytree.Lambda:
		return nil, fmt.Errorf("lambda %s is not a value", querytree.Format(n))

	default:
		return nil, fmt.Errorf("unsupported node %T", e)
	}
}

func evalBool(e querytree.Expr, env scope) (bool, error) {
	v, err := eval(e, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool from %s, got %T", querytree.Format(e), v)
	}
	return b, nil
}

func evalUnary(n *querytree.Unary, env scope) (any, error) {
	if n.Op == querytree.OpNot {
		b, err := evalBool(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	v, err := eval(n.Operand, env)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	out := reflect.New(rv.Type()).Elem()
	switch {
	case isIntKind(rv):
		out.SetInt(-rv.Int())
	case isFloatKind(rv):
		out.SetFloat(-rv.Float())
	default:
		return nil, fmt.Errorf("cannot negate %T", v)
	}
	return out.Interface(), nil
}

func evalBinary(n *querytree.Binary, env scope) (any, error) {
	// Logical operators short-circuit.
	switch n.Op {
	case querytree.OpAnd:
		l, err := evalBool(n.Left, env)
		if err != nil || !l {
			return false, err
		}
		return evalBool(n.Right, env)
	case querytree.OpOr:
		l, err := evalBool(n.Left, env)
		if err != nil || l {
			return l, err
		}
		return evalBool(n.Right, env)
	}

	left, err := eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	left, right = indirect(left), indirect(right)

	switch n.Op {
	case querytree.OpEq:
		return equalValues(left, right), nil
	case querytree.OpNe:
		return !equalValues(left, right), nil
	}

	c, err := order(left, right)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", querytree.Format(n), err)
	}
	switch n.Op {
	case querytree.OpGt:
		return c > 0, nil
	case querytree.OpGe:
		return c >= 0, nil
	case querytree.OpLt:
		return c < 0, nil
	case querytree.OpLe:
		return c <= 0, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", n.Op)
	}
}

// indirect unwraps one pointer level so nullable fields compare by value;
// nil pointers become untyped nil.
func indirect(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := tryOrder(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func order(a, b any) (int, error) {
	if c, ok := tryOrder(a, b); ok {
		return c, nil
	}
	return 0, fmt.Errorf("cannot order %T against %T", a, b)
}

// tryOrder compares two values of an ordered kind group.
func tryOrder(a, b any) (int, bool) {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isIntKind(av) && isIntKind(bv):
		return compareOrdered(av.Int(), bv.Int()), true
	case isUintKind(av) && isUintKind(bv):
		return compareOrdered(av.Uint(), bv.Uint()), true
	case isFloatKind(av) && isFloatKind(bv):
		return compareOrdered(av.Float(), bv.Float()), true
	case av.Kind() == reflect.String && bv.Kind() == reflect.String:
		return compareOrdered(av.String(), bv.String()), true
	}
	return 0, false
}

func compareOrdered[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isIntKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloatKind(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func evalCall(n *querytree.Call, env scope) (any, error) {
	source, err := eval(n.Source, env)
	if err != nil {
		return nil, err
	}
	seq := reflect.ValueOf(source)
	if seq.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s source is %T, not a sequence", n.Method, source)
	}

	switch n.Method {
	case querytree.MethodWhere:
		return filter(seq, n.Args[0].(*querytree.Lambda), env)

	case querytree.MethodSelect:
		return project(seq, n.Type(), n.Args[0].(*querytree.Lambda), env)

	case querytree.MethodFirst, querytree.MethodFirstOrDefault:
		if len(n.Args) == 1 {
			filtered, err := filter(seq, n.Args[0].(*querytree.Lambda), env)
			if err != nil {
				return nil, err
			}
			seq = reflect.ValueOf(filtered)
		}
		if seq.Len() == 0 {
			if n.Method == querytree.MethodFirstOrDefault {
				return reflect.Zero(n.Type()).Interface(), nil
			}
			return nil, fmt.Errorf("sequence %s: %w", querytree.Format(n.Source), querytree.ErrEmptySequence)
		}
		return seq.Index(0).Interface(), nil

	case querytree.MethodOrderBy, querytree.MethodOrderByDescending:
		return sortBy(seq, n.Args[0].(*querytree.Lambda), n.Method == querytree.MethodOrderByDescending, env)

	case querytree.MethodTake:
		k, err := evalCount(n.Args[0], env)
		if err != nil {
			return nil, err
		}
		return seq.Slice(0, min(k, seq.Len())).Interface(), nil

	case querytree.MethodSkip:
		k, err := evalCount(n.Args[0], env)
		if err != nil {
			return nil, err
		}
		return seq.Slice(min(k, seq.Len()), seq.Len()).Interface(), nil

	case querytree.MethodCount:
		return seq.Len(), nil

	default:
		return nil, fmt.Errorf("unsupported method %s", n.Method)
	}
}

func evalCount(e querytree.Expr, env scope) (int, error) {
	v, err := eval(e, env)
	if err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Int {
		return 0, fmt.Errorf("count operand must be an int, got %T", v)
	}
	return max(int(rv.Int()), 0), nil
}

func filter(seq reflect.Value, pred *querytree.Lambda, env scope) (any, error) {
	out := reflect.MakeSlice(seq.Type(), 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		elem := seq.Index(i)
		keep, err := evalBool(pred.Body, env.with(pred.Params[0], elem.Interface()))
		if err != nil {
			return nil, err
		}
		if keep {
			out = reflect.Append(out, elem)
		}
	}
	return out.Interface(), nil
}

func project(seq reflect.Value, resultType reflect.Type, sel *querytree.Lambda, env scope) (any, error) {
	out := reflect.MakeSlice(resultType, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		v, err := eval(sel.Body, env.with(sel.Params[0], seq.Index(i).Interface()))
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func sortBy(seq reflect.Value, sel *querytree.Lambda, desc bool, env scope) (any, error) {
	n := seq.Len()
	keys := make([]any, n)
	for i := 0; i < n; i++ {
		k, err := eval(sel.Body, env.with(sel.Params[0], seq.Index(i).Interface()))
		if err != nil {
			return nil, err
		}
		keys[i] = indirect(k)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(i, j int) bool {
		c, err := order(keys[idx[i]], keys[idx[j]])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	out := reflect.MakeSlice(seq.Type(), 0, n)
	for _, i := range idx {
		out = reflect.Append(out, seq.Index(i))
	}
	return out.Interface(), nil
}
