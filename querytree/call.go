package querytree

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEmptySequence reports First applied to a sequence with no elements.
// Providers wrap it so callers can branch with errors.Is.
var ErrEmptySequence = errors.New("sequence contains no elements")

// API identifies which query surface a Call belongs to. Queryable calls are
// the translatable surface: providers may push them down to native queries
// and the compiler rewrites them. Enumerable calls evaluate in memory only
// and pass through the compiler untouched.
type API string

const (
	APIQueryable  API = "Queryable"
	APIEnumerable API = "Enumerable"
)

// Method names a sequence operator.
type Method string

const (
	MethodWhere             Method = "Where"
	MethodSelect            Method = "Select"
	MethodFirst             Method = "First"
	MethodFirstOrDefault    Method = "FirstOrDefault"
	MethodOrderBy           Method = "OrderBy"
	MethodOrderByDescending Method = "OrderByDescending"
	MethodTake              Method = "Take"
	MethodSkip              Method = "Skip"
	MethodCount             Method = "Count"
)

// Call applies a sequence operator to a source expression, in the style of a
// static extension call: the source is the first operand, not a receiver.
type Call struct {
	API    API
	Method Method
	Source Expr
	Args   []Expr

	typ reflect.Type
}

func (c *Call) Type() reflect.Type { return c.typ }
func (c *Call) isExpr()            {}

// NewCall builds a validated operator application. The sugar constructors
// (Where, First, ...) cover the common cases; NewCall is for code that
// assembles trees generically, such as rewriters.
func NewCall(api API, method Method, source Expr, args ...Expr) *Call {
	if api != APIQueryable && api != APIEnumerable {
		panic(fmt.Sprintf("querytree: unknown API %q", api))
	}
	elem, ok := elemType(source.Type())
	if !ok {
		panic(fmt.Sprintf("querytree: %s source must be a sequence, got %s", method, source.Type()))
	}
	typ, err := callType(method, source.Type(), elem, args)
	if err != nil {
		panic("querytree: " + err.Error())
	}
	return &Call{API: api, Method: method, Source: source, Args: args, typ: typ}
}

// callType checks operand arity and types and returns the call's result type.
func callType(method Method, source, elem reflect.Type, args []Expr) (reflect.Type, error) {
	switch method {
	case MethodWhere:
		if err := wantPredicate(method, elem, args); err != nil {
			return nil, err
		}
		return source, nil
	case MethodSelect:
		sel, err := wantKeySelector(method, elem, args)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(sel.Body.Type()), nil
	case MethodFirst, MethodFirstOrDefault:
		if len(args) == 0 {
			return elem, nil
		}
		if err := wantPredicate(method, elem, args); err != nil {
			return nil, err
		}
		return elem, nil
	case MethodOrderBy, MethodOrderByDescending:
		if _, err := wantKeySelector(method, elem, args); err != nil {
			return nil, err
		}
		return source, nil
	case MethodTake, MethodSkip:
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes exactly one count operand", method)
		}
		if k := args[0].Type().Kind(); k != reflect.Int {
			return nil, fmt.Errorf("%s count must be int, got %s", method, args[0].Type())
		}
		return source, nil
	case MethodCount:
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no operands", method)
		}
		return reflect.TypeOf((*int)(nil)).Elem(), nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func wantPredicate(method Method, elem reflect.Type, args []Expr) error {
	if len(args) != 1 {
		return fmt.Errorf("%s takes exactly one predicate operand", method)
	}
	pred, ok := args[0].(*Lambda)
	if !ok {
		return fmt.Errorf("%s predicate must be a lambda, got %T", method, args[0])
	}
	if len(pred.Params) != 1 || !elem.AssignableTo(pred.Params[0].Type()) {
		return fmt.Errorf("%s predicate must take one %s parameter", method, elem)
	}
	if pred.Body.Type().Kind() != reflect.Bool {
		return fmt.Errorf("%s predicate must return bool, got %s", method, pred.Body.Type())
	}
	return nil
}

func wantKeySelector(method Method, elem reflect.Type, args []Expr) (*Lambda, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes exactly one selector operand", method)
	}
	sel, ok := args[0].(*Lambda)
	if !ok {
		return nil, fmt.Errorf("%s selector must be a lambda, got %T", method, args[0])
	}
	if len(sel.Params) != 1 || !elem.AssignableTo(sel.Params[0].Type()) {
		return nil, fmt.Errorf("%s selector must take one %s parameter", method, elem)
	}
	return sel, nil
}

// Queryable-surface sugar. Each returns a validated Call with APIQueryable.

func Where(source Expr, pred *Lambda) *Call {
	return NewCall(APIQueryable, MethodWhere, source, pred)
}

func Select(source Expr, sel *Lambda) *Call {
	return NewCall(APIQueryable, MethodSelect, source, sel)
}

func First(source Expr, pred ...*Lambda) *Call {
	return NewCall(APIQueryable, MethodFirst, source, lambdaArgs(pred)...)
}

func FirstOrDefault(source Expr, pred ...*Lambda) *Call {
	return NewCall(APIQueryable, MethodFirstOrDefault, source, lambdaArgs(pred)...)
}

func OrderBy(source Expr, sel *Lambda) *Call {
	return NewCall(APIQueryable, MethodOrderBy, source, sel)
}

func OrderByDescending(source Expr, sel *Lambda) *Call {
	return NewCall(APIQueryable, MethodOrderByDescending, source, sel)
}

func Take(source Expr, count Expr) *Call {
	return NewCall(APIQueryable, MethodTake, source, count)
}

func Skip(source Expr, count Expr) *Call {
	return NewCall(APIQueryable, MethodSkip, source, count)
}

func Count(source Expr) *Call {
	return NewCall(APIQueryable, MethodCount, source)
}

func lambdaArgs(preds []*Lambda) []Expr {
	if len(preds) > 1 {
		panic("querytree: at most one predicate")
	}
	args := make([]Expr, len(preds))
	for i, p := range preds {
		args[i] = p
	}
	return args
}

// BinaryOp names a binary operator.
type BinaryOp string

const (
	OpEq  BinaryOp = "=="
	OpNe  BinaryOp = "!="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// Binary is a boolean-valued binary operation.
type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

func (b *Binary) Type() reflect.Type { return reflect.TypeOf((*bool)(nil)).Elem() }
func (b *Binary) isExpr()            {}

// NewBinary builds a validated binary operation. Comparison operands must
// share a comparable type; logical operands must be bool.
func NewBinary(op BinaryOp, left, right Expr) *Binary {
	switch op {
	case OpAnd, OpOr:
		if left.Type().Kind() != reflect.Bool || right.Type().Kind() != reflect.Bool {
			panic(fmt.Sprintf("querytree: %s operands must be bool, got %s and %s", op, left.Type(), right.Type()))
		}
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		if !comparableOperands(left.Type(), right.Type()) {
			panic(fmt.Sprintf("querytree: cannot compare %s with %s", left.Type(), right.Type()))
		}
	default:
		panic(fmt.Sprintf("querytree: unknown binary operator %q", op))
	}
	return &Binary{Op: op, Left: left, Right: right}
}

func comparableOperands(a, b reflect.Type) bool {
	return a.AssignableTo(b) || b.AssignableTo(a)
}

func Eq(l, r Expr) *Binary  { return NewBinary(OpEq, l, r) }
func Ne(l, r Expr) *Binary  { return NewBinary(OpNe, l, r) }
func Gt(l, r Expr) *Binary  { return NewBinary(OpGt, l, r) }
func Ge(l, r Expr) *Binary  { return NewBinary(OpGe, l, r) }
func Lt(l, r Expr) *Binary  { return NewBinary(OpLt, l, r) }
func Le(l, r Expr) *Binary  { return NewBinary(OpLe, l, r) }
func And(l, r Expr) *Binary { return NewBinary(OpAnd, l, r) }
func Or(l, r Expr) *Binary  { return NewBinary(OpOr, l, r) }

// UnaryOp names a unary operator.
type UnaryOp string

const (
	OpNot UnaryOp = "!"
	OpNeg UnaryOp = "-"
)

// Unary is a unary operation: logical or numeric negation.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (u *Unary) Type() reflect.Type {
	if u.Op == OpNeg {
		return u.Operand.Type()
	}
	return reflect.TypeOf((*bool)(nil)).Elem()
}

func (u *Unary) isExpr() {}

func Not(operand Expr) *Unary {
	if operand.Type().Kind() != reflect.Bool {
		panic(fmt.Sprintf("querytree: ! operand must be bool, got %s", operand.Type()))
	}
	return &Unary{Op: OpNot, Operand: operand}
}

func Neg(operand Expr) *Unary {
	switch operand.Type().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
	default:
		panic(fmt.Sprintf("querytree: - operand must be numeric, got %s", operand.Type()))
	}
	return &Unary{Op: OpNeg, Operand: operand}
}

// Lambda is an anonymous function node: parameters plus a body that may
// reference them. Lambdas appear both as whole declared queries and as
// predicate or selector operands inside calls.
type Lambda struct {
	Params []*Parameter
	Body   Expr
}

// NewLambda builds a lambda. Every parameter must be distinct.
func NewLambda(body Expr, params ...*Parameter) *Lambda {
	seen := make(map[*Parameter]bool, len(params))
	for _, p := range params {
		if p == nil {
			panic("querytree: nil lambda parameter")
		}
		if seen[p] {
			panic(fmt.Sprintf("querytree: duplicate lambda parameter %q", p.Name))
		}
		seen[p] = true
	}
	return &Lambda{Params: params, Body: body}
}

// Type reports the lambda's function type.
func (l *Lambda) Type() reflect.Type {
	in := make([]reflect.Type, len(l.Params))
	for i, p := range l.Params {
		in[i] = p.Type()
	}
	return reflect.FuncOf(in, []reflect.Type{l.Body.Type()}, false)
}

func (l *Lambda) isExpr() {}
