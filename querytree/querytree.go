// Package querytree defines the typed expression-tree representation for
// declared field queries.
//
// A declared query is an immutable Lambda over a data context, for example
// (db) => db.Heroes or (db, args) => db.Heroes.First(h => h.ID == args.ID).
// Trees are built with the constructors in this package, analyzed and
// rewritten by the schema compiler, and finally handed to a data-access
// provider which either evaluates them in memory or translates them into a
// native query. Every node carries its static Go type so rewrites can be
// checked, and nodes are never mutated after construction: rewriting
// produces fresh nodes along changed paths and shares the rest.
package querytree

import (
	"fmt"
	"reflect"
)

// Expr is a node in a query tree.
type Expr interface {
	// Type reports the static Go type the node evaluates to.
	Type() reflect.Type

	isExpr()
}

// Parameter is a named, typed parameter reference. Parameters are compared
// by identity, never by name: two parameters named "ctx" are distinct nodes
// unless they are the same pointer.
type Parameter struct {
	Name string

	typ reflect.Type
}

// NewParameter creates a parameter of the given type.
func NewParameter(name string, t reflect.Type) *Parameter {
	if t == nil {
		panic("querytree: parameter type must not be nil")
	}
	return &Parameter{Name: name, typ: t}
}

// NewParameterOf creates a parameter typed by the type argument.
func NewParameterOf[T any](name string) *Parameter {
	return NewParameter(name, reflect.TypeOf((*T)(nil)).Elem())
}

func (p *Parameter) Type() reflect.Type { return p.typ }
func (p *Parameter) isExpr()            {}

// Constant is a Go value embedded in the tree as data. Specialized trees
// contain only constants where the declaration referenced argument values,
// which is what makes them translatable without an evaluation environment.
type Constant struct {
	Value any

	typ reflect.Type
}

// NewConstant creates a constant from v, taking its dynamic type.
// Use NewTypedConstant for typed nil values.
func NewConstant(v any) *Constant {
	if v == nil {
		panic("querytree: untyped nil constant; use NewTypedConstant")
	}
	return &Constant{Value: v, typ: reflect.TypeOf(v)}
}

// NewTypedConstant creates a constant of an explicit static type. The value
// must be assignable to t; nil is allowed for nilable kinds.
func NewTypedConstant(v any, t reflect.Type) *Constant {
	if t == nil {
		panic("querytree: constant type must not be nil")
	}
	if v != nil && !reflect.TypeOf(v).AssignableTo(t) {
		panic(fmt.Sprintf("querytree: constant %v (%T) is not assignable to %s", v, v, t))
	}
	return &Constant{Value: v, typ: t}
}

// NewConstantOf creates a constant keeping the static type argument.
func NewConstantOf[T any](v T) *Constant {
	return &Constant{Value: v, typ: reflect.TypeOf((*T)(nil)).Elem()}
}

func (c *Constant) Type() reflect.Type { return c.typ }
func (c *Constant) isExpr()            {}

// Member is a struct field access target.Name. Pointer targets dereference
// implicitly, matching how providers resolve them.
type Member struct {
	Target Expr
	Name   string

	typ reflect.Type
}

// NewMember creates a field access on target. The field must exist on the
// target's struct type.
func NewMember(target Expr, name string) *Member {
	f, ok := structField(target.Type(), name)
	if !ok {
		panic(fmt.Sprintf("querytree: type %s has no field %q", target.Type(), name))
	}
	return &Member{Target: target, Name: name, typ: f.Type}
}

func (m *Member) Type() reflect.Type { return m.typ }
func (m *Member) isExpr()            {}

// structField resolves name on t, looking through one level of pointer.
func structField(t reflect.Type, name string) (reflect.StructField, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	return t.FieldByName(name)
}

// elemType returns the element type of a sequence-typed expression.
func elemType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Slice {
		return t.Elem(), true
	}
	return nil, false
}
