package fieldcompile

import (
	"reflect"

	"github.com/benhysell/graphql-net/querytree"
)

// CompiledQuery is the reusable product of binding one field declaration.
// It holds a specialization template and no runtime state, so a single value
// is shared across all requests and invoked concurrently without locks.
type CompiledQuery struct {
	template *querytree.Template
}

// Bind wraps a canonical single-parameter query as a template over
// (context, baseContext) plus the optional declared arguments parameter.
// The second context parameter lets the execution engine substitute a
// different context reference at merge time without recompiling. Binding
// fails fast when the body references a parameter that is neither the
// context nor the declared arguments.
func Bind(canonical *querytree.Lambda, args *querytree.Parameter) (*CompiledQuery, error) {
	context := canonical.Params[0]
	base := querytree.NewParameter("base", context.Type())
	template, err := querytree.NewTemplate(context, base, args, canonical.Body)
	if err != nil {
		return nil, err
	}
	return &CompiledQuery{template: template}, nil
}

// Invoke specializes the template with a concrete argument value, yielding a
// fresh (context, baseContext) => result tree with the argument data
// embedded as constants. Argument-free fields pass nil. Every invocation
// returns an independently valid tree.
func (q *CompiledQuery) Invoke(argsValue any) *querytree.Lambda {
	return q.template.Specialize(argsValue)
}

// ResultType reports the static type the compiled query resolves to before
// the resolution kind's reduction is applied.
func (q *CompiledQuery) ResultType() reflect.Type {
	return q.template.Body.Type()
}

// ContextType reports the data-context type the compiled query runs against.
func (q *CompiledQuery) ContextType() reflect.Type {
	return q.template.Context.Type()
}

// ArgsType reports the declared argument type, or nil for argument-free
// fields.
func (q *CompiledQuery) ArgsType() reflect.Type {
	if q.template.Args == nil {
		return nil
	}
	return q.template.Args.Type()
}
