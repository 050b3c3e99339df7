package querytree

import "fmt"

// Template is a reusable query tree with explicit free parameters: the data
// context, a second base-context reference supplied by the execution engine
// at merge time, and an optional arguments parameter. Templates are built
// once per field declaration and specialized once per request, so they must
// not capture anything beyond the tree itself.
type Template struct {
	Context *Parameter
	Base    *Parameter
	Args    *Parameter
	Body    Expr
}

// NewTemplate validates that body is closed over exactly the given
// parameters. A body referencing any other free parameter is malformed and
// rejected here, at declaration time, rather than surfacing during request
// execution.
func NewTemplate(context, base *Parameter, args *Parameter, body Expr) (*Template, error) {
	if context == nil || base == nil {
		panic("querytree: template context parameters must not be nil")
	}
	for _, p := range FreeParameters(body) {
		if p == context || p == base || (args != nil && p == args) {
			continue
		}
		return nil, fmt.Errorf("template body references parameter %q (%s) that is not in scope", p.Name, p.Type())
	}
	return &Template{Context: context, Base: base, Args: args, Body: body}, nil
}

// Specialize produces a fresh two-parameter lambda (context, baseContext)
// with every reference to the arguments parameter replaced by a constant
// taken from argsValue. The result contains no references to argsValue
// itself, only embedded data, so a provider can translate it without an
// evaluation environment. Each call mints fresh context parameters and
// shares only immutable subtrees with the template and with prior calls.
func (t *Template) Specialize(argsValue any) *Lambda {
	context := NewParameter(t.Context.Name, t.Context.Type())
	base := NewParameter(t.Base.Name, t.Base.Type())

	body := ReplaceParameter(t.Body, t.Context, context)
	body = ReplaceParameter(body, t.Base, base)
	if t.Args != nil {
		body = Bind(body, t.Args, argsValue)
	}
	return NewLambda(body, context, base)
}
