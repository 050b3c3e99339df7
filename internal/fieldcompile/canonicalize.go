package fieldcompile

import (
	"github.com/benhysell/graphql-net/querytree"
)

// Canonicalize rebinds body, written against the declared context parameter,
// into a single-parameter (context) => result lambda over a fresh parameter.
//
// Substitution is by parameter identity, so a same-named parameter belonging
// to a nested predicate is never captured, and subtrees that do not touch
// the context keep their referential identity. Argument parameter references
// pass through untouched; Bind resolves them later. The set of entities the
// body fetches and the predicates it applies are preserved exactly.
func Canonicalize(context *querytree.Parameter, body querytree.Expr) *querytree.Lambda {
	fresh := querytree.NewParameter(context.Name, context.Type())
	return querytree.NewLambda(querytree.ReplaceParameter(body, context, fresh), fresh)
}
