package fieldcompile

import (
	"github.com/benhysell/graphql-net/querytree"
)

// ResolutionKind is the post-fetch reduction the execution engine applies to
// the result of a compiled field query.
type ResolutionKind string

const (
	// Unmodified evaluates the compiled query and returns its result as is.
	Unmodified ResolutionKind = "Unmodified"
	// First takes the first element of the fetched sequence and errors when
	// the sequence is empty.
	First ResolutionKind = "First"
	// FirstOrDefault takes the first element of the fetched sequence and
	// resolves to null when the sequence is empty.
	FirstOrDefault ResolutionKind = "FirstOrDefault"
	// ToList materializes the fetched sequence as a list.
	ToList ResolutionKind = "ToList"
)

// IsSequence reports whether the kind reduces a sequence-typed query.
// Unmodified is the only kind resolving a scalar-typed query directly.
func (k ResolutionKind) IsSequence() bool { return k != Unmodified }

// QueryInfo is the classifier's verdict on one declared query. It lives for
// the duration of a single field compilation and is then discarded.
type QueryInfo struct {
	// Original is the declared query, untouched.
	Original *querytree.Lambda
	// BaseSequence is the sequence underlying a recognized reduction, with
	// any predicate folded into a Where call. Nil iff Kind is Unmodified.
	BaseSequence querytree.Expr
	// Kind is the assigned resolution kind.
	Kind ResolutionKind
}

// Classify inspects a declared query's body and assigns its resolution kind.
//
// Only First and FirstOrDefault on the queryable surface are recognized as
// reductions. Every other body, including enumerable-surface calls and
// unrecognized queryable methods, falls back to Unmodified: the query is
// treated as an opaque expression and evaluated as written, with no
// post-fetch policy. Classification never fails.
func Classify(declared *querytree.Lambda) QueryInfo {
	info := QueryInfo{Original: declared, Kind: Unmodified}

	call, ok := declared.Body.(*querytree.Call)
	if !ok || call.API != querytree.APIQueryable {
		return info
	}
	switch call.Method {
	case querytree.MethodFirst:
		info.Kind = First
	case querytree.MethodFirstOrDefault:
		info.Kind = FirstOrDefault
	default:
		return info
	}

	// A predicate form folds the filter into the sequence itself, so the
	// reduction is deferred to post-fetch time and later pipeline stages can
	// still compose with the filtered sequence.
	if len(call.Args) == 1 {
		pred := call.Args[0].(*querytree.Lambda)
		info.BaseSequence = querytree.Where(call.Source, pred)
	} else {
		info.BaseSequence = call.Source
	}
	return info
}
