package executor

import (
	"context"

	querytree "github.com/benhysell/graphql-net/querytree"
)

// Provider executes specialized query trees against a backing data store.
//
// The executor hands every compiled root field to a Provider: the tree is
// always the closed two-parameter lambda (context, baseContext) produced by
// invoking a compiled field query, and root is the live data context the
// host passed into the request. The tree contains no free references beyond
// its own parameters; argument values arrive embedded as constants.
// Implementations must reject trees whose evaluation would need anything
// else from the environment.
//
// Contract:
//   - Sequence-typed trees return a Go slice. The executor applies the
//     field's resolution kind afterwards (First, FirstOrDefault, ToList), so
//     providers never reduce sequences themselves.
//   - Scalar trees (Unmodified fields) return the value as evaluated.
//   - Errors become located GraphQL field errors; other fields in the same
//     request still execute.
//   - Implementations must be safe for concurrent use and must honor ctx
//     cancellation on long-running work.
//   - Implementations must not mutate root or anything reachable from it.
type Provider interface {
	Query(ctx context.Context, root any, query *querytree.Lambda) (any, error)
}
