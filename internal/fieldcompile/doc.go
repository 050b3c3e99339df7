// Package fieldcompile turns declared field queries into compiled field
// queries at schema-build time.
//
// A host declares a field by writing a query tree over its data context,
// for example (db, args) => db.Heroes.First(h => h.ID == args.ID). This
// package analyzes that declaration in three stages:
//
//  1. Classify inspects the body and assigns a resolution kind. A First or
//     FirstOrDefault call on the queryable surface is recognized and peeled
//     off, leaving the underlying sequence; anything else resolves
//     Unmodified. Classification is total and never fails.
//
//  2. Canonicalize rebinds the declaration to a canonical single-parameter
//     (context) => result form, substituting the context parameter by
//     identity so that same-named parameters elsewhere are untouched and
//     unrelated subtrees keep their referential identity.
//
//  3. Bind wraps the canonical form into a reusable template over
//     (context, baseContext, args) and validates its scope. The resulting
//     CompiledQuery specializes the template per request, embedding the
//     concrete argument values as constants so providers translate the tree
//     without any evaluation environment.
//
// All of this runs synchronously during schema construction. A CompiledQuery
// is immutable afterwards and safe for concurrent use.
package fieldcompile
