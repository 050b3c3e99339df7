// Package executor evaluates parsed GraphQL documents against a schema whose
// fields resolve through compiled query trees.
//
// # Execution model
//
// ExecuteRequest picks the operation, coerces variables, then walks the
// selection set depth first. Each field resolves one of three ways:
//
//   - Func resolvers run a direct Go function. Introspection fields use these.
//   - Query resolvers carry a compiled query template. The executor shapes the
//     coerced argument map into the declaration's typed args struct, runs the
//     mutation hook if the field declares one, specializes the template with
//     the args value, and hands the closed tree to the Provider. The field's
//     resolution kind is applied to whatever comes back: First and
//     FirstOrDefault reduce a returned sequence to its head, with an empty
//     sequence being an error for First and null for FirstOrDefault.
//   - Source resolvers read a struct field off the parent value by name.
//
// Resolved values are completed per the GraphQL spec: lists element-wise with
// index-aware paths, leaves through scalar serialization, objects by executing
// their sub-selections. A null in a Non-Null position nulls the nearest
// nullable ancestor and records a located error.
//
// # Errors and partial success
//
// Field errors are collected as located errors (message + response path) and
// execution continues with the failed field set to null, so a response can
// carry partial data alongside its errors.
package executor
