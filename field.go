package graphqlnet

import (
	"context"
	"fmt"

	"github.com/benhysell/graphql-net/internal/schema"
)

// fieldSettings collects per-field options before registration.
type fieldSettings struct {
	description string
	mutation    schema.MutationFunc
}

// FieldOption configures one field declaration.
type FieldOption func(*fieldSettings)

// WithDescription attaches a description to the field.
func WithDescription(d string) FieldOption {
	return func(s *fieldSettings) { s.description = d }
}

// WithMutation attaches a side-effect callback, turning the declaration into
// a mutation field on the Mutation root. The callback runs with the live
// data context and the coerced argument value before the field's query
// executes, so the query result is the mutation's response payload.
func WithMutation[C, A any](fn func(ctx context.Context, data C, args A) error) FieldOption {
	return func(s *fieldSettings) {
		s.mutation = func(ctx context.Context, data any, args any) error {
			d, ok := data.(C)
			if !ok {
				var want C
				return fmt.Errorf("mutation needs a %T data context, got %T", want, data)
			}
			// A nil args value stands in for the zero arguments struct.
			a, ok := args.(A)
			if !ok && args != nil {
				var want A
				return fmt.Errorf("mutation needs %T arguments, got %T", want, args)
			}
			return fn(ctx, d, a)
		}
	}
}

// NoArgs is the placeholder argument type for mutation callbacks attached to
// argument-free declarations.
type NoArgs struct{}
