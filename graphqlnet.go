// Package graphqlnet derives GraphQL schemas from declarative queries over a
// typed Go data context.
//
// A host declares each field by writing a query tree against its context
// type, and the library works out the rest at schema-build time: how the
// result must be resolved (as is, first match, first match or null, full
// list), the GraphQL type of the field, and a reusable compiled query that a
// data-access provider executes per request with argument values embedded as
// constants.
//
//	b := graphqlnet.NewBuilder[*FleetContext]()
//	graphqlnet.FieldWithArgs(b, "ship", ShipArgs{},
//		func(ctx, args querytree.Expr) querytree.Expr {
//			s := querytree.NewParameterOf[Starship]("s")
//			return querytree.First(querytree.NewMember(ctx, "Ships"),
//				querytree.NewLambda(querytree.Eq(
//					querytree.NewMember(s, "ID"),
//					querytree.NewMember(args, "ID")), s))
//		})
//	schema, err := b.Complete()
//
// All building happens synchronously before the schema is served; the
// completed schema and its compiled queries are immutable and safe for
// concurrent request execution.
package graphqlnet

import (
	"reflect"

	"github.com/benhysell/graphql-net/internal/fieldcompile"
	"github.com/benhysell/graphql-net/internal/schema"
	"github.com/benhysell/graphql-net/internal/typemap"
	"github.com/benhysell/graphql-net/querytree"
)

// Schema is the completed GraphQL schema handed to the server and executor.
type Schema = schema.Schema

// Render returns the schema in SDL form.
func Render(s *Schema) string { return schema.Render(s) }

// Builder collects field declarations over one data-context type C and
// completes them into a Schema. Builders are not safe for concurrent use;
// declare every field, then call Complete once.
type Builder[C any] struct {
	registry *schema.Builder
	types    *typemap.Mapper
}

// NewBuilder returns a builder for a schema whose fields query a C context.
func NewBuilder[C any]() *Builder[C] {
	s := schema.New()
	m := typemap.NewMapper(s)
	return &Builder[C]{registry: schema.NewBuilder(s, m), types: m}
}

// Field declares a single-result field. The declared query's body is
// classified: a queryable First or FirstOrDefault is peeled off and applied
// post-fetch, anything else resolves as written.
func (b *Builder[C]) Field(name string, declare func(ctx querytree.Expr) querytree.Expr, opts ...FieldOption) *Builder[C] {
	ctx := querytree.NewParameterOf[C]("ctx")
	b.add(name, querytree.NewLambda(declare(ctx), ctx), false, opts)
	return b
}

// ListField declares a sequence-result field. List fields bypass
// classification and always resolve ToList.
func (b *Builder[C]) ListField(name string, declare func(ctx querytree.Expr) querytree.Expr, opts ...FieldOption) *Builder[C] {
	ctx := querytree.NewParameterOf[C]("ctx")
	b.add(name, querytree.NewLambda(declare(ctx), ctx), true, opts)
	return b
}

// FieldWithArgs declares a single-result field taking arguments of type A.
// The example value exists only so A can be inferred at the call site; its
// contents are never read.
func FieldWithArgs[C, A any](b *Builder[C], name string, example A, declare func(ctx, args querytree.Expr) querytree.Expr, opts ...FieldOption) *Builder[C] {
	_ = example
	ctx := querytree.NewParameterOf[C]("ctx")
	args := querytree.NewParameterOf[A]("args")
	b.add(name, querytree.NewLambda(declare(ctx, args), ctx, args), false, opts)
	return b
}

// ListFieldWithArgs declares a sequence-result field taking arguments of
// type A. As with FieldWithArgs, the example value is for type inference
// only.
func ListFieldWithArgs[C, A any](b *Builder[C], name string, example A, declare func(ctx, args querytree.Expr) querytree.Expr, opts ...FieldOption) *Builder[C] {
	_ = example
	ctx := querytree.NewParameterOf[C]("ctx")
	args := querytree.NewParameterOf[A]("args")
	b.add(name, querytree.NewLambda(declare(ctx, args), ctx, args), true, opts)
	return b
}

// Enum declares the named string type E as a GraphQL enum with the given
// values. Declare enums before the first field that maps E, otherwise the
// type has already been mapped as a String scalar.
func Enum[C any, E ~string](b *Builder[C], description string, values ...E) *Builder[C] {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	if err := b.types.RegisterEnum(reflect.TypeOf((*E)(nil)).Elem(), names, description); err != nil {
		b.registry.Report(&schema.Violation{Message: err.Error()})
	}
	return b
}

// Complete finalizes the schema. Every problem found while declaring fields
// is reported together; a schema with any violation is never returned
// partially built.
func (b *Builder[C]) Complete() (*Schema, error) {
	return b.registry.Complete()
}

// add compiles one declaration and registers it through the registry's two
// registration points. Compilation failures become violations attributed to
// the field and surface from Complete.
func (b *Builder[C]) add(name string, declared *querytree.Lambda, list bool, opts []FieldOption) {
	var set fieldSettings
	for _, o := range opts {
		o(&set)
	}

	compile := fieldcompile.CompileField
	if list {
		compile = fieldcompile.CompileListField
	}
	compiled, err := compile(declared)
	if err != nil {
		b.registry.Report(&schema.Violation{Message: err.Error(), Field: name})
		return
	}

	d := &schema.FieldDescriptor{
		Name:        name,
		Description: set.description,
		Kind:        compiled.Kind,
		Query:       compiled.Query,
		Mutation:    set.mutation,
	}
	if compiled.Kind.IsSequence() {
		b.registry.AddFieldInternal(d)
	} else {
		b.registry.AddUnmodifiedFieldInternal(d)
	}
}
