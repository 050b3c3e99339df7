package schema

import (
	"context"
	"reflect"
	"regexp"

	"github.com/benhysell/graphql-net/internal/fieldcompile"
)

// MutationFunc is the side-effect callback attached to a mutation field. The
// engine runs it with the live data context and the coerced argument value
// before executing the field's query.
type MutationFunc func(ctx context.Context, data any, args any) error

// ResolverFunc resolves a field value directly from its source value. Meta
// fields such as introspection use it instead of a compiled query.
type ResolverFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// Resolver carries the recipe for producing one field's value at request
// time: a compiled query plus its resolution kind (root fields), a Go struct
// field to read off the parent value (nested fields), or a direct function
// (meta fields).
type Resolver struct {
	Kind     fieldcompile.ResolutionKind
	Query    *fieldcompile.CompiledQuery
	Mutation MutationFunc
	Source   string
	Func     ResolverFunc
}

// FieldDescriptor is the unit one field declaration hands to the registry.
type FieldDescriptor struct {
	Name        string
	Description string
	Kind        fieldcompile.ResolutionKind
	Query       *fieldcompile.CompiledQuery
	Mutation    MutationFunc
}

// TypeMapper derives GraphQL type references from Go types, creating named
// types in the target schema as it discovers them.
type TypeMapper interface {
	// RefFor maps a Go type in output position. Non-pointer types map to
	// Non-Null references, pointers to nullable ones, slices to lists.
	RefFor(t reflect.Type) (*TypeRef, error)
	// ArgumentsFor maps an argument struct's fields to field arguments.
	ArgumentsFor(t reflect.Type) ([]*InputValue, error)
}

// New returns an empty schema holding the builtin scalar types and
// directives, with a bare Query root.
func New() *Schema {
	s := &Schema{
		QueryType:  "Query",
		Types:      make(map[string]*Type),
		Directives: make(map[string]*Directive),
	}
	for _, t := range builtinScalars {
		s.Types[t.Name] = t
	}
	s.Directives[includeDirective.Name] = includeDirective
	s.Directives[skipDirective.Name] = skipDirective
	s.Types[s.QueryType] = &Type{Name: s.QueryType, Kind: TypeKindObject}
	return s
}

// Builder is the schema registry: field declarations register themselves
// through AddFieldInternal and AddUnmodifiedFieldInternal, problems
// accumulate as violations, and Complete reports them all at once.
type Builder struct {
	schema      *Schema
	types       TypeMapper
	contextType reflect.Type
	violations  []*Violation
}

func NewBuilder(s *Schema, types TypeMapper) *Builder {
	return &Builder{schema: s, types: types}
}

// Report records a violation found outside the registry itself, such as a
// declaration the field compiler rejected.
func (b *Builder) Report(v *Violation) { b.violations = append(b.violations, v) }

// AddFieldInternal registers a sequence-resolution field: the compiled query
// fetches a sequence and the resolution kind reduces it per request. The
// GraphQL field type derives from the sequence's element type, widened to a
// list for ToList and made nullable for FirstOrDefault.
func (b *Builder) AddFieldInternal(d *FieldDescriptor) *Field {
	root := b.rootFor(d)
	if !d.Kind.IsSequence() {
		b.Report(fieldViolation(root, d.Name, "resolution kind %s requires AddUnmodifiedFieldInternal", d.Kind))
		return nil
	}
	rt := d.Query.ResultType()
	if rt.Kind() != reflect.Slice {
		b.Report(fieldViolation(root, d.Name, "%s field requires a sequence-typed compiled query, got %s", d.Kind, rt))
		return nil
	}
	ref, err := b.types.RefFor(rt.Elem())
	if err != nil {
		b.Report(fieldViolation(root, d.Name, "%s", err))
		return nil
	}
	switch d.Kind {
	case fieldcompile.ToList:
		ref = NonNullType(ListType(ref))
	case fieldcompile.FirstOrDefault:
		ref = Nullable(ref)
	}
	return b.addField(root, d, ref)
}

// AddUnmodifiedFieldInternal registers a scalar-resolution field: the
// compiled query's result is returned as is, so the GraphQL field type
// derives directly from the query's result type.
func (b *Builder) AddUnmodifiedFieldInternal(d *FieldDescriptor) *Field {
	root := b.rootFor(d)
	if d.Kind != fieldcompile.Unmodified {
		b.Report(fieldViolation(root, d.Name, "resolution kind %s requires AddFieldInternal", d.Kind))
		return nil
	}
	ref, err := b.types.RefFor(d.Query.ResultType())
	if err != nil {
		b.Report(fieldViolation(root, d.Name, "%s", err))
		return nil
	}
	return b.addField(root, d, ref)
}

// Complete finalizes the schema. Any accumulated violation fails the whole
// build; there is no partial registration.
func (b *Builder) Complete() (*Schema, error) {
	if len(b.schema.GetQueryType().Fields) == 0 && len(b.violations) == 0 {
		b.violations = append(b.violations, &Violation{Message: "schema declares no query fields", Type: b.schema.QueryType})
	}
	if len(b.violations) > 0 {
		return nil, ValidationError(b.violations)
	}
	return b.schema, nil
}

var fieldNameRE = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

func (b *Builder) addField(root string, d *FieldDescriptor, ref *TypeRef) *Field {
	if !fieldNameRE.MatchString(d.Name) {
		b.Report(fieldViolation(root, d.Name, "invalid field name %q", d.Name))
		return nil
	}
	if ct := d.Query.ContextType(); b.contextType == nil {
		b.contextType = ct
	} else if ct != b.contextType {
		b.Report(fieldViolation(root, d.Name, "query context is %s, schema context is %s", ct, b.contextType))
		return nil
	}

	var args []*InputValue
	if at := d.Query.ArgsType(); at != nil {
		var err error
		args, err = b.types.ArgumentsFor(at)
		if err != nil {
			b.Report(fieldViolation(root, d.Name, "%s", err))
			return nil
		}
	}

	parent := b.ensureRoot(root)
	if parent.Field(d.Name) != nil {
		b.Report(fieldViolation(root, d.Name, "field %q already declared", d.Name))
		return nil
	}
	f := &Field{
		Name:        d.Name,
		Description: d.Description,
		Type:        ref,
		Arguments:   args,
		Resolver:    &Resolver{Kind: d.Kind, Query: d.Query, Mutation: d.Mutation},
	}
	parent.Fields = append(parent.Fields, f)
	return f
}

// rootFor places mutation-carrying fields on the Mutation root and everything
// else on the Query root.
func (b *Builder) rootFor(d *FieldDescriptor) string {
	if d.Mutation != nil {
		return "Mutation"
	}
	return b.schema.QueryType
}

func (b *Builder) ensureRoot(name string) *Type {
	if t, ok := b.schema.Types[name]; ok {
		return t
	}
	t := &Type{Name: name, Kind: TypeKindObject}
	b.schema.Types[name] = t
	if name == "Mutation" {
		b.schema.MutationType = name
	}
	return t
}
