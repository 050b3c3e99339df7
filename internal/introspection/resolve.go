// Package introspection extends a schema with the GraphQL meta types and the
// __schema and __type entry points. Meta fields resolve through direct
// resolver functions over the schema's own model objects, so the regular
// execution path serves introspection queries without special cases.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	schema "github.com/benhysell/graphql-net/internal/schema"
)

// Extend returns a copy of original with the introspection types installed
// and __schema plus __type appended to the query root. Introspection answers
// describe original: the meta types themselves stay out of the reported type
// list, matching what clients expect. The original schema is not modified.
func Extend(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:    original.QueryType,
		MutationType: original.MutationType,
		Types:        make(map[string]*schema.Type, len(original.Types)+8),
		Directives:   original.Directives,
		Description:  original.Description,
	}
	for name, t := range original.Types {
		extended.Types[name] = t
	}

	for _, t := range []*schema.Type{
		schemaType(), typeType(), fieldType(),
		inputValueType(), enumValueType(), directiveType(),
	} {
		attachResolvers(original, t)
		extended.Types[t.Name] = t
	}
	extended.Types["__TypeKind"] = typeKindEnum()
	extended.Types["__DirectiveLocation"] = directiveLocationEnum()

	queryType := extended.GetQueryType()
	if queryType == nil {
		return extended
	}
	rootCopy := &schema.Type{
		Name:        queryType.Name,
		Kind:        queryType.Kind,
		Description: queryType.Description,
		GoType:      queryType.GoType,
		Fields:      make([]*schema.Field, len(queryType.Fields), len(queryType.Fields)+2),
	}
	copy(rootCopy.Fields, queryType.Fields)
	rootCopy.Fields = append(rootCopy.Fields,
		&schema.Field{
			Name:        "__schema",
			Description: "Access the current type schema of this server.",
			Type:        schema.NonNullType(schema.NamedType("__Schema")),
			Resolver: &schema.Resolver{Func: func(ctx context.Context, source any, args map[string]any) (any, error) {
				return original, nil
			}},
		},
		&schema.Field{
			Name:        "__type",
			Description: "Request the type information of a single type.",
			Arguments: []*schema.InputValue{{
				Name:        "name",
				Description: "The name of the type to look up.",
				Type:        schema.NonNullType(schema.NamedType("String")),
			}},
			Type: schema.NamedType("__Type"),
			Resolver: &schema.Resolver{Func: func(ctx context.Context, source any, args map[string]any) (any, error) {
				name, _ := args["name"].(string)
				if t := original.Types[name]; t != nil {
					return t, nil
				}
				return nil, nil
			}},
		},
	)
	extended.Types[extended.QueryType] = rootCopy
	return extended
}

// attachResolvers wires every field of a meta object type to the shared
// dispatch over schema model values.
func attachResolvers(s *schema.Schema, t *schema.Type) {
	for _, f := range t.Fields {
		name := f.Name
		f.Resolver = &schema.Resolver{Func: func(ctx context.Context, source any, args map[string]any) (any, error) {
			return resolveMetaField(s, name, source, args)
		}}
	}
}

func resolveMetaField(s *schema.Schema, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		return resolveSchemaField(src, field)
	case *schema.Type:
		return resolveTypeField(src, field, args)
	case *schema.TypeRef:
		return resolveTypeRefField(s, src, field, args)
	case *schema.Field:
		return resolveFieldField(src, field, args)
	case *schema.InputValue:
		return resolveInputValueField(src, field)
	case *schema.EnumValue:
		return resolveEnumValueField(src, field)
	case *schema.Directive:
		return resolveDirectiveField(src, field)
	}
	return nil, fmt.Errorf("cannot resolve meta field %q on %T", field, source)
}

func resolveSchemaField(sch *schema.Schema, field string) (any, error) {
	switch field {
	case "types":
		return sortedTypes(sch), nil
	case "queryType":
		return sch.GetQueryType(), nil
	case "mutationType":
		return sch.GetMutationType(), nil
	case "subscriptionType":
		return nil, nil
	case "directives":
		return sortedDirectives(sch), nil
	case "description":
		return descriptionOrNil(sch.Description), nil
	}
	return nil, fmt.Errorf("unknown __Schema field %q", field)
}

func resolveTypeField(t *schema.Type, field string, args map[string]any) (any, error) {
	switch field {
	case "kind":
		return string(t.Kind), nil
	case "name":
		return t.Name, nil
	case "description":
		return descriptionOrNil(t.Description), nil
	case "fields":
		return typeFields(t, args), nil
	case "interfaces":
		// Interfaces are not modeled; object types report none.
		if t.Kind == schema.TypeKindObject {
			return []*schema.Type{}, nil
		}
		return nil, nil
	case "possibleTypes":
		return nil, nil
	case "enumValues":
		return typeEnumValues(t, args), nil
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return t.InputFields, nil
	case "ofType":
		// Wrapper kinds surface through TypeRef nodes; named types have none.
		return nil, nil
	case "specifiedByURL":
		return nil, nil
	case "isOneOf":
		if t.Kind == schema.TypeKindInputObject {
			return false, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown __Type field %q", field)
}

// resolveTypeRefField answers __Type fields for a type reference. Wrapper
// references (LIST, NON_NULL) answer kind, name and ofType themselves; a
// named reference delegates to its type definition.
func resolveTypeRefField(s *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, error) {
	wrapper := tr.Kind == schema.TypeRefKindList || tr.Kind == schema.TypeRefKindNonNull
	switch field {
	case "kind":
		if wrapper {
			return string(tr.Kind), nil
		}
	case "name":
		if wrapper {
			return nil, nil
		}
		return tr.Named, nil
	case "ofType":
		if wrapper {
			return tr.OfType, nil
		}
		return nil, nil
	}
	if wrapper {
		return nil, nil
	}
	def := s.Types[tr.Named]
	if def == nil {
		return nil, fmt.Errorf("unknown type %q", tr.Named)
	}
	return resolveTypeField(def, field, args)
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, error) {
	switch field {
	case "name":
		return f.Name, nil
	case "description":
		return descriptionOrNil(f.Description), nil
	case "args":
		if f.Arguments == nil {
			return []*schema.InputValue{}, nil
		}
		return f.Arguments, nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		if f.IsDeprecated && f.DeprecationReason != "" {
			return f.DeprecationReason, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown __Field field %q", field)
}

func resolveInputValueField(a *schema.InputValue, field string) (any, error) {
	switch field {
	case "name":
		return a.Name, nil
	case "description":
		return descriptionOrNil(a.Description), nil
	case "type":
		return a.Type, nil
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, nil
		}
		return formatDefaultValue(a.DefaultValue), nil
	case "isDeprecated":
		return false, nil
	case "deprecationReason":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown __InputValue field %q", field)
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, error) {
	switch field {
	case "name":
		return ev.Name, nil
	case "description":
		return descriptionOrNil(ev.Description), nil
	case "isDeprecated":
		return ev.IsDeprecated, nil
	case "deprecationReason":
		if ev.IsDeprecated && ev.DeprecationReason != "" {
			return ev.DeprecationReason, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown __EnumValue field %q", field)
}

func resolveDirectiveField(d *schema.Directive, field string) (any, error) {
	switch field {
	case "name":
		return d.Name, nil
	case "description":
		return descriptionOrNil(d.Description), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	case "locations":
		return d.Locations, nil
	case "args":
		if d.Arguments == nil {
			return []*schema.InputValue{}, nil
		}
		return d.Arguments, nil
	}
	return nil, fmt.Errorf("unknown __Directive field %q", field)
}

func sortedTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedDirectives(sch *schema.Schema) []*schema.Directive {
	out := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// typeFields lists an object type's fields in declaration order, hiding
// deprecated ones unless asked for.
func typeFields(t *schema.Type, args map[string]any) []*schema.Field {
	if t.Kind != schema.TypeKindObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := make([]*schema.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func typeEnumValues(t *schema.Type, args map[string]any) []*schema.EnumValue {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := make([]*schema.EnumValue, 0, len(t.EnumValues))
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// formatDefaultValue renders a default as a GraphQL literal string.
func formatDefaultValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}

func descriptionOrNil(desc string) any {
	if desc == "" {
		return nil
	}
	return desc
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
