// Package typemap derives GraphQL schema types from Go types by reflection.
//
// Structs map to object types, their exported fields to source-resolved
// GraphQL fields named in lowerCamelCase. Pointers express nullability,
// slices become lists, and scalar kinds map onto the builtin scalars. A
// `graphql` struct tag overrides the derived name ("-" skips the field, the
// "id" option maps an Int or String field onto the ID scalar).
package typemap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/benhysell/graphql-net/internal/fieldcompile"
	"github.com/benhysell/graphql-net/internal/schema"
)

// Mapper creates named types in one target schema as it discovers them.
// It is not safe for concurrent use; all mapping happens during schema
// construction.
type Mapper struct {
	schema  *schema.Schema
	objects map[reflect.Type]*schema.Type
	inputs  map[reflect.Type]*schema.Type
	enums   map[reflect.Type]*schema.Type
}

// NewMapper returns a mapper targeting s.
func NewMapper(s *schema.Schema) *Mapper {
	return &Mapper{
		schema:  s,
		objects: make(map[reflect.Type]*schema.Type),
		inputs:  make(map[reflect.Type]*schema.Type),
		enums:   make(map[reflect.Type]*schema.Type),
	}
}

var timeType = reflect.TypeOf((*time.Time)(nil)).Elem()

// RefFor maps a Go type in output position. Non-pointer types produce
// Non-Null references; a pointer strips the Non-Null wrapper from its
// element's reference.
func (m *Mapper) RefFor(t reflect.Type) (*schema.TypeRef, error) {
	switch {
	case t.Kind() == reflect.Pointer:
		inner, err := m.RefFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return schema.Nullable(inner), nil

	case t.Kind() == reflect.Slice:
		elem, err := m.RefFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.ListType(elem)), nil

	case t == timeType:
		return schema.NonNullType(schema.NamedType("DateTime")), nil

	case t.Kind() == reflect.Struct:
		obj, err := m.object(t)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(schema.NamedType(obj.Name)), nil

	default:
		if enum, ok := m.enums[t]; ok {
			return schema.NonNullType(schema.NamedType(enum.Name)), nil
		}
		name, ok := scalarName(t.Kind())
		if !ok {
			return nil, fmt.Errorf("cannot map Go type %s to a GraphQL type", t)
		}
		return schema.NonNullType(schema.NamedType(name)), nil
	}
}

// ArgumentsFor maps the exported fields of an argument struct to field
// arguments. Arguments are always nullable: an omitted argument coerces to
// the Go zero value.
func (m *Mapper) ArgumentsFor(t reflect.Type) ([]*schema.InputValue, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type must be a struct, got %s", t)
	}
	return m.inputValues(t)
}

// RegisterEnum declares a named Go string type as a GraphQL enum. Call it
// before any field declaration maps the type, otherwise the type has already
// been mapped as a String scalar.
func (m *Mapper) RegisterEnum(t reflect.Type, values []string, description string) error {
	if t.Kind() != reflect.String || t.Name() == "" || t == reflect.TypeOf((*string)(nil)).Elem() {
		return fmt.Errorf("enum type must be a named string type, got %s", t)
	}
	if _, ok := m.enums[t]; ok {
		return fmt.Errorf("enum %s already registered", t)
	}
	name, err := m.claimName(t.Name(), t)
	if err != nil {
		return err
	}
	enum := &schema.Type{Name: name, Kind: schema.TypeKindEnum, GoType: t}
	for _, v := range values {
		enum.EnumValues = append(enum.EnumValues, &schema.EnumValue{Name: v})
	}
	enum.Description = description
	m.enums[t] = enum
	m.schema.Types[name] = enum
	return nil
}

// object returns the object type for a struct, creating it on first use.
// The type is registered before its fields are walked so self-referencing
// structs terminate.
func (m *Mapper) object(t reflect.Type) (*schema.Type, error) {
	if obj, ok := m.objects[t]; ok {
		return obj, nil
	}
	if t.Name() == "" {
		return nil, fmt.Errorf("cannot map anonymous struct type %s; declare a named type", t)
	}
	name, err := m.claimName(t.Name(), t)
	if err != nil {
		return nil, err
	}
	obj := &schema.Type{Name: name, Kind: schema.TypeKindObject, GoType: t}
	m.objects[t] = obj
	m.schema.Types[name] = obj

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fieldName, isID, ok := fieldInfo(sf)
		if !ok {
			continue
		}
		ref, err := m.RefFor(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
		}
		if isID {
			ref, err = asID(ref)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
			}
		}
		obj.Fields = append(obj.Fields, &schema.Field{
			Name:     fieldName,
			Type:     ref,
			Resolver: &schema.Resolver{Kind: fieldcompile.Unmodified, Source: sf.Name},
		})
	}
	return obj, nil
}

// input returns the input-object type for a struct used in input position.
func (m *Mapper) input(t reflect.Type) (*schema.Type, error) {
	if in, ok := m.inputs[t]; ok {
		return in, nil
	}
	if t.Name() == "" {
		return nil, fmt.Errorf("cannot map anonymous struct type %s; declare a named type", t)
	}
	name := t.Name()
	if _, taken := m.schema.Types[name]; taken {
		name += "Input"
	}
	name, err := m.claimName(name, t)
	if err != nil {
		return nil, err
	}
	in := &schema.Type{Name: name, Kind: schema.TypeKindInputObject, GoType: t}
	m.inputs[t] = in
	m.schema.Types[name] = in

	values, err := m.inputValues(t)
	if err != nil {
		return nil, err
	}
	in.InputFields = values
	return in, nil
}

func (m *Mapper) inputValues(t reflect.Type) ([]*schema.InputValue, error) {
	var values []*schema.InputValue
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fieldName, isID, ok := fieldInfo(sf)
		if !ok {
			continue
		}
		ref, err := m.inputRef(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
		}
		if isID {
			ref, err = asID(ref)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
			}
		}
		values = append(values, &schema.InputValue{
			Name:    fieldName,
			Type:    ref,
			GoField: sf.Name,
		})
	}
	return values, nil
}

// inputRef maps a Go type in input position. Input references are nullable
// throughout; structs map to input-object types.
func (m *Mapper) inputRef(t reflect.Type) (*schema.TypeRef, error) {
	switch {
	case t.Kind() == reflect.Pointer:
		return m.inputRef(t.Elem())

	case t.Kind() == reflect.Slice:
		elem, err := m.inputRef(t.Elem())
		if err != nil {
			return nil, err
		}
		return schema.ListType(elem), nil

	case t == timeType:
		return schema.NamedType("DateTime"), nil

	case t.Kind() == reflect.Struct:
		in, err := m.input(t)
		if err != nil {
			return nil, err
		}
		return schema.NamedType(in.Name), nil

	default:
		if enum, ok := m.enums[t]; ok {
			return schema.NamedType(enum.Name), nil
		}
		name, ok := scalarName(t.Kind())
		if !ok {
			return nil, fmt.Errorf("cannot map Go type %s to a GraphQL input type", t)
		}
		return schema.NamedType(name), nil
	}
}

// claimName reserves a type name, rejecting collisions between distinct Go
// types.
func (m *Mapper) claimName(name string, t reflect.Type) (string, error) {
	if existing, ok := m.schema.Types[name]; ok {
		return "", fmt.Errorf("type name %q already taken by %s (mapping %s)", name, describeGoType(existing), t)
	}
	return name, nil
}

func describeGoType(t *schema.Type) string {
	if t.GoType != nil {
		return t.GoType.String()
	}
	return string(t.Kind) + " " + t.Name
}

func asID(ref *schema.TypeRef) (*schema.TypeRef, error) {
	named := ref.GetNamedType()
	if named != "Int" && named != "String" {
		return nil, fmt.Errorf("id option requires an Int or String field, got %s", named)
	}
	return replaceNamed(ref, "ID"), nil
}

func replaceNamed(ref *schema.TypeRef, name string) *schema.TypeRef {
	if ref.Kind == schema.TypeRefKindNamed {
		return schema.NamedType(name)
	}
	return &schema.TypeRef{Kind: ref.Kind, OfType: replaceNamed(ref.OfType, name)}
}

func scalarName(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.Bool:
		return "Boolean", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Int", true
	case reflect.Float32, reflect.Float64:
		return "Float", true
	case reflect.String:
		return "String", true
	default:
		return "", false
	}
}
