package executor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	schema "github.com/benhysell/graphql-net/internal/schema"
)

var timeType = reflect.TypeOf((*time.Time)(nil)).Elem()

// buildArgumentsValue shapes the coerced argument map into the declaration's
// args struct. Argument definitions carry the Go field they map onto; when
// that lookup misses, names match case-insensitively. Omitted and null
// arguments leave the struct's zero value in place.
func buildArgumentsValue(s *schema.Schema, argsType reflect.Type, argDefs []*schema.InputValue, values map[string]any) (any, error) {
	if argsType == nil {
		return nil, nil
	}
	elem := argsType
	isPtr := elem.Kind() == reflect.Pointer
	if isPtr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("arguments type %s is not a struct", argsType)
	}

	v := reflect.New(elem).Elem()
	if err := fillStruct(s, v, argDefs, values); err != nil {
		return nil, err
	}
	if isPtr {
		pv := reflect.New(elem)
		pv.Elem().Set(v)
		return pv.Interface(), nil
	}
	return v.Interface(), nil
}

func fillStruct(s *schema.Schema, v reflect.Value, defs []*schema.InputValue, values map[string]any) error {
	for _, def := range defs {
		raw, ok := values[def.Name]
		if !ok || raw == nil {
			continue
		}
		fv := fieldForInput(v, def)
		if !fv.IsValid() {
			continue
		}
		if err := assignArgument(s, fv, def.Type, raw); err != nil {
			return fmt.Errorf("argument '%s': %w", def.Name, err)
		}
	}
	return nil
}

func fieldForInput(v reflect.Value, def *schema.InputValue) reflect.Value {
	if def.GoField != "" {
		if fv := v.FieldByName(def.GoField); fv.IsValid() {
			return fv
		}
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Name, def.Name) {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

// assignArgument writes one coerced GraphQL value into a Go struct field,
// recursing through pointers, lists and input objects.
func assignArgument(s *schema.Schema, target reflect.Value, ref *schema.TypeRef, raw any) error {
	if ref != nil && ref.IsNonNull() {
		ref = ref.Unwrap()
	}

	if target.Kind() == reflect.Pointer {
		p := reflect.New(target.Type().Elem())
		if err := assignArgument(s, p.Elem(), ref, raw); err != nil {
			return err
		}
		target.Set(p)
		return nil
	}

	if target.Type() == timeType {
		switch v := raw.(type) {
		case time.Time:
			target.Set(reflect.ValueOf(v))
			return nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return fmt.Errorf("invalid DateTime %q: %v", v, err)
			}
			target.Set(reflect.ValueOf(t))
			return nil
		}
		return fmt.Errorf("cannot use %T as DateTime", raw)
	}

	if target.Kind() == reflect.Slice {
		items, ok := raw.([]any)
		if !ok {
			items = []any{raw}
		}
		var elemRef *schema.TypeRef
		if ref != nil && ref.IsList() {
			elemRef = ref.Unwrap()
		}
		out := reflect.MakeSlice(target.Type(), len(items), len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			if err := assignArgument(s, out.Index(i), elemRef, item); err != nil {
				return err
			}
		}
		target.Set(out)
		return nil
	}

	if target.Kind() == reflect.Struct {
		fields, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot use %T as input object %s", raw, target.Type())
		}
		if ref != nil {
			if t := s.Types[ref.GetNamedType()]; t != nil && t.Kind == schema.TypeKindInputObject {
				return fillStruct(s, target, t.InputFields, fields)
			}
		}
		return fmt.Errorf("no input object type for %s", target.Type())
	}

	return setScalar(s, target, ref, raw)
}

func setScalar(s *schema.Schema, target reflect.Value, ref *schema.TypeRef, raw any) error {
	rv := reflect.ValueOf(raw)
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case int:
			target.SetInt(int64(v))
		case int64:
			target.SetInt(v)
		case float64:
			target.SetInt(int64(v))
		case string:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("cannot use %q as %s", v, target.Type())
			}
			target.SetInt(i)
		default:
			return fmt.Errorf("cannot use %T as %s", raw, target.Type())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch v := raw.(type) {
		case int:
			target.SetUint(uint64(v))
		case int64:
			target.SetUint(uint64(v))
		case float64:
			target.SetUint(uint64(v))
		default:
			return fmt.Errorf("cannot use %T as %s", raw, target.Type())
		}
	case reflect.Float32, reflect.Float64:
		switch v := raw.(type) {
		case float64:
			target.SetFloat(v)
		case int:
			target.SetFloat(float64(v))
		case int64:
			target.SetFloat(float64(v))
		default:
			return fmt.Errorf("cannot use %T as %s", raw, target.Type())
		}
	case reflect.String:
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", raw, target.Type())
		}
		if ref != nil {
			if t := s.Types[ref.GetNamedType()]; t != nil && t.Kind == schema.TypeKindEnum && !validEnumValue(t, v) {
				return fmt.Errorf("invalid value %q for enum %s", v, t.Name)
			}
		}
		target.SetString(v)
	case reflect.Bool:
		v, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", raw, target.Type())
		}
		target.SetBool(v)
	default:
		if rv.IsValid() && rv.Type().AssignableTo(target.Type()) {
			target.Set(rv)
			return nil
		}
		return fmt.Errorf("cannot use %T as %s", raw, target.Type())
	}
	return nil
}

func validEnumValue(t *schema.Type, v string) bool {
	for _, ev := range t.EnumValues {
		if ev.Name == v {
			return true
		}
	}
	return false
}
