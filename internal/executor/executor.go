package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	fieldcompile "github.com/benhysell/graphql-net/internal/fieldcompile"
	language "github.com/benhysell/graphql-net/internal/language"
	schema "github.com/benhysell/graphql-net/internal/schema"
	querytree "github.com/benhysell/graphql-net/querytree"
)

// executionState holds the state during one request execution
type executionState struct {
	provider       Provider
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	root           any
	errors         []GraphQLError
}

type Executor struct {
	provider Provider
	schema   *schema.Schema
}

func NewExecutor(provider Provider, schema *schema.Schema) *Executor {
	return &Executor{provider: provider, schema: schema}
}

// ExecuteRequest runs one parsed GraphQL document against the schema. root
// is the live data context compiled field queries execute over; it is also
// the source value for the root selection set.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	root any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		provider:       e.provider,
		schema:         e.schema,
		document:       document,
		variableValues: coercedVariableValues,
		context:        ctx,
		root:           root,
		errors:         []GraphQLError{},
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, root, Path{})
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet resolves a selection set against one source value,
// field by field in query order.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		fieldResult := executeFieldGroup(state, objectType, objectValue, fields, fieldPath)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = fieldResult
			continue
		}

		fieldDef := objectType.Field(fields[0].Name)
		if fieldDef == nil {
			// Unknown field; the error was recorded in executeFieldGroup
			continue
		}

		if fieldDef.Type.IsNonNull() && isNullish(fieldResult) {
			if len(path) > 0 {
				return nil
			}
			// Root level: keep going but write nil
			resultMap[responseName] = nil
			continue
		}

		// For nullable fields, coerce typed-nil to interface-nil
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	fieldName := field.Name

	if fieldName == "__typename" {
		return objectType.Name
	}

	fieldDef := objectType.Field(fieldName)
	if fieldDef == nil {
		state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fieldName, objectType.Name), path)
		return nil
	}

	argumentValues := coerceArgumentValues(fieldDef, field.Arguments, state.variableValues, state, path)
	resolvedValue := resolveField(state, objectType, fieldDef, objectValue, argumentValues, path)
	return completeValue(state, fieldDef.Type, fields, resolvedValue, path)
}

// resolveField produces the raw field value before completion. Errors are
// recorded as located field errors and surface as a nil value.
func resolveField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, source any, args map[string]any, path Path) any {
	r := fieldDef.Resolver
	if r == nil {
		state.addError(fmt.Sprintf("no resolver for field '%s' on type '%s'", fieldDef.Name, objectType.Name), path)
		return nil
	}

	var value any
	var err error
	switch {
	case r.Func != nil:
		value, err = r.Func(state.context, source, args)
	case r.Query != nil:
		value, err = resolveCompiledField(state, fieldDef, r, args)
	case r.Source != "":
		value, err = resolveSourceField(r.Source, source)
	default:
		err = fmt.Errorf("field '%s' on type '%s' has an empty resolver", fieldDef.Name, objectType.Name)
	}
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	return value
}

// resolveCompiledField runs a declared root field: coerce the argument map
// into the declaration's args struct, fire the mutation callback if one is
// attached, specialize the compiled query and hand it to the provider, then
// reduce the result per the field's resolution kind.
func resolveCompiledField(state *executionState, fieldDef *schema.Field, r *schema.Resolver, args map[string]any) (any, error) {
	argsValue, err := buildArgumentsValue(state.schema, r.Query.ArgsType(), fieldDef.Arguments, args)
	if err != nil {
		return nil, err
	}
	if r.Mutation != nil {
		if err := r.Mutation(state.context, state.root, argsValue); err != nil {
			return nil, err
		}
	}
	raw, err := state.provider.Query(state.context, state.root, r.Query.Invoke(argsValue))
	if err != nil {
		return nil, err
	}
	return applyResolutionKind(r.Kind, raw, fieldDef.Name)
}

// applyResolutionKind reduces the provider's result: sequences collapse to
// their first element for First and FirstOrDefault, pass through for ToList,
// and Unmodified results are returned as evaluated.
func applyResolutionKind(kind fieldcompile.ResolutionKind, raw any, fieldName string) (any, error) {
	switch kind {
	case fieldcompile.Unmodified, fieldcompile.ToList:
		return raw, nil
	case fieldcompile.First, fieldcompile.FirstOrDefault:
		if raw == nil {
			return nil, fmt.Errorf("field '%s' needs a sequence to reduce, got nil", fieldName)
		}
		seq := reflect.ValueOf(raw)
		if seq.Kind() != reflect.Slice {
			return nil, fmt.Errorf("field '%s' needs a sequence to reduce, got %T", fieldName, raw)
		}
		if seq.Len() == 0 {
			if kind == fieldcompile.First {
				return nil, fmt.Errorf("field '%s': %w", fieldName, querytree.ErrEmptySequence)
			}
			return nil, nil
		}
		return seq.Index(0).Interface(), nil
	default:
		return nil, fmt.Errorf("unknown resolution kind %q", kind)
	}
}

// resolveSourceField reads a struct field off the parent value.
func resolveSourceField(name string, source any) (any, error) {
	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot read field %s from %T", name, source)
	}
	fv := rv.FieldByName(name)
	if !fv.IsValid() {
		return nil, fmt.Errorf("type %s has no field %s", rv.Type(), name)
	}
	return fv.Interface(), nil
}

// completeValue completes a value per the GraphQL spec
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if fieldType.IsNonNull() {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		completed := completeValue(state, fieldType.Unwrap(), fields, result, path)
		if isNullish(completed) {
			// Error already recorded at original path; propagate only
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if fieldType.IsList() {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := fieldType.GetNamedType()
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := serializeLeaf(typeObj, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

// completeListValue completes a list value element by element
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := listType.Unwrap()
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		v := completeValue(state, inner, fields, item, p)
		if inner.IsNonNull() && isNullish(v) {
			// Propagate null to the list field; error already recorded by inner completion
			return nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) any {
	sub := mergeSelectionSets(fields)
	return executeSelectionSet(state, objectType, sub, result, path)
}

// serializeLeaf turns a scalar or enum value into a JSON-safe Go value.
// Named Go types serialize through their underlying kind, DateTime values
// render as RFC 3339 strings, and ID values always render as strings.
func serializeLeaf(typeObj *schema.Type, value any) (any, error) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	if typeObj.Kind == schema.TypeKindEnum {
		if rv.Kind() != reflect.String {
			return nil, fmt.Errorf("cannot serialize %T as enum %s", value, typeObj.Name)
		}
		return rv.String(), nil
	}

	switch typeObj.Name {
	case "Int":
		if isIntValue(rv) {
			return int(rv.Int()), nil
		}
		if isUintValue(rv) {
			return int(rv.Uint()), nil
		}
	case "Float":
		switch {
		case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
			return rv.Float(), nil
		case isIntValue(rv):
			return float64(rv.Int()), nil
		case isUintValue(rv):
			return float64(rv.Uint()), nil
		}
	case "String":
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case "Boolean":
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	case "ID":
		switch {
		case rv.Kind() == reflect.String:
			return rv.String(), nil
		case isIntValue(rv):
			return strconv.FormatInt(rv.Int(), 10), nil
		case isUintValue(rv):
			return strconv.FormatUint(rv.Uint(), 10), nil
		}
	case "DateTime":
		if t, ok := rv.Interface().(time.Time); ok {
			return t.Format(time.RFC3339Nano), nil
		}
	default:
		// Custom scalars pass through as-is
		return rv.Interface(), nil
	}
	return nil, fmt.Errorf("cannot serialize %T as %s", value, typeObj.Name)
}

func isIntValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		for _, op := range document.Operations {
			return op
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

func (state *executionState) addError(message string, path Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
