package executor

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/benhysell/graphql-net/internal/schema"
)

func TestCoerceValueScalars(t *testing.T) {
	t.Run("Int accepts numbers and numeric strings", func(t *testing.T) {
		ref := schema.NamedType("Int")
		for _, in := range []any{7, 7.0, "7"} {
			got, err := coerceValue(in, ref)
			require.NoError(t, err)
			require.Equal(t, 7, got)
		}
		_, err := coerceValue("seven", ref)
		require.Error(t, err)
	})

	t.Run("Float widens ints", func(t *testing.T) {
		got, err := coerceValue(3, schema.NamedType("Float"))
		require.NoError(t, err)
		require.Equal(t, 3.0, got)
	})

	t.Run("Boolean is strict", func(t *testing.T) {
		got, err := coerceValue(true, schema.NamedType("Boolean"))
		require.NoError(t, err)
		require.Equal(t, true, got)
		_, err = coerceValue(1, schema.NamedType("Boolean"))
		require.Error(t, err)
	})

	t.Run("ID renders numbers as strings", func(t *testing.T) {
		got, err := coerceValue(42, schema.NamedType("ID"))
		require.NoError(t, err)
		require.Equal(t, "42", got)
	})

	t.Run("single value wraps into a list", func(t *testing.T) {
		got, err := coerceValue(1, schema.ListType(schema.NamedType("Int")))
		require.NoError(t, err)
		require.Equal(t, []any{1}, got)
	})

	t.Run("null for non-null fails", func(t *testing.T) {
		_, err := coerceValue(nil, schema.NonNullType(schema.NamedType("Int")))
		require.Error(t, err)
	})
}

func TestCoerceVariableValues(t *testing.T) {
	sch := &schema.Schema{QueryType: "Query", Types: map[string]*schema.Type{}}

	t.Run("defaults apply for omitted variables", func(t *testing.T) {
		doc := mustParseQuery(t, `query ($n: Int = 5, $s: String) { f }`)
		coerced, err := coerceVariableValues(sch, doc.Operations[0], nil)
		require.NoError(t, err)
		if diff := cmp.Diff(map[string]any{"n": 5}, coerced); diff != "" {
			t.Fatalf("coerced variables mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("null for required variable fails", func(t *testing.T) {
		doc := mustParseQuery(t, `query ($id: Int!) { f }`)
		_, err := coerceVariableValues(sch, doc.Operations[0], map[string]any{"id": nil})
		require.ErrorContains(t, err, "cannot be null")
	})

	t.Run("uncoercible variable fails", func(t *testing.T) {
		doc := mustParseQuery(t, `query ($id: Int!) { f }`)
		_, err := coerceVariableValues(sch, doc.Operations[0], map[string]any{"id": "abc"})
		require.ErrorContains(t, err, "cannot be coerced")
	})
}

type searchArgs struct {
	Limit  int
	Offset *int
	Tags   []string
	Since  time.Time
	Filter nameFilter
	Status customerStatus
}

type nameFilter struct {
	Prefix string
}

func argumentsSchema() *schema.Schema {
	s := schema.New()
	s.Types["nameFilter"] = &schema.Type{
		Name: "nameFilter",
		Kind: schema.TypeKindInputObject,
		InputFields: []*schema.InputValue{
			{Name: "prefix", Type: schema.NamedType("String"), GoField: "Prefix"},
		},
	}
	s.Types["customerStatus"] = &schema.Type{
		Name: "customerStatus",
		Kind: schema.TypeKindEnum,
		EnumValues: []*schema.EnumValue{
			{Name: "ACTIVE"}, {Name: "DORMANT"},
		},
	}
	return s
}

func searchArgDefs() []*schema.InputValue {
	return []*schema.InputValue{
		{Name: "limit", Type: schema.NamedType("Int"), GoField: "Limit"},
		{Name: "offset", Type: schema.NamedType("Int"), GoField: "Offset"},
		{Name: "tags", Type: schema.ListType(schema.NamedType("String")), GoField: "Tags"},
		{Name: "since", Type: schema.NamedType("DateTime"), GoField: "Since"},
		{Name: "filter", Type: schema.NamedType("nameFilter"), GoField: "Filter"},
		// No GoField: matched case-insensitively against the struct.
		{Name: "status", Type: schema.NamedType("customerStatus")},
	}
}

func TestBuildArgumentsValue(t *testing.T) {
	s := argumentsSchema()

	values := map[string]any{
		"limit":   5,
		"offset":  10,
		"tags":    []any{"a", "b"},
		"since":   "2024-01-02T03:04:05Z",
		"filter":  map[string]any{"prefix": "Al"},
		"status":  "ACTIVE",
		"unknown": 1,
	}
	got, err := buildArgumentsValue(s, reflect.TypeOf((*searchArgs)(nil)).Elem(), searchArgDefs(), values)
	require.NoError(t, err)

	offset := 10
	want := searchArgs{
		Limit:  5,
		Offset: &offset,
		Tags:   []string{"a", "b"},
		Since:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Filter: nameFilter{Prefix: "Al"},
		Status: "ACTIVE",
	}
	if diff := cmp.Diff(want, got.(searchArgs)); diff != "" {
		t.Fatalf("arguments value mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgumentsValueEdgeCases(t *testing.T) {
	s := argumentsSchema()

	t.Run("nil args type resolves to nil", func(t *testing.T) {
		got, err := buildArgumentsValue(s, nil, nil, nil)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("pointer args type allocates", func(t *testing.T) {
		got, err := buildArgumentsValue(s, reflect.TypeOf((**searchArgs)(nil)).Elem(), searchArgDefs(), map[string]any{"limit": 3})
		require.NoError(t, err)
		require.IsType(t, &searchArgs{}, got)
		require.Equal(t, 3, got.(*searchArgs).Limit)
	})

	t.Run("omitted arguments keep zero values", func(t *testing.T) {
		got, err := buildArgumentsValue(s, reflect.TypeOf((*searchArgs)(nil)).Elem(), searchArgDefs(), map[string]any{})
		require.NoError(t, err)
		require.Equal(t, searchArgs{}, got.(searchArgs))
	})

	t.Run("invalid enum value fails", func(t *testing.T) {
		_, err := buildArgumentsValue(s, reflect.TypeOf((*searchArgs)(nil)).Elem(), searchArgDefs(), map[string]any{"status": "RETIRED"})
		require.ErrorContains(t, err, `invalid value "RETIRED" for enum customerStatus`)
	})

	t.Run("invalid DateTime fails", func(t *testing.T) {
		_, err := buildArgumentsValue(s, reflect.TypeOf((*searchArgs)(nil)).Elem(), searchArgDefs(), map[string]any{"since": "tomorrow"})
		require.ErrorContains(t, err, "argument 'since'")
		require.ErrorContains(t, err, "invalid DateTime")
	})

	t.Run("ID string assigns into int field", func(t *testing.T) {
		defs := []*schema.InputValue{{Name: "limit", Type: schema.NamedType("ID"), GoField: "Limit"}}
		got, err := buildArgumentsValue(s, reflect.TypeOf((*searchArgs)(nil)).Elem(), defs, map[string]any{"limit": "12"})
		require.NoError(t, err)
		require.Equal(t, 12, got.(searchArgs).Limit)
	})
}
