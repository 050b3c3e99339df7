package typemap

import (
	"reflect"
	"strings"
	"unicode"
)

// fieldInfo derives the GraphQL name and tag options for one struct field.
// Unexported and anonymous fields are skipped, as are fields tagged `-`.
func fieldInfo(sf reflect.StructField) (name string, isID bool, ok bool) {
	if !sf.IsExported() || sf.Anonymous {
		return "", false, false
	}
	tag := sf.Tag.Get("graphql")
	if tag == "-" {
		return "", false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = graphqlName(sf.Name)
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "id" {
			isID = true
		}
	}
	return name, isID, true
}

// graphqlName converts a Go field name to lowerCamelCase, lowering a leading
// acronym as a unit: ID becomes id, URLPath becomes urlPath.
func graphqlName(goName string) string {
	runes := []rune(goName)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	switch {
	case upper == 0:
		return goName
	case upper == 1 || upper == len(runes):
		// Single capital or an all-caps name lowers fully.
		for i := 0; i < upper; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	default:
		// A leading acronym keeps its final capital for the next word.
		for i := 0; i < upper-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}
