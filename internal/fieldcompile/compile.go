package fieldcompile

import (
	"fmt"
	"reflect"

	"github.com/benhysell/graphql-net/querytree"
)

// CompiledField pairs a compiled query with the resolution kind the
// execution engine must apply to its result.
type CompiledField struct {
	Kind  ResolutionKind
	Query *CompiledQuery
}

// CompileField compiles a single-result field declaration: classify the
// body, peel off a recognized reduction, canonicalize and bind. The declared
// query takes (context) or (context, args).
func CompileField(declared *querytree.Lambda) (*CompiledField, error) {
	context, args, err := declaredParams(declared)
	if err != nil {
		return nil, err
	}

	info := Classify(declared)
	body := declared.Body
	if info.Kind.IsSequence() {
		body = info.BaseSequence
	}

	query, err := Bind(Canonicalize(context, body), args)
	if err != nil {
		return nil, err
	}
	return &CompiledField{Kind: info.Kind, Query: query}, nil
}

// CompileListField compiles a list field declaration. List fields are
// definitionally sequence-returning, so classification is skipped and the
// field is tagged ToList regardless of the body's shape.
func CompileListField(declared *querytree.Lambda) (*CompiledField, error) {
	context, args, err := declaredParams(declared)
	if err != nil {
		return nil, err
	}
	if declared.Body.Type().Kind() != reflect.Slice {
		return nil, fmt.Errorf("list field query must return a sequence, got %s", declared.Body.Type())
	}

	query, err := Bind(Canonicalize(context, declared.Body), args)
	if err != nil {
		return nil, err
	}
	return &CompiledField{Kind: ToList, Query: query}, nil
}

// declaredParams splits a declaration's parameter list into the context
// parameter and the optional arguments parameter.
func declaredParams(declared *querytree.Lambda) (context, args *querytree.Parameter, err error) {
	switch len(declared.Params) {
	case 1:
		return declared.Params[0], nil, nil
	case 2:
		return declared.Params[0], declared.Params[1], nil
	default:
		return nil, nil, fmt.Errorf("declared query must take (context) or (context, args), got %d parameters", len(declared.Params))
	}
}
