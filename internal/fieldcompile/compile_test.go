package fieldcompile

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benhysell/graphql-net/querytree"
)

func TestCompileFieldFilterInjection(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.First(querytree.NewMember(ctx, "Droids"), idPredicate(args))
	})

	compiled, err := CompileField(declared)
	require.NoError(t, err)
	require.Equal(t, First, compiled.Kind)
	require.Equal(t, reflect.TypeOf((*[]droid)(nil)).Elem(), compiled.Query.ResultType())

	got := compiled.Query.Invoke(droidArgs{ID: 5})

	// Hand-built expectation: (ctx, base) => ctx.Droids.Where(d => d.ID == 5).
	ctx := querytree.NewParameterOf[*crewContext]("ctx")
	base := querytree.NewParameterOf[*crewContext]("base")
	d := querytree.NewParameterOf[droid]("d")
	want := querytree.NewLambda(
		querytree.Where(querytree.NewMember(ctx, "Droids"),
			querytree.NewLambda(querytree.Eq(querytree.NewMember(d, "ID"), querytree.NewConstantOf(5)), d)),
		ctx, base)

	if !querytree.Equal(want, got) {
		t.Errorf("invoked tree mismatch:\n want %s\n  got %s", querytree.Format(want), querytree.Format(got))
	}
}

func TestCompileFieldNoPredicatePassThrough(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.First(querytree.NewMember(ctx, "Droids"))
	})

	compiled, err := CompileField(declared)
	require.NoError(t, err)
	require.Equal(t, First, compiled.Kind)

	got := compiled.Query.Invoke(droidArgs{})
	require.Equal(t, "(ctx, base) => ctx.Droids", querytree.Format(got))
}

func TestCompileFieldUnmodifiedScalar(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.NewMember(querytree.NewMember(ctx, "Captain"), "Name")
	})

	compiled, err := CompileField(declared)
	require.NoError(t, err)
	require.Equal(t, Unmodified, compiled.Kind)
	require.Equal(t, reflect.TypeOf((*string)(nil)).Elem(), compiled.Query.ResultType())
	require.Equal(t, "(ctx, base) => ctx.Captain.Name", querytree.Format(compiled.Query.Invoke(nil)))
}

func TestCompileFieldEnumerableFallback(t *testing.T) {
	// The enumerable surface is not recognized by the classifier, so the
	// reduction stays inside the compiled query and no post-fetch policy
	// applies. Known limitation, kept deliberately.
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.NewCall(querytree.APIEnumerable, querytree.MethodFirst,
			querytree.NewMember(ctx, "Droids"))
	})

	compiled, err := CompileField(declared)
	require.NoError(t, err)
	require.Equal(t, Unmodified, compiled.Kind)
	require.Equal(t, reflect.TypeOf((*droid)(nil)).Elem(), compiled.Query.ResultType())
	require.Equal(t, "(ctx, base) => ctx.Droids.First()", querytree.Format(compiled.Query.Invoke(nil)))
}

func TestCompileListFieldBypassesClassification(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.Where(querytree.NewMember(ctx, "Droids"), idPredicate(args))
	})

	compiled, err := CompileListField(declared)
	require.NoError(t, err)
	require.Equal(t, ToList, compiled.Kind)

	got := compiled.Query.Invoke(droidArgs{ID: 7})
	require.Equal(t, "(ctx, base) => ctx.Droids.Where((d) => (d.ID == 7))", querytree.Format(got))
}

func TestCompileListFieldRejectsScalarBody(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Captain")
	})

	_, err := CompileListField(declared)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must return a sequence")
}

func TestCompileFieldRejectsBadArity(t *testing.T) {
	ctx := querytree.NewParameterOf[*crewContext]("ctx")
	args := querytree.NewParameterOf[droidArgs]("args")
	extra := querytree.NewParameterOf[int]("extra")
	declared := querytree.NewLambda(querytree.NewMember(ctx, "Droids"), ctx, args, extra)

	_, err := CompileListField(declared)
	require.Error(t, err)
	require.Contains(t, err.Error(), "got 3 parameters")
}

func TestCompileFieldRejectsOutOfScopeReference(t *testing.T) {
	ctx := querytree.NewParameterOf[*crewContext]("ctx")
	stray := querytree.NewParameterOf[droidArgs]("stray")
	declared := querytree.NewLambda(querytree.NewMember(stray, "ID"), ctx)

	_, err := CompileField(declared)
	require.Error(t, err)
	require.Contains(t, err.Error(), `"stray"`)
}

func TestIndependentSpecialization(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.Where(querytree.NewMember(ctx, "Droids"), idPredicate(args))
	})
	compiled, err := CompileListField(declared)
	require.NoError(t, err)

	one := compiled.Query.Invoke(droidArgs{ID: 1})
	two := compiled.Query.Invoke(droidArgs{ID: 2})

	require.False(t, querytree.Equal(one, two))
	require.NotSame(t, one.Params[0], two.Params[0])
	require.Equal(t, "(ctx, base) => ctx.Droids.Where((d) => (d.ID == 1))", querytree.Format(one))
	require.Equal(t, "(ctx, base) => ctx.Droids.Where((d) => (d.ID == 2))", querytree.Format(two))
}

func TestInvokedTreeHasNoCaptures(t *testing.T) {
	declared := declare(t, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.FirstOrDefault(querytree.NewMember(ctx, "Droids"), idPredicate(args))
	})
	compiled, err := CompileField(declared)
	require.NoError(t, err)

	invoked := compiled.Query.Invoke(droidArgs{ID: 3})

	// Translatability: the tree must be closed. Every parameter reference is
	// bound by an enclosing lambda and every argument value appears as an
	// embedded constant.
	require.Empty(t, querytree.FreeParameters(invoked))

	var constants []any
	querytree.Walk(invoked, func(e querytree.Expr) bool {
		if c, ok := e.(*querytree.Constant); ok {
			constants = append(constants, c.Value)
		}
		return true
	})
	require.Equal(t, []any{3}, constants)
}
