package fieldcompile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benhysell/graphql-net/querytree"
)

type crewContext struct {
	Droids  []droid
	Captain droid
}

type droid struct {
	ID   int
	Name string
}

type droidArgs struct {
	ID int
}

// declare builds (ctx, args) => body(ctx, args) over the crew context.
func declare(t *testing.T, body func(ctx, args querytree.Expr) querytree.Expr) *querytree.Lambda {
	t.Helper()
	ctx := querytree.NewParameterOf[*crewContext]("ctx")
	args := querytree.NewParameterOf[droidArgs]("args")
	return querytree.NewLambda(body(ctx, args), ctx, args)
}

func idPredicate(args querytree.Expr) *querytree.Lambda {
	d := querytree.NewParameterOf[droid]("d")
	return querytree.NewLambda(
		querytree.Eq(querytree.NewMember(d, "ID"), querytree.NewMember(args, "ID")), d)
}

func TestClassifyTotality(t *testing.T) {
	tests := []struct {
		name     string
		body     func(ctx, args querytree.Expr) querytree.Expr
		kind     ResolutionKind
		baseWant string
	}{
		{
			name: "member access",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.NewMember(ctx, "Captain")
			},
			kind: Unmodified,
		},
		{
			name: "constant body",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.NewConstantOf(42)
			},
			kind: Unmodified,
		},
		{
			name: "first without predicate",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.First(querytree.NewMember(ctx, "Droids"))
			},
			kind:     First,
			baseWant: "ctx.Droids",
		},
		{
			name: "first with predicate folds into where",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.First(querytree.NewMember(ctx, "Droids"), idPredicate(args))
			},
			kind:     First,
			baseWant: "ctx.Droids.Where((d) => (d.ID == args.ID))",
		},
		{
			name: "first or default with predicate",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.FirstOrDefault(querytree.NewMember(ctx, "Droids"), idPredicate(args))
			},
			kind:     FirstOrDefault,
			baseWant: "ctx.Droids.Where((d) => (d.ID == args.ID))",
		},
		{
			name: "unrecognized queryable method",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.OrderBy(querytree.NewMember(ctx, "Droids"), nameSelector())
			},
			kind: Unmodified,
		},
		{
			name: "enumerable first falls back",
			body: func(ctx, args querytree.Expr) querytree.Expr {
				return querytree.NewCall(querytree.APIEnumerable, querytree.MethodFirst,
					querytree.NewMember(ctx, "Droids"))
			},
			kind: Unmodified,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			declared := declare(t, tc.body)
			info := Classify(declared)

			require.Equal(t, tc.kind, info.Kind)
			require.Same(t, declared, info.Original)
			if tc.kind == Unmodified {
				require.Nil(t, info.BaseSequence)
			} else {
				require.Equal(t, tc.baseWant, querytree.Format(info.BaseSequence))
			}
		})
	}
}

func nameSelector() *querytree.Lambda {
	d := querytree.NewParameterOf[droid]("d")
	return querytree.NewLambda(querytree.NewMember(d, "Name"), d)
}

func TestClassifyKeepsSourceIdentity(t *testing.T) {
	ctx := querytree.NewParameterOf[*crewContext]("ctx")
	source := querytree.NewMember(ctx, "Droids")
	declared := querytree.NewLambda(querytree.First(source), ctx)

	info := Classify(declared)
	require.Same(t, querytree.Expr(source), info.BaseSequence)
}
