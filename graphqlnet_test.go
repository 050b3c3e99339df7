package graphqlnet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benhysell/graphql-net/internal/fieldcompile"
	"github.com/benhysell/graphql-net/internal/provider/memprov"
	"github.com/benhysell/graphql-net/internal/schema"
	"github.com/benhysell/graphql-net/querytree"
)

type Starship struct {
	ID   int `graphql:"id,id"`
	Name string
	Crew int
}

type Fleet struct {
	Ships    []Starship
	Flagship *Starship
}

type ShipArgs struct {
	ID int
}

func sampleFleet() *Fleet {
	return &Fleet{
		Ships: []Starship{
			{ID: 1, Name: "Dauntless", Crew: 310},
			{ID: 2, Name: "Reliant", Crew: 225},
			{ID: 3, Name: "Pinafore", Crew: 90},
		},
		Flagship: &Starship{ID: 1, Name: "Dauntless", Crew: 310},
	}
}

func shipByID(ctx, args querytree.Expr) querytree.Expr {
	s := querytree.NewParameterOf[Starship]("s")
	pred := querytree.NewLambda(
		querytree.Eq(querytree.NewMember(s, "ID"), querytree.NewMember(args, "ID")), s)
	return querytree.First(querytree.NewMember(ctx, "Ships"), pred)
}

func TestFieldRecognizesFirstReduction(t *testing.T) {
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "ship", ShipArgs{}, shipByID)

	s, err := b.Complete()
	require.NoError(t, err)

	f := s.GetQueryType().Field("ship")
	require.NotNil(t, f)
	require.Equal(t, fieldcompile.First, f.Resolver.Kind)
	require.Equal(t, "Starship!", typeString(f.Type))
	require.Len(t, f.Arguments, 1)
	require.Equal(t, "id", f.Arguments[0].Name)

	got := f.Resolver.Query.Invoke(ShipArgs{ID: 2})
	require.Equal(t, "(ctx, base) => ctx.Ships.Where((s) => (s.ID == 2))", querytree.Format(got))
}

func TestFieldFirstOrDefaultIsNullable(t *testing.T) {
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "shipOrNull", ShipArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		s := querytree.NewParameterOf[Starship]("s")
		pred := querytree.NewLambda(
			querytree.Eq(querytree.NewMember(s, "ID"), querytree.NewMember(args, "ID")), s)
		return querytree.FirstOrDefault(querytree.NewMember(ctx, "Ships"), pred)
	})

	s, err := b.Complete()
	require.NoError(t, err)
	f := s.GetQueryType().Field("shipOrNull")
	require.Equal(t, fieldcompile.FirstOrDefault, f.Resolver.Kind)
	require.Equal(t, "Starship", typeString(f.Type))
}

func TestListFieldAlwaysToList(t *testing.T) {
	b := NewBuilder[*Fleet]()
	// The body is a bare member access, not a queryable call; list fields
	// still resolve ToList.
	b.ListField("ships", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Ships")
	})

	s, err := b.Complete()
	require.NoError(t, err)
	f := s.GetQueryType().Field("ships")
	require.Equal(t, fieldcompile.ToList, f.Resolver.Kind)
	require.Equal(t, "[Starship!]!", typeString(f.Type))
}

// An Unmodified field's compiled query must evaluate to the same value the
// declared query evaluates to directly.
func TestUnmodifiedIdentity(t *testing.T) {
	b := NewBuilder[*Fleet]()
	b.Field("flagship", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Flagship")
	})

	s, err := b.Complete()
	require.NoError(t, err)
	f := s.GetQueryType().Field("flagship")
	require.Equal(t, fieldcompile.Unmodified, f.Resolver.Kind)

	data := sampleFleet()
	got, err := memprov.New().Query(context.Background(), data, f.Resolver.Query.Invoke(nil))
	require.NoError(t, err)
	require.Equal(t, data.Flagship, got)
}

// Two invocations with different argument values yield independent trees
// that evaluate to their own result sets.
func TestIndependentSpecialization(t *testing.T) {
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "ship", ShipArgs{}, shipByID)
	s, err := b.Complete()
	require.NoError(t, err)

	q := s.GetQueryType().Field("ship").Resolver.Query
	one := q.Invoke(ShipArgs{ID: 1})
	three := q.Invoke(ShipArgs{ID: 3})
	require.False(t, querytree.Equal(one, three))

	data := sampleFleet()
	p := memprov.New()
	gotOne, err := p.Query(context.Background(), data, one)
	require.NoError(t, err)
	gotThree, err := p.Query(context.Background(), data, three)
	require.NoError(t, err)
	require.Equal(t, []Starship{data.Ships[0]}, gotOne)
	require.Equal(t, []Starship{data.Ships[2]}, gotThree)
}

// Specialized trees carry only constants and their own parameters: nothing
// that would need the declaring closure to resolve.
func TestNoCaptureLeakage(t *testing.T) {
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "ship", ShipArgs{}, shipByID)
	s, err := b.Complete()
	require.NoError(t, err)

	tree := s.GetQueryType().Field("ship").Resolver.Query.Invoke(ShipArgs{ID: 2})
	free := querytree.FreeParameters(tree)
	require.Empty(t, free, "specialized lambda must be closed")
}

func TestMutationFieldRoutesToMutationRoot(t *testing.T) {
	var mutated ShipArgs
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "decommissionShip", ShipArgs{}, shipByID,
		WithMutation(func(ctx context.Context, data *Fleet, args ShipArgs) error {
			mutated = args
			return nil
		}))
	b.ListField("ships", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Ships")
	})

	s, err := b.Complete()
	require.NoError(t, err)
	require.Nil(t, s.GetQueryType().Field("decommissionShip"))
	f := s.GetMutationType().Field("decommissionShip")
	require.NotNil(t, f)

	require.NoError(t, f.Resolver.Mutation(context.Background(), sampleFleet(), ShipArgs{ID: 9}))
	require.Equal(t, ShipArgs{ID: 9}, mutated)
}

// A mutation handed the wrong context or argument type reports the mismatch
// instead of running against a substitute value.
func TestMutationRejectsMismatchedValues(t *testing.T) {
	b := NewBuilder[*Fleet]()
	FieldWithArgs(b, "decommissionShip", ShipArgs{}, shipByID,
		WithMutation(func(ctx context.Context, data *Fleet, args ShipArgs) error {
			return nil
		}))
	s, err := b.Complete()
	require.NoError(t, err)
	f := s.GetMutationType().Field("decommissionShip")

	err = f.Resolver.Mutation(context.Background(), "not a fleet", ShipArgs{ID: 1})
	require.ErrorContains(t, err, "data context")

	err = f.Resolver.Mutation(context.Background(), sampleFleet(), 42)
	require.ErrorContains(t, err, "arguments")

	// Nil arguments stand in for the zero struct.
	require.NoError(t, f.Resolver.Mutation(context.Background(), sampleFleet(), nil))
}

func TestDuplicateFieldFailsCompletion(t *testing.T) {
	b := NewBuilder[*Fleet]()
	list := func(ctx querytree.Expr) querytree.Expr { return querytree.NewMember(ctx, "Ships") }
	b.ListField("ships", list)
	b.ListField("ships", list)

	_, err := b.Complete()
	require.Error(t, err)
	require.Contains(t, err.Error(), `field "ships" already declared`)
}

func TestMixedContextTypesFailCompletion(t *testing.T) {
	b := NewBuilder[*Fleet]()
	b.ListField("ships", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Ships")
	})
	// Declared against a different context type than the builder's fields.
	other := querytree.NewParameterOf[Fleet]("ctx")
	b.add("rogue", querytree.NewLambda(querytree.NewMember(other, "Ships"), other), true, nil)

	_, err := b.Complete()
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema context")
}

// typeString renders a type reference the way SDL writes it, so assertions
// read like schema text.
func typeString(ref *schema.TypeRef) string {
	switch ref.Kind {
	case schema.TypeRefKindNonNull:
		return typeString(ref.OfType) + "!"
	case schema.TypeRefKindList:
		return "[" + typeString(ref.OfType) + "]"
	default:
		return ref.Named
	}
}
