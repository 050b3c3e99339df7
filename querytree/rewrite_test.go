package querytree

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type productArgs struct {
	ID       int
	MinPrice float64
}

func TestWalkOrder(t *testing.T) {
	ctx, filtered := productsQuery(t)
	lam := NewLambda(filtered, ctx)

	var kinds []string
	Walk(lam, func(e Expr) bool {
		kinds = append(kinds, reflect.TypeOf(e).Elem().Name())
		return true
	})
	want := []string{
		"Lambda", "Parameter", // outer lambda and its shop param
		"Call", "Member", "Parameter", // Where over shop.Products
		"Lambda", "Parameter", // predicate and its p param
		"Binary", "Member", "Parameter", "Constant",
	}
	require.Equal(t, want, kinds)

	// Pruned walk stops at the call without visiting operands.
	kinds = nil
	Walk(lam.Body, func(e Expr) bool {
		kinds = append(kinds, reflect.TypeOf(e).Elem().Name())
		_, isCall := e.(*Call)
		return !isCall
	})
	require.Equal(t, []string{"Call"}, kinds)
}

func TestFreeParameters(t *testing.T) {
	ctx := NewParameterOf[*shopContext]("shop")
	args := NewParameterOf[productArgs]("args")
	p := NewParameterOf[product]("p")

	pred := NewLambda(Eq(NewMember(p, "ID"), NewMember(args, "ID")), p)
	body := Where(NewMember(ctx, "Products"), pred)

	free := FreeParameters(body)
	require.Equal(t, []*Parameter{ctx, args}, free)

	// Binding under a lambda removes the parameter from the free set.
	free = FreeParameters(NewLambda(body, ctx, args))
	require.Empty(t, free)
}

func TestReplaceParameterByIdentity(t *testing.T) {
	// Two distinct parameters sharing one name: only the replaced identity
	// changes, same-named bystanders stay put.
	outer := NewParameterOf[*shopContext]("ctx")
	inner := NewParameterOf[*shopContext]("ctx")
	body := Eq(
		NewMember(NewMember(outer, "Admin"), "Name"),
		NewMember(NewMember(inner, "Admin"), "Name"),
	)

	fresh := NewParameterOf[*shopContext]("db")
	got := ReplaceParameter(body, outer, fresh).(*Binary)

	require.Equal(t, "(db.Admin.Name == ctx.Admin.Name)", Format(got))

	// The untouched branch is shared with the input, not copied.
	require.Same(t, body.Right, got.Right)
	// The original tree is unchanged.
	require.Equal(t, "(ctx.Admin.Name == ctx.Admin.Name)", Format(body))
}

func TestReplaceParameterSkipsShadowedScopes(t *testing.T) {
	ctx, filtered := productsQuery(t)
	fresh := NewParameterOf[*shopContext]("db")

	got := ReplaceParameter(filtered, ctx, fresh).(*Call)

	// Predicate never referenced ctx, so the whole lambda node is shared.
	require.Same(t, filtered.Args[0], got.Args[0])
	require.Equal(t, "db.Products.Where((p) => (p.Price > 10))", Format(got))
}

func TestBindEmbedsConstants(t *testing.T) {
	args := NewParameterOf[productArgs]("args")
	p := NewParameterOf[product]("p")

	// Member access binds to the field value, bare reference to the whole.
	memberRef := Eq(NewMember(p, "ID"), NewMember(args, "ID"))
	got := Bind(memberRef, args, productArgs{ID: 8}).(*Binary)
	require.Equal(t, "(p.ID == 8)", Format(got))
	// The untouched branch is shared with the input, not copied.
	require.Same(t, memberRef.Left, got.Left)

	whole := Bind(Expr(args), args, productArgs{ID: 8})
	c, ok := whole.(*Constant)
	require.True(t, ok)
	require.Equal(t, productArgs{ID: 8}, c.Value)

	// Nil binds as the zero value of the parameter's type.
	zero := Bind(NewMember(args, "ID"), args, nil).(*Constant)
	require.Equal(t, 0, zero.Value)
}

func TestTemplateRejectsOutOfScopeParameter(t *testing.T) {
	ctx := NewParameterOf[*shopContext]("ctx")
	base := NewParameterOf[*shopContext]("base")
	stray := NewParameterOf[int]("stray")

	_, err := NewTemplate(ctx, base, nil, Eq(stray, NewConstantOf(1)))
	require.Error(t, err)
	require.Contains(t, err.Error(), `"stray"`)
}

func TestTemplateSpecializeEmbedsArguments(t *testing.T) {
	ctx := NewParameterOf[*shopContext]("ctx")
	base := NewParameterOf[*shopContext]("base")
	args := NewParameterOf[productArgs]("args")
	p := NewParameterOf[product]("p")

	pred := NewLambda(Eq(NewMember(p, "ID"), NewMember(args, "ID")), p)
	body := Where(NewMember(ctx, "Products"), pred)
	tpl, err := NewTemplate(ctx, base, args, body)
	require.NoError(t, err)

	five := tpl.Specialize(productArgs{ID: 5})
	require.Equal(t, "(ctx, base) => ctx.Products.Where((p) => (p.ID == 5))", Format(five))

	// No argument references survive specialization.
	Walk(five, func(e Expr) bool {
		if e == Expr(args) {
			t.Fatal("specialized tree still references the arguments parameter")
		}
		return true
	})

	// Distinct argument values yield independent trees.
	nine := tpl.Specialize(productArgs{ID: 9})
	require.Equal(t, "(ctx, base) => ctx.Products.Where((p) => (p.ID == 9))", Format(nine))
	require.False(t, Equal(five, nine))
	require.NotSame(t, five.Params[0], nine.Params[0])

	// The template itself is untouched and reusable.
	require.Equal(t, "ctx.Products.Where((p) => (p.ID == args.ID))", Format(tpl.Body))
}

func TestTemplateSpecializeWithoutArguments(t *testing.T) {
	ctx := NewParameterOf[*shopContext]("ctx")
	base := NewParameterOf[*shopContext]("base")
	tpl, err := NewTemplate(ctx, base, nil, NewMember(ctx, "Products"))
	require.NoError(t, err)

	lam := tpl.Specialize(nil)
	require.Len(t, lam.Params, 2)
	require.Equal(t, "(ctx, base) => ctx.Products", Format(lam))
}
