package schema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/benhysell/graphql-net/internal/fieldcompile"
	"github.com/benhysell/graphql-net/internal/schema"
	"github.com/benhysell/graphql-net/internal/typemap"
	"github.com/benhysell/graphql-net/querytree"
)

type libraryContext struct {
	Books     []book
	Librarian person
}

type book struct {
	ID     int `graphql:",id"`
	Title  string
	Author *person
}

type person struct {
	Name string
}

type bookArgs struct {
	ID int
}

func newBuilder() (*schema.Builder, *schema.Schema) {
	s := schema.New()
	return schema.NewBuilder(s, typemap.NewMapper(s)), s
}

func compileBooks(t *testing.T) *fieldcompile.CompiledField {
	t.Helper()
	ctx := querytree.NewParameterOf[*libraryContext]("lib")
	args := querytree.NewParameterOf[bookArgs]("args")
	b := querytree.NewParameterOf[book]("b")
	pred := querytree.NewLambda(
		querytree.Eq(querytree.NewMember(b, "ID"), querytree.NewMember(args, "ID")), b)
	declared := querytree.NewLambda(
		querytree.Where(querytree.NewMember(ctx, "Books"), pred), ctx, args)

	compiled, err := fieldcompile.CompileListField(declared)
	require.NoError(t, err)
	return compiled
}

func compileLibrarian(t *testing.T) *fieldcompile.CompiledField {
	t.Helper()
	ctx := querytree.NewParameterOf[*libraryContext]("lib")
	declared := querytree.NewLambda(querytree.NewMember(ctx, "Librarian"), ctx)

	compiled, err := fieldcompile.CompileField(declared)
	require.NoError(t, err)
	return compiled
}

func TestRegisterAndRender(t *testing.T) {
	b, _ := newBuilder()

	books := compileBooks(t)
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: books.Kind, Query: books.Query})

	librarian := compileLibrarian(t)
	b.AddUnmodifiedFieldInternal(&schema.FieldDescriptor{Name: "librarian", Kind: librarian.Kind, Query: librarian.Query})

	s, err := b.Complete()
	require.NoError(t, err)

	want := `type Query {
  books(id: Int): [book!]!
  librarian: person!
}

type book {
  id: ID!
  title: String!
  author: person
}

type person {
  name: String!
}
`
	if diff := cmp.Diff(want, schema.Render(s)); diff != "" {
		t.Errorf("rendered schema mismatch (-want +got):\n%s", diff)
	}
}

func TestMutationFieldsLandOnMutationRoot(t *testing.T) {
	b, _ := newBuilder()

	books := compileBooks(t)
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: books.Kind, Query: books.Query})

	again := compileBooks(t)
	mutate := func(ctx context.Context, data any, args any) error { return nil }
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "restock", Kind: again.Kind, Query: again.Query, Mutation: mutate})

	s, err := b.Complete()
	require.NoError(t, err)

	require.Equal(t, "Mutation", s.MutationType)
	f := s.GetMutationType().Field("restock")
	require.NotNil(t, f)
	require.NotNil(t, f.Resolver.Mutation)
	require.Nil(t, s.GetQueryType().Field("restock"))
}

func TestFirstOrDefaultFieldIsNullable(t *testing.T) {
	b, _ := newBuilder()

	ctx := querytree.NewParameterOf[*libraryContext]("lib")
	declared := querytree.NewLambda(
		querytree.FirstOrDefault(querytree.NewMember(ctx, "Books")), ctx)
	compiled, err := fieldcompile.CompileField(declared)
	require.NoError(t, err)
	require.Equal(t, fieldcompile.FirstOrDefault, compiled.Kind)

	f := b.AddFieldInternal(&schema.FieldDescriptor{Name: "anyBook", Kind: compiled.Kind, Query: compiled.Query})
	require.NotNil(t, f)
	require.False(t, f.Type.IsNonNull())
	require.Equal(t, "book", f.Type.GetNamedType())
}

func TestViolationsAccumulate(t *testing.T) {
	b, _ := newBuilder()

	books := compileBooks(t)
	librarian := compileLibrarian(t)

	// Wrong registration point, both directions.
	b.AddUnmodifiedFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: books.Kind, Query: books.Query})
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "librarian", Kind: librarian.Kind, Query: librarian.Query})

	// Invalid name and a duplicate.
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "all books", Kind: books.Kind, Query: books.Query})
	ok := compileBooks(t)
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: ok.Kind, Query: ok.Query})
	dup := compileBooks(t)
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: dup.Kind, Query: dup.Query})

	_, err := b.Complete()
	require.Error(t, err)

	var verr schema.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr, 4)
	require.Contains(t, err.Error(), "requires AddFieldInternal")
	require.Contains(t, err.Error(), "requires AddUnmodifiedFieldInternal")
	require.Contains(t, err.Error(), `invalid field name "all books"`)
	require.Contains(t, err.Error(), `field "books" already declared`)
}

func TestContextTypeMismatch(t *testing.T) {
	b, _ := newBuilder()

	books := compileBooks(t)
	b.AddFieldInternal(&schema.FieldDescriptor{Name: "books", Kind: books.Kind, Query: books.Query})

	other := querytree.NewParameterOf[*person]("p")
	declared := querytree.NewLambda(querytree.NewMember(other, "Name"), other)
	compiled, err := fieldcompile.CompileField(declared)
	require.NoError(t, err)
	b.AddUnmodifiedFieldInternal(&schema.FieldDescriptor{Name: "name", Kind: compiled.Kind, Query: compiled.Query})

	_, err = b.Complete()
	require.ErrorContains(t, err, "schema context is *schema_test.libraryContext")
}

func TestEmptySchemaFailsComplete(t *testing.T) {
	b, _ := newBuilder()
	_, err := b.Complete()
	require.ErrorContains(t, err, "no query fields")
}
