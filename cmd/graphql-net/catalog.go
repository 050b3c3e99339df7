package main

import (
	"database/sql"

	graphqlnet "github.com/benhysell/graphql-net"
	"github.com/benhysell/graphql-net/internal/provider/sqlprov"
	"github.com/benhysell/graphql-net/querytree"
)

// The demo domain: a small book catalog served by both backends. Field
// declarations below are ordinary query trees; everything else (resolution
// kinds, argument coercion, GraphQL types) is derived from them.

type Author struct {
	ID   int `graphql:"id,id" db:"id"`
	Name string
	Born int
}

type Book struct {
	ID       int `graphql:"id,id" db:"id"`
	Title    string
	AuthorID int
	Year     int
}

type Catalog struct {
	Books   []Book   `table:"books"`
	Authors []Author `table:"authors"`
}

type bookArgs struct {
	ID int
}

type byAuthorArgs struct {
	AuthorID int
}

type recentArgs struct {
	Count int
}

func catalogSchema() (*graphqlnet.Schema, error) {
	b := graphqlnet.NewBuilder[*Catalog]()

	b.ListField("books", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Books")
	})
	b.ListField("authors", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Authors")
	})

	graphqlnet.FieldWithArgs(b, "book", bookArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		bk := querytree.NewParameterOf[Book]("b")
		return querytree.First(querytree.NewMember(ctx, "Books"),
			querytree.NewLambda(querytree.Eq(
				querytree.NewMember(bk, "ID"), querytree.NewMember(args, "ID")), bk))
	}, graphqlnet.WithDescription("One book by id; errors when absent."))

	graphqlnet.ListFieldWithArgs(b, "booksByAuthor", byAuthorArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		bk := querytree.NewParameterOf[Book]("b")
		return querytree.Where(querytree.NewMember(ctx, "Books"),
			querytree.NewLambda(querytree.Eq(
				querytree.NewMember(bk, "AuthorID"), querytree.NewMember(args, "AuthorID")), bk))
	})

	graphqlnet.ListFieldWithArgs(b, "recentBooks", recentArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		bk := querytree.NewParameterOf[Book]("b")
		year := querytree.NewLambda(querytree.NewMember(bk, "Year"), bk)
		ordered := querytree.OrderByDescending(querytree.NewMember(ctx, "Books"), year)
		return querytree.Take(ordered, querytree.NewMember(args, "Count"))
	})

	b.Field("bookCount", func(ctx querytree.Expr) querytree.Expr {
		return querytree.Count(querytree.NewMember(ctx, "Books"))
	})

	return b.Complete()
}

func seedCatalog() *Catalog {
	return &Catalog{
		Authors: []Author{
			{ID: 1, Name: "Italo Svevo", Born: 1861},
			{ID: 2, Name: "Dubravka Ugrešić", Born: 1949},
		},
		Books: []Book{
			{ID: 1, Title: "Zeno's Conscience", AuthorID: 1, Year: 1923},
			{ID: 2, Title: "A Life", AuthorID: 1, Year: 1892},
			{ID: 3, Title: "Baba Yaga Laid an Egg", AuthorID: 2, Year: 2008},
		},
	}
}

// seedSQLite mirrors the in-memory seed into the transient sqlite database.
func seedSQLite(p *sqlprov.Provider) error {
	return seedDB(p.DB())
}

func seedDB(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL, born INTEGER NOT NULL)`,
		`CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT NOT NULL, author_id INTEGER NOT NULL, year INTEGER NOT NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	data := seedCatalog()
	for _, a := range data.Authors {
		if _, err := db.Exec(`INSERT INTO authors (id, name, born) VALUES (?, ?, ?)`, a.ID, a.Name, a.Born); err != nil {
			return err
		}
	}
	for _, bk := range data.Books {
		if _, err := db.Exec(`INSERT INTO books (id, title, author_id, year) VALUES (?, ?, ?, ?)`, bk.ID, bk.Title, bk.AuthorID, bk.Year); err != nil {
			return err
		}
	}
	return nil
}
