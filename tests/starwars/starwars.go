// Package starwars carries the end-to-end fixture: a small Star Wars
// catalog declared through the public builder and served over HTTP by the
// in-memory provider.
package starwars

import (
	"context"
	"fmt"

	graphqlnet "github.com/benhysell/graphql-net"
	"github.com/benhysell/graphql-net/querytree"
)

type Episode string

const (
	NewHope Episode = "NEWHOPE"
	Empire  Episode = "EMPIRE"
	Jedi    Episode = "JEDI"
)

type Character struct {
	ID              int `graphql:"id,id"`
	Name            string
	Mass            float64
	IsDroid         bool
	FirstAppearance Episode
}

type Galaxy struct {
	Characters []Character
}

func NewGalaxy() *Galaxy {
	return &Galaxy{Characters: []Character{
		{ID: 1000, Name: "Luke Skywalker", Mass: 77, FirstAppearance: NewHope},
		{ID: 1001, Name: "Darth Vader", Mass: 136, FirstAppearance: NewHope},
		{ID: 1002, Name: "Han Solo", Mass: 80, FirstAppearance: NewHope},
		{ID: 2000, Name: "C-3PO", Mass: 75, IsDroid: true, FirstAppearance: NewHope},
		{ID: 2001, Name: "R2-D2", Mass: 32, IsDroid: true, FirstAppearance: NewHope},
		{ID: 1003, Name: "Lando Calrissian", Mass: 79, FirstAppearance: Empire},
	}}
}

type characterArgs struct {
	ID int
}

type episodeArgs struct {
	Episode Episode
}

type renameArgs struct {
	ID   int
	Name string
}

func byID(args querytree.Expr) *querytree.Lambda {
	c := querytree.NewParameterOf[Character]("c")
	return querytree.NewLambda(querytree.Eq(
		querytree.NewMember(c, "ID"), querytree.NewMember(args, "ID")), c)
}

// NewSchema declares the catalog's fields against *Galaxy.
func NewSchema() (*graphqlnet.Schema, error) {
	b := graphqlnet.NewBuilder[*Galaxy]()
	graphqlnet.Enum(b, "The original trilogy.", NewHope, Empire, Jedi)

	b.ListField("characters", func(ctx querytree.Expr) querytree.Expr {
		return querytree.NewMember(ctx, "Characters")
	})

	graphqlnet.FieldWithArgs(b, "character", characterArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.First(querytree.NewMember(ctx, "Characters"), byID(args))
	}, graphqlnet.WithDescription("One character by id; errors when absent."))

	graphqlnet.FieldWithArgs(b, "characterOrNull", characterArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.FirstOrDefault(querytree.NewMember(ctx, "Characters"), byID(args))
	})

	graphqlnet.ListFieldWithArgs(b, "charactersIn", episodeArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		c := querytree.NewParameterOf[Character]("c")
		return querytree.Where(querytree.NewMember(ctx, "Characters"),
			querytree.NewLambda(querytree.Eq(
				querytree.NewMember(c, "FirstAppearance"), querytree.NewMember(args, "Episode")), c))
	})

	b.Field("characterCount", func(ctx querytree.Expr) querytree.Expr {
		return querytree.Count(querytree.NewMember(ctx, "Characters"))
	})

	graphqlnet.FieldWithArgs(b, "renameCharacter", renameArgs{}, func(ctx, args querytree.Expr) querytree.Expr {
		return querytree.First(querytree.NewMember(ctx, "Characters"), byID(args))
	}, graphqlnet.WithMutation(func(ctx context.Context, g *Galaxy, args renameArgs) error {
		for i := range g.Characters {
			if g.Characters[i].ID == args.ID {
				g.Characters[i].Name = args.Name
				return nil
			}
		}
		return fmt.Errorf("no character with id %d", args.ID)
	}))

	return b.Complete()
}
