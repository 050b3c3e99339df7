// Package memprov evaluates query trees directly against an in-memory data
// context using reflection. It is the default provider: every queryable
// operator is supported, and results come back as ordinary Go values ready
// for the execution engine's resolution step.
package memprov

import (
	"context"
	"fmt"
	"time"

	eventbus "github.com/benhysell/graphql-net/internal/eventbus"
	events "github.com/benhysell/graphql-net/internal/events"
	"github.com/benhysell/graphql-net/querytree"
)

// Provider is a stateless in-memory query evaluator. The zero value is
// ready to use and safe for concurrent queries.
type Provider struct{}

// New returns an in-memory provider.
func New() *Provider { return &Provider{} }

// Query evaluates a closed two-parameter query tree against root. Both
// context parameters resolve to root; the second one only differs when an
// engine merges navigation queries across contexts, which the in-memory
// evaluator treats as the same object graph.
func (*Provider) Query(ctx context.Context, root any, query *querytree.Lambda) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	formatted := querytree.Format(query)
	start := time.Now()
	eventbus.Publish(ctx, events.ProviderQueryStart{Backend: "memory", Query: formatted})

	env := make(scope, len(query.Params))
	for _, p := range query.Params {
		env[p] = root
	}
	v, err := eval(query.Body, env)
	if err != nil {
		err = fmt.Errorf("memory provider: %w", err)
	}
	eventbus.Publish(ctx, events.ProviderQueryFinish{
		Backend:  "memory",
		Query:    formatted,
		Err:      err,
		Duration: time.Since(start),
	})
	return v, err
}
