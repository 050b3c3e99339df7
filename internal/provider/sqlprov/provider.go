// Package sqlprov translates specialized query trees into SQL and executes
// them over database/sql. Entity sequences on the data context map onto
// tables, predicates onto WHERE clauses, and embedded constants onto bind
// parameters, never onto SQL text. Shapes the dialect cannot express come
// back as descriptive translation errors.
package sqlprov

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	eventbus "github.com/benhysell/graphql-net/internal/eventbus"
	events "github.com/benhysell/graphql-net/internal/events"
	"github.com/benhysell/graphql-net/querytree"
)

// Provider executes compiled field queries against a SQL database. The data
// context passed per request is only a type-level description of the store;
// all data lives behind db.
type Provider struct {
	db      *sql.DB
	dialect Dialect
}

// New returns a provider over db speaking the given dialect.
func New(db *sql.DB, dialect Dialect) *Provider {
	return &Provider{db: db, dialect: dialect}
}

// Open opens a database/sql handle for the driver and wraps it in a
// provider, deriving the dialect from the driver name.
func Open(driver, dsn string) (*Provider, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, dialect), nil
}

// DB exposes the underlying database handle, for hosts that manage schema
// or seed data themselves.
func (p *Provider) DB() *sql.DB { return p.db }

// Close closes the underlying database handle.
func (p *Provider) Close() error { return p.db.Close() }

// Query translates the specialized tree and runs it. Sequence queries return
// a typed slice for the engine's resolution step; Count queries return an
// int.
func (p *Provider) Query(ctx context.Context, root any, query *querytree.Lambda) (any, error) {
	stmt, err := translate(query, p.dialect)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eventbus.Publish(ctx, events.ProviderQueryStart{Backend: string(p.dialect), Query: stmt.SQL})
	v, err := p.run(ctx, stmt)
	eventbus.Publish(ctx, events.ProviderQueryFinish{
		Backend:  string(p.dialect),
		Query:    stmt.SQL,
		Err:      err,
		Duration: time.Since(start),
	})
	return v, err
}

func (p *Provider) run(ctx context.Context, stmt *statement) (any, error) {
	if stmt.count {
		var n int
		if err := p.db.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlprov: %s: %w", stmt.SQL, err)
		}
		return n, nil
	}

	rows, err := p.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("sqlprov: %s: %w", stmt.SQL, err)
	}
	defer rows.Close()
	return scanRows(rows, stmt)
}
