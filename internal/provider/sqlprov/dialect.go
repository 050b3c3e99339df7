package sqlprov

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor a statement is rendered in.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// DialectForDriver maps a database/sql driver name onto its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return "", fmt.Errorf("sqlprov: no dialect for driver %q", driver)
	}
}

// placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// quote renders an identifier.
func (d Dialect) quote(ident string) string {
	if d == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// limitClause renders LIMIT/OFFSET. SQLite and MySQL require a LIMIT before
// an OFFSET, so an offset-only query gets the dialect's unbounded limit.
func (d Dialect) limitClause(limit, offset int) string {
	var b strings.Builder
	switch {
	case limit >= 0:
		fmt.Fprintf(&b, " LIMIT %d", limit)
	case offset > 0 && d == SQLite:
		b.WriteString(" LIMIT -1")
	case offset > 0 && d == MySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}
