package querytree

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a tree in a compact chain notation for logs, errors and
// tests, e.g. (db, base) => db.Heroes.Where((h) => (h.ID == 5)).
func Format(e Expr) string {
	var b strings.Builder
	formatExpr(&b, e)
	return b.String()
}

func formatExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Parameter:
		b.WriteString(n.Name)
	case *Constant:
		b.WriteString(formatValue(n.Value))
	case *Member:
		formatExpr(b, n.Target)
		b.WriteByte('.')
		b.WriteString(n.Name)
	case *Call:
		formatExpr(b, n.Source)
		b.WriteByte('.')
		b.WriteString(string(n.Method))
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			formatExpr(b, a)
		}
		b.WriteByte(')')
	case *Binary:
		b.WriteByte('(')
		formatExpr(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(string(n.Op))
		b.WriteByte(' ')
		formatExpr(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(string(n.Op))
		formatExpr(b, n.Operand)
	case *Lambda:
		b.WriteByte('(')
		for i, p := range n.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
		}
		b.WriteString(") => ")
		formatExpr(b, n.Body)
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
