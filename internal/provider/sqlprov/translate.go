package sqlprov

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/benhysell/graphql-net/querytree"
)

// statement is one translated SELECT, ready to execute.
type statement struct {
	SQL  string
	Args []any

	// scanType is the Go type one row scans into: the entity struct, or a
	// scalar for projected queries. Nil for COUNT statements.
	scanType reflect.Type
	// fields are the struct field indices behind the selected columns, in
	// select-list order. Nil when scanType is not a struct.
	fields []int
	count  bool
}

// translate renders a specialized query tree as a SELECT in the given
// dialect. The tree is the closed (context, baseContext) lambda produced by
// a compiled field query: its root must be a sequence member of the context,
// its operators queryable, and every embedded value a constant.
func translate(query *querytree.Lambda, d Dialect) (*statement, error) {
	params := make(map[*querytree.Parameter]bool, len(query.Params))
	for _, p := range query.Params {
		params[p] = true
	}

	// Unwind the operator chain down to the context member naming the table.
	var ops []*querytree.Call
	cur := query.Body
	for {
		call, ok := cur.(*querytree.Call)
		if !ok {
			break
		}
		if call.API != querytree.APIQueryable {
			return nil, fmt.Errorf("sqlprov: %s.%s evaluates in memory and cannot be translated", call.API, call.Method)
		}
		ops = append(ops, call)
		cur = call.Source
	}
	root, ok := cur.(*querytree.Member)
	if !ok {
		return nil, fmt.Errorf("sqlprov: cannot translate %s: query root must be a context sequence", querytree.Format(query.Body))
	}
	rootParam, ok := root.Target.(*querytree.Parameter)
	if !ok || !params[rootParam] {
		return nil, fmt.Errorf("sqlprov: cannot translate %s: sequence %s is not rooted at the data context", querytree.Format(query.Body), root.Name)
	}

	table, elem, err := tableFor(root)
	if err != nil {
		return nil, err
	}
	t := &translator{dialect: d, elem: elem, limit: -1}

	// Operators were collected outermost first; apply them innermost first.
	for i := len(ops) - 1; i >= 0; i-- {
		call := ops[i]
		switch call.Method {
		case querytree.MethodWhere:
			if t.paginated() {
				return nil, fmt.Errorf("sqlprov: cannot translate Where applied after Take or Skip")
			}
			cond, err := t.condition(call.Args[0].(*querytree.Lambda))
			if err != nil {
				return nil, err
			}
			t.where = append(t.where, cond)

		case querytree.MethodOrderBy, querytree.MethodOrderByDescending:
			if t.paginated() {
				return nil, fmt.Errorf("sqlprov: cannot translate %s applied after Take or Skip", call.Method)
			}
			col, err := t.selectorColumn(call.Args[0].(*querytree.Lambda))
			if err != nil {
				return nil, err
			}
			key := t.dialect.quote(col)
			if call.Method == querytree.MethodOrderByDescending {
				key += " DESC"
			}
			// An outer sort dominates an inner one, like re-sorting stably.
			t.order = append([]string{key}, t.order...)

		case querytree.MethodTake:
			n, err := constCount(call)
			if err != nil {
				return nil, err
			}
			if t.limit >= 0 {
				n = min(n, t.limit)
			}
			t.limit = n

		case querytree.MethodSkip:
			if t.limit >= 0 {
				return nil, fmt.Errorf("sqlprov: cannot translate Skip applied after Take")
			}
			n, err := constCount(call)
			if err != nil {
				return nil, err
			}
			t.offset += n

		case querytree.MethodCount:
			if t.paginated() {
				return nil, fmt.Errorf("sqlprov: cannot translate Count applied after Take or Skip")
			}
			t.count = true

		case querytree.MethodSelect:
			if i != 0 {
				return nil, fmt.Errorf("sqlprov: Select must be the outermost operator")
			}
			sel := call.Args[0].(*querytree.Lambda)
			col, err := t.selectorColumn(sel)
			if err != nil {
				return nil, err
			}
			t.projected = col
			t.projectedType = sel.Body.Type()

		case querytree.MethodFirst, querytree.MethodFirstOrDefault:
			return nil, fmt.Errorf("sqlprov: %s belongs to the engine's resolution step; tree still contains it", call.Method)

		default:
			return nil, fmt.Errorf("sqlprov: unsupported operator %s", call.Method)
		}
	}

	return t.render(table)
}

type translator struct {
	dialect Dialect
	elem    reflect.Type

	where         []string
	order         []string
	limit         int
	offset        int
	count         bool
	projected     string
	projectedType reflect.Type
	args          []any
}

func (t *translator) paginated() bool { return t.limit >= 0 || t.offset > 0 }

func (t *translator) render(table string) (*statement, error) {
	var b strings.Builder
	st := &statement{count: t.count}

	b.WriteString("SELECT ")
	switch {
	case t.count:
		b.WriteString("COUNT(*)")
	case t.projected != "":
		b.WriteString(t.dialect.quote(t.projected))
		st.scanType = t.projectedType
	default:
		cols, fields, err := entityColumns(t.elem)
		if err != nil {
			return nil, err
		}
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(t.dialect.quote(c))
		}
		st.scanType = t.elem
		st.fields = fields
	}
	b.WriteString(" FROM ")
	b.WriteString(t.dialect.quote(table))

	if len(t.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(t.where, " AND "))
	}
	if len(t.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(t.order, ", "))
	}
	b.WriteString(t.dialect.limitClause(t.limit, t.offset))

	st.SQL = b.String()
	st.Args = t.args
	return st, nil
}

// condition renders a predicate lambda as a WHERE condition.
func (t *translator) condition(pred *querytree.Lambda) (string, error) {
	return t.boolExpr(pred.Body, pred.Params[0])
}

func (t *translator) boolExpr(e querytree.Expr, row *querytree.Parameter) (string, error) {
	switch n := e.(type) {
	case *querytree.Binary:
		return t.binary(n, row)
	case *querytree.Unary:
		if n.Op != querytree.OpNot {
			return "", fmt.Errorf("sqlprov: cannot translate %s as a condition", querytree.Format(e))
		}
		inner, err := t.boolExpr(n.Operand, row)
		if err != nil {
			return "", err
		}
		return "NOT " + inner, nil
	case *querytree.Member:
		// A bare boolean column.
		col, err := t.column(n, row)
		if err != nil {
			return "", err
		}
		return t.dialect.quote(col), nil
	default:
		return "", fmt.Errorf("sqlprov: cannot translate %s as a condition", querytree.Format(e))
	}
}

func (t *translator) binary(n *querytree.Binary, row *querytree.Parameter) (string, error) {
	switch n.Op {
	case querytree.OpAnd, querytree.OpOr:
		op := "AND"
		if n.Op == querytree.OpOr {
			op = "OR"
		}
		left, err := t.boolExpr(n.Left, row)
		if err != nil {
			return "", err
		}
		right, err := t.boolExpr(n.Right, row)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + op + " " + right + ")", nil
	}

	// Null comparisons render as IS NULL so they match SQL semantics.
	if c, ok := nullConstant(n.Left, n.Right); ok {
		col, err := t.operand(c, row)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case querytree.OpEq:
			return "(" + col + " IS NULL)", nil
		case querytree.OpNe:
			return "(" + col + " IS NOT NULL)", nil
		default:
			return "", fmt.Errorf("sqlprov: cannot order against NULL in %s", querytree.Format(n))
		}
	}

	op, ok := sqlOps[n.Op]
	if !ok {
		return "", fmt.Errorf("sqlprov: unsupported operator %q", n.Op)
	}
	left, err := t.operand(n.Left, row)
	if err != nil {
		return "", err
	}
	right, err := t.operand(n.Right, row)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

var sqlOps = map[querytree.BinaryOp]string{
	querytree.OpEq: "=",
	querytree.OpNe: "<>",
	querytree.OpGt: ">",
	querytree.OpGe: ">=",
	querytree.OpLt: "<",
	querytree.OpLe: "<=",
}

// nullConstant reports the non-null side of a comparison against a nil
// constant, if either side is one.
func nullConstant(left, right querytree.Expr) (querytree.Expr, bool) {
	if c, ok := left.(*querytree.Constant); ok && c.Value == nil {
		return right, true
	}
	if c, ok := right.(*querytree.Constant); ok && c.Value == nil {
		return left, true
	}
	return nil, false
}

func (t *translator) operand(e querytree.Expr, row *querytree.Parameter) (string, error) {
	switch n := e.(type) {
	case *querytree.Member:
		col, err := t.column(n, row)
		if err != nil {
			return "", err
		}
		return t.dialect.quote(col), nil
	case *querytree.Constant:
		v := n.Value
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
			v = rv.Elem().Interface()
		}
		t.args = append(t.args, v)
		return t.dialect.placeholder(len(t.args)), nil
	case *querytree.Unary:
		if n.Op != querytree.OpNeg {
			return "", fmt.Errorf("sqlprov: cannot translate operand %s", querytree.Format(e))
		}
		inner, err := t.operand(n.Operand, row)
		if err != nil {
			return "", err
		}
		return "-" + inner, nil
	case *querytree.Parameter:
		return "", fmt.Errorf("sqlprov: tree references parameter %q outside a column position; specialized trees must embed values as constants", n.Name)
	default:
		return "", fmt.Errorf("sqlprov: cannot translate operand %s", querytree.Format(e))
	}
}

// column resolves a member access on the row parameter to its column name.
func (t *translator) column(m *querytree.Member, row *querytree.Parameter) (string, error) {
	target, ok := m.Target.(*querytree.Parameter)
	if !ok || target != row {
		return "", fmt.Errorf("sqlprov: cannot translate %s: only direct row fields map to columns", querytree.Format(m))
	}
	col, ok := columnFor(t.elem, m.Name)
	if !ok {
		return "", fmt.Errorf("sqlprov: %s has no column mapping for field %s", t.elem, m.Name)
	}
	return col, nil
}

// selectorColumn resolves a key-selector lambda to a single column.
func (t *translator) selectorColumn(sel *querytree.Lambda) (string, error) {
	m, ok := sel.Body.(*querytree.Member)
	if !ok {
		return "", fmt.Errorf("sqlprov: selector %s must be a single field access", querytree.Format(sel))
	}
	return t.column(m, sel.Params[0])
}

func constCount(call *querytree.Call) (int, error) {
	c, ok := call.Args[0].(*querytree.Constant)
	if !ok {
		return 0, fmt.Errorf("sqlprov: %s count must be a constant, got %s", call.Method, querytree.Format(call.Args[0]))
	}
	// Named int types are valid count operands; only the kind is fixed.
	rv := reflect.ValueOf(c.Value)
	if !rv.IsValid() || rv.Kind() != reflect.Int {
		return 0, fmt.Errorf("sqlprov: %s count must be an int, got %T", call.Method, c.Value)
	}
	n := int(rv.Int())
	if n < 0 {
		n = 0
	}
	return n, nil
}

// tableFor maps a context member onto its table via the context struct
// field's `table` tag, defaulting to the snake-cased field name.
func tableFor(root *querytree.Member) (string, reflect.Type, error) {
	ct := root.Target.Type()
	if ct.Kind() == reflect.Pointer {
		ct = ct.Elem()
	}
	sf, _ := ct.FieldByName(root.Name)
	if sf.Type.Kind() != reflect.Slice || sf.Type.Elem().Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("sqlprov: context field %s.%s is not an entity sequence", ct, root.Name)
	}
	table := sf.Tag.Get("table")
	if table == "" {
		table = snakeCase(root.Name)
	}
	return table, sf.Type.Elem(), nil
}

// entityColumns maps an entity struct's exported fields to columns, honoring
// `db` tags ("-" skips a field).
func entityColumns(elem reflect.Type) (cols []string, fields []int, err error) {
	for i := 0; i < elem.NumField(); i++ {
		sf := elem.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		col := tag
		if col == "" {
			col = snakeCase(sf.Name)
		}
		cols = append(cols, col)
		fields = append(fields, i)
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("sqlprov: entity %s has no mappable columns", elem)
	}
	return cols, fields, nil
}

func columnFor(elem reflect.Type, field string) (string, bool) {
	sf, ok := elem.FieldByName(field)
	if !ok {
		return "", false
	}
	tag := sf.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if tag != "" {
		return tag, true
	}
	return snakeCase(field), true
}

// snakeCase lowers a Go name, keeping acronyms as one word: OwnerID becomes
// owner_id, URLPath becomes url_path.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			boundary := i > 0 && (runes[i-1] < 'A' || runes[i-1] > 'Z')
			if !boundary && i > 0 && i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				boundary = true
			}
			if boundary {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
