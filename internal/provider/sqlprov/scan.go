package sqlprov

import (
	"database/sql"
	"fmt"
	"reflect"
)

// scanRows reads every row into a typed slice of the statement's scan type.
// Entity rows scan column by column into the selected struct fields;
// projected rows scan into the scalar directly.
func scanRows(rows *sql.Rows, stmt *statement) (any, error) {
	out := reflect.MakeSlice(reflect.SliceOf(stmt.scanType), 0, 16)

	for rows.Next() {
		rv := reflect.New(stmt.scanType).Elem()
		var dest []any
		if stmt.fields != nil {
			dest = make([]any, len(stmt.fields))
			for i, f := range stmt.fields {
				dest[i] = rv.Field(f).Addr().Interface()
			}
		} else {
			dest = []any{rv.Addr().Interface()}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlprov: scan into %s: %w", stmt.scanType, err)
		}
		out = reflect.Append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlprov: %w", err)
	}
	return out.Interface(), nil
}
