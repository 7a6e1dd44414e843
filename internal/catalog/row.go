package catalog

import "github.com/zoravur/pgmock/internal/pgerror"

// RowType is the ordered sequence of column names belonging to a table,
// derived at CREATE TABLE time from the parsed column list, in declaration
// order.
type RowType struct {
	columns []string
	index   map[string]int
}

func NewRowType(columns []string) RowType {
	idx := make(map[string]int, len(columns))
	cp := make([]string, len(columns))
	for i, c := range columns {
		cp[i] = c
		idx[c] = i
	}
	return RowType{columns: cp, index: idx}
}

func (rt RowType) Columns() []string {
	return append([]string(nil), rt.columns...)
}

func (rt RowType) Has(col string) bool {
	_, ok := rt.index[col]
	return ok
}

func (rt RowType) Len() int { return len(rt.columns) }

// Row is an immutable keyed map from column name to Value, constrained to
// a RowType's columns. A column absent from the underlying map reads as
// NULL — this is how outer-join padding and sparse construction work.
type Row struct {
	rowType RowType
	values  map[string]Value
}

// NewRow validates that every key in values is a column of rt, then
// returns an immutable Row. relName is used only for the error message;
// callers without a concrete relation name in scope (e.g. building a
// null row) may pass "".
func NewRow(rt RowType, relName string, values map[string]Value) (Row, error) {
	cp := make(map[string]Value, len(values))
	for k, v := range values {
		if !rt.Has(k) {
			name := relName
			if name == "" {
				name = "?"
			}
			return Row{}, pgerror.UndefinedColumn(`column "%s" of relation "%s" does not exist`, k, name)
		}
		cp[k] = v
	}
	return Row{rowType: rt, values: cp}, nil
}

// NullRow returns a row whose columns all read as NULL, used to pad the
// non-matching side of an outer join.
func NullRow(rt RowType) Row {
	return Row{rowType: rt}
}

func (r Row) RowType() RowType { return r.rowType }

func (r Row) Get(col string) Value {
	if v, ok := r.values[col]; ok {
		return v
	}
	return Null()
}
