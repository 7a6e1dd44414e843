package engine

import (
	"sort"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/compiler"
	"github.com/zoravur/pgmock/internal/pgerror"
	"github.com/zoravur/pgmock/internal/planner"
	"github.com/zoravur/pgmock/internal/qtables"
)

// projection is one compiled SELECT target: a display name plus the
// expression that produces its value for a given bound row.
type projection struct {
	name string
	expr compiler.Expr
}

// ExecuteSelect runs a SELECT statement to completion: plan the FROM
// clause, fold comma joins, filter by WHERE, sort by ORDER BY, then
// project the target list.
func ExecuteSelect(db *catalog.Database, stmt *pg_query.SelectStmt) (*ResultSet, error) {
	qt, rows, err := planFrom(db, stmt.GetFromClause())
	if err != nil {
		return nil, err
	}

	if where := stmt.GetWhereClause(); where != nil {
		whereExpr, err := compiler.New(db, qt).Compile(where)
		if err != nil {
			return nil, err
		}
		rows, err = filterRows(rows, whereExpr)
		if err != nil {
			return nil, err
		}
	}

	if sortClause := stmt.GetSortClause(); len(sortClause) > 0 {
		if err := sortRows(db, qt, rows, sortClause); err != nil {
			return nil, err
		}
	}

	projections, err := compileTargetList(db, qt, stmt.GetTargetList())
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(projections))
	for i, p := range projections {
		cols[i] = p.name
	}

	out := make([][]catalog.Value, len(rows))
	for i, row := range rows {
		vals := make([]catalog.Value, len(projections))
		for j, p := range projections {
			v, err := p.expr.Eval(row)
			if err != nil {
				return nil, err
			}
			vals[j] = v
		}
		out[i] = vals
	}

	return &ResultSet{Columns: cols, Rows: out}, nil
}

// planFrom folds every FROM-clause entry left-to-right with a plain
// cross join (a "comma join"); a FROM-less SELECT (e.g. "SELECT 1")
// produces a single empty bound row.
func planFrom(db *catalog.Database, fromClause []*pg_query.Node) (*qtables.QueryTables, []qtables.BoundRow, error) {
	if len(fromClause) == 0 {
		return qtables.New(), []qtables.BoundRow{{}}, nil
	}

	var qt *qtables.QueryTables
	var rows []qtables.BoundRow
	for i, node := range fromClause {
		itemQT, itemStream, err := planner.Plan(db, node)
		if err != nil {
			return nil, nil, err
		}
		itemRows, err := itemStream.Materialize()
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			qt, rows = itemQT, itemRows
			continue
		}
		merged, err := qt.Merge(itemQT)
		if err != nil {
			return nil, nil, err
		}
		rows, err = planner.CrossJoin(qt, rows, itemQT, itemRows)
		if err != nil {
			return nil, nil, err
		}
		qt = merged
	}
	return qt, rows, nil
}

func filterRows(rows []qtables.BoundRow, whereExpr compiler.Expr) ([]qtables.BoundRow, error) {
	var out []qtables.BoundRow
	for _, row := range rows {
		v, err := whereExpr.Eval(row)
		if err != nil {
			return nil, err
		}
		if v.Kind == catalog.KindBool && v.Bool {
			out = append(out, row)
		}
	}
	return out, nil
}

// isStar reports whether a target's expression is the bare "*" ColumnRef.
func isStar(node *pg_query.Node) bool {
	colref := node.GetColumnRef()
	if colref == nil || len(colref.GetFields()) != 1 {
		return false
	}
	return colref.GetFields()[0].GetAStar() != nil
}

func compileTargetList(db *catalog.Database, qt *qtables.QueryTables, targets []*pg_query.Node) ([]projection, error) {
	var out []projection
	for _, t := range targets {
		rt := t.GetResTarget()
		if rt == nil {
			return nil, pgerror.NotImplemented("SELECT target (not a ResTarget)")
		}
		val := rt.GetVal()
		if isStar(val) {
			for _, src := range qt.Sources() {
				for _, col := range src.Table.Type.Columns() {
					out = append(out, projection{name: col, expr: compiler.ColumnExpr(src.ID, col)})
				}
			}
			continue
		}

		expr, err := compiler.New(db, qt).Compile(val)
		if err != nil {
			return nil, err
		}
		name := rt.GetName()
		if name == "" {
			name = expr.Name()
		}
		if name == "" {
			name = "?column?"
		}
		out = append(out, projection{name: name, expr: expr})
	}
	return out, nil
}

// sortKey is one ORDER BY term, compiled and ready to compare.
type sortKey struct {
	expr       compiler.Expr
	descending bool
	nullsFirst bool
}

func sortRows(db *catalog.Database, qt *qtables.QueryTables, rows []qtables.BoundRow, sortClause []*pg_query.Node) error {
	keys := make([]sortKey, 0, len(sortClause))
	for _, node := range sortClause {
		sb := node.GetSortBy()
		if sb == nil {
			return pgerror.NotImplemented("ORDER BY term (not a SortBy)")
		}
		if ac := sb.GetNode().GetAConst(); ac != nil {
			if ac.GetIval() != nil {
				return pgerror.NotImplemented("ORDER BY position")
			}
			return pgerror.SyntaxError("non-integer constant in ORDER BY")
		}
		expr, err := compiler.New(db, qt).Compile(sb.GetNode())
		if err != nil {
			return err
		}

		descending := sb.GetSortbyDir() == pg_query.SortByDir_SORTBY_DESC
		nullsFirst := descending
		switch sb.GetSortbyNulls() {
		case pg_query.SortByNulls_SORTBY_NULLS_FIRST:
			nullsFirst = true
		case pg_query.SortByNulls_SORTBY_NULLS_LAST:
			nullsFirst = false
		}
		keys = append(keys, sortKey{expr: expr, descending: descending, nullsFirst: nullsFirst})
	}

	var evalErr error
	less := func(i, j int) bool {
		for _, k := range keys {
			vi, err := k.expr.Eval(rows[i])
			if err != nil {
				evalErr = err
				return false
			}
			vj, err := k.expr.Eval(rows[j])
			if err != nil {
				evalErr = err
				return false
			}

			switch {
			case vi.IsNull() && vj.IsNull():
				continue
			case vi.IsNull():
				return k.nullsFirst
			case vj.IsNull():
				return !k.nullsFirst
			case vi.Equal(vj):
				continue
			case vi.Less(vj):
				return !k.descending
			default:
				return k.descending
			}
		}
		return false
	}

	sort.SliceStable(rows, less)
	return evalErr
}
