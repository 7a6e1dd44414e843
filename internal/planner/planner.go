// Package planner recursively walks FROM-clause AST nodes (RangeVar,
// JoinExpr) into a (QueryTables, row stream) pair, and implements the
// join algorithms: inner, left, right, full, and cross/comma.
package planner

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/compiler"
	"github.com/zoravur/pgmock/internal/pgerror"
	"github.com/zoravur/pgmock/internal/qtables"
)

// Stream is a pull iterator over bound rows: each call returns the next
// row, whether one was available, and any error. The streams Plan returns
// iterate over rows that are already built in memory, and ExecuteSelect
// (internal/engine) drains every FROM-clause stream into a slice before
// WHERE, ORDER BY and projection run; no operator consumes rows lazily.
type Stream func() (qtables.BoundRow, bool, error)

func FromSlice(rows []qtables.BoundRow) Stream {
	i := 0
	return func() (qtables.BoundRow, bool, error) {
		if i >= len(rows) {
			return nil, false, nil
		}
		row := rows[i]
		i++
		return row, true, nil
	}
}

// Materialize drains s into a slice. Join implementations must
// materialize a producer consumed more than once — both sides of a
// nested-loop join are materialized up front.
func (s Stream) Materialize() ([]qtables.BoundRow, error) {
	var out []qtables.BoundRow
	for {
		row, ok, err := s()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

// Plan recursively plans a single FROM-clause entry: a base relation or a
// join tree. It returns the QueryTables registering every source visible
// within it, and the row stream it produces.
func Plan(db *catalog.Database, node *pg_query.Node) (*qtables.QueryTables, Stream, error) {
	if rv := node.GetRangeVar(); rv != nil {
		return planRangeVar(db, rv)
	}
	if je := node.GetJoinExpr(); je != nil {
		return planJoinExpr(db, je)
	}
	return nil, nil, pgerror.NotImplemented("from-clause node")
}

func planRangeVar(db *catalog.Database, rv *pg_query.RangeVar) (*qtables.QueryTables, Stream, error) {
	schemaName := rv.GetSchemaname()
	table, err := db.GetTable(rv.GetRelname(), schemaName)
	if err != nil {
		return nil, nil, err
	}

	alias := ""
	if a := rv.GetAlias(); a != nil {
		alias = a.GetAliasname()
	}

	qt := qtables.New()
	sourceID, err := qt.Add(table, alias)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]qtables.BoundRow, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = qtables.BoundRow{sourceID: row}
	}
	return qt, FromSlice(rows), nil
}

func planJoinExpr(db *catalog.Database, je *pg_query.JoinExpr) (*qtables.QueryTables, Stream, error) {
	leftQT, leftStream, err := Plan(db, je.GetLarg())
	if err != nil {
		return nil, nil, err
	}
	rightQT, rightStream, err := Plan(db, je.GetRarg())
	if err != nil {
		return nil, nil, err
	}

	mergedQT, err := leftQT.Merge(rightQT)
	if err != nil {
		return nil, nil, err
	}

	var quals compiler.Expr
	if q := je.GetQuals(); q != nil {
		quals, err = compiler.New(db, mergedQT).Compile(q)
		if err != nil {
			return nil, nil, err
		}
	}

	leftRows, err := leftStream.Materialize()
	if err != nil {
		return nil, nil, err
	}
	rightRows, err := rightStream.Materialize()
	if err != nil {
		return nil, nil, err
	}

	rows, err := JoinRows(leftQT, leftRows, rightQT, rightRows, quals, je.GetJointype())
	if err != nil {
		return nil, nil, err
	}
	return mergedQT, FromSlice(rows), nil
}

// mergeBoundRow keys-unions l and r; on conflict r wins, though
// QueryTables.Add's collision rules mean a genuine conflict cannot arise.
func mergeBoundRow(l, r qtables.BoundRow) qtables.BoundRow {
	out := make(qtables.BoundRow, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func truthy(v catalog.Value) bool {
	return v.Kind == catalog.KindBool && v.Bool
}

func evalQual(quals compiler.Expr, row qtables.BoundRow) (bool, error) {
	if quals == nil {
		return true, nil
	}
	v, err := quals.Eval(row)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// JoinRows implements the row-merge semantics for the four join types.
// Cross/comma joins call this with quals == nil and jointype ==
// pg_query.JoinType_JOIN_INNER.
func JoinRows(
	leftQT *qtables.QueryTables, leftRows []qtables.BoundRow,
	rightQT *qtables.QueryTables, rightRows []qtables.BoundRow,
	quals compiler.Expr, jointype pg_query.JoinType,
) ([]qtables.BoundRow, error) {
	var out []qtables.BoundRow

	switch jointype {
	case pg_query.JoinType_JOIN_INNER:
		for _, lr := range leftRows {
			for _, rr := range rightRows {
				merged := mergeBoundRow(lr, rr)
				ok, err := evalQual(quals, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
				}
			}
		}

	case pg_query.JoinType_JOIN_LEFT:
		for _, lr := range leftRows {
			matched := false
			for _, rr := range rightRows {
				merged := mergeBoundRow(lr, rr)
				ok, err := evalQual(quals, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
					matched = true
				}
			}
			if !matched {
				out = append(out, mergeBoundRow(lr, rightQT.NullRow()))
			}
		}

	case pg_query.JoinType_JOIN_RIGHT:
		for _, rr := range rightRows {
			matched := false
			for _, lr := range leftRows {
				merged := mergeBoundRow(lr, rr)
				ok, err := evalQual(quals, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
					matched = true
				}
			}
			if !matched {
				out = append(out, mergeBoundRow(leftQT.NullRow(), rr))
			}
		}

	case pg_query.JoinType_JOIN_FULL:
		rightMatched := make([]bool, len(rightRows))
		for _, lr := range leftRows {
			matched := false
			for ri, rr := range rightRows {
				merged := mergeBoundRow(lr, rr)
				ok, err := evalQual(quals, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
					matched = true
					rightMatched[ri] = true
				}
			}
			if !matched {
				out = append(out, mergeBoundRow(lr, rightQT.NullRow()))
			}
		}
		for ri, rr := range rightRows {
			if !rightMatched[ri] {
				out = append(out, mergeBoundRow(leftQT.NullRow(), rr))
			}
		}

	default:
		return nil, pgerror.NotImplemented("join type")
	}

	return out, nil
}

// CrossJoin folds a comma-separated FROM-clause entry into the running
// stream: a Cartesian product with no ON condition, implemented as
// JoinRows with no quals.
func CrossJoin(
	leftQT *qtables.QueryTables, leftRows []qtables.BoundRow,
	rightQT *qtables.QueryTables, rightRows []qtables.BoundRow,
) ([]qtables.BoundRow, error) {
	return JoinRows(leftQT, leftRows, rightQT, rightRows, nil, pg_query.JoinType_JOIN_INNER)
}
