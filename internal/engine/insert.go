package engine

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/compiler"
	"github.com/zoravur/pgmock/internal/pgerror"
	"github.com/zoravur/pgmock/internal/qtables"
)

// ExecuteInsert appends one row per VALUES tuple to the named table.
// Each tuple is zipped against the statement's explicit column list when
// one is given, matching how INSERT with a partial column list works
// against PostgreSQL; without a column list it is zipped against the
// table's full row type. INSERT ... SELECT is not supported —
// out of scope alongside subqueries generally.
func ExecuteInsert(db *catalog.Database, stmt *pg_query.InsertStmt) (catalog.Database, *ResultSet, error) {
	rel := stmt.GetRelation()
	table, err := db.GetTable(rel.GetRelname(), rel.GetSchemaname())
	if err != nil {
		return catalog.Database{}, nil, err
	}

	var colNames []string
	for _, c := range stmt.GetCols() {
		rt := c.GetResTarget()
		if rt == nil {
			return catalog.Database{}, nil, pgerror.NotImplemented("INSERT column list entry")
		}
		colNames = append(colNames, rt.GetName())
	}
	if len(colNames) == 0 {
		colNames = table.Type.Columns()
	}

	selectNode := stmt.GetSelectStmt()
	if selectNode == nil {
		return catalog.Database{}, nil, pgerror.NotImplemented("INSERT without VALUES")
	}
	valuesSelect := selectNode.GetSelectStmt()
	if valuesSelect == nil || len(valuesSelect.GetValuesLists()) == 0 {
		return catalog.Database{}, nil, pgerror.NotImplemented("INSERT ... SELECT")
	}

	emptyQT := qtables.New()
	c := compiler.New(db, emptyQT)

	var newRows []catalog.Row
	for _, tuple := range valuesSelect.GetValuesLists() {
		items := tuple.GetList().GetItems()
		if len(items) > len(colNames) {
			return catalog.Database{}, nil, pgerror.SyntaxError("INSERT has more expressions than target columns")
		}
		if len(items) < len(colNames) {
			return catalog.Database{}, nil, pgerror.SyntaxError("INSERT has more target columns than expressions")
		}

		values := make(map[string]catalog.Value, len(items))
		for i, item := range items {
			expr, err := c.Compile(item)
			if err != nil {
				return catalog.Database{}, nil, err
			}
			v, err := expr.Eval(qtables.BoundRow{})
			if err != nil {
				return catalog.Database{}, nil, err
			}
			values[colNames[i]] = v
		}

		row, err := table.NewRow(values)
		if err != nil {
			return catalog.Database{}, nil, err
		}
		newRows = append(newRows, row)
	}

	table = table.Insert(newRows...)
	newDB := db.UpdateTable(table)
	return newDB, &ResultSet{RowsAffected: len(newRows)}, nil
}
