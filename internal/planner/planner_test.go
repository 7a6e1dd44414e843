package planner

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/compiler"
	"github.com/zoravur/pgmock/internal/qtables"
)

func seedDB(t *testing.T) *catalog.Database {
	t.Helper()
	db := catalog.NewDatabase().
		CreateTable("public", "a", []string{"id", "label"}).
		CreateTable("public", "b", []string{"a_id", "note"})

	aTable, _ := db.GetTable("a", "public")
	aTable = aTable.Insert(
		mustRow(t, aTable, map[string]catalog.Value{"id": catalog.IntValue(1), "label": catalog.TextValue("one")}),
		mustRow(t, aTable, map[string]catalog.Value{"id": catalog.IntValue(2), "label": catalog.TextValue("two")}),
	)
	db = db.UpdateTable(aTable)

	bTable, _ := db.GetTable("b", "public")
	bTable = bTable.Insert(
		mustRow(t, bTable, map[string]catalog.Value{"a_id": catalog.IntValue(1), "note": catalog.TextValue("matches one")}),
	)
	db = db.UpdateTable(bTable)

	return &db
}

func mustRow(t *testing.T, table catalog.Table, values map[string]catalog.Value) catalog.Row {
	t.Helper()
	row, err := table.NewRow(values)
	if err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	return row
}

func parseFrom(t *testing.T, sql string) *pg_query.Node {
	t.Helper()
	result, err := pg_query.Parse(sql)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	stmt := result.GetStmts()[0].GetStmt().GetSelectStmt()
	return stmt.GetFromClause()[0]
}

func TestPlanRangeVarYieldsOneRowPerTableRow(t *testing.T) {
	db := seedDB(t)
	qt, stream, err := Plan(db, parseFrom(t, "SELECT 1 FROM a"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	rows, err := stream.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(qt.SourceIDs()) != 1 || qt.SourceIDs()[0] != "public.a" {
		t.Fatalf("expected source public.a, got %v", qt.SourceIDs())
	}
}

func TestPlanRangeVarWithAlias(t *testing.T) {
	db := seedDB(t)
	qt, _, err := Plan(db, parseFrom(t, "SELECT 1 FROM a x"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(qt.SourceIDs()) != 1 || qt.SourceIDs()[0] != "x" {
		t.Fatalf("expected source x, got %v", qt.SourceIDs())
	}
}

func TestPlanInnerJoinFiltersUnmatched(t *testing.T) {
	db := seedDB(t)
	_, stream, err := Plan(db, parseFrom(t, "SELECT 1 FROM a JOIN b ON a.id = b.a_id"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	rows, err := stream.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 matching row (a.id=2 has no match in b), got %d", len(rows))
	}
}

func TestPlanLeftJoinPadsUnmatchedWithNull(t *testing.T) {
	db := seedDB(t)
	qt, stream, err := Plan(db, parseFrom(t, "SELECT 1 FROM a LEFT JOIN b ON a.id = b.a_id"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	rows, err := stream.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (a.id=2 padded with NULL), got %d", len(rows))
	}

	bSource, err := qt.GetColumnSource("note", "b", "")
	if err != nil {
		t.Fatalf("GetColumnSource: %v", err)
	}
	var sawNullPad bool
	for _, row := range rows {
		if row[bSource].Get("note").IsNull() {
			sawNullPad = true
		}
	}
	if !sawNullPad {
		t.Fatal("expected at least one row padded with NULL on the unmatched side")
	}
}

func TestCrossJoinIsCartesianProduct(t *testing.T) {
	db := seedDB(t)
	_, stream, err := Plan(db, parseFrom(t, "SELECT 1 FROM a, b"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	rows, err := stream.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (2 a rows x 1 b row), got %d", len(rows))
	}
}

func TestJoinRowsFullOuterKeepsUnmatchedLeftRow(t *testing.T) {
	db := seedDB(t)
	aQT, aStream, err := Plan(db, parseFrom(t, "SELECT 1 FROM a"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	bQT, bStream, err := Plan(db, parseFrom(t, "SELECT 1 FROM b"))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	aRows, _ := aStream.Materialize()
	bRows, _ := bStream.Materialize()

	mergedQT, err := aQT.Merge(bQT)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	aSrc, _ := mergedQT.GetColumnSource("id", "a", "")
	bSrc, _ := mergedQT.GetColumnSource("a_id", "b", "")

	quals := noQualsMatchingIDs(t, db, aSrc, bSrc)

	rows, err := JoinRows(aQT, aRows, bQT, bRows, quals, pg_query.JoinType_JOIN_FULL)
	if err != nil {
		t.Fatalf("JoinRows: %v", err)
	}
	// a has 2 rows (1 matches, 1 unmatched), b has 1 row (matches a.id=1):
	// full outer keeps the match plus a's unmatched row = 2.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from full outer join, got %d", len(rows))
	}
}

// noQualsMatchingIDs builds a compiled "a.id = b.a_id" qual for the full
// join test above.
func noQualsMatchingIDs(t *testing.T, db *catalog.Database, aSrc, bSrc string) compiler.Expr {
	t.Helper()
	return eqQual{aSrc: aSrc, bSrc: bSrc}
}

type eqQual struct{ aSrc, bSrc string }

func (q eqQual) Eval(row qtables.BoundRow) (catalog.Value, error) {
	a := row[q.aSrc].Get("id")
	b := row[q.bSrc].Get("a_id")
	if a.IsNull() || b.IsNull() {
		return catalog.Null(), nil
	}
	return catalog.BoolValue(a.Equal(b)), nil
}

func (q eqQual) Name() string { return "" }
