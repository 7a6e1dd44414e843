package compiler

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/qtables"
)

// parseExpr parses a throwaway "SELECT <expr>" statement and returns the
// single target's expression node, for compiling without hand-building
// protobuf trees.
func parseExpr(t *testing.T, expr string) *pg_query.Node {
	t.Helper()
	result, err := pg_query.Parse("SELECT " + expr)
	if err != nil {
		t.Fatalf("parse %q: %v", expr, err)
	}
	stmt := result.GetStmts()[0].GetStmt().GetSelectStmt()
	return stmt.GetTargetList()[0].GetResTarget().GetVal()
}

func testDB(t *testing.T) (*catalog.Database, *qtables.QueryTables) {
	t.Helper()
	db := catalog.NewDatabase().CreateTable("public", "t", []string{"id", "name", "flag"})
	table, err := db.GetTable("t", "public")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	qt := qtables.New()
	if _, err := qt.Add(table, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return &db, qt
}

func evalRow(t *testing.T, db *catalog.Database, qt *qtables.QueryTables, expr string, row qtables.BoundRow) catalog.Value {
	t.Helper()
	node := parseExpr(t, expr)
	compiled, err := New(db, qt).Compile(node)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	v, err := compiled.Eval(row)
	if err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}
	return v
}

func TestCompileConstants(t *testing.T) {
	db, qt := testDB(t)
	row := qtables.BoundRow{}

	if v := evalRow(t, db, qt, "1", row); v.Kind != catalog.KindInt || v.Int != 1 {
		t.Fatalf("expected int 1, got %+v", v)
	}
	if v := evalRow(t, db, qt, "'hi'", row); v.Kind != catalog.KindText || v.Text != "hi" {
		t.Fatalf("expected text 'hi', got %+v", v)
	}
	if v := evalRow(t, db, qt, "true", row); v.Kind != catalog.KindBool || !v.Bool {
		t.Fatalf("expected true, got %+v", v)
	}
}

func TestCompileColumnRef(t *testing.T) {
	db, qt := testDB(t)
	table, _ := db.GetTable("t", "public")
	row := qtables.BoundRow{"public.t": mustRow(t, table, map[string]catalog.Value{"id": catalog.IntValue(42)})}

	if v := evalRow(t, db, qt, "id", row); v.Kind != catalog.KindInt || v.Int != 42 {
		t.Fatalf("expected int 42, got %+v", v)
	}
}

func mustRow(t *testing.T, table catalog.Table, values map[string]catalog.Value) catalog.Row {
	t.Helper()
	row, err := table.NewRow(values)
	if err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	return row
}

func TestCompileArithmeticAndComparison(t *testing.T) {
	db, qt := testDB(t)
	row := qtables.BoundRow{}

	if v := evalRow(t, db, qt, "1 + 2", row); v.Int != 3 {
		t.Fatalf("expected 3, got %+v", v)
	}
	if v := evalRow(t, db, qt, "5 - 2", row); v.Int != 3 {
		t.Fatalf("expected 3, got %+v", v)
	}
	if v := evalRow(t, db, qt, "1 < 2", row); !v.Bool {
		t.Fatalf("expected true, got %+v", v)
	}
	if v := evalRow(t, db, qt, "1 = 2", row); v.Bool {
		t.Fatalf("expected false, got %+v", v)
	}
}

func TestNullPropagatesThroughComparisonAndArithmetic(t *testing.T) {
	db, qt := testDB(t)
	table, _ := db.GetTable("t", "public")
	row := qtables.BoundRow{"public.t": mustRow(t, table, map[string]catalog.Value{})}

	if v := evalRow(t, db, qt, "id = 1", row); !v.IsNull() {
		t.Fatalf("comparing NULL should yield NULL, got %+v", v)
	}
	if v := evalRow(t, db, qt, "id + 1", row); !v.IsNull() {
		t.Fatalf("arithmetic on NULL should yield NULL, got %+v", v)
	}
}

func TestBoolExprShortCircuitAndThreeValuedLogic(t *testing.T) {
	db, qt := testDB(t)
	table, _ := db.GetTable("t", "public")

	trueRow := qtables.BoundRow{"public.t": mustRow(t, table, map[string]catalog.Value{"flag": catalog.BoolValue(true)})}
	falseRow := qtables.BoundRow{"public.t": mustRow(t, table, map[string]catalog.Value{"flag": catalog.BoolValue(false)})}
	nullRow := qtables.BoundRow{"public.t": mustRow(t, table, map[string]catalog.Value{})}

	// false AND anything -> false, even when the other side is NULL (short-circuit).
	if v := evalRow(t, db, qt, "false AND flag", nullRow); v.Kind != catalog.KindBool || v.Bool {
		t.Fatalf("false AND NULL should be false, got %+v", v)
	}
	// true OR anything -> true.
	if v := evalRow(t, db, qt, "true OR flag", nullRow); v.Kind != catalog.KindBool || !v.Bool {
		t.Fatalf("true OR NULL should be true, got %+v", v)
	}
	// NULL AND true -> NULL (neither short-circuits to false).
	if v := evalRow(t, db, qt, "flag AND true", nullRow); !v.IsNull() {
		t.Fatalf("NULL AND true should be NULL, got %+v", v)
	}
	if v := evalRow(t, db, qt, "NOT flag", trueRow); v.Bool {
		t.Fatalf("NOT true should be false, got %+v", v)
	}
	if v := evalRow(t, db, qt, "NOT flag", falseRow); !v.Bool {
		t.Fatalf("NOT false should be true, got %+v", v)
	}
	if v := evalRow(t, db, qt, "NOT flag", nullRow); !v.IsNull() {
		t.Fatalf("NOT NULL should be NULL, got %+v", v)
	}
}

func TestCompileTypeCastAndFuncCall(t *testing.T) {
	db, qt := testDB(t)
	row := qtables.BoundRow{}

	if v := evalRow(t, db, qt, "'1'::integer", row); v.Kind != catalog.KindInt || v.Int != 1 {
		t.Fatalf("expected int 1, got %+v", v)
	}
	if v := evalRow(t, db, qt, "length('hello')", row); v.Kind != catalog.KindInt || v.Int != 5 {
		t.Fatalf("expected 5, got %+v", v)
	}
	if _, err := New(db, qt).Compile(parseExpr(t, "'nope'::integer")); err != nil {
		t.Fatalf("compiling a cast should succeed even though evaluating it fails: %v", err)
	}
}

func TestLikeAndILike(t *testing.T) {
	db, qt := testDB(t)
	row := qtables.BoundRow{}

	if v := evalRow(t, db, qt, "'hello' LIKE 'h_llo'", row); !v.Bool {
		t.Fatalf("expected LIKE match, got %+v", v)
	}
	if v := evalRow(t, db, qt, "'hello' LIKE 'H%'", row); v.Bool {
		t.Fatalf("LIKE should be case-sensitive, got %+v", v)
	}
	if v := evalRow(t, db, qt, "'hello' ILIKE 'H%'", row); !v.Bool {
		t.Fatalf("ILIKE should be case-insensitive, got %+v", v)
	}
	if v := evalRow(t, db, qt, "'hello' NOT LIKE 'x%'", row); !v.Bool {
		t.Fatalf("NOT LIKE should negate the match, got %+v", v)
	}
}

func TestUndefinedColumnError(t *testing.T) {
	db, qt := testDB(t)
	if _, err := New(db, qt).Compile(parseExpr(t, "missing_col")); err == nil {
		t.Fatal("expected UndefinedColumn for a column not in scope")
	}
}
