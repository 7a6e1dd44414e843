package engine

import (
	"testing"

	"go.uber.org/zap"
)

func execOne(t *testing.T, db *MockDatabase, sql string) *ResultSet {
	t.Helper()
	rs, err := db.ExecuteOne(sql)
	if err != nil {
		t.Fatalf("ExecuteOne(%q): %v", sql, err)
	}
	return rs
}

func TestCreateAndInsertAndSelect(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())

	execOne(t, db, `CREATE TABLE widgets (id integer, name text)`)
	rs := execOne(t, db, `INSERT INTO widgets (id, name) VALUES (1, 'bolt'), (2, 'nut')`)
	if rs.RowsAffected != 2 {
		t.Fatalf("expected 2 rows affected, got %d", rs.RowsAffected)
	}

	rs = execOne(t, db, `SELECT id, name FROM widgets ORDER BY id`)
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
	}
	if rs.Rows[0][1].Native() != "bolt" || rs.Rows[1][1].Native() != "nut" {
		t.Fatalf("expected [bolt, nut] in id order, got %v", rs.Native())
	}
}

func TestSelectStar(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	execOne(t, db, `CREATE TABLE widgets (id integer, name text)`)
	execOne(t, db, `INSERT INTO widgets (id, name) VALUES (1, 'bolt')`)

	rs := execOne(t, db, `SELECT * FROM widgets`)
	if len(rs.Columns) != 2 || rs.Columns[0] != "id" || rs.Columns[1] != "name" {
		t.Fatalf("expected columns [id name] in declaration order, got %v", rs.Columns)
	}
}

func TestSelectWithWhere(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	execOne(t, db, `CREATE TABLE widgets (id integer, name text)`)
	execOne(t, db, `INSERT INTO widgets (id, name) VALUES (1, 'bolt'), (2, 'nut'), (3, 'bolt')`)

	rs := execOne(t, db, `SELECT id FROM widgets WHERE name = 'bolt' ORDER BY id`)
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 matching rows, got %d", len(rs.Rows))
	}
	if rs.Rows[0][0].Native() != int64(1) || rs.Rows[1][0].Native() != int64(3) {
		t.Fatalf("expected ids [1 3], got %v", rs.Native())
	}
}

func TestOrderByDesc(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	execOne(t, db, `CREATE TABLE widgets (id integer, rank integer)`)
	execOne(t, db, `INSERT INTO widgets (id, rank) VALUES (1, 3), (2, 1), (3, 2)`)

	rs := execOne(t, db, `SELECT id FROM widgets ORDER BY rank DESC`)
	got := []any{rs.Rows[0][0].Native(), rs.Rows[1][0].Native(), rs.Rows[2][0].Native()}
	want := []any{int64(1), int64(3), int64(2)}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestInnerJoin(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	execOne(t, db, `CREATE TABLE a (id integer, label text)`)
	execOne(t, db, `CREATE TABLE b (a_id integer, note text)`)
	execOne(t, db, `INSERT INTO a (id, label) VALUES (1, 'one'), (2, 'two')`)
	execOne(t, db, `INSERT INTO b (a_id, note) VALUES (1, 'n1')`)

	rs := execOne(t, db, `SELECT a.label, b.note FROM a JOIN b ON a.id = b.a_id`)
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 joined row, got %d", len(rs.Rows))
	}
	if rs.Rows[0][0].Native() != "one" || rs.Rows[0][1].Native() != "n1" {
		t.Fatalf("unexpected joined row: %v", rs.Native())
	}
}

func TestLeftJoinPadsWithNull(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	execOne(t, db, `CREATE TABLE a (id integer, label text)`)
	execOne(t, db, `CREATE TABLE b (a_id integer, note text)`)
	execOne(t, db, `INSERT INTO a (id, label) VALUES (1, 'one'), (2, 'two')`)
	execOne(t, db, `INSERT INTO b (a_id, note) VALUES (1, 'n1')`)

	rs := execOne(t, db, `SELECT a.label, b.note FROM a LEFT JOIN b ON a.id = b.a_id ORDER BY a.label`)
	if len(rs.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rs.Rows))
	}
	// ORDER BY a.label ASC: "one" (matched, note="n1") then "two" (unmatched, note=NULL).
	if rs.Rows[0][1].Native() != "n1" {
		t.Fatalf("expected matched row's note to be n1, got %v", rs.Native())
	}
	if rs.Rows[1][1].Native() != nil {
		t.Fatalf("expected unmatched row's note to be NULL, got %v", rs.Native())
	}
}

func TestExecuteStopsOnFirstError(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	_, err := db.Execute(`CREATE TABLE widgets (id integer); SELECT missing_col FROM widgets;`)
	if err == nil {
		t.Fatal("expected an error from the second statement")
	}
	// the CREATE already took effect even though the batch as a whole failed.
	if _, err := db.ExecuteOne(`SELECT id FROM widgets`); err != nil {
		t.Fatalf("expected widgets to exist despite the later failure: %v", err)
	}
}

func TestExecuteLazyStreamsEachStatement(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	ch, err := db.ExecuteLazy(`CREATE TABLE widgets (id integer); INSERT INTO widgets (id) VALUES (1); SELECT id FROM widgets;`)
	if err != nil {
		t.Fatalf("ExecuteLazy: %v", err)
	}
	var n int
	for lr := range ch {
		if lr.Err != nil {
			t.Fatalf("unexpected error: %v", lr.Err)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 streamed results, got %d", n)
	}
}

func TestExecuteOneRejectsMultipleStatements(t *testing.T) {
	db := NewMockDatabase(zap.NewNop())
	if _, err := db.ExecuteOne(`SELECT 1; SELECT 2;`); err == nil {
		t.Fatal("expected an error for more than one statement")
	}
}
