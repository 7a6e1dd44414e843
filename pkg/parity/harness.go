//go:build parity

package parity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zoravur/pgmock/internal/engine"
)

// Harness runs the same SQL against a pgmock.MockDatabase and a disposable
// real PostgreSQL container, failing the calling test on divergence. It
// alternates the lib/pq and pgx/v5 stdlib drivers across calls so both
// drivers get exercised (the engine itself never touches either; this
// harness is the only place in the module that does).
type Harness struct {
	calls int
}

func New() *Harness { return &Harness{} }

// Check runs setupSQL (typically CREATE TABLE / INSERT statements) then
// querySQL against mdb, then replays the same statements against a fresh
// sandbox schema on the shared container, and asserts the two agree. Row
// order is only required to match when querySQL contains an ORDER BY.
func (h *Harness) Check(t *testing.T, mdb *engine.MockDatabase, setupSQL []string, querySQL string) {
	t.Helper()

	for _, stmt := range setupSQL {
		if _, err := mdb.Execute(stmt); err != nil {
			t.Fatalf("parity: pgmock setup statement failed: %v\nSQL: %s", err, stmt)
		}
	}
	mockResult, err := mdb.ExecuteOne(querySQL)
	if err != nil {
		t.Fatalf("parity: pgmock query failed: %v\nSQL: %s", err, querySQL)
	}

	sbx := newSandbox(t)
	h.calls++
	driverName := "lib/pq"
	db := sbx.pq
	if h.calls%2 == 0 {
		driverName = "pgx/v5"
		db = sbx.pgx
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range setupSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("parity: live postgres (%s) setup statement failed: %v\nSQL: %s", driverName, err, stmt)
		}
	}

	liveCols, liveRows := queryLive(t, ctx, db, driverName, querySQL)
	mockCols, mockRows := mockResult.Columns, mockResult.Native()

	ordered := strings.Contains(strings.ToLower(querySQL), "order by")
	compareResultSets(t, mockCols, mockRows, liveCols, liveRows, ordered)
}

func queryLive(t *testing.T, ctx context.Context, db *sql.DB, driverName, query string) ([]string, [][]any) {
	t.Helper()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		t.Fatalf("parity: live postgres (%s) query failed: %v\nSQL: %s", driverName, err, query)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("parity: live postgres (%s) columns: %v", driverName, err)
	}

	var out [][]any
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("parity: live postgres (%s) scan: %v", driverName, err)
		}
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				raw[i] = string(b)
			}
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("parity: live postgres (%s) rows: %v", driverName, err)
	}
	return cols, out
}

func rowKey(row []any) string {
	var b strings.Builder
	for _, v := range row {
		fmt.Fprintf(&b, "%v|", v)
	}
	return b.String()
}
