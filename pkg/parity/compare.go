//go:build parity

package parity

import (
	"reflect"
	"sort"
	"testing"
)

// compareResultSets asserts pgmock's projection matches the live engine's:
// same column names, same row count, and same row contents — in order
// when ordered is true (the query carried an ORDER BY), as an unordered
// multiset otherwise.
func compareResultSets(t *testing.T, mockCols []string, mockRows [][]any, liveCols []string, liveRows [][]any, ordered bool) {
	t.Helper()

	if !reflect.DeepEqual(mockCols, liveCols) {
		t.Fatalf("parity: column mismatch\npgmock: %v\npostgres: %v", mockCols, liveCols)
	}
	if len(mockRows) != len(liveRows) {
		t.Fatalf("parity: row count mismatch: pgmock=%d postgres=%d", len(mockRows), len(liveRows))
	}

	if ordered {
		for i := range mockRows {
			if !reflect.DeepEqual(mockRows[i], liveRows[i]) {
				t.Fatalf("parity: row %d mismatch\npgmock:   %v\npostgres: %v", i, mockRows[i], liveRows[i])
			}
		}
		return
	}

	mockSorted := sortedRowKeys(mockRows)
	liveSorted := sortedRowKeys(liveRows)
	for i := range mockSorted {
		if mockSorted[i] != liveSorted[i] {
			t.Fatalf("parity: row sets differ (no ORDER BY, compared as multisets)\npgmock:   %v\npostgres: %v", mockRows, liveRows)
		}
	}
}

func sortedRowKeys(rows [][]any) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = rowKey(row)
	}
	sort.Strings(keys)
	return keys
}
