package engine

import "github.com/zoravur/pgmock/internal/catalog"

// ResultSet is the output of a single executed statement: a SELECT's
// projected rows, or an empty column-less set reporting how many rows a
// CREATE/INSERT affected.
type ResultSet struct {
	Columns      []string
	Rows         [][]catalog.Value
	RowsAffected int
}

// Native renders Rows as plain Go values, for JSON encoding over
// internal/api.
func (rs *ResultSet) Native() [][]any {
	out := make([][]any, len(rs.Rows))
	for i, row := range rs.Rows {
		nrow := make([]any, len(row))
		for j, v := range row {
			nrow[j] = v.Native()
		}
		out[i] = nrow
	}
	return out
}
