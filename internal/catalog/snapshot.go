package catalog

import "sort"

// Snapshot, Schema-, Table- and Column-view are JSON-ready views of a
// Database: schema -> tables -> columns, populated by walking an
// in-memory Database rather than querying information_schema over a live
// connection. Used by internal/api's catalog endpoint.
type SnapshotView struct {
	Schemas []SchemaView `json:"schemas"`
}

type SchemaView struct {
	Name   string      `json:"name"`
	Tables []TableView `json:"tables"`
}

type TableView struct {
	Schema  string       `json:"schema"`
	Name    string       `json:"name"`
	Columns []ColumnView `json:"columns"`
	Rows    int          `json:"rows"`
}

type ColumnView struct {
	Name    string `json:"name"`
	Ordinal int    `json:"ordinal"`
}

// Snapshot renders db as a SnapshotView, sorted for stable JSON output.
// pg_catalog is listed like any other schema, but only tables are
// rendered, so its built-in types and functions do not appear.
func (db Database) Snapshot() SnapshotView {
	var out SnapshotView
	for _, schemaName := range db.SchemaNames() {
		schema := db.Schemas[schemaName]
		sv := SchemaView{Name: schemaName}

		tableNames := make([]string, 0, len(schema.Tables))
		for n := range schema.Tables {
			tableNames = append(tableNames, n)
		}
		sort.Strings(tableNames)

		for _, tn := range tableNames {
			t := schema.Tables[tn]
			tv := TableView{Schema: schemaName, Name: tn, Rows: len(t.Rows)}
			for i, col := range t.Type.Columns() {
				tv.Columns = append(tv.Columns, ColumnView{Name: col, Ordinal: i + 1})
			}
			sv.Tables = append(sv.Tables, tv)
		}
		out.Schemas = append(out.Schemas, sv)
	}
	return out
}
