package engine

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
)

// ExecuteCreate installs a new table whose row type is exactly the
// column list named in the statement, in declaration order. Column
// constraints (NOT NULL, DEFAULT, ...) are parsed but not enforced yet.
func ExecuteCreate(db *catalog.Database, stmt *pg_query.CreateStmt) (catalog.Database, *ResultSet, error) {
	rel := stmt.GetRelation()
	schemaName := rel.GetSchemaname()
	if schemaName == "" {
		schemaName = "public"
	}

	var columns []string
	for _, elt := range stmt.GetTableElts() {
		if cd := elt.GetColumnDef(); cd != nil {
			columns = append(columns, cd.GetColname())
		}
	}

	newDB := db.CreateTable(schemaName, rel.GetRelname(), columns)
	return newDB, &ResultSet{RowsAffected: 0}, nil
}
