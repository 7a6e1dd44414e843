// Package catalog holds the immutable value objects that make up pgmock's
// in-memory database: Database (schemas), Schema (tables, functions,
// types), Table (rows), RowType and Row. Every mutation returns a new
// value; nothing here is ever mutated in place.
package catalog

import (
	"sort"

	"github.com/zoravur/pgmock/internal/pgerror"
)

const publicSchema = "public"
const pgCatalogSchema = "pg_catalog"

// Function is a pg_catalog-resident callable, e.g. length(text).
type Function struct {
	Name string
	Call func(args []Value) (Value, error)
}

// PgType is a pg_catalog-resident type converter used by TypeCast
// expressions.
type PgType struct {
	Name    string
	Convert func(Value) (Value, error)
}

// Table is the immutable aggregate (schema, relname, row type, rows).
type Table struct {
	SchemaName string
	RelName    string
	Type       RowType
	Rows       []Row
}

func NewTable(schemaName, relName string, columns []string) Table {
	return Table{SchemaName: schemaName, RelName: relName, Type: NewRowType(columns)}
}

// NewRow builds a Row against this table's RowType, tagging validation
// errors with this table's relation name.
func (t Table) NewRow(values map[string]Value) (Row, error) {
	return NewRow(t.Type, t.RelName, values)
}

// Insert returns a new Table with rows appended. Not-null validation is
// intentionally disabled here until DEFAULT support exists; only
// column-set validation (done by NewRow) applies.
func (t Table) Insert(rows ...Row) Table {
	out := t
	out.Rows = append(append([]Row(nil), t.Rows...), rows...)
	return out
}

// Schema is an immutable (tables, functions, types) triple.
type Schema struct {
	Tables    map[string]Table
	Functions map[string]Function
	Types     map[string]PgType
}

func newSchema() Schema {
	return Schema{
		Tables:    map[string]Table{},
		Functions: map[string]Function{},
		Types:     map[string]PgType{},
	}
}

func (s Schema) clone() Schema {
	out := newSchema()
	for k, v := range s.Tables {
		out.Tables[k] = v
	}
	for k, v := range s.Functions {
		out.Functions[k] = v
	}
	for k, v := range s.Types {
		out.Types[k] = v
	}
	return out
}

// Database is the immutable top-level catalog: schema name -> Schema.
// Mutations are copy-on-write; MockDatabase holds exactly one current
// snapshot and replaces it atomically on each statement.
type Database struct {
	Schemas map[string]Schema
}

// NewDatabase returns a Database pre-populated with an empty "public"
// schema and a "pg_catalog" schema carrying the built-in types and
// functions.
func NewDatabase() Database {
	db := Database{Schemas: map[string]Schema{
		publicSchema:   newSchema(),
		pgCatalogSchema: pgCatalog(),
	}}
	return db
}

func (db Database) clone() Database {
	out := Database{Schemas: make(map[string]Schema, len(db.Schemas))}
	for k, v := range db.Schemas {
		out.Schemas[k] = v
	}
	return out
}

// CreateTable installs table (creating its schema on the fly if absent —
// a known leniency real PostgreSQL would not extend).
func (db Database) CreateTable(schemaName, relName string, columns []string) Database {
	return db.UpdateTable(NewTable(schemaName, relName, columns))
}

// UpdateTable replaces the table matching (schema, relname), creating the
// schema if it does not yet exist.
func (db Database) UpdateTable(table Table) Database {
	out := db.clone()
	schema, ok := out.Schemas[table.SchemaName]
	if !ok {
		schema = newSchema()
	} else {
		schema = schema.clone()
	}
	schema.Tables[table.RelName] = table
	out.Schemas[table.SchemaName] = schema
	return out
}

// searchPath is fixed to [public]; pgmock does not support SET search_path.
var searchPath = []string{publicSchema}

// GetTable resolves a relation name, optionally schema-qualified. With no
// schema, only "public" is consulted.
func (db Database) GetTable(relName string, schemaName string) (Table, error) {
	if schemaName == "" {
		for _, sp := range searchPath {
			if schema, ok := db.Schemas[sp]; ok {
				if t, ok := schema.Tables[relName]; ok {
					return t, nil
				}
			}
		}
		return Table{}, pgerror.UndefinedTable(`relation "%s" does not exist`, relName)
	}
	schema, ok := db.Schemas[schemaName]
	if !ok {
		return Table{}, pgerror.UndefinedTable(`relation "%s.%s" does not exist`, schemaName, relName)
	}
	t, ok := schema.Tables[relName]
	if !ok {
		return Table{}, pgerror.UndefinedTable(`relation "%s.%s" does not exist`, schemaName, relName)
	}
	return t, nil
}

// GetFunction resolves a function name; default schema is pg_catalog.
func (db Database) GetFunction(name string, schemaName string) (Function, error) {
	if schemaName == "" {
		schemaName = pgCatalogSchema
	}
	schema, ok := db.Schemas[schemaName]
	if !ok {
		return Function{}, pgerror.InvalidSchemaName(`schema "%s" does not exist`, schemaName)
	}
	fn, ok := schema.Functions[name]
	if !ok {
		return Function{}, pgerror.UndefinedFunction(`function %s does not exist`, name)
	}
	return fn, nil
}

// GetType resolves a type name; default schema is pg_catalog.
func (db Database) GetType(name string, schemaName string) (PgType, error) {
	if schemaName == "" {
		schemaName = pgCatalogSchema
	}
	schema, ok := db.Schemas[schemaName]
	if !ok {
		return PgType{}, pgerror.InvalidSchemaName(`schema "%s" does not exist`, schemaName)
	}
	ty, ok := schema.Types[name]
	if !ok {
		return PgType{}, pgerror.UndefinedObject(`type "%s" does not exist`, name)
	}
	return ty, nil
}

// SchemaNames returns the sorted list of schema names, used by the
// catalog-snapshot JSON exporter (internal/catalog/snapshot.go).
func (db Database) SchemaNames() []string {
	names := make([]string, 0, len(db.Schemas))
	for n := range db.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
