// Package pgerror defines the typed error hierarchy raised by the catalog,
// name-resolution, compiler, and executor packages. Every domain error is
// a *PostgresError carrying the SQLSTATE code PostgreSQL would use for the
// same condition.
package pgerror

import "fmt"

// PostgresError is the root of every domain error raised by the engine.
// The executor never recovers from one; it propagates to the caller of
// MockDatabase.Execute.
type PostgresError struct {
	Code    string // SQLSTATE
	Message string
}

func (e *PostgresError) Error() string {
	return e.Message
}

func newErr(code, format string, args ...any) *PostgresError {
	return &PostgresError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// UndefinedTable is raised when a relation cannot be found on the search
// path or under an explicit schema.
func UndefinedTable(format string, args ...any) *PostgresError {
	return newErr("42P01", format, args...)
}

// NotNullViolation is raised when a row is missing a value for a NOT NULL
// column. Nothing in the engine raises it at present: Table.Insert
// (internal/catalog) does no not-null validation.
func NotNullViolation(format string, args ...any) *PostgresError {
	return newErr("23502", format, args...)
}

// DuplicateAlias is raised by QueryTables.Add when a FROM-clause entry's
// alias collides with an existing alias or unaliased relation name.
func DuplicateAlias(format string, args ...any) *PostgresError {
	return newErr("42712", format, args...)
}

// UndefinedColumn is raised when a column reference cannot be resolved
// against any registered source, or when constructing a Row with a key
// outside its RowType.
func UndefinedColumn(format string, args ...any) *PostgresError {
	return newErr("42703", format, args...)
}

// AmbiguousColumn is raised when an unqualified column reference matches
// more than one registered source.
func AmbiguousColumn(format string, args ...any) *PostgresError {
	return newErr("42702", format, args...)
}

// AmbiguousTable is raised when an unqualified table name matches more
// than one schema in the unaliased registry.
func AmbiguousTable(format string, args ...any) *PostgresError {
	return newErr("42P09", format, args...)
}

// InvalidEscapeSequence is raised by the LIKE/ILIKE pattern translator on
// a trailing unmatched backslash.
func InvalidEscapeSequence(format string, args ...any) *PostgresError {
	return newErr("22025", format, args...)
}

// UndefinedFunction is raised by Database.GetFunction on a missing function
// name, and by the unary-minus operator path for any operand the compiler
// does not statically know how to negate (see DESIGN.md).
func UndefinedFunction(format string, args ...any) *PostgresError {
	return newErr("42883", format, args...)
}

// InvalidSchemaName is raised when an explicit schema name does not exist.
func InvalidSchemaName(format string, args ...any) *PostgresError {
	return newErr("3F000", format, args...)
}

// SyntaxError wraps parser failures and also covers cases the parser
// accepts but the executor rejects as malformed, e.g. a non-integer
// constant in ORDER BY.
func SyntaxError(format string, args ...any) *PostgresError {
	return newErr("42601", format, args...)
}

// InvalidTextRepresentation is raised by type converters (e.g. ::bool) on
// input that cannot be parsed as the target type.
func InvalidTextRepresentation(format string, args ...any) *PostgresError {
	return newErr("22P02", format, args...)
}

// UndefinedObject is raised by Database.GetType on a missing type name.
func UndefinedObject(format string, args ...any) *PostgresError {
	return newErr("42704", format, args...)
}

// NotImplementedError is raised for AST node kinds or operators the
// engine has no handling for. It is distinct from PostgresError: it is a
// host-side gap, not a SQL-semantic error, but the node type name is kept
// in the message for diagnosability.
type NotImplementedError struct {
	NodeType string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("not implemented: %s", e.NodeType)
}

func NotImplemented(nodeType string) *NotImplementedError {
	return &NotImplementedError{NodeType: nodeType}
}
