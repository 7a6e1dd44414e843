// Package qtables implements QueryTables, the per-SELECT name-resolution
// registry: it tracks which table sources are visible in a FROM clause
// and resolves column/table references against them, detecting ambiguity
// and duplicate aliases.
package qtables

import (
	"sort"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/pgerror"
)

// BoundRow is the per-row state threaded through the executor: each
// active source maps to its current row values. Sources are identified
// by SourceID, not by flat column name, so that qualified references
// route unambiguously even when two sources share a column name.
type BoundRow map[string]catalog.Row

// source is one registered FROM-clause entry.
type source struct {
	id    string
	table catalog.Table
	alias string // "" if unaliased
}

// QueryTables is the name-resolution context for one SELECT or INSERT
// plan. Its zero value is not usable; construct with New.
type QueryTables struct {
	order     []source
	aliases   map[string]source            // alias -> source
	unaliased map[string]map[string]source // relname -> schema -> source
}

func New() *QueryTables {
	return &QueryTables{
		aliases:   map[string]source{},
		unaliased: map[string]map[string]source{},
	}
}

// sourceID computes the identity a registered source is addressed by in a
// BoundRow: its alias if given, else "schema.relname".
func sourceID(table catalog.Table, alias string) string {
	if alias != "" {
		return alias
	}
	return table.SchemaName + "." + table.RelName
}

// Add registers table under alias (alias == "" means unaliased) and
// returns the SourceID it was assigned. An alias colliding with an
// existing alias, or an unaliased relation name colliding with another
// source's identity, is a duplicate-alias error — mirroring PostgreSQL's
// "table name specified more than once".
func (qt *QueryTables) Add(table catalog.Table, alias string) (string, error) {
	id := sourceID(table, alias)

	if alias != "" {
		if _, ok := qt.aliases[alias]; ok {
			return "", pgerror.DuplicateAlias(`table name "%s" specified more than once`, alias)
		}
		if _, ok := qt.unaliased[alias]; ok {
			return "", pgerror.DuplicateAlias(`table name "%s" specified more than once`, alias)
		}
		src := source{id: id, table: table, alias: alias}
		qt.aliases[alias] = src
		qt.order = append(qt.order, src)
		return id, nil
	}

	if bySchema, ok := qt.unaliased[table.RelName]; ok {
		if _, ok := bySchema[table.SchemaName]; ok {
			return "", pgerror.DuplicateAlias(`table name "%s" specified more than once`, table.RelName)
		}
	} else {
		qt.unaliased[table.RelName] = map[string]source{}
	}
	if _, ok := qt.aliases[table.RelName]; ok {
		return "", pgerror.DuplicateAlias(`table name "%s" specified more than once`, table.RelName)
	}
	src := source{id: id, table: table, alias: ""}
	qt.unaliased[table.RelName][table.SchemaName] = src
	qt.order = append(qt.order, src)
	return id, nil
}

// clone returns a shallow copy of qt safe to Add into independently.
func (qt *QueryTables) clone() *QueryTables {
	out := New()
	out.order = append([]source(nil), qt.order...)
	for k, v := range qt.aliases {
		out.aliases[k] = v
	}
	for k, bySchema := range qt.unaliased {
		cp := make(map[string]source, len(bySchema))
		for sk, sv := range bySchema {
			cp[sk] = sv
		}
		out.unaliased[k] = cp
	}
	return out
}

// Merge folds every source in right into a clone of qt, applying the same
// collision rules as Add. This is how a JOIN's two sides combine their
// name-resolution scopes.
func (qt *QueryTables) Merge(right *QueryTables) (*QueryTables, error) {
	out := qt.clone()
	for _, src := range right.order {
		if _, err := out.Add(src.table, src.alias); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetColumnSource resolves a column reference, optionally qualified by
// table and/or schema, to the SourceID it should be read from.
func (qt *QueryTables) GetColumnSource(column, table, schema string) (string, error) {
	if table == "" {
		return qt.resolveUnqualified(column)
	}
	src, err := qt.resolveTable(table, schema)
	if err != nil {
		return "", err
	}
	if !src.table.Type.Has(column) {
		return "", pgerror.UndefinedColumn(`column %s.%s does not exist`, table, column)
	}
	return src.id, nil
}

func (qt *QueryTables) resolveUnqualified(column string) (string, error) {
	var matches []source
	for _, src := range qt.order {
		if src.table.Type.Has(column) {
			matches = append(matches, src)
		}
	}
	switch len(matches) {
	case 0:
		return "", pgerror.UndefinedColumn(`column "%s" does not exist`, column)
	case 1:
		return matches[0].id, nil
	default:
		return "", pgerror.AmbiguousColumn(`column reference "%s" is ambiguous`, column)
	}
}

// resolveTable resolves a table name (optionally schema-qualified) to its
// registered source. Aliased matches win first.
func (qt *QueryTables) resolveTable(table, schema string) (source, error) {
	if schema == "" {
		if src, ok := qt.aliases[table]; ok {
			return src, nil
		}
		if bySchema, ok := qt.unaliased[table]; ok {
			if len(bySchema) > 1 {
				return source{}, pgerror.AmbiguousTable(`table reference "%s" is ambiguous`, table)
			}
			for _, src := range bySchema {
				return src, nil
			}
		}
		return source{}, pgerror.UndefinedTable(`missing FROM-clause entry for table "%s"`, table)
	}
	if bySchema, ok := qt.unaliased[table]; ok {
		if src, ok := bySchema[schema]; ok {
			return src, nil
		}
	}
	return source{}, pgerror.UndefinedTable(`missing FROM-clause entry for table "%s"`, table)
}

// NullRow returns a BoundRow fragment mapping every registered source to
// a row whose columns all read as NULL, used to pad the non-matching side
// of an outer join.
func (qt *QueryTables) NullRow() BoundRow {
	out := make(BoundRow, len(qt.order))
	for _, src := range qt.order {
		out[src.id] = catalog.NullRow(src.table.Type)
	}
	return out
}

// SourceInfo exposes one registered source's identity and table, used by
// SELECT * expansion (internal/engine) to enumerate every column visible
// in the FROM clause, in registration order.
type SourceInfo struct {
	ID    string
	Table catalog.Table
}

// Sources returns every registered source in registration order.
func (qt *QueryTables) Sources() []SourceInfo {
	out := make([]SourceInfo, len(qt.order))
	for i, src := range qt.order {
		out[i] = SourceInfo{ID: src.id, Table: src.table}
	}
	return out
}

// SourceIDs returns the registered source identities sorted by name
// (used by tests and diagnostics).
func (qt *QueryTables) SourceIDs() []string {
	ids := make([]string, 0, len(qt.order))
	for _, src := range qt.order {
		ids = append(ids, src.id)
	}
	sort.Strings(ids)
	return ids
}
