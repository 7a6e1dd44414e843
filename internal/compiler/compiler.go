// Package compiler walks pg_query_go AST expression nodes and produces
// compiled expressions: objects that, given a bound row, return a scalar
// Value plus an inferred display name.
package compiler

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/pgerror"
	"github.com/zoravur/pgmock/internal/qtables"
)

// Expr is a compiled expression: it evaluates against a bound row and
// optionally carries a display name used to infer a SELECT target's
// result column name when no explicit alias is given.
type Expr interface {
	Eval(row qtables.BoundRow) (catalog.Value, error)
	Name() string
}

// Compiler closes over the catalog snapshot and the name-resolution
// context for one statement being compiled.
type Compiler struct {
	DB *catalog.Database
	QT *qtables.QueryTables
}

func New(db *catalog.Database, qt *qtables.QueryTables) *Compiler {
	return &Compiler{DB: db, QT: qt}
}

// Compile dispatches on the AST node's oneof variant. Unknown node kinds
// raise pgerror.NotImplementedError, preserving the node's Go type name
// for diagnosability.
func (c *Compiler) Compile(node *pg_query.Node) (Expr, error) {
	if node == nil {
		return nil, pgerror.NotImplemented("nil expression")
	}

	if aconst := node.GetAConst(); aconst != nil {
		return c.compileConst(aconst)
	}
	if colref := node.GetColumnRef(); colref != nil {
		return c.compileColumnRef(colref)
	}
	if ae := node.GetAExpr(); ae != nil {
		return c.compileAExpr(ae)
	}
	if be := node.GetBoolExpr(); be != nil {
		return c.compileBoolExpr(be)
	}
	if tc := node.GetTypeCast(); tc != nil {
		return c.compileTypeCast(tc)
	}
	if fc := node.GetFuncCall(); fc != nil {
		return c.compileFuncCall(fc)
	}

	return nil, pgerror.NotImplemented(fmt.Sprintf("%T", node.Node))
}

// --- Constant ---

type constExpr struct{ val catalog.Value }

func (e constExpr) Eval(qtables.BoundRow) (catalog.Value, error) { return e.val, nil }
func (e constExpr) Name() string                                 { return "" }

func (c *Compiler) compileConst(aconst *pg_query.A_Const) (Expr, error) {
	if aconst.Isnull {
		return constExpr{catalog.Null()}, nil
	}
	if iv := aconst.GetIval(); iv != nil {
		return constExpr{catalog.IntValue(int64(iv.Ival))}, nil
	}
	if sv := aconst.GetSval(); sv != nil {
		return constExpr{catalog.TextValue(sv.Sval)}, nil
	}
	if bv := aconst.GetBoolval(); bv != nil {
		return constExpr{catalog.BoolValue(bv.Boolval)}, nil
	}
	return nil, pgerror.NotImplemented("A_Const (unsupported literal kind)")
}

// --- ColumnRef ---

type columnRefExpr struct {
	sourceID string
	column   string
}

func (e columnRefExpr) Eval(row qtables.BoundRow) (catalog.Value, error) {
	r, ok := row[e.sourceID]
	if !ok {
		return catalog.Null(), nil
	}
	return r.Get(e.column), nil
}
func (e columnRefExpr) Name() string { return e.column }

// ColumnExpr builds an Expr that reads column off sourceID directly,
// bypassing name resolution. Used by internal/engine to expand "SELECT *"
// once it already knows each source's identity from qtables.Sources.
func ColumnExpr(sourceID, column string) Expr {
	return columnRefExpr{sourceID: sourceID, column: column}
}

func (c *Compiler) compileColumnRef(colref *pg_query.ColumnRef) (Expr, error) {
	var parts []string
	for _, f := range colref.GetFields() {
		if f.GetAStar() != nil {
			return nil, pgerror.NotImplemented("A_Star")
		}
		if s := f.GetString_(); s != nil {
			parts = append(parts, s.Sval)
		}
	}
	if len(parts) == 0 {
		return nil, pgerror.NotImplemented("ColumnRef (no fields)")
	}

	var schemaName, tableName, column string
	switch {
	case len(parts) == 1:
		column = parts[0]
	case len(parts) == 2:
		tableName, column = parts[0], parts[1]
	default:
		schemaName = strings.Join(parts[:len(parts)-2], ".")
		tableName = parts[len(parts)-2]
		column = parts[len(parts)-1]
	}

	sourceID, err := c.QT.GetColumnSource(column, tableName, schemaName)
	if err != nil {
		return nil, err
	}
	return columnRefExpr{sourceID: sourceID, column: column}, nil
}

// --- A_Expr (binary operators) ---

type binaryExpr struct {
	op          BinOp
	left, right Expr
}

func (e binaryExpr) Eval(row qtables.BoundRow) (catalog.Value, error) {
	l, err := e.left.Eval(row)
	if err != nil {
		return catalog.Value{}, err
	}
	r, err := e.right.Eval(row)
	if err != nil {
		return catalog.Value{}, err
	}
	return e.op(l, r)
}
func (e binaryExpr) Name() string { return "" }

func (c *Compiler) compileAExpr(ae *pg_query.A_Expr) (Expr, error) {
	var opName string
	if len(ae.GetName()) > 0 {
		if s := ae.GetName()[0].GetString_(); s != nil {
			opName = s.Sval
		}
	}

	if ae.GetLexpr() == nil {
		// Unary prefix (e.g. "-5::bool"; a bare "-5" is folded into a
		// constant by the parser and never reaches here). First cut treats any
		// unsupported unary prefix as UndefinedFunction since operator
		// resolution is type-aware for unary operators.
		return nil, pgerror.UndefinedFunction(`operator does not exist: unary %s`, opName)
	}

	op, ok := operators[opName]
	if !ok {
		return nil, pgerror.NotImplemented(fmt.Sprintf("operator %q", opName))
	}

	left, err := c.Compile(ae.GetLexpr())
	if err != nil {
		return nil, err
	}
	right, err := c.Compile(ae.GetRexpr())
	if err != nil {
		return nil, err
	}
	return binaryExpr{op: op, left: left, right: right}, nil
}

// --- BoolExpr (AND / OR / NOT), short-circuited ---

type boolExpr struct {
	kind pg_query.BoolExprType
	args []Expr
}

func (e boolExpr) Name() string { return "" }

func (e boolExpr) Eval(row qtables.BoundRow) (catalog.Value, error) {
	switch e.kind {
	case pg_query.BoolExprType_NOT_EXPR:
		v, err := e.args[0].Eval(row)
		if err != nil {
			return catalog.Value{}, err
		}
		if v.IsNull() {
			return catalog.Null(), nil
		}
		if v.Kind != catalog.KindBool {
			return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: NOT %s", v.Kind)
		}
		return catalog.BoolValue(!v.Bool), nil

	case pg_query.BoolExprType_AND_EXPR:
		sawNull := false
		for _, a := range e.args {
			v, err := a.Eval(row)
			if err != nil {
				return catalog.Value{}, err
			}
			if v.IsNull() {
				sawNull = true
				continue
			}
			if v.Kind != catalog.KindBool {
				return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: %s AND bool", v.Kind)
			}
			if !v.Bool {
				return catalog.BoolValue(false), nil // short-circuit: false dominates
			}
		}
		if sawNull {
			return catalog.Null(), nil
		}
		return catalog.BoolValue(true), nil

	case pg_query.BoolExprType_OR_EXPR:
		sawNull := false
		for _, a := range e.args {
			v, err := a.Eval(row)
			if err != nil {
				return catalog.Value{}, err
			}
			if v.IsNull() {
				sawNull = true
				continue
			}
			if v.Kind != catalog.KindBool {
				return catalog.Value{}, pgerror.UndefinedFunction("operator does not exist: %s OR bool", v.Kind)
			}
			if v.Bool {
				return catalog.BoolValue(true), nil // short-circuit: true dominates
			}
		}
		if sawNull {
			return catalog.Null(), nil
		}
		return catalog.BoolValue(false), nil
	}
	return catalog.Value{}, pgerror.NotImplemented("BoolExpr (unknown kind)")
}

func (c *Compiler) compileBoolExpr(be *pg_query.BoolExpr) (Expr, error) {
	args := make([]Expr, 0, len(be.GetArgs()))
	for _, a := range be.GetArgs() {
		compiled, err := c.Compile(a)
		if err != nil {
			return nil, err
		}
		args = append(args, compiled)
	}
	return boolExpr{kind: be.GetBoolop(), args: args}, nil
}

// --- TypeCast ---

type castExpr struct {
	ty    catalog.PgType
	inner Expr
}

func (e castExpr) Eval(row qtables.BoundRow) (catalog.Value, error) {
	v, err := e.inner.Eval(row)
	if err != nil {
		return catalog.Value{}, err
	}
	return e.ty.Convert(v)
}
func (e castExpr) Name() string { return e.ty.Name }

func (c *Compiler) compileTypeCast(tc *pg_query.TypeCast) (Expr, error) {
	var schemaName, typeName string
	names := tc.GetTypeName().GetNames()
	if len(names) == 0 {
		return nil, pgerror.NotImplemented("TypeCast (no type name)")
	}
	var parts []string
	for _, n := range names {
		if s := n.GetString_(); s != nil {
			parts = append(parts, s.Sval)
		}
	}
	if len(parts) > 1 {
		schemaName = strings.Join(parts[:len(parts)-1], ".")
	}
	typeName = parts[len(parts)-1]

	ty, err := c.DB.GetType(typeName, schemaName)
	if err != nil {
		return nil, err
	}
	inner, err := c.Compile(tc.GetArg())
	if err != nil {
		return nil, err
	}
	return castExpr{ty: ty, inner: inner}, nil
}

// --- FuncCall ---

type funcCallExpr struct {
	fn   catalog.Function
	args []Expr
}

func (e funcCallExpr) Eval(row qtables.BoundRow) (catalog.Value, error) {
	vals := make([]catalog.Value, len(e.args))
	for i, a := range e.args {
		v, err := a.Eval(row)
		if err != nil {
			return catalog.Value{}, err
		}
		vals[i] = v
	}
	return e.fn.Call(vals)
}
func (e funcCallExpr) Name() string { return e.fn.Name }

func (c *Compiler) compileFuncCall(fc *pg_query.FuncCall) (Expr, error) {
	var schemaName, funcName string
	var parts []string
	for _, n := range fc.GetFuncname() {
		if s := n.GetString_(); s != nil {
			parts = append(parts, s.Sval)
		}
	}
	if len(parts) == 0 {
		return nil, pgerror.NotImplemented("FuncCall (no name)")
	}
	if len(parts) > 1 {
		schemaName = strings.Join(parts[:len(parts)-1], ".")
	}
	funcName = parts[len(parts)-1]

	fn, err := c.DB.GetFunction(funcName, schemaName)
	if err != nil {
		return nil, err
	}

	args := make([]Expr, 0, len(fc.GetArgs()))
	for _, a := range fc.GetArgs() {
		compiled, err := c.Compile(a)
		if err != nil {
			return nil, err
		}
		args = append(args, compiled)
	}
	return funcCallExpr{fn: fn, args: args}, nil
}
