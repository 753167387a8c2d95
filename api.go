// Package relq provides a relational query builder with multi-target rendering.
//
// Queries are plain values: a Query holds its source, projection, filter,
// grouping, windows, ordering, CTEs and set operations, and every nested
// Expression is a closed sum type. Generators walk a Query and produce text
// for one dialect; they never mutate it, so one Query may be rendered to
// several dialects concurrently.
//
// # Basic Usage
//
// Build a query with the fluent Builder and render it by dialect name:
//
//	q := relq.From("employees", "e").
//		Select(relq.As(relq.Col("id"), "id"), relq.As(relq.Col("name"), "name")).
//		Filter(relq.Gt(relq.Col("salary"), relq.Lit(50000)))
//
//	sql, err := q.Render(relq.DuckDB)
//	// SELECT e.id AS id, e.name AS name
//	// FROM employees AS e
//	// WHERE e.salary > 50000
//
// # Dialects
//
// SQL output is available for duckdb, postgres, sqlite, mariadb and mssql, each
// in its own package with a Capabilities() report. The pure dialect renders a
// relation-algebra chain instead of SQL. A construct a dialect cannot express
// fails with UnsupportedFeatureError; no partial output is returned.
//
//	import "github.com/zoobzio/relq/postgres"
//
//	sql, err := postgres.New().Render(query)
//
// # Functions
//
// Function, aggregate and window calls are checked against a functions.Registry
// when they are constructed. Func, Agg and Win use functions.Default() and panic
// on error; the Try variants return the error instead.
//
// # Schema Checks
//
// A Schema built from a DBML project verifies that every table and column a
// query references exists:
//
//	schema, err := relq.NewSchema(project)
//	if err := schema.Validate(query); err != nil {
//		return err
//	}
package relq

import (
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// Query is the root of the query model.
type Query = types.Query

// Expression is a node in the scalar/boolean expression tree.
type Expression = types.Expression

// Expression variants.
type (
	Literal       = types.Literal
	ColumnRef     = types.ColumnRef
	Binary        = types.Binary
	Unary         = types.Unary
	ScalarCall    = types.ScalarCall
	AggregateCall = types.AggregateCall
	WindowCall    = types.WindowCall
	CaseExpr      = types.Case
	WhenClause    = types.When
)

// Column is one projection entry.
type Column = types.Column

// Source is a table, subquery or join.
type Source = types.Source

// Source variants.
type (
	Table    = types.Table
	Subquery = types.Subquery
	Join     = types.Join
)

// JoinKind represents the type of join.
type JoinKind = types.JoinKind

// Re-export join kinds for public API.
const (
	InnerJoin = types.InnerJoin
	LeftJoin  = types.LeftJoin
	RightJoin = types.RightJoin
	FullJoin  = types.FullJoin
	CrossJoin = types.CrossJoin
)

// Window model.
type (
	WindowSpec  = types.WindowSpec
	Frame       = types.Frame
	Bound       = types.Bound
	NamedWindow = types.NamedWindow
	FrameKind   = types.FrameKind
)

// Re-export frame kinds for public API.
const (
	FrameRows  = types.FrameRows
	FrameRange = types.FrameRange
)

// OrderBy is one sort key.
type OrderBy = types.OrderBy

// Direction represents sort direction.
type Direction = types.Direction

// Re-export direction constants for public API.
const (
	ASC  = types.ASC
	DESC = types.DESC
)

// CTE is a common table expression.
type CTE = types.CTE

// SetOperation chains a second query with UNION or UNION ALL.
type SetOperation = types.SetOperation

// SetKind is UNION or UNION ALL.
type SetKind = types.SetKind

// Re-export set kinds for public API.
const (
	SetUnion    = types.SetUnion
	SetUnionAll = types.SetUnionAll
)

// Operator represents binary operators.
type Operator = types.Operator

// Re-export operator constants for public API.
const (
	// Comparison operators.
	EQ = types.EQ
	NE = types.NE
	GT = types.GT
	GE = types.GE
	LT = types.LT
	LE = types.LE

	// Arithmetic operators.
	OpAdd    = types.Add
	OpSub    = types.Sub
	OpMul    = types.Mul
	OpDiv    = types.Div
	OpMod    = types.Mod
	OpConcat = types.Concat

	// Logical and pattern operators.
	AND     = types.AND
	OR      = types.OR
	LIKE    = types.LIKE
	NotLike = types.NotLike
	IN      = types.IN
	OpNotIn = types.NotIn
)

// UnaryOperator represents prefix and postfix operators.
type UnaryOperator = types.UnaryOperator

// Re-export unary operator constants for public API.
const (
	OpNot       = types.NOT
	OpNeg       = types.Neg
	OpIsNull    = types.IsNull
	OpIsNotNull = types.IsNotNull
)

// Dialect names a render target.
type Dialect = types.Dialect

// Re-export dialects for public API.
const (
	DuckDB   = types.DuckDB
	Postgres = types.Postgres
	SQLite   = types.SQLite
	MariaDB  = types.MariaDB
	MSSQL    = types.MSSQL
	Pure     = types.Pure
)

// Family groups dialects that share a generator algorithm.
type Family = types.Family

// Re-export dialect families for public API.
const (
	FamilySQL      = types.FamilySQL
	FamilyRelation = types.FamilyRelation
)

// Capabilities describes the query features supported by a SQL dialect.
type Capabilities = render.Capabilities

// UnsupportedFeatureError indicates a construct the target dialect cannot express.
type UnsupportedFeatureError = render.UnsupportedFeatureError

// Error types. Each matches its sentinel with errors.Is.
type (
	MissingSourceError      = types.MissingSourceError
	UnsupportedDialectError = types.UnsupportedDialectError
	UnknownFunctionError    = types.UnknownFunctionError
	ArityError              = types.ArityError
	InvalidFrameError       = types.InvalidFrameError
	UnresolvedColumnError   = types.UnresolvedColumnError
	UnknownTableError       = types.UnknownTableError
	UndefinedWindowError    = types.UndefinedWindowError
	InvalidJoinError        = types.InvalidJoinError
	InvalidArgumentError    = types.InvalidArgumentError
)

// Sentinel errors.
var (
	ErrMissingSource      = types.ErrMissingSource
	ErrUnsupportedDialect = types.ErrUnsupportedDialect
	ErrUnknownFunction    = types.ErrUnknownFunction
	ErrArity              = types.ErrArity
	ErrInvalidFrame       = types.ErrInvalidFrame
	ErrUnresolvedColumn   = types.ErrUnresolvedColumn
	ErrUnknownTable       = types.ErrUnknownTable
	ErrUndefinedWindow    = types.ErrUndefinedWindow
	ErrInvalidJoin        = types.ErrInvalidJoin
	ErrInvalidArgument    = types.ErrInvalidArgument
)

// ParseDialect normalises a dialect name.
func ParseDialect(name string) Dialect {
	return types.ParseDialect(name)
}
