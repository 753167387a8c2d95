// Package duckdb provides the DuckDB dialect renderer for relq.
//
// DuckDB is the primary SQL target: it supports every clause the query model
// can express, including QUALIFY and the trailing WINDOW clause.
package duckdb

import (
	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/sqlgen"
	"github.com/zoobzio/relq/internal/types"
)

var profile = sqlgen.Profile{
	Dialect: types.DuckDB,
	Capabilities: render.Capabilities{
		Qualify:         true,
		NamedWindows:    true,
		FullJoin:        true,
		RightJoin:       true,
		RecursiveWord:   true,
		RawCTE:          true,
		RangeOffsets:    true,
		BooleanLiterals: true,
		Limit:           render.LimitOffset,
	},
}

// Option configures a Renderer.
type Option = sqlgen.Option

// WithRegistry resolves function calls against reg instead of functions.Default().
func WithRegistry(reg *functions.Registry) Option {
	return sqlgen.WithRegistry(reg)
}

// WithMaxDepth bounds expression and subquery nesting.
func WithMaxDepth(n int) Option {
	return sqlgen.WithMaxDepth(n)
}

// Renderer implements the DuckDB dialect renderer.
type Renderer struct {
	gen *sqlgen.Generator
}

// New creates a new DuckDB renderer.
func New(opts ...Option) *Renderer {
	return &Renderer{gen: sqlgen.New(profile, opts...)}
}

// Dialect returns types.DuckDB.
func (r *Renderer) Dialect() types.Dialect {
	return types.DuckDB
}

// Render converts a query to DuckDB SQL.
func (r *Renderer) Render(q *types.Query) (string, error) {
	return r.gen.Render(q)
}

// RenderExpression converts a single expression to DuckDB SQL.
func (r *Renderer) RenderExpression(e types.Expression) (string, error) {
	return r.gen.RenderExpression(e)
}

// Capabilities returns the SQL features supported by DuckDB.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.gen.Capabilities()
}
