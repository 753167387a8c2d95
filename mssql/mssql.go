// Package mssql provides the SQL Server dialect renderer for relq.
package mssql

import (
	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/sqlgen"
	"github.com/zoobzio/relq/internal/types"
)

// SQL Server paginates with OFFSET/FETCH, which requires an ORDER BY, and
// spells booleans as bits.
var profile = sqlgen.Profile{
	Dialect: types.MSSQL,
	Capabilities: render.Capabilities{
		NamedWindows: true,
		FullJoin:     true,
		RightJoin:    true,
		RawCTE:       true,
		Limit:        render.OffsetFetch,
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

// Renderer implements the SQL Server dialect renderer.
type Renderer struct {
	gen *sqlgen.Generator
}

// New creates a new SQL Server renderer.
func New(opts ...Option) *Renderer {
	return &Renderer{gen: sqlgen.New(profile, opts...)}
}

// Dialect returns types.MSSQL.
func (r *Renderer) Dialect() types.Dialect {
	return types.MSSQL
}

// Render converts a query to T-SQL.
func (r *Renderer) Render(q *types.Query) (string, error) {
	return r.gen.Render(q)
}

// RenderExpression converts a single expression to T-SQL.
func (r *Renderer) RenderExpression(e types.Expression) (string, error) {
	return r.gen.RenderExpression(e)
}

// Capabilities returns the SQL features supported by SQL Server.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.gen.Capabilities()
}
