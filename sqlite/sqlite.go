// Package sqlite provides the SQLite dialect renderer for relq.
package sqlite

import (
	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/sqlgen"
	"github.com/zoobzio/relq/internal/types"
)

// SQLite cannot express OFFSET without LIMIT; a negative limit means unbounded.
var profile = sqlgen.Profile{
	Dialect:      types.SQLite,
	OffsetPrefix: "LIMIT -1 ",
	Capabilities: render.Capabilities{
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

// Renderer implements the SQLite dialect renderer.
type Renderer struct {
	gen *sqlgen.Generator
}

// New creates a new SQLite renderer.
func New(opts ...Option) *Renderer {
	return &Renderer{gen: sqlgen.New(profile, opts...)}
}

// Dialect returns types.SQLite.
func (r *Renderer) Dialect() types.Dialect {
	return types.SQLite
}

// Render converts a query to SQLite SQL.
func (r *Renderer) Render(q *types.Query) (string, error) {
	return r.gen.Render(q)
}

// RenderExpression converts a single expression to SQLite SQL.
func (r *Renderer) RenderExpression(e types.Expression) (string, error) {
	return r.gen.RenderExpression(e)
}

// Capabilities returns the SQL features supported by SQLite.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.gen.Capabilities()
}
