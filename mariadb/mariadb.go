// Package mariadb provides the MariaDB dialect renderer for relq.
//
// MariaDB has no WINDOW clause, so named window references are rendered
// inline. FULL JOIN and QUALIFY are rejected with render.UnsupportedFeatureError.
package mariadb

import (
	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/sqlgen"
	"github.com/zoobzio/relq/internal/types"
)

// maxRows is the documented "no limit" value for OFFSET without LIMIT.
const maxRows = "18446744073709551615"

var profile = sqlgen.Profile{
	Dialect:      types.MariaDB,
	OffsetPrefix: "LIMIT " + maxRows + " ",
	Capabilities: render.Capabilities{
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

// Renderer implements the MariaDB dialect renderer.
type Renderer struct {
	gen *sqlgen.Generator
}

// New creates a new MariaDB renderer.
func New(opts ...Option) *Renderer {
	return &Renderer{gen: sqlgen.New(profile, opts...)}
}

// Dialect returns types.MariaDB.
func (r *Renderer) Dialect() types.Dialect {
	return types.MariaDB
}

// Render converts a query to MariaDB SQL.
func (r *Renderer) Render(q *types.Query) (string, error) {
	return r.gen.Render(q)
}

// RenderExpression converts a single expression to MariaDB SQL.
func (r *Renderer) RenderExpression(e types.Expression) (string, error) {
	return r.gen.RenderExpression(e)
}

// Capabilities returns the SQL features supported by MariaDB.
func (r *Renderer) Capabilities() render.Capabilities {
	return r.gen.Capabilities()
}
