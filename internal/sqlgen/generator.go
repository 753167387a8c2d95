// Package sqlgen implements the SQL generation algorithm shared by every SQL
// dialect package. Dialects differ only in their Profile.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// Profile describes one SQL dialect.
type Profile struct {
	Dialect      types.Dialect
	OffsetPrefix string // emitted before OFFSET when no LIMIT is set
	Capabilities render.Capabilities
}

// Generator renders queries and expressions for one Profile.
type Generator struct {
	registry *functions.Registry
	profile  Profile
	maxDepth int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxDepth bounds expression and subquery nesting.
func WithMaxDepth(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxDepth = n
		}
	}
}

// WithRegistry selects the function registry used to resolve calls.
func WithRegistry(registry *functions.Registry) Option {
	return func(g *Generator) {
		if registry != nil {
			g.registry = registry
		}
	}
}

// New creates a generator using functions.Default() unless WithRegistry is given.
func New(profile Profile, opts ...Option) *Generator {
	g := &Generator{
		profile:  profile,
		registry: functions.Default(),
		maxDepth: types.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dialect returns the dialect this generator renders.
func (g *Generator) Dialect() types.Dialect {
	return g.profile.Dialect
}

// Capabilities returns the dialect's feature set.
func (g *Generator) Capabilities() render.Capabilities {
	return g.profile.Capabilities
}

// Render converts a query to SQL text.
func (g *Generator) Render(q *types.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("query cannot be nil")
	}
	s := &state{g: g, ctx: render.NewContext(g.maxDepth)}
	return s.query(q)
}

// RenderExpression converts a standalone expression to SQL text. Named window
// references render as OVER name.
func (g *Generator) RenderExpression(e types.Expression) (string, error) {
	s := &state{g: g, ctx: render.NewContext(g.maxDepth)}
	return s.expr(e)
}

func (g *Generator) unsupported(feature string, hint ...string) error {
	return render.NewUnsupportedFeatureError(string(g.profile.Dialect), feature, hint...)
}

// state carries per-query rendering context: the enclosing query (for named
// windows), the default column qualifier and the output aliases visible to
// HAVING, QUALIFY and ORDER BY.
type state struct {
	g         *Generator
	ctx       *render.Context
	cur       *types.Query
	qualifier string
	aliases   map[string]bool
	outputRef bool
}

func (s *state) nested(q *types.Query) *state {
	child := &state{g: s.g, ctx: s.ctx, cur: q, aliases: make(map[string]bool)}
	if t, ok := q.Source.(types.Table); ok && t.Alias != "" {
		child.qualifier = t.Alias
	}
	for _, c := range q.Projection {
		if c.Alias != "" {
			child.aliases[c.Alias] = true
		}
	}
	return child
}

func (s *state) query(q *types.Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", fmt.Errorf("invalid query: %w", err)
	}
	if err := s.ctx.Enter(); err != nil {
		return "", err
	}
	defer s.ctx.Leave()

	qs := s.nested(q)
	caps := s.g.profile.Capabilities
	var parts []string

	if len(q.CTEs) > 0 {
		with, err := qs.ctes(q)
		if err != nil {
			return "", err
		}
		parts = append(parts, with)
	}

	selectClause, err := qs.selectList(q)
	if err != nil {
		return "", err
	}
	parts = append(parts, selectClause)

	if q.Source != nil {
		from, err := qs.source(q.Source)
		if err != nil {
			return "", err
		}
		parts = append(parts, "FROM "+from)
	}

	if q.Filter != nil {
		where, err := qs.expr(q.Filter)
		if err != nil {
			return "", err
		}
		parts = append(parts, "WHERE "+where)
	}

	if len(q.GroupBy) > 0 {
		keys, err := qs.exprList(q.GroupBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "GROUP BY "+keys)
	}

	qs.outputRef = true

	if q.Having != nil {
		having, err := qs.expr(q.Having)
		if err != nil {
			return "", err
		}
		parts = append(parts, "HAVING "+having)
	}

	if q.Qualify != nil {
		if !caps.Qualify {
			return "", s.g.unsupported("QUALIFY", "filter the window result in an outer query")
		}
		qualify, err := qs.expr(q.Qualify)
		if err != nil {
			return "", err
		}
		parts = append(parts, "QUALIFY "+qualify)
	}

	windows, err := q.ReferencedWindows()
	if err != nil {
		return "", err
	}
	if len(windows) > 0 && caps.NamedWindows {
		defs := make([]string, 0, len(windows))
		for _, w := range windows {
			spec, err := qs.windowSpec(w.Spec)
			if err != nil {
				return "", err
			}
			defs = append(defs, w.Name+" AS ("+spec+")")
		}
		parts = append(parts, "WINDOW "+strings.Join(defs, ", "))
	}

	if len(q.OrderBy) > 0 {
		order, err := qs.orderList(q.OrderBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "ORDER BY "+order)
	} else if caps.Limit == render.OffsetFetch && (q.Limit != nil || q.Offset != nil) {
		parts = append(parts, "ORDER BY (SELECT NULL)")
	}

	if page := s.pagination(q); page != "" {
		parts = append(parts, page)
	}

	sql := strings.Join(parts, "\n")

	if q.SetOp != nil {
		if q.SetOp.Query == nil {
			return "", fmt.Errorf("%s requires a query", q.SetOp.Kind)
		}
		other, err := s.query(q.SetOp.Query)
		if err != nil {
			return "", err
		}
		sql += "\n" + string(q.SetOp.Kind) + "\n" + other
	}

	return sql, nil
}

func (s *state) ctes(q *types.Query) (string, error) {
	head := "WITH "
	if q.HasRecursiveCTE() && s.g.profile.Capabilities.RecursiveWord {
		head = "WITH RECURSIVE "
	}
	defs := make([]string, 0, len(q.CTEs))
	for _, c := range q.CTEs {
		var body string
		if c.Query != nil {
			rendered, err := s.query(c.Query)
			if err != nil {
				return "", fmt.Errorf("CTE %s: %w", c.Name, err)
			}
			body = rendered
		} else {
			if !s.g.profile.Capabilities.RawCTE {
				return "", s.g.unsupported("raw CTE body")
			}
			body = c.Raw
		}
		name := c.Name
		if len(c.Columns) > 0 {
			name += "(" + strings.Join(c.Columns, ", ") + ")"
		}
		defs = append(defs, name+" AS (\n"+body+"\n)")
	}
	return head + strings.Join(defs, ", "), nil
}

func (s *state) selectList(q *types.Query) (string, error) {
	var sql strings.Builder
	sql.WriteString("SELECT ")
	if q.Distinct {
		sql.WriteString("DISTINCT ")
	}
	if len(q.Projection) == 0 {
		sql.WriteString("*")
		return sql.String(), nil
	}
	cols := make([]string, 0, len(q.Projection))
	for _, c := range q.Projection {
		rendered, err := s.expr(c.Expr)
		if err != nil {
			return "", err
		}
		if c.Alias != "" {
			rendered += " AS " + c.Alias
		}
		cols = append(cols, rendered)
	}
	sql.WriteString(strings.Join(cols, ", "))
	return sql.String(), nil
}

func (s *state) source(src types.Source) (string, error) {
	switch x := src.(type) {
	case types.Table:
		name := x.Name
		if x.Schema != "" {
			name = x.Schema + "." + name
		}
		if x.Alias != "" {
			name += " AS " + x.Alias
		}
		return name, nil
	case types.Subquery:
		inner, err := s.query(x.Query)
		if err != nil {
			return "", err
		}
		if x.Alias == "" {
			return "(" + inner + ")", nil
		}
		return "(" + inner + ") AS " + x.Alias, nil
	case types.Join:
		caps := s.g.profile.Capabilities
		if x.Kind == types.FullJoin && !caps.FullJoin {
			return "", s.g.unsupported("FULL JOIN", "combine LEFT and RIGHT joins with UNION")
		}
		if x.Kind == types.RightJoin && !caps.RightJoin {
			return "", s.g.unsupported("RIGHT JOIN", "swap the sources and use LEFT JOIN")
		}
		left, err := s.source(x.Left)
		if err != nil {
			return "", err
		}
		right, err := s.source(x.Right)
		if err != nil {
			return "", err
		}
		sql := left + " " + string(x.Kind) + " " + right
		if x.Kind != types.CrossJoin {
			on, err := s.expr(x.On)
			if err != nil {
				return "", err
			}
			sql += " ON " + on
		}
		return sql, nil
	default:
		return "", fmt.Errorf("unknown source type %T", src)
	}
}

func (s *state) orderList(keys []types.OrderBy) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, o := range keys {
		rendered, err := s.expr(o.Expr)
		if err != nil {
			return "", err
		}
		dir := o.Direction
		if dir == "" {
			dir = types.ASC
		}
		parts = append(parts, rendered+" "+string(dir))
	}
	return strings.Join(parts, ", "), nil
}

func (s *state) pagination(q *types.Query) string {
	p := s.g.profile
	switch p.Capabilities.Limit {
	case render.OffsetFetch:
		if q.Limit == nil && q.Offset == nil {
			return ""
		}
		var offset int64
		if q.Offset != nil {
			offset = *q.Offset
		}
		sql := "OFFSET " + render.FormatInt(offset) + " ROWS"
		if q.Limit != nil {
			sql += " FETCH NEXT " + render.FormatInt(*q.Limit) + " ROWS ONLY"
		}
		return sql
	default:
		switch {
		case q.Limit != nil && q.Offset != nil:
			return "LIMIT " + render.FormatInt(*q.Limit) + " OFFSET " + render.FormatInt(*q.Offset)
		case q.Limit != nil:
			return "LIMIT " + render.FormatInt(*q.Limit)
		case q.Offset != nil:
			return p.OffsetPrefix + "OFFSET " + render.FormatInt(*q.Offset)
		}
		return ""
	}
}
