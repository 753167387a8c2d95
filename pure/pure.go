// Package pure renders queries as relation-algebra chains.
//
// A query becomes a left-to-right pipeline over its source relation:
//
//	$employees->filter(x | $x.salary > 50000)->select(~[name, salary])->sort(descending(~salary))->limit(10)
//
// Steps appear in a fixed order: source, filter, project or groupBy, having,
// qualify, distinct, sort, limit/drop/slice, concatenate. Common table
// expressions become let bindings ahead of the main chain.
package pure

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// Renderer renders the relation-algebra dialect.
type Renderer struct {
	registry *functions.Registry
	database string
	maxDepth int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry resolves function calls against reg instead of functions.Default().
func WithRegistry(reg *functions.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithMaxDepth bounds expression and subquery nesting.
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithDatabase addresses tables through a database path: #>{path.table}#.
func WithDatabase(path string) Option {
	return func(r *Renderer) {
		r.database = path
	}
}

// New creates a relation-algebra renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		registry: functions.Default(),
		maxDepth: types.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dialect returns types.Pure.
func (r *Renderer) Dialect() types.Dialect {
	return types.Pure
}

// Render converts a query to a relation chain, preceded by one let line per CTE.
func (r *Renderer) Render(q *types.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("query cannot be nil")
	}
	s := &state{r: r, ctx: render.NewContext(r.maxDepth), ctes: make(map[string]bool)}

	var lines []string
	for _, c := range q.CTEs {
		if c.Recursive {
			return "", r.unsupported("recursive CTE")
		}
		if c.Query == nil {
			return "", r.unsupported("raw CTE body", "express the body as a query")
		}
		if len(c.Query.CTEs) > 0 {
			return "", r.unsupported("nested CTE", "declare CTEs on the outermost query")
		}
		body, err := s.chain(c.Query)
		if err != nil {
			return "", fmt.Errorf("CTE %s: %w", c.Name, err)
		}
		s.ctes[c.Name] = true
		lines = append(lines, "let "+c.Name+" = "+body+";")
	}

	main, err := s.chain(q)
	if err != nil {
		return "", err
	}
	return strings.Join(append(lines, main), "\n"), nil
}

// RenderExpression converts a standalone expression with x as the row variable.
func (r *Renderer) RenderExpression(e types.Expression) (string, error) {
	s := &state{r: r, ctx: render.NewContext(r.maxDepth)}
	return s.expr(e)
}

func (r *Renderer) unsupported(feature string, hint ...string) error {
	return render.NewUnsupportedFeatureError(string(types.Pure), feature, hint...)
}

// state is the per-render context. right holds the aliases bound to y while a
// join condition is rendered.
type state struct {
	r     *Renderer
	ctx   *render.Context
	query *types.Query
	ctes  map[string]bool
	right map[string]bool
}

func (s *state) chain(q *types.Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", fmt.Errorf("invalid query: %w", err)
	}
	if err := s.ctx.Enter(); err != nil {
		return "", err
	}
	defer s.ctx.Leave()

	if q.Source == nil {
		return "", types.MissingSourceError{Clause: "relation chain"}
	}
	if len(q.CTEs) > 0 && s.query != nil {
		return "", s.r.unsupported("nested CTE", "declare CTEs on the outermost query")
	}

	outer := s.query
	s.query = q
	defer func() { s.query = outer }()

	var sb strings.Builder

	src, err := s.source(q.Source)
	if err != nil {
		return "", err
	}
	sb.WriteString(src)

	if q.Filter != nil {
		if err := s.filter(&sb, q.Filter); err != nil {
			return "", err
		}
	}

	grouped := len(q.GroupBy) > 0 || hasAggregate(q.Projection)
	if grouped {
		step, err := s.groupBy(q)
		if err != nil {
			return "", err
		}
		sb.WriteString(step)
	} else if len(q.Projection) > 0 {
		step, err := s.projection(q.Projection)
		if err != nil {
			return "", err
		}
		sb.WriteString(step)
	}

	if q.Having != nil {
		having := q.Having
		if grouped {
			having, err = s.overGroups(having, q.Projection)
			if err != nil {
				return "", err
			}
		}
		if err := s.filter(&sb, having); err != nil {
			return "", err
		}
	}
	if q.Qualify != nil {
		if err := s.filter(&sb, q.Qualify); err != nil {
			return "", err
		}
	}

	if q.Distinct {
		sb.WriteString("->distinct()")
	}

	if len(q.OrderBy) > 0 {
		step, err := s.sort(q.OrderBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(step)
	}

	sb.WriteString(slice(q.Limit, q.Offset))

	if q.SetOp != nil {
		if q.SetOp.Query == nil {
			return "", fmt.Errorf("%s requires a query", q.SetOp.Kind)
		}
		other, err := s.chain(q.SetOp.Query)
		if err != nil {
			return "", err
		}
		sb.WriteString("->concatenate(" + other + ")")
		if q.SetOp.Kind == types.SetUnion {
			sb.WriteString("->distinct()")
		}
	}

	return sb.String(), nil
}

func (s *state) filter(sb *strings.Builder, e types.Expression) error {
	cond, err := s.expr(e)
	if err != nil {
		return err
	}
	sb.WriteString("->filter(x | " + cond + ")")
	return nil
}

func (s *state) source(src types.Source) (string, error) {
	switch x := src.(type) {
	case types.Table:
		if s.ctes[x.Name] || s.r.database == "" {
			return "$" + x.Name, nil
		}
		return "#>{" + s.r.database + "." + x.Name + "}#", nil
	case types.Subquery:
		return s.chain(x.Query)
	case types.Join:
		left, err := s.source(x.Left)
		if err != nil {
			return "", err
		}
		right, err := s.source(x.Right)
		if err != nil {
			return "", err
		}
		kind := "INNER"
		cond := "true"
		if x.Kind != types.CrossJoin {
			kind = x.Kind.Short()
			cond, err = s.joinCondition(x)
			if err != nil {
				return "", err
			}
		}
		return left + "->join(" + right + ", JoinKind." + kind + ", {x, y | " + cond + "})", nil
	default:
		return "", fmt.Errorf("unknown source type %T", src)
	}
}

func (s *state) joinCondition(j types.Join) (string, error) {
	right := make(map[string]bool)
	for _, alias := range types.Aliases(j.Right) {
		right[alias] = true
	}
	prev := s.right
	s.right = right
	defer func() { s.right = prev }()
	return s.expr(j.On)
}

// overGroups rewrites a HAVING condition to run after groupBy, where each
// aggregate is only reachable through the output column that projects it.
func (s *state) overGroups(e types.Expression, cols []types.Column) (types.Expression, error) {
	switch x := e.(type) {
	case types.AggregateCall:
		for i, c := range cols {
			if agg, ok := c.Expr.(types.AggregateCall); ok && sameAggregate(agg, x) {
				return types.ColumnRef{Name: outputName(c, i)}, nil
			}
		}
		return nil, s.r.unsupported("aggregate in HAVING that is not projected", "project it and filter on its alias")
	case types.Binary:
		left, err := s.overGroups(x.Left, cols)
		if err != nil {
			return nil, err
		}
		right, err := s.overGroups(x.Right, cols)
		if err != nil {
			return nil, err
		}
		x.Left, x.Right = left, right
		return x, nil
	case types.Unary:
		operand, err := s.overGroups(x.Operand, cols)
		if err != nil {
			return nil, err
		}
		x.Operand = operand
		return x, nil
	case types.ScalarCall:
		args, err := s.overGroupsAll(x.Args, cols)
		if err != nil {
			return nil, err
		}
		x.Args = args
		return x, nil
	case types.Case:
		whens := make([]types.When, len(x.Whens))
		for i, w := range x.Whens {
			cond, err := s.overGroups(w.Cond, cols)
			if err != nil {
				return nil, err
			}
			then, err := s.overGroups(w.Then, cols)
			if err != nil {
				return nil, err
			}
			whens[i] = types.When{Cond: cond, Then: then}
		}
		x.Whens = whens
		if x.Else != nil {
			els, err := s.overGroups(x.Else, cols)
			if err != nil {
				return nil, err
			}
			x.Else = els
		}
		return x, nil
	default:
		return e, nil
	}
}

func (s *state) overGroupsAll(args []types.Expression, cols []types.Column) ([]types.Expression, error) {
	out := make([]types.Expression, len(args))
	for i, a := range args {
		r, err := s.overGroups(a, cols)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func sameAggregate(a, b types.AggregateCall) bool {
	if functions.Canonical(a.Name) != functions.Canonical(b.Name) || a.Distinct != b.Distinct {
		return false
	}
	if len(a.Args) == 0 && len(b.Args) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Args, b.Args)
}

func hasAggregate(cols []types.Column) bool {
	for _, c := range cols {
		if _, ok := c.Expr.(types.AggregateCall); ok {
			return true
		}
	}
	return false
}

// outputName names a projection entry when no alias was given.
func outputName(c types.Column, i int) string {
	if c.Alias != "" {
		return c.Alias
	}
	switch x := c.Expr.(type) {
	case types.ColumnRef:
		return x.Name
	case types.ScalarCall:
		return strings.ToLower(x.Name)
	case types.AggregateCall:
		return strings.ToLower(x.Name)
	case types.WindowCall:
		return strings.ToLower(x.Name)
	}
	return fmt.Sprintf("col%d", i+1)
}

func (s *state) projection(cols []types.Column) (string, error) {
	names := make([]string, 0, len(cols))
	plain := true
	for _, c := range cols {
		ref, ok := c.Expr.(types.ColumnRef)
		if !ok || ref.IsStar() || (c.Alias != "" && c.Alias != ref.Name) {
			plain = false
			break
		}
		names = append(names, ref.Name)
	}
	if plain {
		return "->select(~[" + strings.Join(names, ", ") + "])", nil
	}

	entries := make([]string, 0, len(cols))
	for i, c := range cols {
		if ref, ok := c.Expr.(types.ColumnRef); ok && ref.IsStar() {
			return "", s.r.unsupported("* alongside computed columns", "list the columns explicitly")
		}
		rendered, err := s.expr(c.Expr)
		if err != nil {
			return "", err
		}
		entries = append(entries, outputName(c, i)+":x | "+rendered)
	}
	return "->project(~[" + strings.Join(entries, ", ") + "])", nil
}

func (s *state) groupBy(q *types.Query) (string, error) {
	keys := make([]string, 0, len(q.GroupBy))
	isKey := make(map[string]bool)
	for _, k := range q.GroupBy {
		ref, ok := k.(types.ColumnRef)
		if !ok {
			return "", s.r.unsupported("grouping by an expression", "project the expression first")
		}
		keys = append(keys, ref.Name)
		isKey[ref.Name] = true
	}

	var aggs []string
	for i, c := range q.Projection {
		switch x := c.Expr.(type) {
		case types.ColumnRef:
			if !isKey[x.Name] {
				return "", fmt.Errorf("column %s must appear in GROUP BY", x.Name)
			}
		case types.AggregateCall:
			rendered, err := s.expr(x)
			if err != nil {
				return "", err
			}
			aggs = append(aggs, outputName(c, i)+":x | "+rendered)
		default:
			return "", s.r.unsupported("non-aggregate expression in a grouped projection")
		}
	}
	return "->groupBy(~[" + strings.Join(keys, ", ") + "], ~[" + strings.Join(aggs, ", ") + "])", nil
}

func (s *state) sortKey(o types.OrderBy) (string, error) {
	ref, ok := o.Expr.(types.ColumnRef)
	if !ok || ref.IsStar() {
		return "", s.r.unsupported("sorting by an expression", "project the expression and sort by its alias")
	}
	if o.Direction == types.DESC {
		return "descending(~" + ref.Name + ")", nil
	}
	return "ascending(~" + ref.Name + ")", nil
}

func (s *state) sortKeys(keys []types.OrderBy) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, o := range keys {
		k, err := s.sortKey(o)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func (s *state) sort(keys []types.OrderBy) (string, error) {
	rendered, err := s.sortKeys(keys)
	if err != nil {
		return "", err
	}
	if len(rendered) == 1 {
		return "->sort(" + rendered[0] + ")", nil
	}
	return "->sort([" + strings.Join(rendered, ", ") + "])", nil
}

func slice(limit, offset *int64) string {
	switch {
	case limit != nil && offset != nil:
		return "->slice(" + render.FormatInt(*offset) + ", " + render.FormatInt(*offset+*limit) + ")"
	case limit != nil:
		return "->limit(" + render.FormatInt(*limit) + ")"
	case offset != nil:
		return "->drop(" + render.FormatInt(*offset) + ")"
	}
	return ""
}
