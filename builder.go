package relq

import (
	"fmt"

	"github.com/zoobzio/relq/internal/types"
)

// Builder provides a fluent API for constructing queries.
// The first error sticks; later calls are no-ops and Build returns it.
type Builder struct {
	query *types.Query
	err   error
}

// From creates a builder reading from a table with an optional alias.
func From(table string, alias ...string) *Builder {
	if table == "" {
		return &Builder{query: &types.Query{}, err: fmt.Errorf("table name cannot be empty")}
	}
	return FromSource(T(table, alias...))
}

// FromSource creates a builder reading from any source.
func FromSource(src types.Source) *Builder {
	return NewQuery().Source(src)
}

// FromQuery creates a builder reading from a subquery named alias.
func FromQuery(sub *Builder, alias string) *Builder {
	b := NewQuery()
	q, err := sub.Build()
	if err != nil {
		b.err = fmt.Errorf("subquery %s: %w", alias, err)
		return b
	}
	if alias == "" {
		b.err = fmt.Errorf("subquery requires an alias")
		return b
	}
	return b.Source(types.Subquery{Query: q, Alias: alias})
}

// NewQuery creates a builder with no source. Clauses that need one fail with
// MissingSourceError until Source is called.
func NewQuery() *Builder {
	return &Builder{query: &types.Query{}}
}

// Err returns the accumulated error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Source sets or replaces the query source.
func (b *Builder) Source(src types.Source) *Builder {
	if b.err != nil {
		return b
	}
	if src == nil {
		b.err = fmt.Errorf("source cannot be nil")
		return b
	}
	if j, ok := src.(types.Join); ok {
		if err := j.Validate(); err != nil {
			b.err = err
			return b
		}
	}
	b.query.Source = src
	return b
}

func (b *Builder) requireSource(clause string) bool {
	if b.err != nil {
		return false
	}
	if b.query.Source == nil {
		b.err = types.MissingSourceError{Clause: clause}
		return false
	}
	return true
}

// Select appends projection columns.
func (b *Builder) Select(cols ...types.Column) *Builder {
	if b.err != nil {
		return b
	}
	for _, c := range cols {
		if c.Expr == nil {
			b.err = fmt.Errorf("select: column expression cannot be nil")
			return b
		}
	}
	b.query.Projection = append(b.query.Projection, cols...)
	return b
}

// SelectExpr appends unaliased projection columns.
func (b *Builder) SelectExpr(exprs ...types.Expression) *Builder {
	cols := make([]types.Column, len(exprs))
	for i, e := range exprs {
		cols[i] = AsColumn(e)
	}
	return b.Select(cols...)
}

// Filter sets the WHERE predicate. Repeated calls combine with AND.
func (b *Builder) Filter(cond types.Expression) *Builder {
	if !b.requireSource("filter") {
		return b
	}
	b.query.Filter = combine(b.query.Filter, cond)
	return b
}

// Where is an alias for Filter.
func (b *Builder) Where(cond types.Expression) *Builder {
	return b.Filter(cond)
}

func combine(existing, cond types.Expression) types.Expression {
	if existing == nil {
		return cond
	}
	return types.Binary{Left: existing, Op: types.AND, Right: cond}
}

// GroupBy appends grouping keys.
func (b *Builder) GroupBy(keys ...types.Expression) *Builder {
	if !b.requireSource("group by") {
		return b
	}
	b.query.GroupBy = append(b.query.GroupBy, keys...)
	return b
}

// Having sets the post-aggregation predicate. Repeated calls combine with AND.
func (b *Builder) Having(cond types.Expression) *Builder {
	if !b.requireSource("having") {
		return b
	}
	b.query.Having = combine(b.query.Having, cond)
	return b
}

// Qualify sets the post-window predicate. Repeated calls combine with AND.
func (b *Builder) Qualify(cond types.Expression) *Builder {
	if !b.requireSource("qualify") {
		return b
	}
	b.query.Qualify = combine(b.query.Qualify, cond)
	return b
}

// OrderBy appends an ascending sort key.
func (b *Builder) OrderBy(e types.Expression) *Builder {
	return b.Order(Asc(e))
}

// OrderByDesc appends a descending sort key.
func (b *Builder) OrderByDesc(e types.Expression) *Builder {
	return b.Order(Desc(e))
}

// Order appends sort keys.
func (b *Builder) Order(keys ...types.OrderBy) *Builder {
	if !b.requireSource("order by") {
		return b
	}
	b.query.OrderBy = append(b.query.OrderBy, keys...)
	return b
}

// Limit sets the maximum row count.
func (b *Builder) Limit(n int64) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		b.err = fmt.Errorf("limit must not be negative: %d", n)
		return b
	}
	b.query.Limit = &n
	return b
}

// Offset sets the number of rows to skip.
func (b *Builder) Offset(n int64) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		b.err = fmt.Errorf("offset must not be negative: %d", n)
		return b
	}
	b.query.Offset = &n
	return b
}

// Distinct removes duplicate rows.
func (b *Builder) Distinct() *Builder {
	if b.err != nil {
		return b
	}
	b.query.Distinct = true
	return b
}

// WithCTE declares a common table expression.
func (b *Builder) WithCTE(name string, body *Builder, columns ...string) *Builder {
	return b.addCTE(name, body, false, columns)
}

// WithRecursiveCTE declares a recursive common table expression. The body is
// usually an anchor query with UnionAll of the recursive step.
func (b *Builder) WithRecursiveCTE(name string, body *Builder, columns ...string) *Builder {
	return b.addCTE(name, body, true, columns)
}

func (b *Builder) addCTE(name string, body *Builder, recursive bool, columns []string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = fmt.Errorf("CTE name cannot be empty")
		return b
	}
	q, err := body.Build()
	if err != nil {
		b.err = fmt.Errorf("CTE %s: %w", name, err)
		return b
	}
	b.query.CTEs = append(b.query.CTEs, types.CTE{Name: name, Query: q, Columns: columns, Recursive: recursive})
	return b
}

// WithRawCTE declares a common table expression whose body is literal text,
// emitted verbatim by SQL dialects.
func (b *Builder) WithRawCTE(name, raw string, recursive bool, columns ...string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || raw == "" {
		b.err = fmt.Errorf("raw CTE requires a name and a body")
		return b
	}
	b.query.CTEs = append(b.query.CTEs, types.CTE{Name: name, Raw: raw, Columns: columns, Recursive: recursive})
	return b
}

// Join combines the current source with right.
func (b *Builder) Join(kind types.JoinKind, right types.Source, on types.Expression) *Builder {
	if !b.requireSource("join") {
		return b
	}
	j := types.Join{Left: b.query.Source, Right: right, On: on, Kind: kind}
	if err := j.Validate(); err != nil {
		b.err = err
		return b
	}
	b.query.Source = j
	return b
}

// InnerJoin adds an INNER JOIN.
func (b *Builder) InnerJoin(right types.Source, on types.Expression) *Builder {
	return b.Join(types.InnerJoin, right, on)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(right types.Source, on types.Expression) *Builder {
	return b.Join(types.LeftJoin, right, on)
}

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(right types.Source, on types.Expression) *Builder {
	return b.Join(types.RightJoin, right, on)
}

// FullJoin adds a FULL JOIN.
func (b *Builder) FullJoin(right types.Source, on types.Expression) *Builder {
	return b.Join(types.FullJoin, right, on)
}

// CrossJoin adds a CROSS JOIN.
func (b *Builder) CrossJoin(right types.Source) *Builder {
	return b.Join(types.CrossJoin, right, nil)
}

// JoinQuery joins another query and appends its projection to this one. A
// query that only selects from a table joins that table directly. Any other
// query joins as a subquery named after its source alias, and its output
// columns are referenced through that alias.
func (b *Builder) JoinQuery(kind types.JoinKind, right *Builder, on types.Expression) *Builder {
	if b.err != nil {
		return b
	}
	rq, err := right.Build()
	if err != nil {
		b.err = fmt.Errorf("join: %w", err)
		return b
	}
	if rq.Source == nil {
		b.err = types.MissingSourceError{Clause: "join"}
		return b
	}

	if bareTable(rq) {
		b.Join(kind, rq.Source, on)
		if b.err == nil {
			b.query.Projection = append(b.query.Projection, rq.Projection...)
		}
		return b
	}

	alias := sourceAlias(rq.Source)
	if alias == "" {
		b.err = types.InvalidJoinError{Kind: kind, Reason: "query over a join needs a named source to be joined as a subquery"}
		return b
	}
	cols := make([]types.Column, 0, len(rq.Projection))
	for _, c := range rq.Projection {
		name := c.Alias
		if ref, ok := c.Expr.(types.ColumnRef); ok && name == "" {
			name = ref.Name
		}
		if name == "" {
			b.err = types.InvalidJoinError{Kind: kind, Reason: "joined subquery column needs an alias"}
			return b
		}
		if name == "*" {
			cols = append(cols, types.Column{Expr: types.ColumnRef{Table: alias, Name: "*"}})
			continue
		}
		cols = append(cols, types.Column{Expr: types.ColumnRef{Table: alias, Name: name}, Alias: name})
	}
	b.Join(kind, types.Subquery{Query: rq, Alias: alias}, on)
	if b.err == nil {
		b.query.Projection = append(b.query.Projection, cols...)
	}
	return b
}

// bareTable reports whether q selects from a single table with no other clause.
func bareTable(q *types.Query) bool {
	if _, ok := q.Source.(types.Table); !ok {
		return false
	}
	return q.Filter == nil && q.Having == nil && q.Qualify == nil &&
		q.Limit == nil && q.Offset == nil && q.SetOp == nil && !q.Distinct &&
		len(q.CTEs) == 0 && len(q.GroupBy) == 0 && len(q.OrderBy) == 0 && len(q.Windows) == 0
}

func sourceAlias(src types.Source) string {
	switch x := src.(type) {
	case types.Table:
		if x.Alias != "" {
			return x.Alias
		}
		return x.Name
	case types.Subquery:
		return x.Alias
	}
	return ""
}

// Union chains other with UNION.
func (b *Builder) Union(other *Builder) *Builder {
	return b.setOp(types.SetUnion, other)
}

// UnionAll chains other with UNION ALL.
func (b *Builder) UnionAll(other *Builder) *Builder {
	return b.setOp(types.SetUnionAll, other)
}

func (b *Builder) setOp(kind types.SetKind, other *Builder) *Builder {
	if b.err != nil {
		return b
	}
	q, err := other.Build()
	if err != nil {
		b.err = fmt.Errorf("%s: %w", kind, err)
		return b
	}
	tail := b.query
	for tail.SetOp != nil {
		tail = tail.SetOp.Query
	}
	tail.SetOp = &types.SetOperation{Kind: kind, Query: q}
	return b
}

// Window defines a named window. Redefining a name replaces its spec in place.
func (b *Builder) Window(name string, spec types.WindowSpec) *Builder {
	if !b.requireSource("window") {
		return b
	}
	if name == "" {
		b.err = fmt.Errorf("window name cannot be empty")
		return b
	}
	if err := spec.Validate(); err != nil {
		b.err = fmt.Errorf("window %s: %w", name, err)
		return b
	}
	for i, w := range b.query.Windows {
		if w.Name == name {
			b.query.Windows[i].Spec = spec
			return b
		}
	}
	b.query.Windows = append(b.query.Windows, types.NamedWindow{Name: name, Spec: spec})
	return b
}

// Build returns a copy of the constructed query.
func (b *Builder) Build() (*types.Query, error) {
	if b == nil {
		return nil, fmt.Errorf("builder cannot be nil")
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := b.query.Validate(); err != nil {
		return nil, err
	}
	return cloneQuery(b.query), nil
}

// MustBuild returns the query or panics on error.
func (b *Builder) MustBuild() *types.Query {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Render builds the query and renders it with the default generator set.
func (b *Builder) Render(dialect types.Dialect) (string, error) {
	q, err := b.Build()
	if err != nil {
		return "", err
	}
	return Render(q, dialect)
}

// MustRender renders the query or panics on error.
func (b *Builder) MustRender(dialect types.Dialect) string {
	out, err := b.Render(dialect)
	if err != nil {
		panic(err)
	}
	return out
}

// cloneQuery copies every slice and the set operation chain so later builder
// calls cannot reach a query that was already handed out.
func cloneQuery(q *types.Query) *types.Query {
	out := *q
	out.Projection = append([]types.Column(nil), q.Projection...)
	out.GroupBy = append([]types.Expression(nil), q.GroupBy...)
	out.OrderBy = append([]types.OrderBy(nil), q.OrderBy...)
	out.Windows = append([]types.NamedWindow(nil), q.Windows...)
	out.CTEs = append([]types.CTE(nil), q.CTEs...)
	if q.Limit != nil {
		n := *q.Limit
		out.Limit = &n
	}
	if q.Offset != nil {
		n := *q.Offset
		out.Offset = &n
	}
	if q.SetOp != nil {
		out.SetOp = &types.SetOperation{Kind: q.SetOp.Kind, Query: cloneQuery(q.SetOp.Query)}
	}
	return &out
}
