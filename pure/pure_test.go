package pure

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

func col(name string) types.Expression { return types.ColumnRef{Name: name} }

func lit(v any) types.Expression { return types.Literal{Value: v} }

func bin(l types.Expression, op types.Operator, r types.Expression) types.Expression {
	return types.Binary{Left: l, Op: op, Right: r}
}

func i64(n int64) *int64 { return &n }

func TestRender_Golden(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		query *types.Query
	}{
		{
			name: "filter",
			query: &types.Query{
				Source: types.Table{Name: "employees"},
				Filter: bin(col("salary"), types.GT, lit(70000)),
			},
		},
		{
			name: "select_sort_limit",
			query: &types.Query{
				Source:     types.Table{Name: "employees"},
				Projection: []types.Column{{Expr: col("name")}, {Expr: col("salary"), Alias: "salary"}},
				OrderBy:    []types.OrderBy{{Expr: col("salary"), Direction: types.DESC}},
				Limit:      i64(10),
			},
		},
		{
			name: "group_by_having",
			query: &types.Query{
				Source: types.Table{Name: "employees", Alias: "e"},
				Projection: []types.Column{
					{Expr: col("department")},
					{Expr: types.AggregateCall{Name: "AVG", Args: []types.Expression{col("salary")}}, Alias: "avg_salary"},
					{Expr: types.AggregateCall{Name: "COUNT"}, Alias: "headcount"},
				},
				GroupBy: []types.Expression{col("department")},
				Having:  bin(col("avg_salary"), types.GT, lit(50000)),
			},
		},
		{
			name: "left_join",
			query: &types.Query{
				Source: types.Join{
					Left:  types.Table{Name: "employees", Alias: "e"},
					Right: types.Table{Name: "departments", Alias: "d"},
					On:    bin(types.ColumnRef{Table: "e", Name: "department_id"}, types.EQ, types.ColumnRef{Table: "d", Name: "id"}),
					Kind:  types.LeftJoin,
				},
				Projection: []types.Column{
					{Expr: types.ColumnRef{Table: "e", Name: "name"}, Alias: "employee"},
					{Expr: types.ColumnRef{Table: "d", Name: "department_name"}, Alias: "department"},
				},
			},
		},
		{
			name: "window_frame",
			query: &types.Query{
				Source: types.Table{Name: "employees"},
				Projection: []types.Column{
					{Expr: col("name")},
					{Expr: types.WindowCall{Name: "ROW_NUMBER", Spec: &types.WindowSpec{
						PartitionBy: []types.Expression{col("department")},
						OrderBy:     []types.OrderBy{{Expr: col("salary"), Direction: types.DESC}},
						Frame: &types.Frame{
							Kind:  types.FrameRows,
							Start: types.Bound{Kind: types.Preceding, Offset: 2},
							End:   types.Bound{Kind: types.CurrentRow},
						},
					}}, Alias: "rn"},
				},
			},
		},
		{
			name: "cte_union",
			query: &types.Query{
				CTEs: []types.CTE{{Name: "high_earners", Query: &types.Query{
					Source: types.Table{Name: "employees"},
					Filter: bin(col("salary"), types.GT, lit(70000)),
				}}},
				Source:     types.Table{Name: "high_earners"},
				Projection: []types.Column{{Expr: col("name")}},
				SetOp: &types.SetOperation{Kind: types.SetUnion, Query: &types.Query{
					Source:     types.Table{Name: "contractors"},
					Projection: []types.Column{{Expr: col("name")}},
				}},
			},
		},
		{
			name: "database_slice",
			opts: []Option{WithDatabase("hr::warehouse")},
			query: &types.Query{
				Source: types.Table{Name: "employees"},
				OrderBy: []types.OrderBy{
					{Expr: col("department")},
					{Expr: col("salary"), Direction: types.DESC},
				},
				Limit:  i64(10),
				Offset: i64(5),
			},
		},
		{
			name: "named_window_qualify",
			query: &types.Query{
				Source: types.Table{Name: "employees"},
				Projection: []types.Column{
					{Expr: col("name")},
					{Expr: types.WindowCall{Name: "SUM", Args: []types.Expression{col("salary")}, Ref: "by_hire"}, Alias: "running"},
				},
				Windows: []types.NamedWindow{{Name: "by_hire", Spec: types.WindowSpec{
					OrderBy: []types.OrderBy{{Expr: col("hired")}},
					Frame: &types.Frame{
						Kind:  types.FrameRange,
						Start: types.Bound{Kind: types.UnboundedPreceding},
						End:   types.Bound{Kind: types.CurrentRow},
					},
				}}},
				Qualify: bin(col("running"), types.LT, lit(100000)),
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.opts...).Render(tt.query)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out+"\n"))
		})
	}
}

func TestRenderExpression(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		expr types.Expression
		want string
	}{
		{"equality", bin(col("a"), types.EQ, lit(1)), "$x.a == 1"},
		{"and or", types.Binary{Left: bin(col("a"), types.AND, col("b")), Op: types.OR, Right: col("c"), Grouped: true}, "($x.a && $x.b || $x.c)"},
		{"not", types.Unary{Operand: bin(col("a"), types.EQ, lit(1)), Op: types.NOT}, "!($x.a == 1)"},
		{"is null", types.Unary{Operand: col("manager_id"), Op: types.IsNull}, "$x.manager_id->isEmpty()"},
		{"in list", bin(col("department"), types.IN, lit([]string{"IT", "HR"})), "['IT', 'HR']->contains($x.department)"},
		{"not in", bin(col("id"), types.NotIn, lit([]int{1, 2})), "!([1, 2]->contains($x.id))"},
		{"escaped string", lit("O'Brien"), `'O\'Brien'`},
		{"null", lit(nil), "null"},
		{"float", lit(1.0), "1.0"},
		{"upper", types.ScalarCall{Name: "UPPER", Args: []types.Expression{col("name")}}, "$x.name->toUpper()"},
		{"zero arg", types.ScalarCall{Name: "CURRENT_DATE"}, "today()"},
		{"concat", types.ScalarCall{Name: "CONCAT", Args: []types.Expression{col("first"), lit(" "), col("last")}}, "[$x.first, ' ', $x.last]->joinStrings('')"},
		{"count all", types.AggregateCall{Name: "COUNT", Args: []types.Expression{lit(1)}}, "$x->count()"},
		{"count distinct", types.AggregateCall{Name: "COUNT", Args: []types.Expression{col("department")}, Distinct: true}, "$x.department->distinct()->count()"},
		{"lag", types.WindowCall{Name: "LAG", Args: []types.Expression{col("salary"), lit(1)}, Spec: &types.WindowSpec{
			OrderBy: []types.OrderBy{{Expr: col("hired")}},
		}}, "$x.salary->lag(1, over([ascending(~hired)]))"},
		{"case", types.Case{
			Whens: []types.When{
				{Cond: bin(col("salary"), types.GT, lit(100)), Then: lit("high")},
				{Cond: bin(col("salary"), types.GT, lit(50)), Then: lit("mid")},
			},
			Else: lit("low"),
		}, "if($x.salary > 100, |'high', |if($x.salary > 50, |'mid', |'low'))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Unsupported(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		query   *types.Query
		feature string
	}{
		{
			name: "like",
			query: &types.Query{
				Source: types.Table{Name: "employees"},
				Filter: bin(col("name"), types.LIKE, lit("A%")),
			},
			feature: "LIKE",
		},
		{
			name: "recursive cte",
			query: &types.Query{
				Source: types.Table{Name: "nums"},
				CTEs:   []types.CTE{{Name: "nums", Raw: "SELECT 1", Recursive: true}},
			},
			feature: "recursive CTE",
		},
		{
			name: "raw cte",
			query: &types.Query{
				Source: types.Table{Name: "nums"},
				CTEs:   []types.CTE{{Name: "nums", Raw: "SELECT 1"}},
			},
			feature: "raw CTE body",
		},
		{
			name: "sort by expression",
			query: &types.Query{
				Source:  types.Table{Name: "employees"},
				OrderBy: []types.OrderBy{{Expr: bin(col("a"), types.Add, col("b"))}},
			},
			feature: "sorting by an expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(tt.query)
			var ufErr render.UnsupportedFeatureError
			require.True(t, errors.As(err, &ufErr), "expected UnsupportedFeatureError, got %v", err)
			assert.Equal(t, "pure", ufErr.Dialect)
			assert.Equal(t, tt.feature, ufErr.Feature)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	r := New()

	_, err := r.Render(&types.Query{})
	assert.True(t, errors.Is(err, types.ErrMissingSource))

	_, err = r.RenderExpression(types.ScalarCall{Name: "NOPE"})
	assert.True(t, errors.Is(err, types.ErrUnknownFunction))

	_, err = r.RenderExpression(types.ScalarCall{Name: "LOWER"})
	assert.True(t, errors.Is(err, types.ErrArity))

	_, err = r.Render(&types.Query{
		Source:     types.Table{Name: "employees"},
		Projection: []types.Column{{Expr: types.WindowCall{Name: "RANK", Ref: "missing"}}},
	})
	assert.True(t, errors.Is(err, types.ErrUndefinedWindow))

	_, err = r.Render(&types.Query{
		Source:     types.Table{Name: "employees"},
		Projection: []types.Column{{Expr: col("name")}, {Expr: types.AggregateCall{Name: "COUNT"}}},
	})
	assert.Error(t, err, "ungrouped column next to an aggregate")
}

func TestRender_HavingOnProjectedAggregate(t *testing.T) {
	sum := types.AggregateCall{Name: "SUM", Args: []types.Expression{col("total")}}
	q := &types.Query{
		Source: types.Table{Name: "orders"},
		Projection: []types.Column{
			{Expr: col("customer")},
			{Expr: sum, Alias: "spent"},
			{Expr: types.AggregateCall{Name: "COUNT"}, Alias: "n"},
		},
		GroupBy: []types.Expression{col("customer")},
		Having: types.Binary{
			Left:  bin(types.AggregateCall{Name: "sum", Args: []types.Expression{col("total")}}, types.GT, lit(100)),
			Op:    types.AND,
			Right: bin(types.AggregateCall{Name: "COUNT"}, types.GT, lit(1)),
		},
	}

	out, err := New().Render(q)
	require.NoError(t, err)
	assert.Equal(t, "$orders->groupBy(~[customer], ~[spent:x | $x.total->sum(), n:x | $x->count()])->filter(x | $x.spent > 100 && $x.n > 1)", out)
}

func TestRender_HavingOnUnprojectedAggregate(t *testing.T) {
	q := &types.Query{
		Source:     types.Table{Name: "orders"},
		Projection: []types.Column{{Expr: col("customer")}},
		GroupBy:    []types.Expression{col("customer")},
		Having:     bin(types.AggregateCall{Name: "MAX", Args: []types.Expression{col("total")}}, types.GT, lit(100)),
	}

	_, err := New().Render(q)
	var ufErr render.UnsupportedFeatureError
	require.True(t, errors.As(err, &ufErr), "error = %v", err)
	assert.Contains(t, ufErr.Error(), "aggregate in HAVING")
}

func TestRender_DepthLimit(t *testing.T) {
	var e types.Expression = col("x")
	for i := 0; i < 8; i++ {
		e = bin(e, types.Add, lit(1))
	}
	_, err := New(WithMaxDepth(4)).RenderExpression(e)
	assert.Error(t, err)
}
