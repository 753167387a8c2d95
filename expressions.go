package relq

import (
	"fmt"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/types"
)

// Helper functions for creating expressions.

// Lit creates a literal. Accepted values are nil, bool, Go integers and
// floats, strings, and slices of those for IN lists.
func Lit(v any) types.Literal {
	return types.Literal{Value: v}
}

// Null creates a NULL literal.
func Null() types.Literal {
	return types.Literal{}
}

// List creates a literal value list, the right side of IN and NOT IN.
func List(values ...any) types.Literal {
	return types.Literal{Value: values}
}

// Col creates an unqualified column reference.
func Col(name string) types.ColumnRef {
	return types.ColumnRef{Name: name}
}

// ColOf creates a column reference qualified by a table name or alias.
func ColOf(table, name string) types.ColumnRef {
	return types.ColumnRef{Table: table, Name: name}
}

// Star references every column.
func Star() types.ColumnRef {
	return types.ColumnRef{Name: "*"}
}

// Bin creates a binary expression.
func Bin(left types.Expression, op types.Operator, right types.Expression) types.Binary {
	return types.Binary{Left: left, Op: op, Right: right}
}

// Eq creates left = right.
func Eq(left, right types.Expression) types.Binary { return Bin(left, types.EQ, right) }

// Ne creates left != right.
func Ne(left, right types.Expression) types.Binary { return Bin(left, types.NE, right) }

// Gt creates left > right.
func Gt(left, right types.Expression) types.Binary { return Bin(left, types.GT, right) }

// Ge creates left >= right.
func Ge(left, right types.Expression) types.Binary { return Bin(left, types.GE, right) }

// Lt creates left < right.
func Lt(left, right types.Expression) types.Binary { return Bin(left, types.LT, right) }

// Le creates left <= right.
func Le(left, right types.Expression) types.Binary { return Bin(left, types.LE, right) }

// Add creates left + right.
func Add(left, right types.Expression) types.Binary { return Bin(left, types.Add, right) }

// Sub creates left - right.
func Sub(left, right types.Expression) types.Binary { return Bin(left, types.Sub, right) }

// Mul creates left * right.
func Mul(left, right types.Expression) types.Binary { return Bin(left, types.Mul, right) }

// Div creates left / right.
func Div(left, right types.Expression) types.Binary { return Bin(left, types.Div, right) }

// Like creates expr LIKE pattern.
func Like(expr types.Expression, pattern string) types.Binary {
	return Bin(expr, types.LIKE, Lit(pattern))
}

// In creates expr IN (values...).
func In(expr types.Expression, values ...any) types.Binary {
	return Bin(expr, types.IN, List(values...))
}

// NotIn creates expr NOT IN (values...).
func NotIn(expr types.Expression, values ...any) types.Binary {
	return Bin(expr, types.NotIn, List(values...))
}

// And folds the operands left to right with AND. A single operand is returned
// unchanged; no operands yield nil.
func And(exprs ...types.Expression) types.Expression {
	return fold(types.AND, exprs)
}

// Or folds the operands left to right with OR.
func Or(exprs ...types.Expression) types.Expression {
	return fold(types.OR, exprs)
}

func fold(op types.Operator, exprs []types.Expression) types.Expression {
	if len(exprs) == 0 {
		return nil
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = types.Binary{Left: out, Op: op, Right: e}
	}
	return out
}

// Not creates NOT expr.
func Not(expr types.Expression) types.Unary {
	return types.Unary{Operand: expr, Op: types.NOT}
}

// Neg creates -expr.
func Neg(expr types.Expression) types.Unary {
	return types.Unary{Operand: expr, Op: types.Neg}
}

// IsNull creates expr IS NULL.
func IsNull(expr types.Expression) types.Unary {
	return types.Unary{Operand: expr, Op: types.IsNull}
}

// IsNotNull creates expr IS NOT NULL.
func IsNotNull(expr types.Expression) types.Unary {
	return types.Unary{Operand: expr, Op: types.IsNotNull}
}

// Group marks a binary or unary expression for explicit parentheses.
// Generators never infer precedence; other expressions are returned unchanged.
func Group(expr types.Expression) types.Expression {
	switch x := expr.(type) {
	case types.Binary:
		x.Grouped = true
		return x
	case types.Unary:
		x.Grouped = true
		return x
	}
	return expr
}

// When creates one CASE branch.
func When(cond, then types.Expression) types.When {
	return types.When{Cond: cond, Then: then}
}

// Case creates CASE WHEN ... ELSE otherwise END. A nil otherwise omits ELSE.
func Case(otherwise types.Expression, whens ...types.When) types.Case {
	return types.Case{Whens: whens, Else: otherwise}
}

// As wraps an expression into a projection column.
func As(expr types.Expression, alias string) types.Column {
	return types.Column{Expr: expr, Alias: alias}
}

// AsColumn wraps an expression into an unaliased projection column.
func AsColumn(expr types.Expression) types.Column {
	return types.Column{Expr: expr}
}

// Asc creates an ascending sort key.
func Asc(expr types.Expression) types.OrderBy {
	return types.OrderBy{Expr: expr, Direction: types.ASC}
}

// Desc creates a descending sort key.
func Desc(expr types.Expression) types.OrderBy {
	return types.OrderBy{Expr: expr, Direction: types.DESC}
}

// T creates a table reference with an optional alias.
func T(name string, alias ...string) types.Table {
	t := types.Table{Name: name}
	if len(alias) > 0 {
		t.Alias = alias[0]
	}
	return t
}

// Frame helpers.

// Rows creates a ROWS frame.
func Rows(start, end types.Bound) *types.Frame {
	return &types.Frame{Kind: types.FrameRows, Start: start, End: end}
}

// Range creates a RANGE frame.
func Range(start, end types.Bound) *types.Frame {
	return &types.Frame{Kind: types.FrameRange, Start: start, End: end}
}

// Preceding creates an "n PRECEDING" bound.
func Preceding(n int64) types.Bound {
	return types.Bound{Kind: types.Preceding, Offset: n}
}

// Following creates an "n FOLLOWING" bound.
func Following(n int64) types.Bound {
	return types.Bound{Kind: types.Following, Offset: n}
}

// Current creates a CURRENT ROW bound.
func Current() types.Bound {
	return types.Bound{Kind: types.CurrentRow}
}

// UnboundedPreceding creates an UNBOUNDED PRECEDING bound.
func UnboundedPreceding() types.Bound {
	return types.Bound{Kind: types.UnboundedPreceding}
}

// UnboundedFollowing creates an UNBOUNDED FOLLOWING bound.
func UnboundedFollowing() types.Bound {
	return types.Bound{Kind: types.UnboundedFollowing}
}

// Over creates a window specification. Pass nil for any part that is absent.
func Over(partitionBy []types.Expression, orderBy []types.OrderBy, frame *types.Frame) types.WindowSpec {
	return types.WindowSpec{PartitionBy: partitionBy, OrderBy: orderBy, Frame: frame}
}

// PartitionBy is shorthand for the partition list of Over.
func PartitionBy(exprs ...types.Expression) []types.Expression {
	return exprs
}

// OrderKeys is shorthand for the order list of Over.
func OrderKeys(keys ...types.OrderBy) []types.OrderBy {
	return keys
}

// Function call helpers. These resolve against functions.Default(); use a
// functions.Registry directly for custom catalogues.

// TryFunc creates a checked scalar function call.
func TryFunc(name string, args ...types.Expression) (types.ScalarCall, error) {
	return functions.Default().Scalar(name, args...)
}

// Func creates a checked scalar function call.
func Func(name string, args ...types.Expression) types.ScalarCall {
	call, err := TryFunc(name, args...)
	if err != nil {
		panic(fmt.Errorf("relq: %w", err))
	}
	return call
}

// TryAgg creates a checked aggregate call.
func TryAgg(name string, distinct bool, args ...types.Expression) (types.AggregateCall, error) {
	return functions.Default().Aggregate(name, distinct, args...)
}

// Agg creates a checked aggregate call.
func Agg(name string, args ...types.Expression) types.AggregateCall {
	call, err := TryAgg(name, false, args...)
	if err != nil {
		panic(fmt.Errorf("relq: %w", err))
	}
	return call
}

// AggDistinct creates a checked aggregate call over distinct values.
func AggDistinct(name string, args ...types.Expression) types.AggregateCall {
	call, err := TryAgg(name, true, args...)
	if err != nil {
		panic(fmt.Errorf("relq: %w", err))
	}
	return call
}

// CountAll creates the canonical count-every-row aggregate.
func CountAll() types.AggregateCall {
	return Agg("COUNT")
}

// TryWin creates a checked window call with an inline specification.
func TryWin(name string, spec types.WindowSpec, args ...types.Expression) (types.WindowCall, error) {
	return functions.Default().Window(name, spec, args...)
}

// Win creates a checked window call with an inline specification.
func Win(name string, spec types.WindowSpec, args ...types.Expression) types.WindowCall {
	call, err := TryWin(name, spec, args...)
	if err != nil {
		panic(fmt.Errorf("relq: %w", err))
	}
	return call
}

// TryNamedWin creates a checked window call referencing a named window.
func TryNamedWin(name, window string, args ...types.Expression) (types.WindowCall, error) {
	return functions.Default().NamedWindow(name, window, args...)
}

// NamedWin creates a checked window call referencing a named window.
func NamedWin(name, window string, args ...types.Expression) types.WindowCall {
	call, err := TryNamedWin(name, window, args...)
	if err != nil {
		panic(fmt.Errorf("relq: %w", err))
	}
	return call
}
