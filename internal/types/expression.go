package types

import (
	"fmt"
	"math"
)

// Expression is a node in the scalar/boolean expression tree.
// The set of implementations is closed to this package.
type Expression interface {
	expression()
}

// Operator is a binary operator.
type Operator string

const (
	EQ      Operator = "="
	NE      Operator = "!="
	LT      Operator = "<"
	LE      Operator = "<="
	GT      Operator = ">"
	GE      Operator = ">="
	Add     Operator = "+"
	Sub     Operator = "-"
	Mul     Operator = "*"
	Div     Operator = "/"
	Mod     Operator = "%"
	AND     Operator = "AND"
	OR      Operator = "OR"
	LIKE    Operator = "LIKE"
	NotLike Operator = "NOT LIKE"
	IN      Operator = "IN"
	NotIn   Operator = "NOT IN"
	Concat  Operator = "||"
)

// UnaryOperator is a prefix or postfix operator applied to one operand.
type UnaryOperator string

const (
	NOT       UnaryOperator = "NOT"
	Neg       UnaryOperator = "-"
	IsNull    UnaryOperator = "IS NULL"
	IsNotNull UnaryOperator = "IS NOT NULL"
)

// Postfix reports whether the operator is written after its operand.
func (op UnaryOperator) Postfix() bool {
	return op == IsNull || op == IsNotNull
}

// Literal is a constant value: nil, bool, a number, a string, or a list of those.
type Literal struct {
	Value any
}

// ColumnRef references a column, optionally qualified by a table alias.
// A Name of "*" references every column.
type ColumnRef struct {
	Name  string
	Table string
}

// Binary applies Op to Left and Right. Grouped requests explicit parentheses.
type Binary struct {
	Left    Expression
	Right   Expression
	Op      Operator
	Grouped bool
}

// Unary applies Op to Operand. Grouped requests explicit parentheses.
type Unary struct {
	Operand Expression
	Op      UnaryOperator
	Grouped bool
}

// ScalarCall invokes a registered scalar function.
type ScalarCall struct {
	Name string
	Args []Expression
}

// AggregateCall invokes a registered aggregate function.
type AggregateCall struct {
	Name     string
	Args     []Expression
	Distinct bool
}

// WindowCall invokes a window function over either an inline Spec or a
// named window (Ref) defined on the enclosing query.
type WindowCall struct {
	Spec     *WindowSpec
	Name     string
	Ref      string
	Args     []Expression
	Distinct bool
}

// When is a single branch of a Case expression.
type When struct {
	Cond Expression
	Then Expression
}

// Case is a searched CASE expression.
type Case struct {
	Else  Expression
	Whens []When
}

func (Literal) expression()       {}
func (ColumnRef) expression()     {}
func (Binary) expression()        {}
func (Unary) expression()         {}
func (ScalarCall) expression()    {}
func (AggregateCall) expression() {}
func (WindowCall) expression()    {}
func (Case) expression()          {}

// IsStar reports whether the reference selects every column.
func (c ColumnRef) IsStar() bool {
	return c.Name == "*"
}

// Normalized returns the literal value coerced to one of nil, bool, int64,
// float64, string or []any (whose items are normalized recursively).
func (l Literal) Normalized() (any, error) {
	return normalizeLiteral(l.Value)
}

// IsList reports whether the literal holds a value list.
func (l Literal) IsList() bool {
	v, err := l.Normalized()
	if err != nil {
		return false
	}
	_, ok := v.([]any)
	return ok
}

func normalizeLiteral(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("literal %v is not a finite number", x)
		}
		return x, nil
	case Literal:
		return normalizeLiteral(x.Value)
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, fmt.Errorf("literal %d overflows int64", x)
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("literal %d overflows int64", x)
		}
		return int64(x), nil
	case float32:
		return normalizeLiteral(float64(x))
	case []any:
		return normalizeList(x)
	case []string:
		return normalizeList(x)
	case []int:
		return normalizeList(x)
	case []int64:
		return normalizeList(x)
	case []float64:
		return normalizeList(x)
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}

func normalizeList[T any](items []T) (any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		v, err := normalizeLiteral(item)
		if err != nil {
			return nil, err
		}
		if _, nested := v.([]any); nested {
			return nil, fmt.Errorf("nested literal lists are not supported")
		}
		out[i] = v
	}
	return out, nil
}

// Children returns the direct sub-expressions of e in evaluation order.
// Window partition and order expressions are included for inline specs.
func Children(e Expression) []Expression {
	switch x := e.(type) {
	case Binary:
		return []Expression{x.Left, x.Right}
	case Unary:
		return []Expression{x.Operand}
	case ScalarCall:
		return x.Args
	case AggregateCall:
		return x.Args
	case WindowCall:
		out := append([]Expression(nil), x.Args...)
		if x.Spec != nil {
			out = append(out, x.Spec.Expressions()...)
		}
		return out
	case Case:
		var out []Expression
		for _, w := range x.Whens {
			out = append(out, w.Cond, w.Then)
		}
		if x.Else != nil {
			out = append(out, x.Else)
		}
		return out
	default:
		return nil
	}
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range Children(e) {
		Walk(child, fn)
	}
}

// Depth returns the nesting depth of e; a leaf has depth 1.
func Depth(e Expression) int {
	if e == nil {
		return 0
	}
	deepest := 0
	for _, child := range Children(e) {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
