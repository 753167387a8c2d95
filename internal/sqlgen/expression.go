package sqlgen

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// countStarSQL is the SQL for the canonical count-all aggregate.
const countStarSQL = "COUNT(*)"

func (s *state) exprList(exprs []types.Expression) (string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		rendered, err := s.expr(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, ", "), nil
}

func (s *state) expr(e types.Expression) (string, error) {
	if err := s.ctx.Enter(); err != nil {
		return "", err
	}
	defer s.ctx.Leave()

	switch x := e.(type) {
	case types.Literal:
		return s.literal(x)
	case types.ColumnRef:
		return s.column(x), nil
	case types.Binary:
		return s.binary(x)
	case types.Unary:
		return s.unary(x)
	case types.ScalarCall:
		return s.scalar(x)
	case types.AggregateCall:
		return s.aggregate(x.Name, x.Args, x.Distinct)
	case types.WindowCall:
		return s.window(x)
	case types.Case:
		return s.caseExpr(x)
	case nil:
		return "", fmt.Errorf("missing expression")
	default:
		return "", fmt.Errorf("unknown expression type %T", e)
	}
}

func (s *state) literal(l types.Literal) (string, error) {
	v, err := l.Normalized()
	if err != nil {
		return "", err
	}
	return s.value(v), nil
}

func (s *state) value(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if s.g.profile.Capabilities.BooleanLiterals {
			if x {
				return "TRUE"
			}
			return "FALSE"
		}
		if x {
			return "1"
		}
		return "0"
	case int64:
		return render.FormatInt(x)
	case float64:
		return render.FormatFloat(x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = s.value(item)
		}
		return "(" + strings.Join(items, ", ") + ")"
	default:
		return fmt.Sprint(x)
	}
}

func (s *state) column(c types.ColumnRef) string {
	table := c.Table
	if table == "" && s.qualifier != "" && !c.IsStar() && !(s.outputRef && s.aliases[c.Name]) {
		table = s.qualifier
	}
	if table == "" {
		return c.Name
	}
	return table + "." + c.Name
}

func (s *state) binary(b types.Binary) (string, error) {
	left, err := s.expr(b.Left)
	if err != nil {
		return "", err
	}
	right, err := s.expr(b.Right)
	if err != nil {
		return "", err
	}
	sql := left + " " + string(b.Op) + " " + right
	if b.Grouped {
		sql = "(" + sql + ")"
	}
	return sql, nil
}

func (s *state) unary(u types.Unary) (string, error) {
	operand, err := s.expr(u.Operand)
	if err != nil {
		return "", err
	}
	var sql string
	switch {
	case u.Op.Postfix():
		sql = operand + " " + string(u.Op)
	case u.Op == types.Neg:
		sql = "-" + operand
	default:
		sql = string(u.Op) + " " + operand
	}
	if u.Grouped {
		sql = "(" + sql + ")"
	}
	return sql, nil
}

func (s *state) call(name string, args []types.Expression, distinct bool) (string, error) {
	d, err := s.g.registry.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := d.CheckArgs(args); err != nil {
		return "", err
	}
	rule, err := d.RuleFor(s.g.profile.Dialect)
	if err != nil {
		return "", err
	}
	rendered := make([]string, len(args))
	for i, a := range args {
		if rendered[i], err = s.expr(a); err != nil {
			return "", err
		}
	}
	if distinct && len(rendered) > 0 {
		rendered[0] = "DISTINCT " + rendered[0]
	}
	return rule.Apply(rendered), nil
}

func (s *state) scalar(c types.ScalarCall) (string, error) {
	return s.call(c.Name, c.Args, false)
}

func (s *state) aggregate(name string, args []types.Expression, distinct bool) (string, error) {
	if functions.IsCountAll(name, args, distinct) {
		if _, err := s.g.registry.Resolve(name); err != nil {
			return "", err
		}
		return countStarSQL, nil
	}
	return s.call(name, args, distinct)
}

func (s *state) window(w types.WindowCall) (string, error) {
	fn, err := s.aggregate(w.Name, w.Args, w.Distinct)
	if err != nil {
		return "", err
	}

	if w.Ref != "" {
		if s.cur == nil || s.g.profile.Capabilities.NamedWindows {
			return fn + " OVER " + w.Ref, nil
		}
		spec, ok := s.cur.Window(w.Ref)
		if !ok {
			return "", types.UndefinedWindowError{Name: w.Ref}
		}
		inline, err := s.windowSpec(spec)
		if err != nil {
			return "", err
		}
		return fn + " OVER (" + inline + ")", nil
	}

	var spec types.WindowSpec
	if w.Spec != nil {
		spec = *w.Spec
	}
	inline, err := s.windowSpec(spec)
	if err != nil {
		return "", err
	}
	return fn + " OVER (" + inline + ")", nil
}

func (s *state) windowSpec(w types.WindowSpec) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}

	var overParts []string

	if len(w.PartitionBy) > 0 {
		keys, err := s.exprList(w.PartitionBy)
		if err != nil {
			return "", err
		}
		overParts = append(overParts, "PARTITION BY "+keys)
	}

	if len(w.OrderBy) > 0 {
		order, err := s.orderList(w.OrderBy)
		if err != nil {
			return "", err
		}
		overParts = append(overParts, "ORDER BY "+order)
	}

	if w.Frame != nil {
		if w.Frame.Kind == types.FrameRange && !s.g.profile.Capabilities.RangeOffsets &&
			(hasOffset(w.Frame.Start) || hasOffset(w.Frame.End)) {
			return "", s.g.unsupported("RANGE frame with offsets", "use a ROWS frame")
		}
		overParts = append(overParts, string(w.Frame.Kind)+" BETWEEN "+bound(w.Frame.Start)+" AND "+bound(w.Frame.End))
	}

	return strings.Join(overParts, " "), nil
}

func hasOffset(b types.Bound) bool {
	return b.Kind == types.Preceding || b.Kind == types.Following
}

func bound(b types.Bound) string {
	switch b.Kind {
	case types.UnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case types.Preceding:
		return render.FormatInt(b.Offset) + " PRECEDING"
	case types.Following:
		return render.FormatInt(b.Offset) + " FOLLOWING"
	case types.UnboundedFollowing:
		return "UNBOUNDED FOLLOWING"
	default:
		return "CURRENT ROW"
	}
}

func (s *state) caseExpr(c types.Case) (string, error) {
	if len(c.Whens) == 0 {
		return "", fmt.Errorf("CASE requires at least one WHEN")
	}
	var sql strings.Builder
	sql.WriteString("CASE")
	for _, w := range c.Whens {
		cond, err := s.expr(w.Cond)
		if err != nil {
			return "", err
		}
		then, err := s.expr(w.Then)
		if err != nil {
			return "", err
		}
		sql.WriteString(" WHEN " + cond + " THEN " + then)
	}
	if c.Else != nil {
		other, err := s.expr(c.Else)
		if err != nil {
			return "", err
		}
		sql.WriteString(" ELSE " + other)
	}
	sql.WriteString(" END")
	return sql.String(), nil
}
