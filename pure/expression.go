package pure

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

var operators = map[types.Operator]string{
	types.EQ:     "==",
	types.NE:     "!=",
	types.LT:     "<",
	types.LE:     "<=",
	types.GT:     ">",
	types.GE:     ">=",
	types.Add:    "+",
	types.Sub:    "-",
	types.Mul:    "*",
	types.Div:    "/",
	types.Mod:    "%",
	types.AND:    "&&",
	types.OR:     "||",
	types.Concat: "+",
}

func (s *state) expr(e types.Expression) (string, error) {
	if err := s.ctx.Enter(); err != nil {
		return "", err
	}
	defer s.ctx.Leave()

	switch x := e.(type) {
	case types.Literal:
		v, err := x.Normalized()
		if err != nil {
			return "", err
		}
		return value(v), nil
	case types.ColumnRef:
		return s.column(x), nil
	case types.Binary:
		return s.binary(x)
	case types.Unary:
		return s.unary(x)
	case types.ScalarCall:
		return s.call(x.Name, x.Args, "")
	case types.AggregateCall:
		return s.aggregate(x.Name, x.Args, x.Distinct, "")
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

func value(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return render.FormatInt(x)
	case float64:
		return render.FormatFloat(x)
	case string:
		return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = value(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

func (s *state) column(c types.ColumnRef) string {
	row := "$x"
	if c.Table != "" && s.right[c.Table] {
		row = "$y"
	}
	if c.IsStar() {
		return row
	}
	return row + "." + c.Name
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

	var out string
	switch b.Op {
	case types.IN:
		out = right + "->contains(" + left + ")"
	case types.NotIn:
		out = "!(" + right + "->contains(" + left + "))"
	case types.LIKE, types.NotLike:
		return "", s.r.unsupported(string(b.Op), "use startsWith, endsWith or contains")
	default:
		op, ok := operators[b.Op]
		if !ok {
			return "", fmt.Errorf("unknown operator %q", b.Op)
		}
		out = left + " " + op + " " + right
	}
	if b.Grouped {
		out = "(" + out + ")"
	}
	return out, nil
}

func (s *state) unary(u types.Unary) (string, error) {
	operand, err := s.expr(u.Operand)
	if err != nil {
		return "", err
	}
	var out string
	switch u.Op {
	case types.NOT:
		return "!(" + operand + ")", nil
	case types.Neg:
		out = "-" + operand
	case types.IsNull:
		out = operand + "->isEmpty()"
	case types.IsNotNull:
		out = operand + "->isNotEmpty()"
	default:
		return "", fmt.Errorf("unknown unary operator %q", u.Op)
	}
	if u.Grouped {
		out = "(" + out + ")"
	}
	return out, nil
}

// rule resolves name and checks the arguments before any is rendered.
func (s *state) rule(name string, args []types.Expression) (functions.Rule, error) {
	d, err := s.r.registry.Resolve(name)
	if err != nil {
		return functions.Rule{}, err
	}
	if err := d.CheckArgs(args); err != nil {
		return functions.Rule{}, err
	}
	return d.RuleFor(types.Pure)
}

// call renders name in receiver form: the first argument is the receiver and
// the rest follow in the parameter list, then extra (an over clause) if set.
func (s *state) call(name string, args []types.Expression, extra string) (string, error) {
	rule, err := s.rule(name, args)
	if err != nil {
		return "", err
	}
	rendered, err := s.exprs(args)
	if err != nil {
		return "", err
	}
	if rule.Format != nil {
		return rule.Format(rendered), nil
	}
	if len(rendered) == 0 {
		if extra != "" {
			return "$x->" + rule.Name + "(" + extra + ")", nil
		}
		return rule.Name + "()", nil
	}
	params := rendered[1:]
	if extra != "" {
		params = append(params, extra)
	}
	return rendered[0] + "->" + rule.Name + "(" + strings.Join(params, ", ") + ")", nil
}

func (s *state) aggregate(name string, args []types.Expression, distinct bool, extra string) (string, error) {
	if functions.IsCountAll(name, args, distinct) {
		rule, err := s.rule(name, nil)
		if err != nil {
			return "", err
		}
		return "$x->" + rule.Name + "(" + extra + ")", nil
	}
	if !distinct {
		return s.call(name, args, extra)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("DISTINCT %s requires an argument", name)
	}
	rule, err := s.rule(name, args)
	if err != nil {
		return "", err
	}
	rendered, err := s.exprs(args)
	if err != nil {
		return "", err
	}
	rendered[0] += "->distinct()"
	if rule.Format != nil {
		return rule.Format(rendered), nil
	}
	params := rendered[1:]
	if extra != "" {
		params = append(params, extra)
	}
	return rendered[0] + "->" + rule.Name + "(" + strings.Join(params, ", ") + ")", nil
}

func (s *state) exprs(args []types.Expression) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		rendered, err := s.expr(a)
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	return out, nil
}

func (s *state) window(w types.WindowCall) (string, error) {
	var spec types.WindowSpec
	switch {
	case w.Ref != "":
		if s.query == nil {
			return "", types.UndefinedWindowError{Name: w.Ref}
		}
		named, ok := s.query.Window(w.Ref)
		if !ok {
			return "", types.UndefinedWindowError{Name: w.Ref}
		}
		spec = named
	case w.Spec != nil:
		spec = *w.Spec
	}

	over, err := s.over(spec)
	if err != nil {
		return "", err
	}
	return s.aggregate(w.Name, w.Args, w.Distinct, over)
}

func (s *state) over(w types.WindowSpec) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}

	var parts []string
	if len(w.PartitionBy) > 0 {
		cols := make([]string, 0, len(w.PartitionBy))
		for _, p := range w.PartitionBy {
			ref, ok := p.(types.ColumnRef)
			if !ok || ref.IsStar() {
				return "", s.r.unsupported("partitioning by an expression")
			}
			cols = append(cols, ref.Name)
		}
		parts = append(parts, "~["+strings.Join(cols, ", ")+"]")
	}
	if len(w.OrderBy) > 0 {
		keys, err := s.sortKeys(w.OrderBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "["+strings.Join(keys, ", ")+"]")
	}
	if w.Frame != nil {
		kind := "rows"
		if w.Frame.Kind == types.FrameRange {
			kind = "range"
		}
		parts = append(parts, kind+"("+bound(w.Frame.Start)+", "+bound(w.Frame.End)+")")
	}
	return "over(" + strings.Join(parts, ", ") + ")", nil
}

func bound(b types.Bound) string {
	switch b.Kind {
	case types.Preceding:
		return render.FormatInt(-b.Offset)
	case types.Following:
		return render.FormatInt(b.Offset)
	case types.CurrentRow:
		return "0"
	default:
		return "unbounded()"
	}
}

func (s *state) caseExpr(c types.Case) (string, error) {
	if len(c.Whens) == 0 {
		return "", fmt.Errorf("CASE requires at least one WHEN")
	}
	otherwise := "[]"
	if c.Else != nil {
		rendered, err := s.expr(c.Else)
		if err != nil {
			return "", err
		}
		otherwise = rendered
	}
	for i := len(c.Whens) - 1; i >= 0; i-- {
		cond, err := s.expr(c.Whens[i].Cond)
		if err != nil {
			return "", err
		}
		then, err := s.expr(c.Whens[i].Then)
		if err != nil {
			return "", err
		}
		otherwise = "if(" + cond + ", |" + then + ", |" + otherwise + ")"
	}
	return otherwise, nil
}
