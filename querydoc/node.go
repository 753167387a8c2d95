package querydoc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/functions"
)

// Node is one expression. Exactly one of Lit, Null, Col, Op, Unary, Fn, Agg,
// Win and Case is set.
type Node struct {
	Lit      any    `yaml:"lit"`
	Left     *Node  `yaml:"left"`
	Right    *Node  `yaml:"right"`
	Operand  *Node  `yaml:"operand"`
	Over     *Spec  `yaml:"over"`
	Else     *Node  `yaml:"else"`
	Col      string `yaml:"col"`
	Table    string `yaml:"table"`
	Op       string `yaml:"op"`
	Unary    string `yaml:"unary"`
	Fn       string `yaml:"fn"`
	Agg      string `yaml:"agg"`
	Win      string `yaml:"win"`
	Window   string `yaml:"window"`
	Args     []Node `yaml:"args"`
	Case     []When `yaml:"case"`
	Null     bool   `yaml:"is_null"`
	Distinct bool   `yaml:"distinct"`
	Group    bool   `yaml:"group"`
}

// When is one CASE branch.
type When struct {
	When Node `yaml:"when"`
	Then Node `yaml:"then"`
}

var binaryOps = map[string]relq.Operator{
	"=":        relq.EQ,
	"==":       relq.EQ,
	"!=":       relq.NE,
	"<>":       relq.NE,
	">":        relq.GT,
	">=":       relq.GE,
	"<":        relq.LT,
	"<=":       relq.LE,
	"+":        relq.OpAdd,
	"-":        relq.OpSub,
	"*":        relq.OpMul,
	"/":        relq.OpDiv,
	"%":        relq.OpMod,
	"||":       relq.OpConcat,
	"and":      relq.AND,
	"or":       relq.OR,
	"like":     relq.LIKE,
	"not like": relq.NotLike,
	"in":       relq.IN,
	"not in":   relq.OpNotIn,
}

var unaryOps = map[string]relq.UnaryOperator{
	"not":         relq.OpNot,
	"-":           relq.OpNeg,
	"is null":     relq.OpIsNull,
	"is not null": relq.OpIsNotNull,
}

func normalizeOp(op string) string {
	return strings.Join(strings.Fields(strings.ToLower(op)), " ")
}

func (n *Node) kinds() []string {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(n.Lit != nil, "lit")
	add(n.Null, "is_null")
	add(n.Col != "", "col")
	add(n.Op != "", "op")
	add(n.Unary != "", "unary")
	add(n.Fn != "", "fn")
	add(n.Agg != "", "agg")
	add(n.Win != "", "win")
	add(len(n.Case) > 0, "case")
	return set
}

// Expr converts the node, checking function calls against reg.
func (n *Node) Expr(reg *functions.Registry) (relq.Expression, error) {
	kinds := n.kinds()
	switch len(kinds) {
	case 0:
		return nil, errors.New("expression node is empty")
	case 1:
	default:
		return nil, errors.Errorf("expression node sets %s; expected exactly one", strings.Join(kinds, ", "))
	}

	e, err := n.expr(kinds[0], reg)
	if err != nil {
		return nil, err
	}
	if n.Group {
		e = relq.Group(e)
	}
	return e, nil
}

func (n *Node) expr(kind string, reg *functions.Registry) (relq.Expression, error) {
	switch kind {
	case "lit":
		return relq.Lit(n.Lit), nil
	case "is_null":
		return relq.Null(), nil
	case "col":
		if n.Table != "" {
			return relq.ColOf(n.Table, n.Col), nil
		}
		return relq.Col(n.Col), nil
	case "op":
		op, ok := binaryOps[normalizeOp(n.Op)]
		if !ok {
			return nil, errors.Errorf("unknown operator %q", n.Op)
		}
		if n.Left == nil || n.Right == nil {
			return nil, errors.Errorf("operator %s requires left and right", n.Op)
		}
		left, err := n.Left.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}
		right, err := n.Right.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
		return relq.Bin(left, op, right), nil
	case "unary":
		op, ok := unaryOps[normalizeOp(n.Unary)]
		if !ok {
			return nil, errors.Errorf("unknown unary operator %q", n.Unary)
		}
		if n.Operand == nil {
			return nil, errors.Errorf("%s requires an operand", n.Unary)
		}
		operand, err := n.Operand.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "operand")
		}
		return relq.Unary{Operand: operand, Op: op}, nil
	case "fn":
		args, err := exprs(n.Args, reg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s arguments", n.Fn)
		}
		return reg.Scalar(n.Fn, args...)
	case "agg":
		args, err := exprs(n.Args, reg)
		if err != nil {
			return nil, errors.Wrapf(err, "%s arguments", n.Agg)
		}
		return reg.Aggregate(n.Agg, n.Distinct, args...)
	case "win":
		return n.window(reg)
	default:
		return n.caseExpr(reg)
	}
}

func (n *Node) window(reg *functions.Registry) (relq.Expression, error) {
	args, err := exprs(n.Args, reg)
	if err != nil {
		return nil, errors.Wrapf(err, "%s arguments", n.Win)
	}
	if n.Window != "" {
		if n.Over != nil {
			return nil, errors.Errorf("%s: set either over or window, not both", n.Win)
		}
		return reg.NamedWindow(n.Win, n.Window, args...)
	}
	var spec relq.WindowSpec
	if n.Over != nil {
		if spec, err = n.Over.windowSpec(reg); err != nil {
			return nil, errors.Wrapf(err, "%s over", n.Win)
		}
	}
	call, err := reg.Window(n.Win, spec, args...)
	if err != nil {
		return nil, err
	}
	call.Distinct = n.Distinct
	return call, nil
}

func (n *Node) caseExpr(reg *functions.Registry) (relq.Expression, error) {
	whens := make([]relq.WhenClause, 0, len(n.Case))
	for i, w := range n.Case {
		cond, err := w.When.Expr(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "case[%d].when", i)
		}
		then, err := w.Then.Expr(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "case[%d].then", i)
		}
		whens = append(whens, relq.When(cond, then))
	}
	var otherwise relq.Expression
	if n.Else != nil {
		e, err := n.Else.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "else")
		}
		otherwise = e
	}
	return relq.Case(otherwise, whens...), nil
}

func exprs(nodes []Node, reg *functions.Registry) ([]relq.Expression, error) {
	out := make([]relq.Expression, 0, len(nodes))
	for i := range nodes {
		e, err := nodes[i].Expr(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "[%d]", i)
		}
		out = append(out, e)
	}
	return out, nil
}

func orders(keys []Order, reg *functions.Registry) ([]relq.OrderBy, error) {
	out := make([]relq.OrderBy, 0, len(keys))
	for i := range keys {
		e, err := keys[i].Expr.Expr(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "[%d]", i)
		}
		if keys[i].Desc {
			out = append(out, relq.Desc(e))
		} else {
			out = append(out, relq.Asc(e))
		}
	}
	return out, nil
}

func (s Spec) windowSpec(reg *functions.Registry) (relq.WindowSpec, error) {
	partition, err := exprs(s.PartitionBy, reg)
	if err != nil {
		return relq.WindowSpec{}, errors.Wrap(err, "partition_by")
	}
	order, err := orders(s.OrderBy, reg)
	if err != nil {
		return relq.WindowSpec{}, errors.Wrap(err, "order_by")
	}
	var frame *relq.Frame
	if s.Frame != nil {
		if frame, err = s.Frame.frame(); err != nil {
			return relq.WindowSpec{}, errors.Wrap(err, "frame")
		}
	}
	return relq.Over(partition, order, frame), nil
}

func (f Frame) frame() (*relq.Frame, error) {
	start, err := parseBound(f.Start)
	if err != nil {
		return nil, errors.Wrap(err, "start")
	}
	end, err := parseBound(f.End)
	if err != nil {
		return nil, errors.Wrap(err, "end")
	}
	switch strings.ToLower(f.Kind) {
	case "", "rows":
		return relq.Rows(start, end), nil
	case "range":
		return relq.Range(start, end), nil
	default:
		return nil, errors.Errorf("unknown frame kind %q", f.Kind)
	}
}

func parseBound(s string) (relq.Bound, error) {
	words := strings.Fields(strings.ToLower(s))
	switch strings.Join(words, " ") {
	case "unbounded preceding":
		return relq.UnboundedPreceding(), nil
	case "unbounded following":
		return relq.UnboundedFollowing(), nil
	case "current row":
		return relq.Current(), nil
	}
	if len(words) == 2 {
		n, err := strconv.ParseInt(words[0], 10, 64)
		if err == nil && n >= 0 {
			switch words[1] {
			case "preceding":
				return relq.Preceding(n), nil
			case "following":
				return relq.Following(n), nil
			}
		}
	}
	return relq.Bound{}, errors.Errorf("invalid frame bound %q", s)
}
