// Package functions holds the function, aggregate and window registry used to
// construct calls and to render them for each dialect.
package functions

import (
	"fmt"
	"strings"

	"github.com/zoobzio/relq/internal/render"
	"github.com/zoobzio/relq/internal/types"
)

// Kind classifies a function.
type Kind int

const (
	Scalar Kind = iota
	Aggregate
	Window
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Aggregate:
		return "aggregate"
	case Window:
		return "window"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Variadic marks an Arity without an upper bound.
const Variadic = -1

// Arity is the accepted argument count range.
type Arity struct {
	Min int
	Max int
}

// Exactly accepts n arguments.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// Between accepts min through max arguments.
func Between(minArgs, maxArgs int) Arity { return Arity{Min: minArgs, Max: maxArgs} }

// AtLeast accepts n or more arguments.
func AtLeast(n int) Arity { return Arity{Min: n, Max: Variadic} }

// Accepts reports whether n arguments fit.
func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max == Variadic || n <= a.Max
}

func (a Arity) String() string {
	switch {
	case a.Max == Variadic:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	default:
		return fmt.Sprintf("%d to %d", a.Min, a.Max)
	}
}

// Rule renders one call for one dialect. A zero Rule falls back to the
// descriptor name; Format, when set, receives the already rendered arguments.
type Rule struct {
	Format      func(args []string) string
	Name        string
	Hint        string
	Unsupported bool
}

// Named returns a rule that only renames the function.
func Named(name string) Rule { return Rule{Name: name} }

// Template returns a rule with a custom layout.
func Template(format func(args []string) string) Rule { return Rule{Format: format} }

// Unsupported marks a function the dialect cannot express.
func Unsupported(hint string) Rule { return Rule{Unsupported: true, Hint: hint} }

func (r Rule) isZero() bool {
	return r.Format == nil && r.Name == "" && !r.Unsupported
}

// Descriptor declares a function's shape and how each dialect spells it.
type Descriptor struct {
	Overrides map[types.Dialect]Rule
	SQL       Rule
	Relation  Rule
	Name      string
	Arity     Arity
	Kind      Kind

	// Check, when set, inspects the arguments after the arity check.
	Check func(args []types.Expression) error
}

// RuleFor selects the rule used by dialect, falling back to the family default.
func (d Descriptor) RuleFor(dialect types.Dialect) (Rule, error) {
	var rule Rule
	switch dialect.Family() {
	case types.FamilySQL:
		if r, ok := d.Overrides[dialect]; ok {
			rule = r
		} else {
			rule = d.SQL
		}
		if rule.isZero() {
			rule = Named(d.Name)
		}
	case types.FamilyRelation:
		rule = d.Relation
		if rule.isZero() {
			rule = Named(strings.ToLower(d.Name))
		}
	default:
		return Rule{}, types.UnsupportedDialectError{Dialect: dialect}
	}
	if rule.Unsupported {
		return Rule{}, render.NewUnsupportedFeatureError(string(dialect), "function "+d.Name, rule.Hint)
	}
	if rule.Name == "" {
		rule.Name = d.Name
	}
	return rule, nil
}

// Apply renders a call with rule using the default NAME(args) layout when
// the rule has no template.
func (r Rule) Apply(args []string) string {
	if r.Format != nil {
		return r.Format(args)
	}
	return r.Name + "(" + strings.Join(args, ", ") + ")"
}

// CheckArity returns an ArityError when n arguments do not fit.
func (d Descriptor) CheckArity(n int) error {
	if d.Arity.Accepts(n) {
		return nil
	}
	return types.ArityError{Name: d.Name, Expected: d.Arity.String(), Got: n}
}

// CheckArgs runs the arity check and then the descriptor's own Check.
func (d Descriptor) CheckArgs(args []types.Expression) error {
	if err := d.CheckArity(len(args)); err != nil {
		return err
	}
	if d.Check != nil {
		return d.Check(args)
	}
	return nil
}

// Canonical normalizes a user-supplied function name.
func Canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsCountAll reports whether a call is the canonical "count every row" form:
// COUNT(), COUNT(1) or COUNT(*), never DISTINCT.
func IsCountAll(name string, args []types.Expression, distinct bool) bool {
	if Canonical(name) != "COUNT" || distinct {
		return false
	}
	switch len(args) {
	case 0:
		return true
	case 1:
		switch a := args[0].(type) {
		case types.Literal:
			v, err := a.Normalized()
			return err == nil && v == int64(1)
		case types.ColumnRef:
			return a.IsStar() && a.Table == ""
		}
	}
	return false
}
