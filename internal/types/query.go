package types

import "fmt"

// DefaultMaxDepth bounds expression and subquery nesting accepted by renderers.
const DefaultMaxDepth = 64

// Column is one projection entry.
type Column struct {
	Expr  Expression
	Alias string
}

// CTE is a common table expression. Exactly one of Query and Raw is set.
type CTE struct {
	Query     *Query
	Name      string
	Raw       string
	Columns   []string
	Recursive bool
}

// NamedWindow is a WINDOW clause definition referenced by WindowCall.Ref.
type NamedWindow struct {
	Name string
	Spec WindowSpec
}

// SetKind is the set operation joining two queries.
type SetKind string

const (
	SetUnion    SetKind = "UNION"
	SetUnionAll SetKind = "UNION ALL"
)

// SetOperation chains another query onto the receiver.
type SetOperation struct {
	Query *Query
	Kind  SetKind
}

// Query is the root of the model. An empty Projection selects every column.
type Query struct {
	Source     Source
	Filter     Expression
	Having     Expression
	Qualify    Expression
	Limit      *int64
	Offset     *int64
	SetOp      *SetOperation
	CTEs       []CTE
	Projection []Column
	GroupBy    []Expression
	OrderBy    []OrderBy
	Windows    []NamedWindow
	Distinct   bool
}

// Window looks up a named window definition.
func (q *Query) Window(name string) (WindowSpec, bool) {
	for _, w := range q.Windows {
		if w.Name == name {
			return w.Spec, true
		}
	}
	return WindowSpec{}, false
}

// HasRecursiveCTE reports whether any CTE is recursive.
func (q *Query) HasRecursiveCTE() bool {
	for _, c := range q.CTEs {
		if c.Recursive {
			return true
		}
	}
	return false
}

// Expressions returns every top-level expression of the query's own clauses,
// in clause order. Nested queries are not included.
func (q *Query) Expressions() []Expression {
	var out []Expression
	for _, c := range q.Projection {
		out = append(out, c.Expr)
	}
	out = append(out, joinConditions(q.Source)...)
	if q.Filter != nil {
		out = append(out, q.Filter)
	}
	out = append(out, q.GroupBy...)
	if q.Having != nil {
		out = append(out, q.Having)
	}
	if q.Qualify != nil {
		out = append(out, q.Qualify)
	}
	for _, w := range q.Windows {
		out = append(out, w.Spec.Expressions()...)
	}
	for _, o := range q.OrderBy {
		out = append(out, o.Expr)
	}
	return out
}

func joinConditions(s Source) []Expression {
	j, ok := s.(Join)
	if !ok {
		return nil
	}
	out := append(joinConditions(j.Left), joinConditions(j.Right)...)
	if j.On != nil {
		out = append(out, j.On)
	}
	return out
}

// ReferencedWindows returns the named windows used by WindowCall references
// in the query, in definition order. Unknown references produce an error.
func (q *Query) ReferencedWindows() ([]NamedWindow, error) {
	used := make(map[string]bool)
	var missing string
	for _, e := range q.Expressions() {
		Walk(e, func(n Expression) bool {
			if w, ok := n.(WindowCall); ok && w.Ref != "" {
				if _, defined := q.Window(w.Ref); !defined && missing == "" {
					missing = w.Ref
				}
				used[w.Ref] = true
			}
			return true
		})
	}
	if missing != "" {
		return nil, UndefinedWindowError{Name: missing}
	}
	var out []NamedWindow
	for _, w := range q.Windows {
		if used[w.Name] {
			out = append(out, w)
		}
	}
	return out, nil
}

// Validate checks structural invariants that construction helpers cannot
// enforce on their own: join conditions, frames, pagination and CTE bodies.
func (q *Query) Validate() error {
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", *q.Limit)
	}
	if q.Offset != nil && *q.Offset < 0 {
		return fmt.Errorf("offset must not be negative: %d", *q.Offset)
	}
	for _, c := range q.CTEs {
		if c.Name == "" {
			return fmt.Errorf("CTE name cannot be empty")
		}
		if (c.Query == nil) == (c.Raw == "") {
			return fmt.Errorf("CTE %s must have exactly one of a query or raw text body", c.Name)
		}
	}
	if err := validateSource(q.Source); err != nil {
		return err
	}
	for _, w := range q.Windows {
		if err := w.Spec.Validate(); err != nil {
			return fmt.Errorf("window %s: %w", w.Name, err)
		}
	}
	for _, e := range q.Expressions() {
		var err error
		Walk(e, func(n Expression) bool {
			if w, ok := n.(WindowCall); ok && w.Spec != nil && err == nil {
				err = w.Spec.Validate()
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func validateSource(s Source) error {
	switch x := s.(type) {
	case Join:
		if err := x.Validate(); err != nil {
			return err
		}
		if err := validateSource(x.Left); err != nil {
			return err
		}
		return validateSource(x.Right)
	case Subquery:
		if x.Query == nil {
			return fmt.Errorf("subquery %s has no query", x.Alias)
		}
	case Table:
		if x.Name == "" {
			return fmt.Errorf("table name cannot be empty")
		}
	}
	return nil
}
