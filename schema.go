package relq

import (
	"fmt"

	"github.com/zoobzio/dbml"
	"github.com/zoobzio/relq/internal/types"
)

// Schema checks queries against the tables and columns of a DBML project.
type Schema struct {
	project *dbml.Project
	// Internal indexes for fast validation
	tables map[string]map[string]*dbml.Column // table -> column -> definition
}

// NewSchema indexes a DBML project.
func NewSchema(project *dbml.Project) (*Schema, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	s := &Schema{
		project: project,
		tables:  make(map[string]map[string]*dbml.Column),
	}
	for _, table := range project.Tables {
		cols := make(map[string]*dbml.Column, len(table.Columns))
		for _, col := range table.Columns {
			cols[col.Name] = col
		}
		s.tables[table.Name] = cols
	}
	return s, nil
}

// Project returns the underlying DBML project.
func (s *Schema) Project() *dbml.Project {
	return s.project
}

// HasTable reports whether the schema declares name.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// HasColumn reports whether table declares column.
func (s *Schema) HasColumn(table, column string) bool {
	cols, ok := s.tables[table]
	if !ok {
		return false
	}
	_, ok = cols[column]
	return ok
}

// TryT creates a table reference checked against the schema.
func (s *Schema) TryT(name string, alias ...string) (types.Table, error) {
	if !s.HasTable(name) {
		return types.Table{}, types.UnknownTableError{Table: name}
	}
	if len(alias) > 1 {
		return types.Table{}, fmt.Errorf("only one alias allowed")
	}
	t := types.Table{Name: name}
	if len(alias) == 1 {
		if !isValidIdentifier(alias[0]) {
			return types.Table{}, fmt.Errorf("invalid table alias: %q", alias[0])
		}
		t.Alias = alias[0]
	}
	return t, nil
}

// T creates a checked table reference.
func (s *Schema) T(name string, alias ...string) types.Table {
	t, err := s.TryT(name, alias...)
	if err != nil {
		panic(err)
	}
	return t
}

// TryC creates a column reference checked against table. The returned
// reference is qualified with qualifier, which may be an alias.
func (s *Schema) TryC(table, column string, qualifier ...string) (types.ColumnRef, error) {
	if !s.HasTable(table) {
		return types.ColumnRef{}, types.UnknownTableError{Table: table}
	}
	if !s.HasColumn(table, column) {
		return types.ColumnRef{}, types.UnresolvedColumnError{Column: column, Table: table}
	}
	ref := types.ColumnRef{Table: table, Name: column}
	if len(qualifier) > 0 {
		ref.Table = qualifier[0]
	}
	return ref, nil
}

// C creates a checked column reference.
func (s *Schema) C(table, column string, qualifier ...string) types.ColumnRef {
	c, err := s.TryC(table, column, qualifier...)
	if err != nil {
		panic(err)
	}
	return c
}

// isValidIdentifier accepts letters, digits and underscores, not starting with a digit.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// relation is one name in scope. A nil column set is opaque: any column resolves.
type relation struct {
	qualifier string
	columns   map[string]bool
}

type scope []relation

func (sc scope) find(qualifier string) (relation, bool) {
	for _, r := range sc {
		if r.qualifier == qualifier {
			return r, true
		}
	}
	return relation{}, false
}

// Validate checks every table source and column reference in q.
func (s *Schema) Validate(q *types.Query) error {
	if q == nil {
		return fmt.Errorf("query cannot be nil")
	}
	return s.validateQuery(q, map[string]map[string]bool{})
}

func (s *Schema) validateQuery(q *types.Query, ctes map[string]map[string]bool) error {
	local := make(map[string]map[string]bool, len(ctes)+len(q.CTEs))
	for k, v := range ctes {
		local[k] = v
	}
	for _, c := range q.CTEs {
		var cols map[string]bool
		if len(c.Columns) > 0 {
			cols = nameSet(c.Columns)
		}
		if c.Recursive {
			local[c.Name] = cols
		}
		if c.Query != nil {
			if err := s.validateQuery(c.Query, local); err != nil {
				return fmt.Errorf("CTE %s: %w", c.Name, err)
			}
			if cols == nil {
				cols = outputColumns(c.Query)
			}
		}
		local[c.Name] = cols
	}

	sc, err := s.sourceScope(q.Source, local)
	if err != nil {
		return err
	}

	for _, c := range q.Projection {
		if err := s.resolve(c.Expr, sc); err != nil {
			return err
		}
	}
	for _, e := range joinOn(q.Source) {
		if err := s.resolve(e, sc); err != nil {
			return err
		}
	}
	for _, e := range append([]types.Expression{q.Filter}, q.GroupBy...) {
		if err := s.resolve(e, sc); err != nil {
			return err
		}
	}
	for _, w := range q.Windows {
		for _, e := range w.Spec.Expressions() {
			if err := s.resolve(e, sc); err != nil {
				return err
			}
		}
	}

	// Projection aliases are visible to the clauses evaluated after SELECT.
	late := append(scope{}, sc...)
	if aliases := outputColumns(q); aliases != nil {
		late = append(late, relation{columns: aliases})
	}
	lateExprs := []types.Expression{q.Having, q.Qualify}
	for _, o := range q.OrderBy {
		lateExprs = append(lateExprs, o.Expr)
	}
	for _, e := range lateExprs {
		if err := s.resolve(e, late); err != nil {
			return err
		}
	}

	if q.SetOp != nil && q.SetOp.Query != nil {
		return s.validateQuery(q.SetOp.Query, local)
	}
	return nil
}

func (s *Schema) sourceScope(src types.Source, ctes map[string]map[string]bool) (scope, error) {
	switch x := src.(type) {
	case nil:
		return nil, nil
	case types.Table:
		if cols, ok := ctes[x.Name]; ok {
			return scope{{qualifier: x.Ref(), columns: cols}}, nil
		}
		defined, ok := s.tables[x.Name]
		if !ok {
			return nil, types.UnknownTableError{Table: x.Name}
		}
		cols := make(map[string]bool, len(defined))
		for name := range defined {
			cols[name] = true
		}
		return scope{{qualifier: x.Ref(), columns: cols}}, nil
	case types.Subquery:
		if err := s.validateQuery(x.Query, ctes); err != nil {
			return nil, fmt.Errorf("subquery %s: %w", x.Alias, err)
		}
		return scope{{qualifier: x.Alias, columns: outputColumns(x.Query)}}, nil
	case types.Join:
		left, err := s.sourceScope(x.Left, ctes)
		if err != nil {
			return nil, err
		}
		right, err := s.sourceScope(x.Right, ctes)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	default:
		return nil, fmt.Errorf("unknown source type %T", src)
	}
}

func joinOn(src types.Source) []types.Expression {
	j, ok := src.(types.Join)
	if !ok {
		return nil
	}
	out := append(joinOn(j.Left), joinOn(j.Right)...)
	if j.On != nil {
		out = append(out, j.On)
	}
	return out
}

func (s *Schema) resolve(e types.Expression, sc scope) error {
	if e == nil {
		return nil
	}
	var err error
	types.Walk(e, func(n types.Expression) bool {
		if err != nil {
			return false
		}
		if ref, ok := n.(types.ColumnRef); ok {
			err = resolveColumn(ref, sc)
		}
		return err == nil
	})
	return err
}

func resolveColumn(ref types.ColumnRef, sc scope) error {
	if ref.Table != "" {
		r, ok := sc.find(ref.Table)
		if !ok {
			return types.UnresolvedColumnError{Column: ref.Name, Table: ref.Table}
		}
		if ref.IsStar() || r.columns == nil || r.columns[ref.Name] {
			return nil
		}
		return types.UnresolvedColumnError{Column: ref.Name, Table: ref.Table}
	}
	if ref.IsStar() {
		return nil
	}
	for _, r := range sc {
		if r.columns == nil || r.columns[ref.Name] {
			return nil
		}
	}
	return types.UnresolvedColumnError{Column: ref.Name}
}

// outputColumns names the columns a query exposes. Nil means opaque: the
// projection is empty or contains *.
func outputColumns(q *types.Query) map[string]bool {
	if len(q.Projection) == 0 {
		return nil
	}
	cols := make(map[string]bool, len(q.Projection))
	for _, c := range q.Projection {
		switch {
		case c.Alias != "":
			cols[c.Alias] = true
		default:
			ref, ok := c.Expr.(types.ColumnRef)
			if !ok {
				continue
			}
			if ref.IsStar() {
				return nil
			}
			cols[ref.Name] = true
		}
	}
	return cols
}

func nameSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
