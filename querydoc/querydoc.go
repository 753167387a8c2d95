// Package querydoc builds queries from YAML documents.
//
// A document mirrors the builder: one key per clause, with expressions as
// nested nodes.
//
//	from: {table: employees, alias: e}
//	select:
//	  - {expr: {col: department}, as: department}
//	  - {expr: {agg: AVG, args: [{col: salary}]}, as: avg_salary}
//	where: {op: ">", left: {col: salary}, right: {lit: 50000}}
//	group_by: [{col: department}]
//	order_by: [{expr: {col: avg_salary}, desc: true}]
//	limit: 10
//
// Function calls are checked against a functions.Registry while the document
// is built, so unknown names and arity mistakes surface from Parse.
package querydoc

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relq"
	"github.com/zoobzio/relq/functions"
)

// Document is one query.
type Document struct {
	From     *Source    `yaml:"from"`
	Where    *Node      `yaml:"where"`
	Having   *Node      `yaml:"having"`
	Qualify  *Node      `yaml:"qualify"`
	Limit    *int64     `yaml:"limit"`
	Offset   *int64     `yaml:"offset"`
	CTEs     []CTE      `yaml:"ctes"`
	Joins    []Join     `yaml:"joins"`
	Select   []Column   `yaml:"select"`
	GroupBy  []Node     `yaml:"group_by"`
	Windows  []Window   `yaml:"windows"`
	OrderBy  []Order    `yaml:"order_by"`
	Union    []Document `yaml:"union"`
	UnionAll []Document `yaml:"union_all"`
	Distinct bool       `yaml:"distinct"`
}

// Source is a table or a nested query with an alias.
type Source struct {
	Query *Document `yaml:"query"`
	Table string    `yaml:"table"`
	Alias string    `yaml:"alias"`
}

// Join adds a source to the left-deep join chain.
type Join struct {
	Source `yaml:",inline"`
	On     *Node  `yaml:"on"`
	Kind   string `yaml:"kind"`
}

// CTE declares a common table expression. Exactly one of Query and Raw is set.
type CTE struct {
	Query     *Document `yaml:"query"`
	Name      string    `yaml:"name"`
	Raw       string    `yaml:"raw"`
	Columns   []string  `yaml:"columns"`
	Recursive bool      `yaml:"recursive"`
}

// Column is one projection entry.
type Column struct {
	Expr Node   `yaml:"expr"`
	As   string `yaml:"as"`
}

// Order is one sort key.
type Order struct {
	Expr Node `yaml:"expr"`
	Desc bool `yaml:"desc"`
}

// Window is a named window definition.
type Window struct {
	Spec `yaml:",inline"`
	Name string `yaml:"name"`
}

// Spec is a window specification.
type Spec struct {
	Frame       *Frame  `yaml:"frame"`
	PartitionBy []Node  `yaml:"partition_by"`
	OrderBy     []Order `yaml:"order_by"`
}

// Frame is a ROWS or RANGE frame. Bounds are written as "unbounded preceding",
// "3 preceding", "current row", "2 following" or "unbounded following".
type Frame struct {
	Kind  string `yaml:"kind"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Parse decodes data and builds the query. A nil registry uses functions.Default().
func Parse(data []byte, reg *functions.Registry) (*relq.Query, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return doc.Build(reg)
}

// Load reads and parses the document at path.
func Load(path string, reg *functions.Registry) (*relq.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read query document %s", path)
	}
	q, err := Parse(data, reg)
	if err != nil {
		return nil, errors.Wrapf(err, "query document %s", path)
	}
	return q, nil
}

// Decode parses YAML into a Document. Unknown keys are rejected.
func Decode(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty query document")
		}
		return nil, errors.Wrap(err, "decode query document")
	}
	return &doc, nil
}

// Build converts the document to a query through relq.Builder.
func (d *Document) Build(reg *functions.Registry) (*relq.Query, error) {
	if reg == nil {
		reg = functions.Default()
	}
	b, err := d.builder(reg)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func (d *Document) builder(reg *functions.Registry) (*relq.Builder, error) {
	b := relq.NewQuery()

	for _, c := range d.CTEs {
		switch {
		case c.Query != nil && c.Raw != "":
			return nil, errors.Errorf("CTE %s: set either query or raw, not both", c.Name)
		case c.Query != nil:
			body, err := c.Query.builder(reg)
			if err != nil {
				return nil, errors.Wrapf(err, "CTE %s", c.Name)
			}
			if c.Recursive {
				b.WithRecursiveCTE(c.Name, body, c.Columns...)
			} else {
				b.WithCTE(c.Name, body, c.Columns...)
			}
		default:
			b.WithRawCTE(c.Name, c.Raw, c.Recursive, c.Columns...)
		}
	}

	if d.From != nil {
		src, err := d.From.source(reg)
		if err != nil {
			return nil, errors.Wrap(err, "from")
		}
		b.Source(src)
	}

	for i, j := range d.Joins {
		kind, err := joinKind(j.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "joins[%d]", i)
		}
		src, err := j.source(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "joins[%d]", i)
		}
		var on relq.Expression
		if j.On != nil {
			if on, err = j.On.Expr(reg); err != nil {
				return nil, errors.Wrapf(err, "joins[%d].on", i)
			}
		}
		b.Join(kind, src, on)
	}

	for i, c := range d.Select {
		e, err := c.Expr.Expr(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "select[%d]", i)
		}
		b.Select(relq.As(e, c.As))
	}

	if d.Where != nil {
		e, err := d.Where.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "where")
		}
		b.Filter(e)
	}

	if len(d.GroupBy) > 0 {
		keys, err := exprs(d.GroupBy, reg)
		if err != nil {
			return nil, errors.Wrap(err, "group_by")
		}
		b.GroupBy(keys...)
	}

	if d.Having != nil {
		e, err := d.Having.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "having")
		}
		b.Having(e)
	}

	if d.Qualify != nil {
		e, err := d.Qualify.Expr(reg)
		if err != nil {
			return nil, errors.Wrap(err, "qualify")
		}
		b.Qualify(e)
	}

	for _, w := range d.Windows {
		spec, err := w.Spec.windowSpec(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "window %s", w.Name)
		}
		b.Window(w.Name, spec)
	}

	if len(d.OrderBy) > 0 {
		keys, err := orders(d.OrderBy, reg)
		if err != nil {
			return nil, errors.Wrap(err, "order_by")
		}
		b.Order(keys...)
	}

	if d.Distinct {
		b.Distinct()
	}
	if d.Limit != nil {
		b.Limit(*d.Limit)
	}
	if d.Offset != nil {
		b.Offset(*d.Offset)
	}

	for i := range d.Union {
		other, err := d.Union[i].builder(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "union[%d]", i)
		}
		b.Union(other)
	}
	for i := range d.UnionAll {
		other, err := d.UnionAll[i].builder(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "union_all[%d]", i)
		}
		b.UnionAll(other)
	}

	return b, b.Err()
}

func (s Source) source(reg *functions.Registry) (relq.Source, error) {
	switch {
	case s.Query != nil && s.Table != "":
		return nil, errors.New("set either table or query, not both")
	case s.Query != nil:
		sub, err := s.Query.builder(reg)
		if err != nil {
			return nil, errors.Wrapf(err, "subquery %s", s.Alias)
		}
		q, err := sub.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "subquery %s", s.Alias)
		}
		if s.Alias == "" {
			return nil, errors.New("subquery requires an alias")
		}
		return relq.Subquery{Query: q, Alias: s.Alias}, nil
	case s.Table != "":
		return relq.T(s.Table, aliasArgs(s.Alias)...), nil
	default:
		return nil, errors.New("source requires a table or a query")
	}
}

func aliasArgs(alias string) []string {
	if alias == "" {
		return nil
	}
	return []string{alias}
}

func joinKind(kind string) (relq.JoinKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "inner":
		return relq.InnerJoin, nil
	case "left":
		return relq.LeftJoin, nil
	case "right":
		return relq.RightJoin, nil
	case "full":
		return relq.FullJoin, nil
	case "cross":
		return relq.CrossJoin, nil
	default:
		return "", errors.Errorf("unknown join kind %q", kind)
	}
}
