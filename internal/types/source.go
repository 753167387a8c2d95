package types

import "strings"

// Source is what a query reads from: a table, a subquery, or a join of two sources.
type Source interface {
	source()
}

// Table references a stored relation.
type Table struct {
	Name   string
	Schema string
	Alias  string
}

// Subquery is a nested query used as a source. Alias names the derived table.
type Subquery struct {
	Query *Query
	Alias string
}

// JoinKind represents the type of SQL join.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER JOIN"
	LeftJoin  JoinKind = "LEFT JOIN"
	RightJoin JoinKind = "RIGHT JOIN"
	FullJoin  JoinKind = "FULL JOIN"
	CrossJoin JoinKind = "CROSS JOIN"
)

// Short returns the kind without the JOIN keyword, e.g. "LEFT".
func (k JoinKind) Short() string {
	return strings.TrimSuffix(string(k), " JOIN")
}

// Join combines two sources. On is required for every kind except CrossJoin.
type Join struct {
	Left  Source
	Right Source
	On    Expression
	Kind  JoinKind
}

func (Table) source()    {}
func (Subquery) source() {}
func (Join) source()     {}

// Ref returns the name other clauses use to qualify the table's columns.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Validate enforces the ON-clause invariant.
func (j Join) Validate() error {
	switch j.Kind {
	case InnerJoin, LeftJoin, RightJoin, FullJoin:
		if j.On == nil {
			return InvalidJoinError{Kind: j.Kind, Reason: "requires an ON condition"}
		}
	case CrossJoin:
		if j.On != nil {
			return InvalidJoinError{Kind: j.Kind, Reason: "does not take an ON condition"}
		}
	default:
		return InvalidJoinError{Kind: j.Kind, Reason: "unknown join kind"}
	}
	if j.Left == nil || j.Right == nil {
		return InvalidJoinError{Kind: j.Kind, Reason: "requires two sources"}
	}
	return nil
}

// Tables returns every table reachable from s without descending into subqueries.
func Tables(s Source) []Table {
	switch x := s.(type) {
	case Table:
		return []Table{x}
	case Join:
		return append(Tables(x.Left), Tables(x.Right)...)
	default:
		return nil
	}
}

// Aliases returns the qualifier of every table or subquery directly in s,
// in left-to-right order.
func Aliases(s Source) []string {
	switch x := s.(type) {
	case Table:
		return []string{x.Ref()}
	case Subquery:
		return []string{x.Alias}
	case Join:
		return append(Aliases(x.Left), Aliases(x.Right)...)
	default:
		return nil
	}
}
