package render

// LimitStyle selects how a dialect spells pagination.
type LimitStyle int

const (
	LimitOffset LimitStyle = iota // LIMIT n OFFSET m
	OffsetFetch                   // OFFSET m ROWS FETCH NEXT n ROWS ONLY
)

// Capabilities describes the query features supported by a dialect.
type Capabilities struct {
	Qualify         bool       // QUALIFY clause
	NamedWindows    bool       // trailing WINDOW name AS (...)
	FullJoin        bool       // FULL JOIN
	RightJoin       bool       // RIGHT JOIN
	RecursiveWord   bool       // RECURSIVE keyword after WITH
	RawCTE          bool       // CTE bodies given as raw text
	RangeOffsets    bool       // RANGE frames with numeric offsets
	BooleanLiterals bool       // TRUE/FALSE literals; otherwise 1/0
	Limit           LimitStyle // pagination syntax
}
