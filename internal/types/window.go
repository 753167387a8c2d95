package types

import "fmt"

// Direction represents sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// OrderBy is one sort key.
type OrderBy struct {
	Expr      Expression
	Direction Direction
}

// FrameKind selects ROWS or RANGE framing.
type FrameKind string

const (
	FrameRows  FrameKind = "ROWS"
	FrameRange FrameKind = "RANGE"
)

// BoundKind identifies one end of a window frame.
type BoundKind int

const (
	UnboundedPreceding BoundKind = iota
	Preceding
	CurrentRow
	Following
	UnboundedFollowing
)

// Bound is a frame boundary. Offset is only meaningful for Preceding and Following.
type Bound struct {
	Kind   BoundKind
	Offset int64
}

// Frame restricts a window function's input rows.
type Frame struct {
	Kind  FrameKind
	Start Bound
	End   Bound
}

// WindowSpec is the PARTITION BY / ORDER BY / frame triple of an OVER clause.
type WindowSpec struct {
	Frame       *Frame
	PartitionBy []Expression
	OrderBy     []OrderBy
}

// position orders bounds along the partition: unbounded ends sit outside
// every numeric offset.
func (b Bound) position() (tier int, offset int64) {
	switch b.Kind {
	case UnboundedPreceding:
		return 0, 0
	case Preceding:
		return 1, -b.Offset
	case CurrentRow:
		return 1, 0
	case Following:
		return 1, b.Offset
	default:
		return 2, 0
	}
}

// Validate reports an InvalidFrameError when the bounds describe an empty
// or impossible window.
func (f Frame) Validate() error {
	if f.Kind != FrameRows && f.Kind != FrameRange {
		return InvalidFrameError{Frame: f, Reason: fmt.Sprintf("unknown frame kind %q", f.Kind)}
	}
	for _, b := range []Bound{f.Start, f.End} {
		if b.Kind < UnboundedPreceding || b.Kind > UnboundedFollowing {
			return InvalidFrameError{Frame: f, Reason: fmt.Sprintf("unknown bound kind %d", b.Kind)}
		}
		if (b.Kind == Preceding || b.Kind == Following) && b.Offset < 0 {
			return InvalidFrameError{Frame: f, Reason: "offset must not be negative"}
		}
	}
	if f.Start.Kind == UnboundedFollowing {
		return InvalidFrameError{Frame: f, Reason: "frame cannot start at UNBOUNDED FOLLOWING"}
	}
	if f.End.Kind == UnboundedPreceding {
		return InvalidFrameError{Frame: f, Reason: "frame cannot end at UNBOUNDED PRECEDING"}
	}
	startTier, start := f.Start.position()
	endTier, end := f.End.position()
	if startTier > endTier || (startTier == endTier && start > end) {
		return InvalidFrameError{Frame: f, Reason: "start is after end"}
	}
	return nil
}

// Validate checks the frame, if any.
func (w WindowSpec) Validate() error {
	if w.Frame == nil {
		return nil
	}
	return w.Frame.Validate()
}

// Expressions returns every partition and order expression of the spec.
func (w WindowSpec) Expressions() []Expression {
	out := make([]Expression, 0, len(w.PartitionBy)+len(w.OrderBy))
	out = append(out, w.PartitionBy...)
	for _, o := range w.OrderBy {
		out = append(out, o.Expr)
	}
	return out
}
