package types

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrMissingSource      = errors.New("missing source")
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrUnknownFunction    = errors.New("unknown function")
	ErrArity              = errors.New("wrong number of arguments")
	ErrInvalidFrame       = errors.New("invalid window frame")
	ErrUnresolvedColumn   = errors.New("unresolved column")
	ErrUnknownTable       = errors.New("unknown table")
	ErrUndefinedWindow    = errors.New("undefined window")
	ErrInvalidJoin        = errors.New("invalid join")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// MissingSourceError is returned when a clause is applied before a source exists.
type MissingSourceError struct {
	Clause string
}

func (e MissingSourceError) Error() string {
	return fmt.Sprintf("%s requires a source: call From first", e.Clause)
}

func (e MissingSourceError) Is(target error) bool { return target == ErrMissingSource }

// UnsupportedDialectError is returned when no generator is registered for a dialect.
type UnsupportedDialectError struct {
	Dialect Dialect
}

func (e UnsupportedDialectError) Error() string {
	return fmt.Sprintf("no generator registered for dialect %q", string(e.Dialect))
}

func (e UnsupportedDialectError) Is(target error) bool { return target == ErrUnsupportedDialect }

// UnknownFunctionError is returned when a function name has no descriptor.
type UnknownFunctionError struct {
	Name string
}

func (e UnknownFunctionError) Error() string {
	return fmt.Sprintf("function %s is not registered", e.Name)
}

func (e UnknownFunctionError) Is(target error) bool { return target == ErrUnknownFunction }

// ArityError is returned when a call's argument count does not fit its descriptor.
type ArityError struct {
	Name     string
	Expected string
	Got      int
}

func (e ArityError) Error() string {
	return fmt.Sprintf("function %s expects %s argument(s), got %d", e.Name, e.Expected, e.Got)
}

func (e ArityError) Is(target error) bool { return target == ErrArity }

// InvalidFrameError is returned for frame bounds that describe an impossible window.
type InvalidFrameError struct {
	Reason string
	Frame  Frame
}

func (e InvalidFrameError) Error() string {
	return fmt.Sprintf("invalid %s frame: %s", e.Frame.Kind, e.Reason)
}

func (e InvalidFrameError) Is(target error) bool { return target == ErrInvalidFrame }

// UnresolvedColumnError is returned when a declared schema has no such column.
type UnresolvedColumnError struct {
	Column string
	Table  string
}

func (e UnresolvedColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("column '%s.%s' not found in schema", e.Table, e.Column)
	}
	return fmt.Sprintf("column '%s' not found in schema", e.Column)
}

func (e UnresolvedColumnError) Is(target error) bool { return target == ErrUnresolvedColumn }

// UnknownTableError is returned when a declared schema has no such table.
type UnknownTableError struct {
	Table string
}

func (e UnknownTableError) Error() string {
	return fmt.Sprintf("table '%s' not found in schema", e.Table)
}

func (e UnknownTableError) Is(target error) bool { return target == ErrUnknownTable }

// UndefinedWindowError is returned when a window call references a name the
// query never defines.
type UndefinedWindowError struct {
	Name string
}

func (e UndefinedWindowError) Error() string {
	return fmt.Sprintf("window %s is not defined", e.Name)
}

func (e UndefinedWindowError) Is(target error) bool { return target == ErrUndefinedWindow }

// InvalidJoinError is returned for joins that break the ON-clause invariant.
type InvalidJoinError struct {
	Kind   JoinKind
	Reason string
}

func (e InvalidJoinError) Error() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Reason)
}

func (e InvalidJoinError) Is(target error) bool { return target == ErrInvalidJoin }

// InvalidArgumentError is returned when a function argument is outside the
// values the function accepts, such as an unknown date part.
type InvalidArgumentError struct {
	Function string
	Reason   string
	Index    int
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s argument %d: %s", e.Function, e.Index+1, e.Reason)
}

func (e InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
