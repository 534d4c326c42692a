package grainmesh

import (
	"errors"
	"fmt"
)

// Kind classifies errors and diagnostics. Kind values are errors
// themselves so that errors.Is(err, InvalidTopology) matches any *Error of
// that kind.
type Kind int

const (
	_ Kind = iota
	// InvalidTopology is returned when an element references an out of range vertex.
	InvalidTopology
	// MissingInput is returned when a required array is absent or empty.
	MissingInput
	// SeedOrientationUnresolved is returned when winding repair cannot orient a
	// region seed even after reversing the mesh.
	SeedOrientationUnresolved
	// UnvisitedLabel is a diagnostic for labels never reached by winding repair.
	UnvisitedLabel
	// InvalidParameter is returned for out of range algorithm parameters.
	InvalidParameter
)

func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	switch k {
	case InvalidTopology:
		return "invalid topology"
	case MissingInput:
		return "missing input"
	case SeedOrientationUnresolved:
		return "seed orientation unresolved"
	case UnvisitedLabel:
		return "unvisited label"
	case InvalidParameter:
		return "invalid parameter"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code returns the numeric code reported to the host's error sink.
func (k Kind) Code() int {
	if k <= 0 {
		return -500
	}
	return -500 - int(k)
}

// Error is the structured error reported by mesh operations.
type Error struct {
	Kind Kind
	Code int
	Msg  string
}

// Errorf returns an *Error of kind k with a formatted message.
func Errorf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Code: k.Code(), Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Diagnostic is a non fatal finding reported alongside a result.
type Diagnostic struct {
	Kind Kind
	// Label is the region label the diagnostic refers to, if any.
	Label int32
	// Count is the number of elements involved.
	Count int
	Msg   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s label=%d count=%d: %s", d.Kind, d.Label, d.Count, d.Msg)
}
