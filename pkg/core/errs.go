package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBar          = errors.New("invalid bar")
	ErrNonMonotonicTime    = errors.New("non-monotonic bar timestamps")
	ErrNegativeValue       = errors.New("negative value")
	ErrInvalidTimeframe    = errors.New("invalid timeframe")
	ErrMisalignedIndicator = errors.New("indicator not aligned with bars")
	ErrDegenerateGeometry  = errors.New("degenerate viewport geometry")
	ErrCanvasNotSet        = errors.New("drawing canvas not attached")
	ErrInsufficientAnchors = errors.New("not enough anchors to commit shape")
	ErrUnknownTool         = errors.New("unknown drawing tool")
)

// ErrorKind classifies failures raised by the chart core
type ErrorKind int

const (
	KindInput        ErrorKind = iota // KindInput is malformed bar or indicator data, rejected at ingestion.
	KindGeometry                      // KindGeometry is a degenerate viewport, corrected by clamping.
	KindPrecondition                  // KindPrecondition is an operation invoked before required setup.
	KindTool                          // KindTool is a shape committed without enough anchors.
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGeometry:
		return "geometry"
	case KindPrecondition:
		return "precondition"
	case KindTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Error is a classified chart error. Err holds the sentinel cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that raised it
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries a chart Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Kind == kind
}
