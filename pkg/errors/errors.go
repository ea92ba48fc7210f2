// Package errors provides the error types used across glassboost.
//
// All errors are compatible with the standard errors.Is / errors.As
// machinery and carry cockroachdb/errors wrapping so that %+v prints a
// stack trace when one is attached. Engine code returns these instead of
// panicking; no error crosses the public API as anything but a value.
package errors

import (
	"fmt"

	cockroach "github.com/cockroachdb/errors"
)

// Sentinel errors for common failure classes. Compare with errors.Is.
var (
	ErrEmptyData      = cockroach.New("empty data")
	ErrNotFitted      = cockroach.New("model not fitted")
	ErrInvalidIndex   = cockroach.New("index out of range")
	ErrShapeOverflow  = cockroach.New("tensor shape overflow")
	ErrNotImplemented = cockroach.New("not implemented")
)

// DimensionError reports a mismatch between an expected and an actual
// dimension or length.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("glassboost: %s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// NewDimensionError creates a DimensionError for operation op.
func NewDimensionError(op string, expected, got, axis int) error {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("glassboost: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError for operation op.
func NewValueError(op, message string) error {
	return &ValueError{Op: op, Message: message}
}

// NotFittedError reports use of a model before initialization completed.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("glassboost: %s.%s: model is not fitted", e.ModelName, e.Method)
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return &NotFittedError{ModelName: modelName, Method: method}
}

// ModelError wraps a lower-level failure with model operation context.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("glassboost: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("glassboost: %s: %s", e.Op, e.Message)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError wrapping cause (which may be nil).
func NewModelError(op, message string, cause error) error {
	return &ModelError{Op: op, Message: message, Err: cause}
}

// Re-exports so callers need a single errors import.

// New creates an error with a message and captured stack trace.
func New(msg string) error { return cockroach.New(msg) }

// Newf creates a formatted error with a captured stack trace.
func Newf(format string, args ...interface{}) error { return cockroach.Newf(format, args...) }

// Wrap annotates err with msg; returns nil if err is nil.
func Wrap(err error, msg string) error { return cockroach.Wrap(err, msg) }

// Wrapf annotates err with a formatted message; returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return cockroach.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return cockroach.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool { return cockroach.As(err, target) }
