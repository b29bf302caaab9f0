// ABOUTME: Error taxonomy for the snapshot analysis engine
// ABOUTME: Mirrors the pack's AppError code+message+cause pattern

package snapshot

import (
	"errors"
	"fmt"
)

// Code classifies an Error by the taxonomy spec.md §7 describes.
type Code string

const (
	// CodeDataInvariant marks a fatal violation of a structural invariant
	// discovered during initialize() (misaligned edge target, class-index
	// overflow, node count too large for shallow-size reassignment).
	CodeDataInvariant Code = "data_invariant"
	// CodeInvalidFilter is returned when a named filter doesn't exist.
	CodeInvalidFilter Code = "invalid_filter"
	// CodeOutOfRange is returned for an out-of-bounds provider window.
	CodeOutOfRange Code = "out_of_range"
	// CodeUnknownSnapshot is returned when a diff references a snapshot id
	// that was never registered.
	CodeUnknownSnapshot Code = "unknown_snapshot"
	// CodeCancelled is returned when initialize() observes a cancellation
	// signal between pipeline phases.
	CodeCancelled Code = "cancelled"
)

// Error is the engine's structured error type: a code, a human message, and
// an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against a sentinel *Error such as
// ErrCancelled: any *Error with the same Code matches.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ErrCancelled is the sentinel returned by Initialize when the caller's
// context is cancelled mid-pipeline.
var ErrCancelled = &Error{Code: CodeCancelled, Message: "initialization cancelled"}

// ErrUnknownSnapshot is returned by DiffByClassName when the peer snapshot
// id was never registered with RegisterPeer.
var ErrUnknownSnapshot = &Error{Code: CodeUnknownSnapshot, Message: "unknown snapshot id"}

// AsEngineError unwraps err into *Error, if it is one or wraps one.
func AsEngineError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
