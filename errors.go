package promisify

import (
	"context"
	"fmt"
	"time"
)

// InvalidTargetError indicates a conversion target that is neither a
// callable nor a convertible object: nil, a primitive, a variadic func, a
// func without a trailing callback parameter, and so on.
//
// It is returned synchronously by [Converter.Convert], [Converter.Function],
// and [Converter.Object], never through a promise.
type InvalidTargetError struct {
	Target any
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("promisify: target of type %T is not convertible", e.Target)
}

// TimeoutError indicates that the configured countdown elapsed before the
// wrapped callable invoked its completion callback. It carries both the
// resolved duration and the originally configured value for diagnostics.
type TimeoutError struct {
	// Configured is the timeout as originally supplied, e.g. "2s" or 2000.
	Configured any
	// Timeout is the resolved duration.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("promisify: operation timed out after %s (configured %v)", e.Timeout, e.Configured)
}

// Is matches [context.DeadlineExceeded], so callers can treat conversion
// timeouts like any other Go deadline.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// CallbackError wraps a non-error value supplied in the error slot of an
// errFirst completion callback. The original value is preserved verbatim in
// Value.
type CallbackError struct {
	Value any
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return fmt.Sprintf("promisify: callback error: %v", e.Value)
}

// Unwrap returns the underlying error if the callback value is an error
// type, enabling [errors.Is] and [errors.As] matching through the chain.
// Returns nil otherwise.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PanicError wraps a panic value recovered from a wrapped target.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("promisify: target panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// If the panic Value is not an error (e.g. a string), returns nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TypeError represents a type error: a value that is not of the expected
// type or shape, such as a malformed timeout value or a wrapped call with
// the wrong arguments.
type TypeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Message == "" {
		return "promisify: type error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and
// [errors.As].
func (e *TypeError) Unwrap() error {
	return e.Cause
}

func fmtTypeMismatch(got, want any) string {
	return fmt.Sprintf("promisify: result of type %T is not assignable to %T", got, want)
}
