package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers can react to the class
// of a failure without matching on message text.
type ErrorKind string

const (
	// KindLoad: the source video could not be opened or decoded.
	KindLoad ErrorKind = "load"
	// KindAbort: an in-flight load was cancelled.
	KindAbort ErrorKind = "abort"
	// KindInvalidCrop: the crop geometry is empty, out of bounds or too large.
	KindInvalidCrop ErrorKind = "invalid_crop"
	// KindBackendUnavailable: the accelerated transform backend cannot start.
	KindBackendUnavailable ErrorKind = "backend_unavailable"
	// KindEncode: the encoder rejected a frame or failed to finalize.
	KindEncode ErrorKind = "encode"
	// KindEmptyOutput: the session finished without producing any frames.
	KindEmptyOutput ErrorKind = "empty_output"
	// KindAlreadyRunning: a session is already active.
	KindAlreadyRunning ErrorKind = "already_running"
	// KindCancelled: the session was cancelled by the user.
	KindCancelled ErrorKind = "cancelled"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error returns the message, including the cause when present.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a classified error wrapping a cause.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of err, or "" when err carries no classification.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
