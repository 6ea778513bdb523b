// Package fault turns gRPC failure signals into classified, retry-aware
// errors.
//
// A failure arrives as a status code, an optional description and an
// optional RetryInfo side channel. The factory functions in this package
// reduce it to exactly one *Error whose Kind tells the caller what to do:
//
//   - KindGeneric: retry only if Retryable is set
//   - KindAborted: always retryable, honour RetryDelay when present
//   - KindSessionNotFound: the session is gone, re-acquire it before retrying
//   - KindCancelled: the caller gave up locally, never retry
//
// Nothing in this package performs I/O, logs, sleeps or retries. All
// functions are safe for concurrent use.
package fault

import (
	"math"
	"time"

	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind identifies the variant of a classified failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindAborted
	KindSessionNotFound
	KindCancelled
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindAborted:
		return "aborted"
	case KindSessionNotFound:
		return "session_not_found"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a classified remote-call failure. Values are immutable once
// returned by the factory functions.
type Error struct {
	Kind Kind
	Code codes.Code

	// Message is rendered as "<CODE>: <description>".
	Message string

	Retryable bool

	// RetryDelay is the server-suggested wait in milliseconds, or NoRetryDelay.
	RetryDelay int64

	// Resource is the session name for KindSessionNotFound, empty otherwise.
	Resource string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying failure, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GRPCStatus lets status.FromError and status.Code see through *Error.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// IsRetryable reports whether the caller may re-issue the failed call.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// RetryDelayMillis returns the suggested delay in milliseconds, or
// NoRetryDelay (-1) when the server sent none.
func (e *Error) RetryDelayMillis() int64 {
	return e.RetryDelay
}

// RetryAfter returns the suggested delay as a duration. ok is false when
// no delay was attached. Delays past the range of time.Duration saturate.
func (e *Error) RetryAfter() (d time.Duration, ok bool) {
	if e.RetryDelay < 0 {
		return 0, false
	}
	if e.RetryDelay > math.MaxInt64/int64(time.Millisecond) {
		return math.MaxInt64, true
	}
	return time.Duration(e.RetryDelay) * time.Millisecond, true
}

// WithCause returns a copy of e annotated with cause. e is left untouched.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// CodeName renders a status code the way servers spell it on the wire,
// e.g. NOT_FOUND or RESOURCE_EXHAUSTED.
func CodeName(c codes.Code) string {
	return code.Code(c).String()
}
