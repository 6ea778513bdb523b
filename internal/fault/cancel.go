package fault

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
)

const cancelledDescription = "Current context was cancelled"

// ExecutionContext is the cancellation state of the call that failed.
type ExecutionContext interface {
	IsCancelled() bool
	// CancellationCause returns why the context was cancelled, or nil when
	// it was plainly cancelled with no further reason.
	CancellationCause() error
}

// Cancellation is a fixed ExecutionContext, handy when the host already
// knows the outcome.
type Cancellation struct {
	Cancelled bool
	Cause     error
}

func (c Cancellation) IsCancelled() bool        { return c.Cancelled }
func (c Cancellation) CancellationCause() error { return c.Cause }

// ContextSignal adapts a context.Context to ExecutionContext. A context
// cancelled without a cause reports no cause; a deadline reports
// context.DeadlineExceeded.
type ContextSignal struct {
	Ctx context.Context
}

func (s ContextSignal) IsCancelled() bool {
	return s.Ctx.Err() != nil
}

func (s ContextSignal) CancellationCause() error {
	if s.Ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(s.Ctx)
	if errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

// FromCancellation classifies a failure reported as a cancellation. An
// explicit cause, or failing that the context's own cause, is classified
// normally since it says more than the cancellation does. Only a bare
// cancellation yields KindCancelled.
func FromCancellation(ec ExecutionContext, cause error) *Error {
	if cause != nil {
		return FromError(cause)
	}
	if ec != nil && ec.IsCancelled() {
		if c := ec.CancellationCause(); c != nil {
			return FromError(c)
		}
	}
	return cancelled(nil)
}

func cancelled(cause error) *Error {
	return &Error{
		Kind:       KindCancelled,
		Code:       codes.Canceled,
		Message:    renderMessage(codes.Canceled, cancelledDescription),
		RetryDelay: NoRetryDelay,
		Cause:      cause,
	}
}
