package fault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFromCancellation_NullCause(t *testing.T) {
	e := FromCancellation(Cancellation{Cancelled: true}, nil)
	assert.Equal(t, KindCancelled, e.Kind)
	assert.Equal(t, "CANCELLED: Current context was cancelled", e.Error())
	assert.Equal(t, codes.Canceled, e.Code)
	assert.False(t, e.IsRetryable())
	assert.Equal(t, NoRetryDelay, e.RetryDelayMillis())
}

func TestFromCancellation_ExplicitCause(t *testing.T) {
	cause := status.Error(codes.Unavailable, "connection refused")
	e := FromCancellation(Cancellation{Cancelled: true}, cause)
	assert.Equal(t, KindGeneric, e.Kind)
	assert.Equal(t, codes.Unavailable, e.Code)
	assert.True(t, e.IsRetryable())
	assert.ErrorIs(t, e, cause)
}

func TestFromCancellation_ContextCause(t *testing.T) {
	cause := status.Error(codes.NotFound, sessionNotFoundMsg)
	e := FromCancellation(Cancellation{Cancelled: true, Cause: cause}, nil)
	assert.Equal(t, KindSessionNotFound, e.Kind)

	// The explicit cause is preferred over the context's.
	e = FromCancellation(Cancellation{Cancelled: true, Cause: cause}, status.Error(codes.Aborted, "x"))
	assert.Equal(t, KindAborted, e.Kind)
}

func TestFromCancellation_NotCancelled(t *testing.T) {
	e := FromCancellation(Cancellation{}, nil)
	assert.Equal(t, KindCancelled, e.Kind)

	e = FromCancellation(nil, nil)
	assert.Equal(t, KindCancelled, e.Kind)
}

func TestContextSignal(t *testing.T) {
	t.Run("live context", func(t *testing.T) {
		s := ContextSignal{Ctx: context.Background()}
		assert.False(t, s.IsCancelled())
		assert.NoError(t, s.CancellationCause())
	})

	t.Run("plain cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := ContextSignal{Ctx: ctx}
		assert.True(t, s.IsCancelled())
		assert.NoError(t, s.CancellationCause())

		e := FromCancellation(s, nil)
		assert.Equal(t, KindCancelled, e.Kind)
		assert.Equal(t, "CANCELLED: Current context was cancelled", e.Error())
	})

	t.Run("cancel with cause", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		cause := errors.New("pool shutting down")
		cancel(cause)

		s := ContextSignal{Ctx: ctx}
		assert.ErrorIs(t, s.CancellationCause(), cause)

		e := FromCancellation(s, nil)
		assert.Equal(t, KindGeneric, e.Kind)
		assert.Equal(t, "UNKNOWN: pool shutting down", e.Error())
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		e := FromCancellation(ContextSignal{Ctx: ctx}, nil)
		assert.Equal(t, codes.DeadlineExceeded, e.Code)
		assert.False(t, e.IsRetryable())
	})
}
