package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vietddude/faultline/internal/fault"
	"github.com/vietddude/faultline/internal/metrics"
)

// UnaryClientInterceptor replaces every failed unary call's error with a
// *fault.Error. It asks for the call's trailers so the RetryInfo side
// channel reaches the classifier.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		var trailer metadata.MD
		opts = append(opts, grpc.Trailer(&trailer))

		err := invoker(ctx, method, req, reply, cc, opts...)
		if err == nil {
			return nil
		}
		return observe(method, classifyCall(ctx, err, trailer))
	}
}

// StreamClientInterceptor classifies failures to open a stream and any
// error other than io.EOF surfaced by RecvMsg.
func StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		cs, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			return nil, observe(method, classifyCall(ctx, err, nil))
		}
		return &classifyingStream{ClientStream: cs, ctx: ctx, method: method}, nil
	}
}

type classifyingStream struct {
	grpc.ClientStream
	ctx    context.Context
	method string
}

func (s *classifyingStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	// Trailers are readable once RecvMsg has returned an error.
	return observe(s.method, classifyCall(s.ctx, err, s.ClientStream.Trailer()))
}

// classifyCall attributes a failure to the caller's own context when that
// context is done, so a local cancel is reported as a cancellation and not
// as whatever status the transport synthesised for it.
func classifyCall(ctx context.Context, err error, trailer metadata.MD) *fault.Error {
	if fe, ok := fault.As(err); ok {
		return fe
	}
	if ctx.Err() != nil {
		// The context cause may be a *fault.Error shared with other callers.
		return fault.FromCancellation(fault.ContextSignal{Ctx: ctx}, nil).WithCause(err)
	}
	if st, ok := status.FromError(err); ok {
		return fault.FromStatus(st, trailer).WithCause(err)
	}
	return fault.FromError(err)
}

func observe(method string, fe *fault.Error) *fault.Error {
	metrics.FailuresTotal.WithLabelValues(
		fe.Kind.String(),
		fault.CodeName(fe.Code),
		strconv.FormatBool(fe.Retryable),
	).Inc()
	if d, ok := fe.RetryAfter(); ok {
		metrics.RetryDelay.WithLabelValues(fe.Kind.String()).Observe(d.Seconds())
	}

	slog.Debug("RPC failed",
		"method", method,
		"kind", fe.Kind,
		"code", fault.CodeName(fe.Code),
		"retryable", fe.Retryable,
		"retry_delay_ms", fe.RetryDelay,
		"error", fe.Message,
	)
	return fe
}
