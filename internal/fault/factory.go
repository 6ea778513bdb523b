package fault

import (
	"context"
	"errors"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Failure is a transport failure before classification.
type Failure struct {
	Code        codes.Code
	Description string

	// RetryInfo is the raw google.rpc.RetryInfo side channel, nil if absent.
	RetryInfo []byte
}

// Classify runs the failure through the classifier, the delay extractor
// and kind selection.
func (f Failure) Classify() *Error {
	return classify(f.Code, f.Description, ExtractRetryDelay(f.RetryInfo), nil)
}

// FromTransportFailure classifies a status-bearing transport failure.
func FromTransportFailure(c codes.Code, description string, retryInfo []byte) *Error {
	return Failure{Code: c, Description: description, RetryInfo: retryInfo}.Classify()
}

// FromAPIFailure classifies an API-level failure. API errors carry no
// side channel, so the delay is always NoRetryDelay.
func FromAPIFailure(c codes.Code, message string) *Error {
	return classify(c, message, NoRetryDelay, nil)
}

// FromStatus classifies a gRPC status together with the call's trailing
// metadata. The trailer side channel wins over a RetryInfo status detail.
func FromStatus(st *status.Status, trailer metadata.MD) *Error {
	if st == nil {
		return classify(codes.Unknown, "", NoRetryDelay, nil)
	}
	delay := ExtractRetryDelay(RetryInfoFromTrailer(trailer))
	if delay == NoRetryDelay {
		delay = retryDelayFromDetails(st.Details())
	}
	return classify(st.Code(), st.Message(), delay, st.Err())
}

// FromError classifies any failure the host hands over. It returns nil for
// a nil error and an existing *Error unchanged.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.Canceled) {
		return cancelled(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classify(codes.DeadlineExceeded, err.Error(), NoRetryDelay, err)
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		e := fromAPIError(ae)
		e.Cause = err
		return e
	}

	// errors.As rather than status.FromError: the latter rewrites the
	// message of a wrapped status to the wrapper's text.
	var gs interface{ GRPCStatus() *status.Status }
	if errors.As(err, &gs) {
		if st := gs.GRPCStatus(); st != nil {
			e := FromStatus(st, nil)
			e.Cause = err
			return e
		}
	}

	return classify(codes.Unknown, err.Error(), NoRetryDelay, err)
}

func fromAPIError(ae *apierror.APIError) *Error {
	if st := ae.GRPCStatus(); st != nil {
		return FromAPIFailure(st.Code(), st.Message())
	}
	return FromAPIFailure(codeFromHTTP(ae.HTTPCode()), ae.Error())
}

// codeFromHTTP maps HTTP statuses to gRPC codes following the table in
// google/rpc/code.proto.
func codeFromHTTP(httpCode int) codes.Code {
	switch httpCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case 499:
		return codes.Canceled
	case http.StatusInternalServerError:
		return codes.Internal
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}

func classify(c codes.Code, description string, delay int64, cause error) *Error {
	retryable := IsRetryable(c, description)
	if c == codes.ResourceExhausted && delay != NoRetryDelay {
		// The server told us how long to back off.
		retryable = true
	}

	kind, retryable := SelectKind(c, description, retryable)
	var resource string
	if kind == KindSessionNotFound {
		resource, _ = sessionResource(c, description)
	}

	return &Error{
		Kind:       kind,
		Code:       c,
		Message:    renderMessage(c, description),
		Retryable:  retryable,
		RetryDelay: delay,
		Resource:   resource,
		Cause:      cause,
	}
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Retryable classifies err and reports whether it may be retried.
func Retryable(err error) bool {
	fe := FromError(err)
	return fe != nil && fe.Retryable
}

// IsAborted reports whether err classifies as KindAborted.
func IsAborted(err error) bool {
	fe := FromError(err)
	return fe != nil && fe.Kind == KindAborted
}

// IsSessionExpired reports whether err names a session the server no longer holds.
func IsSessionExpired(err error) bool {
	fe := FromError(err)
	return fe != nil && fe.Kind == KindSessionNotFound
}

// IsCancelled reports whether err is a local cancellation.
func IsCancelled(err error) bool {
	fe := FromError(err)
	return fe != nil && fe.Kind == KindCancelled
}
