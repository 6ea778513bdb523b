package fault

import (
	"strings"

	"google.golang.org/grpc/codes"
)

// Description fragments emitted by the HTTP/2 transport when a connection
// dies underneath an in-flight call. gRPC surfaces these as INTERNAL.
const (
	http2ErrorFragment       = "HTTP/2 error code"
	connectionClosedFragment = "Connection closed"
)

// IsRetryable reports whether a failure with the given status code and
// description is worth retrying. First match wins:
//
//	INTERNAL + "HTTP/2 error code"   -> true
//	INTERNAL + "Connection closed"   -> true
//	UNAVAILABLE                      -> true
//	RESOURCE_EXHAUSTED               -> false
//	ABORTED                          -> true
//	anything else                    -> false
func IsRetryable(code codes.Code, description string) bool {
	switch code {
	case codes.Internal:
		return strings.Contains(description, http2ErrorFragment) ||
			strings.Contains(description, connectionClosedFragment)
	case codes.Unavailable:
		return true
	case codes.ResourceExhausted:
		// Promoted to retryable in classify when the server attaches a delay.
		return false
	case codes.Aborted:
		return true
	default:
		return false
	}
}
