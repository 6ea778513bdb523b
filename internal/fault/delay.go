package fault

import (
	"math"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NoRetryDelay is the sentinel delay for failures that carry no usable
// backoff hint.
const NoRetryDelay int64 = -1

// RetryInfoKey is the trailing-metadata key under which servers attach a
// binary google.rpc.RetryInfo message.
const RetryInfoKey = "google.rpc.retryinfo-bin"

// ExtractRetryDelay decodes a serialized google.rpc.RetryInfo and returns
// its delay in milliseconds. A missing, undecodable or zero-length delay
// yields NoRetryDelay.
func ExtractRetryDelay(raw []byte) int64 {
	if raw == nil {
		return NoRetryDelay
	}

	var info errdetails.RetryInfo
	if err := proto.Unmarshal(raw, &info); err != nil {
		return NoRetryDelay
	}
	return RetryDelayFromDuration(info.GetRetryDelay())
}

// RetryDelayFromDuration converts a protobuf duration into milliseconds,
// rounding the sub-millisecond part half away from zero. Nil, zero and
// invalid durations (out of the ±10,000 year range, or nanos out of range
// or of the wrong sign) yield NoRetryDelay.
func RetryDelayFromDuration(d *durationpb.Duration) int64 {
	seconds, nanos := d.GetSeconds(), d.GetNanos()
	if seconds == 0 && nanos == 0 {
		return NoRetryDelay
	}
	if d.CheckValid() != nil {
		return NoRetryDelay
	}
	millis := seconds*1000 + int64(math.Round(float64(nanos)/1e6))
	if millis < 0 {
		return NoRetryDelay
	}
	return millis
}

// RetryInfoFromTrailer returns the raw RetryInfo side channel from trailing
// metadata, or nil when the server did not send one. When the key repeats
// the last value wins.
func RetryInfoFromTrailer(md metadata.MD) []byte {
	vals := md.Get(RetryInfoKey)
	if len(vals) == 0 {
		return nil
	}
	return []byte(vals[len(vals)-1])
}

// retryDelayFromDetails scans status details for a RetryInfo message.
func retryDelayFromDetails(details []any) int64 {
	for _, d := range details {
		if info, ok := d.(*errdetails.RetryInfo); ok {
			return RetryDelayFromDuration(info.GetRetryDelay())
		}
	}
	return NoRetryDelay
}
