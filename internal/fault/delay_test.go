package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
)

func retryInfo(t *testing.T, d *durationpb.Duration) []byte {
	t.Helper()
	raw, err := proto.Marshal(&errdetails.RetryInfo{RetryDelay: d})
	require.NoError(t, err)
	if raw == nil {
		raw = []byte{}
	}
	return raw
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		d    *durationpb.Duration
		want int64
	}{
		{"one second one milli", &durationpb.Duration{Seconds: 1, Nanos: 1_000_000}, 1001},
		{"seconds only", &durationpb.Duration{Seconds: 3}, 3000},
		{"nanos only", &durationpb.Duration{Nanos: 250_000_000}, 250},
		{"rounds half up", &durationpb.Duration{Nanos: 1_500_000}, 2},
		{"rounds down below half", &durationpb.Duration{Nanos: 1_499_999}, 1},
		{"sub milli rounds to zero", &durationpb.Duration{Nanos: 400_000}, 0},
		{"zero duration", &durationpb.Duration{}, NoRetryDelay},
		{"unset duration", nil, NoRetryDelay},
		{"negative", &durationpb.Duration{Seconds: -2}, NoRetryDelay},
		{"largest valid duration", &durationpb.Duration{Seconds: 315_576_000_000}, 315_576_000_000_000},
		{"seconds past valid range", &durationpb.Duration{Seconds: 1 << 62}, NoRetryDelay},
		{"seconds wrap millis", &durationpb.Duration{Seconds: 18_446_744_073_709_552}, NoRetryDelay},
		{"nanos overflow a second", &durationpb.Duration{Seconds: 1, Nanos: 1_000_000_000}, NoRetryDelay},
		{"nanos sign mismatch", &durationpb.Duration{Seconds: 1, Nanos: -1}, NoRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRetryDelay(retryInfo(t, tt.d)))
		})
	}
}

func TestExtractRetryDelay_Absent(t *testing.T) {
	assert.Equal(t, NoRetryDelay, ExtractRetryDelay(nil))
}

func TestExtractRetryDelay_Malformed(t *testing.T) {
	// Field 1, length-delimited, claims 10 bytes but carries 2.
	assert.Equal(t, NoRetryDelay, ExtractRetryDelay([]byte{0x0a, 0x0a, 0x08, 0x01}))
	assert.Equal(t, NoRetryDelay, ExtractRetryDelay([]byte{0xff, 0xff, 0xff}))
}

func TestRetryDelayFromDuration_Invalid(t *testing.T) {
	assert.Equal(t, NoRetryDelay, RetryDelayFromDuration(&durationpb.Duration{Seconds: -1 << 62}))
	assert.Equal(t, NoRetryDelay, RetryDelayFromDuration(&durationpb.Duration{Seconds: 315_576_000_001}))
	assert.Equal(t, NoRetryDelay, RetryDelayFromDuration(&durationpb.Duration{Nanos: -1_000_000_000}))
	assert.Equal(t, int64(1), RetryDelayFromDuration(&durationpb.Duration{Nanos: 999_999}))
}

func TestRetryInfoFromTrailer(t *testing.T) {
	raw := retryInfo(t, &durationpb.Duration{Seconds: 2})

	md := metadata.Pairs(RetryInfoKey, string(raw))
	assert.Equal(t, raw, RetryInfoFromTrailer(md))
	assert.Equal(t, int64(2000), ExtractRetryDelay(RetryInfoFromTrailer(md)))

	assert.Nil(t, RetryInfoFromTrailer(nil))
	assert.Nil(t, RetryInfoFromTrailer(metadata.Pairs("other-key", "x")))
}

func TestRetryInfoFromTrailer_LastValueWins(t *testing.T) {
	first := retryInfo(t, &durationpb.Duration{Seconds: 1})
	last := retryInfo(t, &durationpb.Duration{Seconds: 5})

	md := metadata.MD{}
	md.Append(RetryInfoKey, string(first), string(last))
	assert.Equal(t, int64(5000), ExtractRetryDelay(RetryInfoFromTrailer(md)))
}
