package rpc

import (
	"math"
	"time"

	"github.com/vietddude/faultline/internal/fault"
)

// RetryConfig defines backoff behavior for callers that retry.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    100 * time.Millisecond,
	MaxDelay:        32 * time.Second,
	BackoffMultiple: 1.3,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	// ActionReacquire means the session is gone; get a new one, then retry.
	ActionReacquire
	ActionFatal
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionReacquire:
		return "reacquire"
	case ActionFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	return actionFor(fault.FromError(err))
}

func actionFor(fe *fault.Error) ErrorAction {
	if fe == nil {
		return ActionFatal
	}

	switch {
	case fe.Kind == fault.KindSessionNotFound:
		return ActionReacquire
	case fe.Retryable:
		return ActionRetry
	default:
		return ActionFatal
	}
}

// Decide returns what to do after the given zero-based attempt failed with
// err, and how long to wait first. A server-supplied retry delay is a
// floor on the wait. Once MaxAttempts is reached every error is fatal.
// Decide never sleeps; the caller owns the loop.
func Decide(err error, attempt int, config RetryConfig) (ErrorAction, time.Duration) {
	fe := fault.FromError(err)
	action := actionFor(fe)
	if action == ActionFatal {
		return ActionFatal, 0
	}
	if config.MaxAttempts > 0 && attempt >= config.MaxAttempts-1 {
		return ActionFatal, 0
	}
	if action == ActionReacquire {
		return ActionReacquire, 0
	}

	delay := calculateBackoff(attempt, config)
	if hint, ok := fe.RetryAfter(); ok && hint > delay {
		delay = hint
	}
	return ActionRetry, delay
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
