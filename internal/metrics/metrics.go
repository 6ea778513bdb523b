package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FailuresTotal counts classified RPC failures
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_failures_total",
			Help: "Total number of classified RPC failures",
		},
		[]string{"kind", "code", "retryable"},
	)

	// RetryDelay tracks server-suggested retry delays
	RetryDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faultline_retry_delay_seconds",
			Help:    "Retry delay attached to failures by the server, in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// ProbesTotal tracks health probes by outcome
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_probes_total",
			Help: "Total number of health probes",
		},
		[]string{"target", "outcome"},
	)
)
