package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes recorded by TurnsTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeMeta      = "meta"
	OutcomeFailed    = "failed"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tutor_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_turns_total",
			Help: "Conversation turns by outcome",
		},
		[]string{"outcome"},
	)

	AdaptationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_adaptations_total",
			Help: "Adaptations applied to model replies, by label",
		},
		[]string{"adaptation"},
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutor_completion_duration_seconds",
			Help:    "Completion service latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutor_active_sessions",
			Help: "Number of live tutoring sessions",
		},
	)
)
