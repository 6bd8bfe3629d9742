package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated tracks notifications raised by the rule engine
	// or ad-hoc sends.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notification_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type", "company_id", "source"},
	)

	// DuplicatesSuppressed tracks notifications the dedup guard blocked.
	DuplicatesSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notification_duplicates_suppressed_total",
			Help: "Total number of notifications suppressed as same-day duplicates",
		},
		[]string{"type", "company_id"},
	)

	// Deliveries tracks per-channel delivery outcomes.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notification_deliveries_total",
			Help: "Total number of channel delivery attempts",
		},
		[]string{"channel", "company_id", "status"},
	)

	// DeliveryDuration tracks gateway send latency per channel.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lease_notification_delivery_duration_seconds",
			Help:    "Gateway send duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// EvaluationRuns tracks rule evaluation passes.
	EvaluationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notification_evaluation_runs_total",
			Help: "Total number of rule evaluation passes",
		},
		[]string{"outcome"},
	)

	// EvaluationDuration tracks rule evaluation pass duration.
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lease_notification_evaluation_duration_seconds",
			Help:    "Rule evaluation pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SchedulesGenerated tracks payment schedules generated at contract
	// intake.
	SchedulesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_schedule_generated_total",
			Help: "Total number of payment schedules generated",
		},
		[]string{"company_id", "frequency"},
	)

	// DeliveryQueueSize tracks the current delivery queue depth.
	DeliveryQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lease_notification_delivery_queue_size",
			Help: "Current number of jobs in the delivery queue",
		},
	)

	// RateLimitExceeded tracks rate limit violations per company.
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notification_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"company_id"},
	)

	// ConsumerRestarts tracks contract event consumer restarts.
	ConsumerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lease_notification_consumer_restarts_total",
			Help: "Total number of contract event consumer restarts",
		},
	)
)
