package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_completed_total",
			Help: "Total number of stage executions that produced usable output",
		},
		[]string{"stage", "status"},
	)

	StageFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_failed_total",
			Help: "Total number of stage executions that escalated an error",
		},
		[]string{"stage", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of stage execution in seconds",
		},
		[]string{"stage"},
	)

	MessagesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_messages_delivered_total",
			Help: "Delivery attempts by language and outcome",
		},
		[]string{"language", "outcome"},
	)

	RateGateWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_rate_gate_wait_seconds",
			Help: "Time spent blocked on the rate gate per channel",
		},
		[]string{"channel"},
	)
)
