package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_classifications_total",
			Help: "Total number of successful intent classifications by intent",
		},
		[]string{"intent"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_pipeline_failures_total",
			Help: "Total number of pipeline failures by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_gateway_call_duration_seconds",
			Help: "Duration of outbound gateway calls in seconds",
		},
		[]string{"gateway"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_classification_cache_total",
			Help: "Classification cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
