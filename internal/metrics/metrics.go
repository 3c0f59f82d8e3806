// Package metrics exposes the service's Prometheus instrumentation.
// Counters mirror what the control plane dashboards already track for the
// other Hexabase services: request volume/latency, JWT validation outcomes,
// tool executions, and LLM round trips.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiops_requests_total",
		Help: "HTTP requests processed, by method, endpoint and status code.",
	}, []string{"method", "endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aiops_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	jwtValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiops_jwt_validations_total",
		Help: "JWT validation attempts by outcome.",
	}, []string{"status"})

	toolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiops_tool_executions_total",
		Help: "Orchestrator tool executions by tool and outcome.",
	}, []string{"tool", "status"})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiops_llm_requests_total",
		Help: "LLM completion calls by outcome.",
	}, []string{"status"})

	llmDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aiops_llm_request_duration_seconds",
		Help:    "LLM completion call latency.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordJWTValidation(status string) {
	jwtValidations.WithLabelValues(status).Inc()
}

func RecordToolExecution(tool, status string) {
	toolExecutions.WithLabelValues(tool, status).Inc()
}

func RecordLLMRequest(status string, duration time.Duration) {
	llmRequests.WithLabelValues(status).Inc()
	llmDuration.Observe(duration.Seconds())
}
