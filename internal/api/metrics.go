package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayscope_http_requests_total",
			Help: "HTTP requests served, by method, endpoint, and status code.",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stayscope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stayscope_pipeline_runs_total",
			Help: "Pipeline runs triggered over the API, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func recordRequest(method, endpoint string, status int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func recordPipelineRun(kind string, err error) {
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	pipelineRunsTotal.WithLabelValues(kind, outcome).Inc()
}
