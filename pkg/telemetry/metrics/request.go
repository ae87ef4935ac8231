package metrics

import (
	"strconv"
	"time"

	"sundial-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics for gateway request processing.
//
// Metrics:
//   - meridian_requests_total: total request count by endpoint, status, streamed
//   - meridian_request_duration_seconds: request duration histogram by endpoint
//   - meridian_stream_chunks_total: SSE events relayed to clients by endpoint
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamChunks    *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of gateway requests processed",
			},
			[]string{"endpoint", "status", "streamed"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds, including failover attempts",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"endpoint"},
		),

		streamChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_chunks_total",
				Help:      "Total number of SSE events relayed to clients",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.streamChunks,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
func (rm *RequestMetrics) RecordRequest(endpoint, status string, streamed bool, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(endpoint, status, strconv.FormatBool(streamed)).Inc()
	rm.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordStreamChunk counts one SSE event relayed to a client.
func (rm *RequestMetrics) RecordStreamChunk(endpoint string) {
	rm.streamChunks.WithLabelValues(endpoint).Inc()
}
