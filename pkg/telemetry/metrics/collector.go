package metrics

import (
	"time"

	"sundial-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in Meridian.
// It manages metric registration and provides a unified interface for
// recording metrics across the gateway, dispatcher, and recovery prober.
//
// A nil *Collector is valid and records nothing, so components can take a
// collector without caring whether metrics are enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "meridian"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		providerMetrics: NewProviderMetrics(cfg, registry),
	}
}

// RecordRequest records metrics for a completed gateway request.
//
// Parameters:
//   - endpoint: virtual endpoint route (e.g., "/fast")
//   - status: request outcome ("success", "forwarded", "exhausted", "invalid")
//   - streamed: whether the response was relayed as a stream
//   - duration: total request duration including all failover attempts
func (c *Collector) RecordRequest(endpoint, status string, streamed bool, duration time.Duration) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.requestMetrics.RecordRequest(endpoint, status, streamed, duration)
}

// RecordStreamChunk counts one SSE event relayed to a client.
func (c *Collector) RecordStreamChunk(endpoint string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.requestMetrics.RecordStreamChunk(endpoint)
}

// RecordAttempt records a single dispatch attempt against a provider.
//
// Parameters:
//   - endpoint: virtual endpoint route
//   - provider: provider name
//   - outcome: attempt outcome ("success", "dead_marked", "forwarded")
func (c *Collector) RecordAttempt(endpoint, provider, outcome string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordAttempt(endpoint, provider, outcome)
}

// RecordFailover records that a request moved past a failed provider to the
// next one in the pool.
func (c *Collector) RecordFailover(endpoint string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordFailover(endpoint)
}

// RecordExhaustion records that a request ran out of providers.
func (c *Collector) RecordExhaustion(endpoint string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordExhaustion(endpoint)
}

// UpdateProviderLiveness updates the liveness gauge for a provider.
// The gauge is 1 when the provider is live and 0 when it is dead.
func (c *Collector) UpdateProviderLiveness(endpoint, provider string, live bool) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.providerMetrics.UpdateLiveness(endpoint, provider, live)
}

// RecordProbe records a recovery probe result.
//
// Parameters:
//   - provider: provider name
//   - outcome: probe outcome ("revived", "still_dead")
func (c *Collector) RecordProbe(provider, outcome string) {
	if c == nil || !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordProbe(provider, outcome)
}

// Registry returns the Prometheus registry used by this collector, for
// mounting the exposition handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
