package metrics

import (
	"sundial-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks metrics for individual upstream providers.
//
// Metrics:
//   - meridian_provider_attempts_total: dispatch attempts by endpoint, provider, outcome
//   - meridian_provider_failovers_total: requests that moved past a failed provider
//   - meridian_provider_exhausted_total: requests that ran out of providers
//   - meridian_provider_live: liveness gauge (1=live, 0=dead)
//   - meridian_provider_probes_total: recovery probe results by provider, outcome
type ProviderMetrics struct {
	attemptsTotal  *prometheus.CounterVec
	failoversTotal *prometheus.CounterVec
	exhaustedTotal *prometheus.CounterVec
	live           *prometheus.GaugeVec
	probesTotal    *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_attempts_total",
				Help:      "Total number of dispatch attempts against providers",
			},
			[]string{"endpoint", "provider", "outcome"},
		),

		failoversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_failovers_total",
				Help:      "Total number of failovers to a subsequent provider",
			},
			[]string{"endpoint"},
		),

		exhaustedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_exhausted_total",
				Help:      "Total number of requests that exhausted all providers",
			},
			[]string{"endpoint"},
		),

		live: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_live",
				Help:      "Provider liveness (1=live, 0=dead)",
			},
			[]string{"endpoint", "provider"},
		),

		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_probes_total",
				Help:      "Total number of recovery probes by outcome",
			},
			[]string{"provider", "outcome"},
		),
	}

	registry.MustRegister(
		pm.attemptsTotal,
		pm.failoversTotal,
		pm.exhaustedTotal,
		pm.live,
		pm.probesTotal,
	)

	return pm
}

// RecordAttempt records a single dispatch attempt.
func (pm *ProviderMetrics) RecordAttempt(endpoint, provider, outcome string) {
	pm.attemptsTotal.WithLabelValues(endpoint, provider, outcome).Inc()
}

// RecordFailover records a failover to a subsequent provider.
func (pm *ProviderMetrics) RecordFailover(endpoint string) {
	pm.failoversTotal.WithLabelValues(endpoint).Inc()
}

// RecordExhaustion records a request that exhausted all providers.
func (pm *ProviderMetrics) RecordExhaustion(endpoint string) {
	pm.exhaustedTotal.WithLabelValues(endpoint).Inc()
}

// UpdateLiveness updates the liveness gauge for a provider.
func (pm *ProviderMetrics) UpdateLiveness(endpoint, provider string, live bool) {
	v := 0.0
	if live {
		v = 1.0
	}
	pm.live.WithLabelValues(endpoint, provider).Set(v)
}

// RecordProbe records a recovery probe result.
func (pm *ProviderMetrics) RecordProbe(provider, outcome string) {
	pm.probesTotal.WithLabelValues(provider, outcome).Inc()
}
