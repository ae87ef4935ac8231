// Package metrics provides Prometheus metrics for Meridian.
//
// The Collector bundles request-level and provider-level metric families and
// exposes them through a promhttp handler. All recording methods are safe on
// a nil Collector, which is how components behave when metrics are disabled.
//
// Metric families:
//
//	meridian_requests_total{endpoint,status,streamed}
//	meridian_request_duration_seconds{endpoint}
//	meridian_provider_attempts_total{endpoint,provider,outcome}
//	meridian_provider_failovers_total{endpoint}
//	meridian_provider_exhausted_total{endpoint}
//	meridian_provider_live{endpoint,provider}
//	meridian_provider_probes_total{provider,outcome}
package metrics
