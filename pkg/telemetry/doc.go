// Package telemetry provides observability for Meridian.
//
// # Components
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//
// Each subpackage is configured from the telemetry section of the gateway
// configuration and can be wired independently; metrics and tracing degrade
// to no-ops when disabled.
package telemetry
