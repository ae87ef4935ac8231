// Package logging configures structured logging for Meridian.
//
// The package builds a log/slog logger from the telemetry configuration and
// carries per-request fields (request ID, endpoint route, provider name)
// through context.Context so handlers and the dispatcher log consistently.
package logging
