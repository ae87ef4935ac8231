// Package server ties the gateway's handlers, middleware, and endpoint
// registry into one HTTP server and manages its lifecycle.
//
// Each configured endpoint is mounted at <route>/chat/completions
// behind its own auth gate; the operational surface (/health, /status,
// /status/history, and the metrics path) is mounted alongside. Requests
// pass through recovery, request ID, logging, and CORS middleware in
// that order.
//
// Start blocks until the context is cancelled, an OS signal (SIGINT,
// SIGTERM) arrives, or the listener fails, then shuts down gracefully
// within the configured shutdown timeout.
package server
