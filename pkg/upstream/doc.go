// Package upstream implements the client side of the gateway: one Client
// per configured provider, speaking the OpenAI-compatible chat-completion
// protocol over HTTP.
//
// A Client supports three operations:
//
//   - Send: a synchronous completion call returning the upstream response
//     body verbatim
//   - Stream: a streaming completion call returning raw SSE data payloads
//     one at a time
//   - Probe: a minimal synthetic completion used to test whether a
//     provider has recovered
//
// Failures are classified into typed errors (AuthError, RateLimitError,
// UpstreamError, TimeoutError, TransportError, StreamError) so the
// dispatch layer can decide between marking a provider dead, forwarding
// the upstream response to the caller, or failing over.
//
// The package does not track provider liveness itself; that state lives
// in the registry and is driven by the dispatcher and the recovery
// prober.
package upstream
