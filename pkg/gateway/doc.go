// Package gateway implements the HTTP surface of the failover gateway.
//
// Each configured endpoint exposes POST <route>/chat/completions. The
// handler authenticates the caller, parses the chat completion request,
// and hands it to the dispatcher, relaying the winning provider's
// response verbatim, either as a single JSON body or as an SSE stream.
//
// All gateway-originated errors use the OpenAI-compatible error
// envelope so existing SDKs interpret failures correctly. Responses
// forwarded from a provider keep the provider's status code and body
// untouched.
//
// The package also serves the operational surface: /health (liveness),
// /status (provider snapshot), and /status/history (recent dispatch
// outcomes), the latter two gated by the master key.
package gateway
