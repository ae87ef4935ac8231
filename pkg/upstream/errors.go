package upstream

import (
	"fmt"
	"time"
)

// UpstreamError represents a non-2xx response from a provider that is not
// an authentication or rate-limit failure. The body is kept verbatim so
// client-class errors can be forwarded to the caller unchanged.
type UpstreamError struct {
	// Provider is the name of the provider that returned the error.
	Provider string

	// StatusCode is the HTTP status code of the upstream response.
	StatusCode int

	// Body is the raw upstream response body.
	Body []byte
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Body))
}

// AuthError represents a credential rejection by the provider
// (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected the credential.
	Provider string

	// StatusCode is 401 or 403.
	StatusCode int

	// Body is the raw upstream response body.
	Body []byte
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed (status %d): %s", e.Provider, e.StatusCode, truncate(e.Body))
}

// RateLimitError represents a rate-limit rejection (HTTP 429), including
// the Retry-After hint when the provider supplied one.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request.
	Provider string

	// RetryAfter is the duration the provider asked us to wait, zero if
	// not provided.
	RetryAfter time.Duration

	// Body is the raw upstream response body.
	Body []byte
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s)", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("provider %q rate limit exceeded", e.Provider)
}

// TimeoutError represents an attempt that exceeded the provider's
// configured timeout.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred.
	Provider string

	// Timeout is the configured per-attempt timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// TransportError represents a network-level failure (connection refused,
// DNS failure, reset) before a usable HTTP response was received.
type TransportError struct {
	// Provider is the name of the provider being contacted.
	Provider string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %q transport error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StreamError represents a failure while reading an already-open
// response stream.
type StreamError struct {
	// Provider is the name of the provider whose stream failed.
	Provider string

	// Message describes where in the stream lifecycle the failure
	// occurred.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// truncate caps error bodies included in messages so a large upstream
// response does not flood the logs.
func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
