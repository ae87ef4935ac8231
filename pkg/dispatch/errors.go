package dispatch

import (
	"errors"

	"sundial-hq/meridian/pkg/upstream"
)

// ErrNoProviders is returned when a dispatch runs out of candidates,
// whether the pool was empty to begin with or every candidate failed.
// The message is deliberately uniform: the caller is told nothing about
// which providers exist or how they failed.
var ErrNoProviders = errors.New("no providers available")

// IsDeadMarking reports whether a provider failure should mark the
// provider dead and trigger failover.
//
// Dead-marking failures are credential rejections (401/403), rate limits
// (429), server errors (any 5xx), per-attempt timeouts, and transport
// failures. Every other upstream status is a client-class error that is
// forwarded verbatim with provider state unchanged.
func IsDeadMarking(err error) bool {
	var (
		authErr      *upstream.AuthError
		rateErr      *upstream.RateLimitError
		timeoutErr   *upstream.TimeoutError
		transportErr *upstream.TransportError
		streamErr    *upstream.StreamError
	)
	if errors.As(err, &authErr) ||
		errors.As(err, &rateErr) ||
		errors.As(err, &timeoutErr) ||
		errors.As(err, &transportErr) ||
		errors.As(err, &streamErr) {
		return true
	}

	var upErr *upstream.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode >= 500
	}

	return false
}

// AsForwardable extracts the upstream error to forward verbatim to the
// caller, if err is a client-class response that must not trigger
// failover. It returns nil for dead-marking failures.
func AsForwardable(err error) *upstream.UpstreamError {
	if IsDeadMarking(err) {
		return nil
	}
	var upErr *upstream.UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}
	return nil
}
