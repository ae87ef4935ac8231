package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
)

// completionsPath is appended to the provider base URL for both
// synchronous and streaming calls.
const completionsPath = "/chat/completions"

// Client is the HTTP client for one upstream provider. It owns a pooled
// http.Client bounded by the provider's configured timeout.
//
// Client is stateless with respect to liveness; it reports failures as
// typed errors and leaves the dead-marking decision to the caller.
type Client struct {
	config Config
	client *http.Client

	// streamClient shares the transport but has no overall timeout:
	// a stream may legitimately run past the per-attempt timeout, which
	// still bounds its connection and response-header phases via the
	// transport.
	streamClient *http.Client
}

// NewClient creates a client for one provider with connection pooling.
func NewClient(config Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.Timeout,
		ForceAttemptHTTP2:     true,
	}

	return &Client{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// Name returns the provider name this client talks to.
func (c *Client) Name() string {
	return c.config.Name
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Send performs a synchronous completion call and returns the upstream
// response body verbatim on success. Non-2xx responses and transport
// failures are returned as typed errors; transport failures are retried
// against this same provider up to the configured retry count.
func (c *Client) Send(ctx context.Context, req *ChatRequest) ([]byte, error) {
	resp, err := c.post(ctx, c.client, req, c.config.Retries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StreamError{
			Provider: c.config.Name,
			Message:  "failed to read response body",
			Cause:    err,
		}
	}
	return body, nil
}

// Stream opens a streaming completion call. On success the returned
// StreamReader yields the raw SSE data payloads; the caller must drain
// or Close it to release the connection. The configured timeout bounds
// only the connection and response headers, never the body relay.
func (c *Client) Stream(ctx context.Context, req *ChatRequest) (*StreamReader, error) {
	resp, err := c.post(ctx, c.streamClient, req, c.config.Retries)
	if err != nil {
		return nil, err
	}
	return newStreamReader(c.config.Name, resp.Body), nil
}

// Probe issues the minimal synthetic completion used by the recovery
// prober. A probe is a single attempt: retries would only delay the next
// scheduled probe tick.
func (c *Client) Probe(ctx context.Context) error {
	req := NewProbeRequest(c.config.ProbeModelName())

	resp, err := c.post(ctx, c.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// post sends the request and returns the response on any 2xx status.
// Transport-class failures are retried with exponential backoff up to
// retries additional attempts; HTTP-level failures are classified and
// returned immediately so the dispatcher can fail over.
func (c *Client) post(ctx context.Context, httpClient *http.Client, req *ChatRequest, retries int) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + completionsPath

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying upstream request",
				"provider", c.config.Name,
				"attempt", attempt,
				"retries", retries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, err := httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				// Caller cancelled or deadline hit; don't retry.
				return nil, ctx.Err()
			}
			if isTimeout(err) {
				return nil, &TimeoutError{
					Provider: c.config.Name,
					Timeout:  c.config.Timeout,
				}
			}

			lastErr = &TransportError{Provider: c.config.Name, Cause: err}
			slog.Warn("upstream request failed, will retry",
				"provider", c.config.Name,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, &AuthError{
				Provider:   c.config.Name,
				StatusCode: resp.StatusCode,
				Body:       errBody,
			}
		case http.StatusTooManyRequests:
			return nil, &RateLimitError{
				Provider:   c.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Body:       errBody,
			}
		default:
			return nil, &UpstreamError{
				Provider:   c.config.Name,
				StatusCode: resp.StatusCode,
				Body:       errBody,
			}
		}
	}

	return nil, lastErr
}

// Close releases pooled connections. The client must not be used after
// Close.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// isTimeout reports whether a transport error was caused by the
// per-attempt timeout rather than an immediate connection failure.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// parseRetryAfter parses the Retry-After header value, supporting both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
