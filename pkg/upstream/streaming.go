package upstream

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// StreamReader reads Server-Sent Events from an open upstream response
// and yields the raw data payloads one at a time, in order, exactly as
// the upstream produced them. It is a single-pass, forward-only reader.
type StreamReader struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

// maxChunkSize bounds a single SSE line; completion deltas are small but
// tool-call payloads can run long.
const maxChunkSize = 1 << 20

// newStreamReader wraps an open response body in a StreamReader.
func newStreamReader(provider string, body io.ReadCloser) *StreamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkSize)

	return &StreamReader{
		provider: provider,
		body:     body,
		scanner:  scanner,
	}
}

// Next returns the next raw data payload from the stream.
// It returns io.EOF when the upstream signals completion ("[DONE]") or
// closes the stream normally, and a StreamError if the connection fails
// mid-stream.
func (s *StreamReader) Next(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &StreamError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}

		// Skip comments and event-type lines; only data frames are
		// relayed.
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, io.EOF
		}

		return []byte(data), nil
	}
}

// Close closes the stream and releases the upstream connection.
func (s *StreamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
