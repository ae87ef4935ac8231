package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sundial-hq/meridian/internal/upstreamtest"
	"sundial-hq/meridian/pkg/dispatch"
	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/upstream"
)

const chatBody = `{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`

func newChatHandler(t *testing.T, configs ...upstream.Config) (*ChatHandler, *registry.Registry) {
	t.Helper()

	reg, err := registry.New([]registry.EndpointSpec{{
		Route:     "/v1",
		Providers: configs,
	}})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	ep := reg.Lookup("/v1")
	d := dispatch.New(dispatch.Options{})
	return NewChatHandler(ep, d, nil, nil), reg
}

func postChat(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatHandlerRelaysSuccess(t *testing.T) {
	const upstreamBody = `{"id":"chatcmpl-1","choices":[{"message":{"content":"hello"}}]}`
	srv := upstreamtest.New(upstreamtest.Completion(upstreamBody))
	handler, _ := newChatHandler(t, srv.ProviderConfig("primary"))

	rec := postChat(handler, chatBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != upstreamBody {
		t.Errorf("body = %q, want upstream body verbatim", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestChatHandlerCallerCancelWritesNoEnvelope(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"never"}`))
	handler, _ := newChatHandler(t, srv.ProviderConfig("primary"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(chatBody)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want nothing written to a gone caller", rec.Body.String())
	}
	if srv.RequestCount() != 0 {
		t.Errorf("upstream contacted %d times after cancel", srv.RequestCount())
	}
}

func TestChatHandlerFailsOver(t *testing.T) {
	failing := upstreamtest.New(upstreamtest.Status(http.StatusInternalServerError, `{"error":"down"}`))
	backup := upstreamtest.New(upstreamtest.Completion(`{"id":"backup"}`))
	handler, reg := newChatHandler(t,
		failing.ProviderConfig("failing"),
		backup.ProviderConfig("backup"),
	)

	rec := postChat(handler, chatBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "backup") {
		t.Errorf("body = %q, want backup response", rec.Body.String())
	}
	if !reg.Lookup("/v1").Providers()[0].IsDead() {
		t.Error("failing provider not marked dead")
	}
}

func TestChatHandlerForwardsClientError(t *testing.T) {
	const upstreamBody = `{"error":{"message":"model not found","type":"invalid_request_error"}}`
	srv := upstreamtest.New(upstreamtest.Status(http.StatusNotFound, upstreamBody))
	backup := upstreamtest.New(upstreamtest.Completion(`{"id":"backup"}`))
	handler, reg := newChatHandler(t,
		srv.ProviderConfig("primary"),
		backup.ProviderConfig("backup"),
	)

	rec := postChat(handler, chatBody)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 forwarded", rec.Code)
	}
	if got := rec.Body.String(); got != upstreamBody {
		t.Errorf("body = %q, want provider body verbatim", got)
	}
	if reg.Lookup("/v1").Providers()[0].IsDead() {
		t.Error("provider marked dead on forwarded client error")
	}
	if backup.RequestCount() != 0 {
		t.Errorf("backup contacted %d times, want 0", backup.RequestCount())
	}
}

func TestChatHandlerExhaustion(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Status(http.StatusServiceUnavailable, `{"error":"down"}`))
	handler, _ := newChatHandler(t, srv.ProviderConfig("only"))

	// First request dead-marks the provider and exhausts.
	rec := postChat(handler, chatBody)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if resp.Error.Message != "no providers available" {
		t.Errorf("message = %q, want uniform exhaustion message", resp.Error.Message)
	}
	if resp.Error.Type != ErrorTypeServiceUnavailable {
		t.Errorf("type = %q, want %q", resp.Error.Type, ErrorTypeServiceUnavailable)
	}

	// Second request exhausts without contacting the upstream again.
	before := srv.RequestCount()
	rec = postChat(handler, chatBody)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("second status = %d, want 503", rec.Code)
	}
	if srv.RequestCount() != before {
		t.Error("dead provider contacted on second request")
	}
}

func TestChatHandlerInvalidRequests(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"x"}`))
	handler, _ := newChatHandler(t, srv.ProviderConfig("primary"))

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"model": `, CodeInvalidJSON},
		{"empty messages", `{"model":"gpt-4o","messages":[]}`, CodeMissingField},
		{"missing messages", `{"model":"gpt-4o"}`, CodeMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error envelope: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}

	if srv.RequestCount() != 0 {
		t.Errorf("provider contacted %d times for invalid requests, want 0", srv.RequestCount())
	}
}

func TestChatHandlerRejectsNonPost(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"x"}`))
	handler, _ := newChatHandler(t, srv.ProviderConfig("primary"))

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandlerStreams(t *testing.T) {
	payloads := []string{
		`{"choices":[{"delta":{"content":"hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
	}
	srv := upstreamtest.New(upstreamtest.Stream(payloads, true))
	handler, _ := newChatHandler(t, srv.ProviderConfig("primary"))

	body := `{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	rec := postChat(handler, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	var events []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}

	want := append(append([]string{}, payloads...), "[DONE]")
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestChatHandlerStreamCutMarksDeadAndTruncates(t *testing.T) {
	payloads := []string{`{"choices":[{"delta":{"content":"partial"}}]}`}
	srv := upstreamtest.New(upstreamtest.CutStream(payloads))
	backup := upstreamtest.New(upstreamtest.Stream([]string{`{"id":"backup"}`}, true))
	handler, reg := newChatHandler(t,
		srv.ProviderConfig("primary"),
		backup.ProviderConfig("backup"),
	)

	body := `{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	rec := postChat(handler, body)

	out := rec.Body.String()
	if !strings.Contains(out, "partial") {
		t.Errorf("output %q missing relayed chunk", out)
	}
	if strings.Contains(out, "[DONE]") {
		t.Errorf("output %q contains terminator after mid-stream failure", out)
	}
	if strings.Contains(out, "backup") {
		t.Errorf("output %q contains fallback data after bytes were relayed", out)
	}
	if !reg.Lookup("/v1").Providers()[0].IsDead() {
		t.Error("provider not marked dead after mid-stream failure")
	}
	if backup.RequestCount() != 0 {
		t.Errorf("backup contacted %d times after committed stream, want 0", backup.RequestCount())
	}
}
