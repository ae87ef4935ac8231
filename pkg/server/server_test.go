package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"sundial-hq/meridian/internal/upstreamtest"
	"sundial-hq/meridian/pkg/config"
	"sundial-hq/meridian/pkg/dispatch"
	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/telemetry/metrics"
	"sundial-hq/meridian/pkg/upstream"
)

func newTestServer(t *testing.T, providers ...upstream.Config) *Server {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{MasterKey: "master"},
		Endpoints: []config.EndpointConfig{
			{Route: "/v1", APIKey: "endpoint-key"},
		},
		Telemetry: config.TelemetryConfig{
			Metrics: config.MetricsConfig{Enabled: true},
		},
	}
	config.ApplyDefaults(cfg)

	reg, err := registry.New([]registry.EndpointSpec{{
		Route:     "/v1",
		APIKey:    "endpoint-key",
		Providers: providers,
	}})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	return New(Options{
		Config:     cfg,
		Registry:   reg,
		Dispatcher: dispatch.New(dispatch.Options{}),
		Metrics:    metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
	})
}

func TestHandlerRoutes(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"chatcmpl-1"}`))
	s := newTestServer(t, srv.ProviderConfig("primary"))
	handler := s.Handler()

	const chatBody = `{"messages":[{"role":"user","content":"hi"}]}`

	tests := []struct {
		name     string
		method   string
		path     string
		bearer   string
		body     string
		wantCode int
	}{
		{"health open", http.MethodGet, "/health", "", "", http.StatusOK},
		{"status needs master key", http.MethodGet, "/status", "", "", http.StatusUnauthorized},
		{"status with master key", http.MethodGet, "/status", "master", "", http.StatusOK},
		{"history needs master key", http.MethodGet, "/status/history", "", "", http.StatusUnauthorized},
		{"history disabled", http.MethodGet, "/status/history", "master", "", http.StatusNotFound},
		{"chat needs endpoint key", http.MethodPost, "/v1/chat/completions", "", chatBody, http.StatusUnauthorized},
		{"chat with endpoint key", http.MethodPost, "/v1/chat/completions", "endpoint-key", chatBody, http.StatusOK},
		{"chat with master key", http.MethodPost, "/v1/chat/completions", "master", chatBody, http.StatusOK},
		{"metrics exposition", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestHandlerSkipsMetricsOnDedicatedPort(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"chatcmpl-1"}`))
	s := newTestServer(t, srv.ProviderConfig("primary"))
	s.config.Telemetry.Metrics.Port = 9100

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d on the gateway listener", rec.Code, http.StatusNotFound)
	}
	if msrv := s.metricsHandlerServer(); msrv == nil || msrv.Addr != ":9100" {
		t.Errorf("metricsHandlerServer() = %+v, want listener on :9100", msrv)
	}
}

func TestHandlerAddsRequestID(t *testing.T) {
	srv := upstreamtest.New(upstreamtest.Completion(`{"id":"chatcmpl-1"}`))
	s := newTestServer(t, srv.ProviderConfig("primary"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header on response")
	}
}
