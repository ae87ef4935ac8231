package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sundial-hq/meridian/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector() *Collector {
	return NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
}

func TestRecordRequest(t *testing.T) {
	c := newTestCollector()

	c.RecordRequest("/fast", "success", false, 250*time.Millisecond)
	c.RecordRequest("/fast", "success", false, 500*time.Millisecond)
	c.RecordRequest("/fast", "exhausted", true, time.Second)

	got := testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("/fast", "success", "false"))
	if got != 2 {
		t.Errorf("requests_total{success} = %v, want 2", got)
	}
	got = testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("/fast", "exhausted", "true"))
	if got != 1 {
		t.Errorf("requests_total{exhausted} = %v, want 1", got)
	}
}

func TestRecordStreamChunk(t *testing.T) {
	c := newTestCollector()

	c.RecordStreamChunk("/fast")
	c.RecordStreamChunk("/fast")

	if got := testutil.ToFloat64(c.requestMetrics.streamChunks.WithLabelValues("/fast")); got != 2 {
		t.Errorf("stream_chunks_total = %v, want 2", got)
	}
}

func TestProviderLivenessGauge(t *testing.T) {
	c := newTestCollector()

	c.UpdateProviderLiveness("/fast", "openai-main", true)
	if got := testutil.ToFloat64(c.providerMetrics.live.WithLabelValues("/fast", "openai-main")); got != 1 {
		t.Errorf("provider_live = %v, want 1", got)
	}

	c.UpdateProviderLiveness("/fast", "openai-main", false)
	if got := testutil.ToFloat64(c.providerMetrics.live.WithLabelValues("/fast", "openai-main")); got != 0 {
		t.Errorf("provider_live = %v, want 0", got)
	}
}

func TestAttemptAndFailoverCounters(t *testing.T) {
	c := newTestCollector()

	c.RecordAttempt("/fast", "openai-main", "dead_marked")
	c.RecordFailover("/fast")
	c.RecordAttempt("/fast", "backup", "success")
	c.RecordExhaustion("/slow")
	c.RecordProbe("openai-main", "revived")

	if got := testutil.ToFloat64(c.providerMetrics.failoversTotal.WithLabelValues("/fast")); got != 1 {
		t.Errorf("failovers_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.providerMetrics.exhaustedTotal.WithLabelValues("/slow")); got != 1 {
		t.Errorf("exhausted_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.providerMetrics.probesTotal.WithLabelValues("openai-main", "revived")); got != 1 {
		t.Errorf("probes_total = %v, want 1", got)
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())

	c.RecordRequest("/fast", "success", false, time.Second)
	c.RecordAttempt("/fast", "openai-main", "success")

	if got := testutil.ToFloat64(c.requestMetrics.requestsTotal.WithLabelValues("/fast", "success", "false")); got != 0 {
		t.Errorf("requests_total = %v, want 0 when disabled", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.RecordRequest("/fast", "success", false, time.Second)
	c.RecordAttempt("/fast", "openai-main", "success")
	c.RecordFailover("/fast")
	c.RecordExhaustion("/fast")
	c.UpdateProviderLiveness("/fast", "openai-main", true)
	c.RecordProbe("openai-main", "revived")
	c.RecordStreamChunk("/fast")

	if c.Registry() != nil {
		t.Error("Registry() on nil collector should be nil")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := newTestCollector()
	c.RecordRequest("/fast", "success", false, time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "meridian_requests_total") {
		t.Error("exposition output missing meridian_requests_total")
	}
}
