package registry

import (
	"testing"

	"sundial-hq/meridian/pkg/upstream"
)

func newTestRegistry(t *testing.T, specs ...EndpointSpec) *Registry {
	t.Helper()
	r, err := New(specs)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRejectsDuplicateRoutes(t *testing.T) {
	_, err := New([]EndpointSpec{
		{Route: "/v1"},
		{Route: "/v1"},
	})
	if err == nil {
		t.Fatal("New() error = nil, want duplicate route error")
	}
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t,
		EndpointSpec{Route: "/fast"},
		EndpointSpec{Route: "/slow"},
	)

	if ep := r.Lookup("/fast"); ep == nil || ep.Route() != "/fast" {
		t.Errorf("Lookup(/fast) = %v", ep)
	}
	if ep := r.Lookup("/missing"); ep != nil {
		t.Errorf("Lookup(/missing) = %v, want nil", ep)
	}
}

func TestEndpointDefaultsToOrderedMode(t *testing.T) {
	r := newTestRegistry(t, EndpointSpec{Route: "/v1"})

	if mode := r.Lookup("/v1").Mode(); mode != ModeOrdered {
		t.Errorf("Mode() = %q, want %q", mode, ModeOrdered)
	}
}

func TestProviderLivenessLifecycle(t *testing.T) {
	r := newTestRegistry(t, EndpointSpec{
		Route:     "/v1",
		Providers: []upstream.Config{{Name: "primary"}},
	})
	p := r.Lookup("/v1").Providers()[0]

	if p.IsDead() {
		t.Fatal("new provider should be live")
	}

	p.MarkDead()
	if !p.IsDead() {
		t.Error("provider should be dead after MarkDead")
	}
	if s := p.Snapshot(); s.LastFailedAt == nil {
		t.Error("Snapshot().LastFailedAt = nil after MarkDead")
	}

	p.Revive()
	if p.IsDead() {
		t.Error("provider should be live after Revive")
	}
	if s := p.Snapshot(); s.LastFailedAt != nil {
		t.Error("Revive should clear LastFailedAt")
	}
}

func TestProviderSnapshotTimestamps(t *testing.T) {
	r := newTestRegistry(t, EndpointSpec{
		Route:     "/v1",
		Providers: []upstream.Config{{Name: "primary"}},
	})
	p := r.Lookup("/v1").Providers()[0]

	if s := p.Snapshot(); s.LastUsedAt != nil {
		t.Error("LastUsedAt should be nil before first use")
	}

	p.MarkUsed()
	if s := p.Snapshot(); s.LastUsedAt == nil {
		t.Error("LastUsedAt = nil after MarkUsed")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := newTestRegistry(t,
		EndpointSpec{
			Route: "/fast",
			Mode:  ModeRandom,
			Providers: []upstream.Config{
				{Name: "primary"},
				{Name: "backup"},
			},
		},
		EndpointSpec{Route: "/slow"},
	)
	r.Lookup("/fast").Providers()[1].MarkDead()

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(snap))
	}
	if snap[0].Route != "/fast" || snap[0].Mode != ModeRandom {
		t.Errorf("snapshot[0] = %+v", snap[0])
	}
	if len(snap[0].Providers) != 2 {
		t.Fatalf("len(providers) = %d, want 2", len(snap[0].Providers))
	}
	if snap[0].Providers[0].Dead {
		t.Error("primary should be live")
	}
	if !snap[0].Providers[1].Dead {
		t.Error("backup should be dead")
	}
}

func TestModelOverride(t *testing.T) {
	r := newTestRegistry(t, EndpointSpec{
		Route: "/v1",
		Providers: []upstream.Config{
			{Name: "forced", Model: "forced-model"},
			{Name: "plain"},
		},
	})
	providers := r.Lookup("/v1").Providers()

	if got := providers[0].ModelOverride(); got != "forced-model" {
		t.Errorf("ModelOverride() = %q, want %q", got, "forced-model")
	}
	if got := providers[1].ModelOverride(); got != "" {
		t.Errorf("ModelOverride() = %q, want empty", got)
	}
}
