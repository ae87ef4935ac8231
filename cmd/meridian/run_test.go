package main

import (
	"testing"
	"time"

	"sundial-hq/meridian/pkg/config"
	"sundial-hq/meridian/pkg/registry"
)

func TestEndpointSpecs(t *testing.T) {
	cfg := &config.Config{
		Endpoints: []config.EndpointConfig{
			{
				Route:  "/fast",
				Mode:   "random",
				APIKey: "ep-key",
				Providers: []config.ProviderConfig{
					{
						Name:       "primary",
						BaseURL:    "https://api.example.com/v1",
						APIKey:     "sk-primary",
						Model:      "gpt-4o",
						Timeout:    30 * time.Second,
						RetryCount: 2,
					},
					{
						Name:    "backup",
						BaseURL: "https://backup.example.com/v1",
						APIKey:  "sk-backup",
						Timeout: 60 * time.Second,
					},
				},
			},
		},
		Recovery: config.RecoveryConfig{ProbeModel: "gpt-4o-mini"},
	}

	specs := endpointSpecs(cfg)

	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}

	spec := specs[0]
	if spec.Route != "/fast" {
		t.Errorf("Route = %q, want /fast", spec.Route)
	}
	if spec.Mode != registry.ModeRandom {
		t.Errorf("Mode = %q, want random", spec.Mode)
	}
	if spec.APIKey != "ep-key" {
		t.Errorf("APIKey = %q, want ep-key", spec.APIKey)
	}
	if len(spec.Providers) != 2 {
		t.Fatalf("got %d providers, want 2", len(spec.Providers))
	}

	primary := spec.Providers[0]
	if primary.Model != "gpt-4o" {
		t.Errorf("primary Model = %q, want gpt-4o", primary.Model)
	}
	if primary.ProbeModel != "gpt-4o-mini" {
		t.Errorf("primary ProbeModel = %q, want gpt-4o-mini", primary.ProbeModel)
	}
	if primary.Retries != 2 {
		t.Errorf("primary Retries = %d, want 2", primary.Retries)
	}

	// A provider with a model override probes with its own model.
	if got := primary.ProbeModelName(); got != "gpt-4o" {
		t.Errorf("primary ProbeModelName() = %q, want gpt-4o", got)
	}
	if got := spec.Providers[1].ProbeModelName(); got != "gpt-4o-mini" {
		t.Errorf("backup ProbeModelName() = %q, want gpt-4o-mini", got)
	}
}
