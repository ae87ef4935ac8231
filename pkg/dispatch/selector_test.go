package dispatch

import (
	"testing"

	"sundial-hq/meridian/pkg/registry"
	"sundial-hq/meridian/pkg/upstream"
)

func poolEndpoint(t *testing.T, mode registry.Mode, names ...string) *registry.Endpoint {
	t.Helper()
	providers := make([]upstream.Config, 0, len(names))
	for _, name := range names {
		providers = append(providers, upstream.Config{
			Name:    name,
			BaseURL: "https://" + name + ".example.com/v1",
		})
	}

	reg, err := registry.New([]registry.EndpointSpec{{
		Route:     "/pool",
		Mode:      mode,
		Providers: providers,
	}})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg.Lookup("/pool")
}

func names(providers []*registry.Provider) []string {
	out := make([]string, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Name())
	}
	return out
}

func TestSelectOrderedKeepsConfiguredOrder(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeOrdered, "a", "b", "c")

	got := names(Select(ep))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Select() = %v, want %v", got, want)
		}
	}
}

func TestSelectFiltersDeadProviders(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeOrdered, "a", "b", "c")
	ep.Providers()[1].MarkDead()

	got := names(Select(ep))
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("Select() = %v, want [a c]", got)
	}
}

func TestSelectEmptyWhenAllDead(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeOrdered, "a", "b")
	for _, p := range ep.Providers() {
		p.MarkDead()
	}

	if got := Select(ep); len(got) != 0 {
		t.Fatalf("Select() = %v, want empty", names(got))
	}
}

func TestSelectRandomIsAPermutationOfLiveProviders(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeRandom, "a", "b", "c", "d")
	ep.Providers()[3].MarkDead()

	for i := 0; i < 50; i++ {
		got := names(Select(ep))
		if len(got) != 3 {
			t.Fatalf("Select() = %v, want 3 live providers", got)
		}
		seen := map[string]bool{}
		for _, name := range got {
			if name == "d" {
				t.Fatalf("Select() = %v, includes dead provider", got)
			}
			if seen[name] {
				t.Fatalf("Select() = %v, duplicate provider", got)
			}
			seen[name] = true
		}
	}
}

func TestSelectRandomVariesOrder(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeRandom, "a", "b", "c", "d", "e")

	first := names(Select(ep))
	for i := 0; i < 200; i++ {
		got := names(Select(ep))
		for j := range got {
			if got[j] != first[j] {
				return
			}
		}
	}
	t.Fatal("200 random selections produced identical order")
}

func TestSelectRevivedProviderIsCandidateAgain(t *testing.T) {
	ep := poolEndpoint(t, registry.ModeOrdered, "a", "b")
	p := ep.Providers()[0]

	p.MarkDead()
	if got := names(Select(ep)); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Select() = %v, want [b]", got)
	}

	p.Revive()
	if got := names(Select(ep)); len(got) != 2 || got[0] != "a" {
		t.Fatalf("Select() = %v, want [a b]", got)
	}
}
