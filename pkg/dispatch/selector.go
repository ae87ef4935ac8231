package dispatch

import (
	"math/rand/v2"

	"sundial-hq/meridian/pkg/registry"
)

// Select returns the endpoint's candidate providers for one dispatch:
// the currently-live providers in the endpoint's attempt order.
//
// Ordered endpoints keep configured order, so the first live provider is
// always preferred and the rest are failover. Random endpoints get a
// fresh uniform permutation per call; no rotation state is kept between
// requests.
//
// The candidate list is fixed at selection time. A provider that dies
// after selection (for example under a concurrent request) is still
// attempted; its own failure handling will mark it dead again.
func Select(ep *registry.Endpoint) []*registry.Provider {
	providers := ep.Providers()

	if ep.Mode() == registry.ModeRandom {
		shuffled := make([]*registry.Provider, len(providers))
		for i, j := range rand.Perm(len(providers)) {
			shuffled[i] = providers[j]
		}
		providers = shuffled
	}

	live := providers[:0]
	for _, p := range providers {
		if !p.IsDead() {
			live = append(live, p)
		}
	}
	return live
}
